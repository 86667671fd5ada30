// Package links maintains the durable ticket-to-Jira association table.
//
// The store is the single source of truth for which helpdesk ticket
// corresponds to which Jira issue. It is a whole-collection JSON file:
// every mutation loads the full set, changes it, and writes it back.
// A per-store mutex serializes writers; write volume is human-paced
// ticket actions, so contention is not a concern.
package links

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Link is one persisted association between a helpdesk ticket and a Jira
// issue. A ticket may carry any number of links; an issue key resolves to
// at most one ticket (first stored match wins).
type Link struct {
	TicketID string    `json:"ticket_id"`
	IssueKey string    `json:"jira_issue_key"`
	LinkedAt time.Time `json:"linked_at"`
}

// Store is a file-backed link collection.
type Store struct {
	path string
	mu   sync.Mutex
}

// NewStore creates a link store backed by the given file path. The file
// does not need to exist yet.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Normalize converts a ticket id to its canonical string form so numeric
// and string renderings of the same id compare equal.
func Normalize(id string) string {
	trimmed := strings.TrimSpace(id)
	if n, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
		return strconv.FormatInt(n, 10)
	}
	return trimmed
}

// All returns every stored link in insertion order. A missing or malformed
// file is an empty collection, never an error.
func (s *Store) All() []Link {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// ForTicket returns the links whose ticket id matches, comparing canonical
// string forms.
func (s *Store) ForTicket(ticketID string) []Link {
	want := Normalize(ticketID)

	var out []Link
	for _, l := range s.All() {
		if Normalize(l.TicketID) == want {
			out = append(out, l)
		}
	}
	return out
}

// ForIssue returns the ticket id owning the given issue key, or false if no
// link exists. The key comparison is exact and case-sensitive; if the store
// ever holds the same key twice the first entry wins.
func (s *Store) ForIssue(issueKey string) (string, bool) {
	for _, l := range s.All() {
		if l.IssueKey == issueKey {
			return Normalize(l.TicketID), true
		}
	}
	return "", false
}

// Add persists a link between a ticket and an issue. Adding a pair that is
// already stored is a no-op returning the existing entry unchanged, so
// repeated create notifications cannot duplicate links or refresh their
// timestamps.
func (s *Store) Add(ticketID, issueKey string) (Link, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all := s.load()
	want := Normalize(ticketID)
	for _, l := range all {
		if Normalize(l.TicketID) == want && l.IssueKey == issueKey {
			return l, nil
		}
	}

	entry := Link{
		TicketID: want,
		IssueKey: issueKey,
		LinkedAt: time.Now().UTC().Truncate(time.Second),
	}
	all = append(all, entry)
	if err := s.save(all); err != nil {
		return Link{}, err
	}
	return entry, nil
}

// Remove deletes every link matching exactly the (ticket, issue) pair and
// reports whether anything was removed. The file is rewritten only when
// the collection actually changed.
func (s *Store) Remove(ticketID, issueKey string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all := s.load()
	want := Normalize(ticketID)

	kept := all[:0:0]
	for _, l := range all {
		if Normalize(l.TicketID) == want && l.IssueKey == issueKey {
			continue
		}
		kept = append(kept, l)
	}

	if len(kept) == len(all) {
		return false, nil
	}
	if err := s.save(kept); err != nil {
		return false, err
	}
	return true, nil
}

// load reads the full collection. Callers hold s.mu.
func (s *Store) load() []Link {
	data, err := os.ReadFile(s.path) // #nosec G304 - controlled path from config dir
	if err != nil {
		return nil
	}

	var all []Link
	if err := json.Unmarshal(data, &all); err != nil {
		return nil
	}
	return all
}

// save writes the full collection. Callers hold s.mu.
func (s *Store) save(all []Link) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("creating links dir: %w", err)
	}

	if all == nil {
		all = []Link{}
	}
	data, err := json.MarshalIndent(all, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling links: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("writing links: %w", err)
	}
	return nil
}
