// Package mapping translates between the helpdesk status vocabulary and
// Jira status names.
//
// The two directions are independently authored tables, not inverses of
// each other: several Jira states collapse onto one helpdesk status, and
// both "resolved" and "closed" push to the single Jira "Done" state. A
// lookup miss is an explicit absence; callers treat it as "nothing to do",
// never as a default status.
package mapping

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// StatusMap holds the two directional lookup tables.
type StatusMap struct {
	jiraToTicket map[string]string
	ticketToJira map[string]string
}

// Default returns the built-in status tables.
func Default() *StatusMap {
	return &StatusMap{
		jiraToTicket: map[string]string{
			"To Do":       "open",
			"Open":        "open",
			"In Progress": "in_progress",
			"In Review":   "in_progress",
			"Done":        "resolved",
			"Resolved":    "resolved",
			"Closed":      "closed",
		},
		ticketToJira: map[string]string{
			"open":        "To Do",
			"pending":     "To Do",
			"in_progress": "In Progress",
			"resolved":    "Done",
			"closed":      "Done",
		},
	}
}

// FromJira maps a Jira status display name to a helpdesk ticket status.
// The match is exact on the display name.
func (m *StatusMap) FromJira(jiraStatus string) (string, bool) {
	s, ok := m.jiraToTicket[jiraStatus]
	return s, ok
}

// ToJira maps a helpdesk ticket status to a Jira status name. Ticket
// statuses are canonically lowercase.
func (m *StatusMap) ToJira(ticketStatus string) (string, bool) {
	s, ok := m.ticketToJira[strings.ToLower(strings.TrimSpace(ticketStatus))]
	return s, ok
}

// overrideFile is the YAML shape for user-supplied mapping overrides.
type overrideFile struct {
	FromJira map[string]string `yaml:"from_jira"`
	ToJira   map[string]string `yaml:"to_jira"`
}

// LoadFile merges user-defined entries from a YAML file over the tables.
// Entries with an empty value delete the built-in mapping, so users can
// mask a status they never want synced.
func (m *StatusMap) LoadFile(path string) error {
	data, err := os.ReadFile(path) // #nosec G304 - controlled path from config dir
	if err != nil {
		return fmt.Errorf("reading mapping overrides: %w", err)
	}

	var f overrideFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("parsing mapping overrides: %w", err)
	}

	for k, v := range f.FromJira {
		if v == "" {
			delete(m.jiraToTicket, k)
			continue
		}
		m.jiraToTicket[k] = strings.ToLower(v)
	}
	for k, v := range f.ToJira {
		key := strings.ToLower(k)
		if v == "" {
			delete(m.ticketToJira, key)
			continue
		}
		m.ticketToJira[key] = v
	}
	return nil
}
