// Package bridge contains the synchronization engine: the outbound handler
// that reacts to helpdesk ticket events and the inbound handler that applies
// Jira webhook notifications.
//
// Both handlers are best-effort by contract. A remote failure is logged and
// swallowed; it never unwinds the helpdesk event or webhook delivery that
// triggered it, and one linked issue or changelog item failing never blocks
// the others.
package bridge

import (
	"context"

	"github.com/escalatedhq/ticketbridge/internal/jira"
	"github.com/escalatedhq/ticketbridge/internal/links"
	"github.com/escalatedhq/ticketbridge/internal/settings"
)

// Ticket is the helpdesk-side record the bridge consumes. The host hands
// one to OnTicketCreated; only the mapped fields are read.
type Ticket struct {
	ID          string `json:"id"`
	Subject     string `json:"subject"`
	Description string `json:"description"`
	Status      string `json:"status"`
	Priority    string `json:"priority"`
	AssigneeID  string `json:"assignee_id,omitempty"`
}

// Host is the helpdesk callback surface the bridge mutates tickets through.
// The bridge never touches helpdesk storage directly.
type Host interface {
	// UpdateTicket applies a partial field update to a ticket.
	UpdateTicket(ctx context.Context, ticketID string, fields map[string]string) error

	// FindAgentByJiraID resolves a Jira account id to a helpdesk agent id.
	// ok is false when no agent is associated with that account.
	FindAgentByJiraID(ctx context.Context, accountID string) (agentID string, ok bool)
}

// Broadcaster publishes best-effort notification events to the host's
// realtime channel. A nil Broadcaster is valid and means "don't".
type Broadcaster interface {
	Broadcast(channel, event string, payload map[string]interface{})
}

// Remote is the slice of the Jira client the handlers drive.
type Remote interface {
	CreateIssue(ctx context.Context, req jira.CreateIssueRequest) jira.Result
	TransitionToStatus(ctx context.Context, issueKey, targetStatus string) jira.Result
}

// LinkStore is the slice of the link store the handlers consult.
type LinkStore interface {
	ForTicket(ticketID string) []links.Link
	ForIssue(issueKey string) (string, bool)
	Add(ticketID, issueKey string) (links.Link, error)
}

// StatusMapper translates between the two status vocabularies. A false
// second return is "no mapping": the caller does nothing.
type StatusMapper interface {
	FromJira(jiraStatus string) (string, bool)
	ToJira(ticketStatus string) (string, bool)
}

// newRemote builds the production Jira client for a settings snapshot.
// Tests swap this for a recording fake.
func newRemote(s *settings.Settings) Remote {
	return jira.NewClient(s)
}
