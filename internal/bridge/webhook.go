package bridge

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/escalatedhq/ticketbridge/internal/debug"
	"github.com/escalatedhq/ticketbridge/internal/telemetry"
)

// WebhookPayload is the subset of a Jira webhook notification the bridge
// consumes. Jira spells the event type two ways depending on delivery
// path, so both fields are carried.
type WebhookPayload struct {
	WebhookEvent       string `json:"webhookEvent"`
	IssueEventTypeName string `json:"issue_event_type_name"`

	Issue struct {
		Key string `json:"key"`
	} `json:"issue"`

	Changelog struct {
		Items []ChangeItem `json:"items"`
	} `json:"changelog"`
}

// ChangeItem is one field-level change record in a webhook changelog.
type ChangeItem struct {
	Field    string `json:"field"`
	To       string `json:"to"`
	ToString string `json:"toString"`
}

// EventType returns the first non-empty event-type spelling.
func (p *WebhookPayload) EventType() string {
	if p.WebhookEvent != "" {
		return p.WebhookEvent
	}
	return p.IssueEventTypeName
}

// ParsePayload decodes a raw webhook body.
func ParsePayload(data []byte) (*WebhookPayload, error) {
	var p WebhookPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parsing webhook payload: %w", err)
	}
	return &p, nil
}

// isUpdateEvent matches the two known spellings for an issue update.
func isUpdateEvent(event string) bool {
	return event == "jira:issue_updated" || event == "issue_updated"
}

// HandleWebhook applies a Jira change notification to the linked helpdesk
// ticket.
//
// Webhook deliveries may be partial, duplicated, or out of order; the
// pipeline is safe under all three because each changelog item maps to an
// idempotent partial update and misses of every kind short-circuit to
// no-ops. In particular, an issue with no stored link is silently ignored
// rather than reported: most inbound traffic is for issues that have no
// helpdesk counterpart at all.
func (h *Handler) HandleWebhook(ctx context.Context, p *WebhookPayload) {
	cfg := h.Settings.Current()

	if !cfg.SyncDirection.Inbound() {
		return
	}

	if p == nil || p.Issue.Key == "" {
		return
	}

	ticketID, ok := h.Links.ForIssue(p.Issue.Key)
	if !ok {
		telemetry.CountWebhookEvent(ctx, "unlinked")
		return
	}

	if !isUpdateEvent(p.EventType()) {
		telemetry.CountWebhookEvent(ctx, "ignored")
		return
	}

	applied := false
	for _, item := range p.Changelog.Items {
		switch item.Field {
		case "status":
			applied = h.applyStatusChange(ctx, ticketID, item.ToString) || applied
		case "assignee":
			applied = h.applyAssigneeChange(ctx, ticketID, item.To) || applied
		}
		// Unknown fields fall through without error.
	}

	if applied {
		telemetry.CountWebhookEvent(ctx, "applied")
	} else {
		telemetry.CountWebhookEvent(ctx, "skipped")
	}
}

// applyStatusChange maps a Jira status name to the helpdesk vocabulary and
// updates the ticket. An unmapped status is a no-op.
func (h *Handler) applyStatusChange(ctx context.Context, ticketID, jiraStatus string) bool {
	mapped, ok := h.Status.FromJira(jiraStatus)
	if !ok {
		debug.Logf("no ticket mapping for Jira status %q, skipping\n", jiraStatus)
		return false
	}

	if err := h.Host.UpdateTicket(ctx, ticketID, map[string]string{"status": mapped}); err != nil {
		debug.Logf("updating ticket %s status failed: %v\n", ticketID, err)
		return false
	}
	return true
}

// applyAssigneeChange resolves a Jira account id to a helpdesk agent and
// updates the ticket. Unassignments (empty id) and unknown accounts are
// no-ops.
func (h *Handler) applyAssigneeChange(ctx context.Context, ticketID, accountID string) bool {
	if accountID == "" {
		return false
	}

	agentID, ok := h.Host.FindAgentByJiraID(ctx, accountID)
	if !ok {
		debug.Logf("no helpdesk agent for Jira account %q, skipping\n", accountID)
		return false
	}

	if err := h.Host.UpdateTicket(ctx, ticketID, map[string]string{"assignee_id": agentID}); err != nil {
		debug.Logf("updating ticket %s assignee failed: %v\n", ticketID, err)
		return false
	}
	return true
}
