package bridge

import (
	"context"

	"github.com/escalatedhq/ticketbridge/internal/debug"
	"github.com/escalatedhq/ticketbridge/internal/jira"
	"github.com/escalatedhq/ticketbridge/internal/links"
	"github.com/escalatedhq/ticketbridge/internal/settings"
	"github.com/escalatedhq/ticketbridge/internal/telemetry"
)

// Handler wires the stores, mapper, remote client, and host callbacks into
// the two sync directions. Construct once with New and invoke from the
// host's event dispatch; each invocation is independent.
type Handler struct {
	Settings *settings.Store
	Links    LinkStore
	Status   StatusMapper
	Host     Host

	// Broadcaster is optional; nil disables notification events.
	Broadcaster Broadcaster

	// remote builds the Jira client for the current settings snapshot.
	remote func(*settings.Settings) Remote
}

// New creates a handler over the given collaborators.
func New(st *settings.Store, ls LinkStore, sm StatusMapper, host Host, bc Broadcaster) *Handler {
	return &Handler{
		Settings:    st,
		Links:       ls,
		Status:      sm,
		Host:        host,
		Broadcaster: bc,
		remote:      newRemote,
	}
}

// OnTicketCreated handles a ticket.created event: when auto-create is on
// and the connection plus default project are configured, it creates the
// matching Jira issue and records the link.
//
// Creation failures are swallowed here. Ticket creation in the helpdesk
// must succeed whether or not Jira is reachable.
func (h *Handler) OnTicketCreated(ctx context.Context, ticket *Ticket) {
	cfg := h.Settings.Current()

	if !cfg.AutoCreate || !cfg.IsConfigured() || cfg.DefaultProject == "" {
		return
	}

	res := h.remote(cfg).CreateIssue(ctx, BuildIssueRequest(cfg, ticket))
	if !res.OK {
		debug.Logf("auto-create for ticket %s failed: %s\n", ticket.ID, res.Err)
		return
	}

	key := res.Str("key")
	if key == "" {
		return
	}

	if _, err := h.Links.Add(ticket.ID, key); err != nil {
		debug.Logf("storing link %s -> %s failed: %v\n", ticket.ID, key, err)
		return
	}
	telemetry.CountIssueCreated(ctx)

	if h.Broadcaster != nil {
		h.Broadcaster.Broadcast("ticket."+links.Normalize(ticket.ID), "jira.issue.created",
			map[string]interface{}{
				"ticket_id":      links.Normalize(ticket.ID),
				"jira_issue_key": key,
			})
	}
}

// OnTicketStatusChanged handles a ticket.status.changed event by
// transitioning every linked Jira issue to the mapped status.
//
// Every early return here is deliberate policy, not an error: inbound-only
// direction, no links, and an unmapped status all mean "nothing to push".
// Linked issues are processed independently; one failed transition never
// stops the rest, and nothing propagates to the triggering event.
func (h *Handler) OnTicketStatusChanged(ctx context.Context, ticketID, newStatus, oldStatus string) {
	cfg := h.Settings.Current()

	if !cfg.SyncDirection.Outbound() {
		return
	}

	linked := h.Links.ForTicket(ticketID)
	if len(linked) == 0 {
		return
	}

	jiraStatus, ok := h.Status.ToJira(newStatus)
	if !ok {
		debug.Logf("no Jira mapping for ticket status %q, skipping\n", newStatus)
		return
	}

	remote := h.remote(cfg)
	for _, l := range linked {
		if l.IssueKey == "" {
			continue
		}
		res := remote.TransitionToStatus(ctx, l.IssueKey, jiraStatus)
		telemetry.CountTransition(ctx, res.OK)
		if !res.OK {
			debug.Logf("transition of %s to %q failed: %s\n", l.IssueKey, jiraStatus, res.Err)
		}
	}
}

// BuildIssueRequest assembles the new-issue fields from the ticket and the
// configured field mapping. Only subject and description are settable at
// creation time; status flows through transitions and assignee through the
// inbound pipeline.
func BuildIssueRequest(cfg *settings.Settings, ticket *Ticket) jira.CreateIssueRequest {
	req := jira.CreateIssueRequest{
		Project:   cfg.DefaultProject,
		IssueType: cfg.DefaultIssueType,
	}

	for _, fm := range cfg.FieldMapping {
		switch fm.JiraField {
		case "summary":
			req.Summary = ticketField(ticket, fm.TicketField)
		case "description":
			req.Description = ticketField(ticket, fm.TicketField)
		}
	}
	if req.Summary == "" {
		req.Summary = "Helpdesk ticket " + links.Normalize(ticket.ID)
	}
	return req
}

// ticketField reads a ticket field by its mapping name.
func ticketField(t *Ticket, name string) string {
	switch name {
	case "subject":
		return t.Subject
	case "description":
		return t.Description
	case "status":
		return t.Status
	case "priority":
		return t.Priority
	default:
		return ""
	}
}
