package bridge

import (
	"context"
	"testing"

	"github.com/escalatedhq/ticketbridge/internal/settings"
)

func updatePayload(key string, items ...ChangeItem) *WebhookPayload {
	p := &WebhookPayload{WebhookEvent: "jira:issue_updated"}
	p.Issue.Key = key
	p.Changelog.Items = items
	return p
}

func TestParsePayload(t *testing.T) {
	raw := `{
		"webhookEvent": "jira:issue_updated",
		"issue": {"key": "PROJ-5"},
		"changelog": {"items": [
			{"field": "status", "to": "5", "toString": "Done"}
		]}
	}`
	p, err := ParsePayload([]byte(raw))
	if err != nil {
		t.Fatalf("ParsePayload: %v", err)
	}
	if p.Issue.Key != "PROJ-5" {
		t.Errorf("Issue.Key = %q", p.Issue.Key)
	}
	if len(p.Changelog.Items) != 1 || p.Changelog.Items[0].ToString != "Done" {
		t.Errorf("changelog = %+v", p.Changelog)
	}

	if _, err := ParsePayload([]byte("{broken")); err == nil {
		t.Error("expected error for malformed payload")
	}
}

func TestEventType(t *testing.T) {
	p := &WebhookPayload{WebhookEvent: "jira:issue_updated", IssueEventTypeName: "issue_generic"}
	if got := p.EventType(); got != "jira:issue_updated" {
		t.Errorf("EventType = %q, webhookEvent should win", got)
	}
	p = &WebhookPayload{IssueEventTypeName: "issue_updated"}
	if got := p.EventType(); got != "issue_updated" {
		t.Errorf("EventType = %q", got)
	}
}

func TestHandleWebhookStatusChange(t *testing.T) {
	cfg := configured()
	cfg.SyncDirection = settings.DirectionBoth
	host := &fakeHost{}
	h, ls := testHandler(t, cfg, &fakeRemote{}, host)
	mustLink(t, ls, "42", "PROJ-5")

	h.HandleWebhook(context.Background(), updatePayload("PROJ-5",
		ChangeItem{Field: "status", To: "5", ToString: "Done"}))

	if len(host.updates) != 1 {
		t.Fatalf("got %d updates, want 1", len(host.updates))
	}
	up := host.updates[0]
	if up["_ticket"] != "42" || up["status"] != "resolved" {
		t.Errorf("update = %v, want ticket 42 status resolved", up)
	}
}

func TestHandleWebhookAssigneeChange(t *testing.T) {
	cfg := configured()
	cfg.SyncDirection = settings.DirectionBoth
	host := &fakeHost{agents: map[string]string{"acct-123": "agent-7"}}
	h, ls := testHandler(t, cfg, &fakeRemote{}, host)
	mustLink(t, ls, "42", "PROJ-5")

	h.HandleWebhook(context.Background(), updatePayload("PROJ-5",
		ChangeItem{Field: "assignee", To: "acct-123", ToString: "Jane Agent"}))

	if len(host.updates) != 1 {
		t.Fatalf("got %d updates, want 1", len(host.updates))
	}
	if got := host.updates[0]["assignee_id"]; got != "agent-7" {
		t.Errorf("assignee_id = %q, want agent-7", got)
	}
}

func TestHandleWebhookOutboundOnly(t *testing.T) {
	host := &fakeHost{}
	h, ls := testHandler(t, configured(), &fakeRemote{}, host) // outbound_only default
	mustLink(t, ls, "42", "PROJ-5")

	h.HandleWebhook(context.Background(), updatePayload("PROJ-5",
		ChangeItem{Field: "status", ToString: "Done"}))

	if len(host.updates) != 0 {
		t.Errorf("outbound_only must not apply inbound changes, got %v", host.updates)
	}
}

func TestHandleWebhookUnlinkedIssueIgnored(t *testing.T) {
	cfg := configured()
	cfg.SyncDirection = settings.DirectionBoth
	host := &fakeHost{}
	h, _ := testHandler(t, cfg, &fakeRemote{}, host)

	h.HandleWebhook(context.Background(), updatePayload("OTHER-1",
		ChangeItem{Field: "status", ToString: "Done"}))

	if len(host.updates) != 0 {
		t.Errorf("unlinked issue should be silently ignored, got %v", host.updates)
	}
}

func TestHandleWebhookNonUpdateEvent(t *testing.T) {
	cfg := configured()
	cfg.SyncDirection = settings.DirectionBoth
	host := &fakeHost{}
	h, ls := testHandler(t, cfg, &fakeRemote{}, host)
	mustLink(t, ls, "42", "PROJ-5")

	p := &WebhookPayload{WebhookEvent: "jira:issue_deleted"}
	p.Issue.Key = "PROJ-5"
	p.Changelog.Items = []ChangeItem{{Field: "status", ToString: "Done"}}
	h.HandleWebhook(context.Background(), p)

	if len(host.updates) != 0 {
		t.Errorf("non-update event should not change tickets, got %v", host.updates)
	}
}

func TestHandleWebhookEmptyAndNil(t *testing.T) {
	cfg := configured()
	cfg.SyncDirection = settings.DirectionBoth
	host := &fakeHost{}
	h, _ := testHandler(t, cfg, &fakeRemote{}, host)

	h.HandleWebhook(context.Background(), nil)
	h.HandleWebhook(context.Background(), updatePayload("")) // no issue key

	if len(host.updates) != 0 {
		t.Errorf("got %v", host.updates)
	}
}

func TestHandleWebhookUnmappedStatusSkipped(t *testing.T) {
	cfg := configured()
	cfg.SyncDirection = settings.DirectionBoth
	host := &fakeHost{}
	h, ls := testHandler(t, cfg, &fakeRemote{}, host)
	mustLink(t, ls, "42", "PROJ-5")

	h.HandleWebhook(context.Background(), updatePayload("PROJ-5",
		ChangeItem{Field: "status", ToString: "Cancelled"}))

	if len(host.updates) != 0 {
		t.Errorf("unmapped Jira status should be a no-op, got %v", host.updates)
	}
}

func TestHandleWebhookItemsIndependent(t *testing.T) {
	cfg := configured()
	cfg.SyncDirection = settings.DirectionBoth
	// No agent mapping: the assignee item fails to resolve, the status
	// item still applies.
	host := &fakeHost{}
	h, ls := testHandler(t, cfg, &fakeRemote{}, host)
	mustLink(t, ls, "42", "PROJ-5")

	h.HandleWebhook(context.Background(), updatePayload("PROJ-5",
		ChangeItem{Field: "assignee", To: "acct-unknown"},
		ChangeItem{Field: "status", ToString: "In Progress"},
		ChangeItem{Field: "labels", ToString: "whatever"},
	))

	if len(host.updates) != 1 {
		t.Fatalf("got %d updates, want 1", len(host.updates))
	}
	if got := host.updates[0]["status"]; got != "in_progress" {
		t.Errorf("status = %q, want in_progress", got)
	}
}

func TestHandleWebhookUnassignmentIgnored(t *testing.T) {
	cfg := configured()
	cfg.SyncDirection = settings.DirectionBoth
	host := &fakeHost{agents: map[string]string{"acct-123": "agent-7"}}
	h, ls := testHandler(t, cfg, &fakeRemote{}, host)
	mustLink(t, ls, "42", "PROJ-5")

	h.HandleWebhook(context.Background(), updatePayload("PROJ-5",
		ChangeItem{Field: "assignee", To: "", ToString: ""}))

	if len(host.updates) != 0 {
		t.Errorf("unassignment should be a no-op, got %v", host.updates)
	}
}
