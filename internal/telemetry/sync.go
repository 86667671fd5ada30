package telemetry

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Sync-layer counters. Created lazily so they bind to whichever meter
// provider Init installed (real or no-op).
var (
	syncOnce      sync.Once
	issuesCreated metric.Int64Counter
	transitions   metric.Int64Counter
	webhookEvents metric.Int64Counter
)

func syncCounters() {
	syncOnce.Do(func() {
		m := Meter()
		issuesCreated, _ = m.Int64Counter("bridge.issues.created",
			metric.WithDescription("Jira issues created from helpdesk tickets"),
		)
		transitions, _ = m.Int64Counter("bridge.transitions",
			metric.WithDescription("Jira transitions attempted for ticket status changes"),
		)
		webhookEvents, _ = m.Int64Counter("bridge.webhook.events",
			metric.WithDescription("Inbound Jira webhook events by outcome"),
		)
	})
}

// CountIssueCreated records one successful outbound issue creation.
func CountIssueCreated(ctx context.Context) {
	syncCounters()
	issuesCreated.Add(ctx, 1)
}

// CountTransition records one outbound transition attempt.
func CountTransition(ctx context.Context, ok bool) {
	syncCounters()
	transitions.Add(ctx, 1, metric.WithAttributes(attribute.Bool("ok", ok)))
}

// CountWebhookEvent records one inbound webhook event with its outcome:
// "applied", "unlinked", "skipped", or "ignored".
func CountWebhookEvent(ctx context.Context, outcome string) {
	syncCounters()
	webhookEvents.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}
