// Package hostapi implements the helpdesk callback surface over its REST
// API. When the bridge runs inside the helpdesk process these callbacks
// are direct function calls; the standalone daemon reaches the same
// operations over HTTP.
package hostapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/escalatedhq/ticketbridge/internal/debug"
	"github.com/escalatedhq/ticketbridge/internal/settings"
)

// Client calls back into the helpdesk. It implements bridge.Host and
// bridge.Broadcaster.
type Client struct {
	store      *settings.Store
	httpClient *http.Client
}

// New creates a helpdesk callback client reading connection details from
// the live settings store.
func New(store *settings.Store) *Client {
	return &Client{
		store: store,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Configured reports whether a helpdesk URL is set.
func (c *Client) Configured() bool {
	return c.store.Current().HelpdeskURL != ""
}

// UpdateTicket applies a partial field update to a helpdesk ticket.
func (c *Client) UpdateTicket(ctx context.Context, ticketID string, fields map[string]string) error {
	var resp struct{}
	return c.call(ctx, http.MethodPatch, "/api/tickets/"+url.PathEscape(ticketID), fields, &resp)
}

// FindAgentByJiraID resolves a Jira account id to a helpdesk agent id.
func (c *Client) FindAgentByJiraID(ctx context.Context, accountID string) (string, bool) {
	var resp struct {
		AgentID string `json:"agent_id"`
	}
	err := c.call(ctx, http.MethodGet, "/api/agents/by-jira/"+url.PathEscape(accountID), nil, &resp)
	if err != nil || resp.AgentID == "" {
		return "", false
	}
	return resp.AgentID, true
}

// Broadcast publishes a realtime event. Best-effort: failures are logged
// and dropped.
func (c *Client) Broadcast(channel, event string, payload map[string]interface{}) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	body := map[string]interface{}{
		"channel": channel,
		"event":   event,
		"payload": payload,
	}
	var resp struct{}
	if err := c.call(ctx, http.MethodPost, "/api/broadcast", body, &resp); err != nil {
		debug.Logf("broadcast %s/%s failed: %v\n", channel, event, err)
	}
}

// call sends one authenticated JSON request to the helpdesk API.
func (c *Client) call(ctx context.Context, method, path string, body, out interface{}) error {
	cfg := c.store.Current()
	if cfg.HelpdeskURL == "" {
		return fmt.Errorf("helpdesk URL not configured")
	}

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	base := strings.TrimSuffix(cfg.HelpdeskURL, "/")
	req, err := http.NewRequestWithContext(ctx, method, base+path, reader)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	if cfg.HelpdeskToken != "" {
		req.Header.Set("Authorization", "Bearer "+cfg.HelpdeskToken)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("not found")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("helpdesk API returned %d", resp.StatusCode)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("decoding response: %w", err)
		}
	}
	return nil
}
