// Package jira is a minimal Jira Cloud REST v3 client for ticketbridge.
//
// Unlike a general-purpose client it never returns Go errors from API
// calls: every outcome is a Result with an OK flag, because the sync
// handlers must be able to swallow failures without unwinding the
// triggering helpdesk event.
package jira

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/escalatedhq/ticketbridge/internal/debug"
	"github.com/escalatedhq/ticketbridge/internal/settings"
	"github.com/escalatedhq/ticketbridge/internal/version"
)

// requestTimeout bounds every outbound call so a slow Jira instance can
// never hang a helpdesk event or webhook delivery.
const requestTimeout = 15 * time.Second

// Client sends authenticated requests to one Jira instance.
type Client struct {
	BaseURL    string
	Email      string
	APIToken   string
	HTTPClient *http.Client
}

// NewClient builds a client from the current settings snapshot. Clients
// are cheap; handlers construct one per invocation so hot-reloaded
// credentials take effect immediately.
func NewClient(s *settings.Settings) *Client {
	return &Client{
		BaseURL:  strings.TrimSuffix(s.JiraURL, "/"),
		Email:    s.APIEmail,
		APIToken: s.APIToken,
		HTTPClient: &http.Client{
			Timeout: requestTimeout,
		},
	}
}

// Request sends an authenticated JSON request and normalizes the outcome.
// When the base URL, email, or token is empty it fails fast without
// touching the network.
func (c *Client) Request(ctx context.Context, method, path string, body interface{}) Result {
	if c.BaseURL == "" || c.Email == "" || c.APIToken == "" {
		return fail("Jira connection is not configured")
	}

	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fail(fmt.Sprintf("encoding request body: %v", err))
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, bodyReader)
	if err != nil {
		return fail(fmt.Sprintf("building request: %v", err))
	}
	req.SetBasicAuth(c.Email, c.APIToken)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "ticketbridge/"+version.Version)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		// Transport failures (DNS, refused, timeout) never propagate.
		return fail(err.Error())
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return Result{OK: false, Err: fmt.Sprintf("reading response: %v", err), StatusCode: resp.StatusCode}
	}

	var decoded map[string]interface{}
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &decoded)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := errorMessage(decoded, raw)
		debug.Logf("jira API error: %s %s -> %d: %s\n", method, path, resp.StatusCode, msg)
		return Result{OK: false, Err: msg, StatusCode: resp.StatusCode, Body: decoded, raw: raw}
	}

	return Result{OK: true, StatusCode: resp.StatusCode, Body: decoded, raw: raw}
}

// errorMessage assembles a readable error from a Jira error payload.
// Jira errors carry either an errorMessages list or a single message
// field; anything else falls back to the raw body.
func errorMessage(decoded map[string]interface{}, raw []byte) string {
	if decoded != nil {
		if list, ok := decoded["errorMessages"].([]interface{}); ok && len(list) > 0 {
			parts := make([]string, 0, len(list))
			for _, m := range list {
				if s, ok := m.(string); ok && s != "" {
					parts = append(parts, s)
				}
			}
			if len(parts) > 0 {
				return strings.Join(parts, "; ")
			}
		}
		if msg, ok := decoded["message"].(string); ok && msg != "" {
			return msg
		}
	}
	if len(raw) > 0 {
		return string(raw)
	}
	return "Jira request failed"
}

// TestConnection verifies the stored credentials against /myself and
// returns the authenticated account's display name on success.
func (c *Client) TestConnection(ctx context.Context) (string, Result) {
	res := c.Request(ctx, http.MethodGet, "/rest/api/3/myself", nil)
	if !res.OK {
		return "", res
	}
	name := res.Str("displayName")
	if name == "" {
		name = "Unknown"
	}
	return name, res
}

// CreateIssueRequest carries the fields for a new Jira issue. The bridge
// handler assembles it from the ticket and the configured field mapping.
type CreateIssueRequest struct {
	Project     string
	IssueType   string
	Summary     string
	Description string
	Labels      []string
}

// CreateIssue creates a new issue. A missing project is a configuration
// failure detected before any network call.
func (c *Client) CreateIssue(ctx context.Context, req CreateIssueRequest) Result {
	if req.Project == "" {
		return fail("no default Jira project configured")
	}
	issueType := req.IssueType
	if issueType == "" {
		issueType = "Task"
	}

	fields := map[string]interface{}{
		"project":     map[string]string{"key": req.Project},
		"issuetype":   map[string]string{"name": issueType},
		"summary":     req.Summary,
		"description": TextToADF(req.Description),
	}
	if len(req.Labels) > 0 {
		fields["labels"] = req.Labels
	}

	return c.Request(ctx, http.MethodPost, "/rest/api/3/issue", map[string]interface{}{
		"fields": fields,
	})
}

// GetIssue fetches a single issue by key (e.g. "PROJ-123").
func (c *Client) GetIssue(ctx context.Context, issueKey string) Result {
	return c.Request(ctx, http.MethodGet, "/rest/api/3/issue/"+url.PathEscape(issueKey), nil)
}

// SearchIssues runs a JQL query, capped at max results.
func (c *Client) SearchIssues(ctx context.Context, jql string, max int) Result {
	if max <= 0 {
		max = 10
	}
	params := url.Values{
		"jql":        {jql},
		"maxResults": {fmt.Sprintf("%d", max)},
	}
	return c.Request(ctx, http.MethodGet, "/rest/api/3/search?"+params.Encode(), nil)
}

// GetTransitions lists the transitions currently available on an issue.
func (c *Client) GetTransitions(ctx context.Context, issueKey string) Result {
	return c.Request(ctx, http.MethodGet, "/rest/api/3/issue/"+url.PathEscape(issueKey)+"/transitions", nil)
}

// TransitionIssue executes a transition by its opaque id.
func (c *Client) TransitionIssue(ctx context.Context, issueKey, transitionID string) Result {
	return c.Request(ctx, http.MethodPost, "/rest/api/3/issue/"+url.PathEscape(issueKey)+"/transitions",
		map[string]interface{}{
			"transition": map[string]string{"id": transitionID},
		})
}

// transitionList is the typed view of a GET transitions response.
type transitionList struct {
	Transitions []struct {
		ID string `json:"id"`
		To struct {
			Name string `json:"name"`
		} `json:"to"`
	} `json:"transitions"`
}

// TransitionToStatus moves an issue to the named target status.
//
// Jira identifies transitions by opaque ids whose valid set depends on the
// issue's current state, so the list must be fetched fresh every time: list
// the transitions, match the target state's display name case-insensitively,
// execute the first match. A failed list call is returned unchanged; an
// unmatched target is a distinct failure so callers can tell "Jira
// unreachable" from "Jira reachable but no such state".
func (c *Client) TransitionToStatus(ctx context.Context, issueKey, targetStatus string) Result {
	res := c.GetTransitions(ctx, issueKey)
	if !res.OK {
		return res
	}

	var list transitionList
	if err := res.Decode(&list); err != nil {
		return fail(fmt.Sprintf("parsing transitions for %s: %v", issueKey, err))
	}

	for _, t := range list.Transitions {
		if strings.EqualFold(t.To.Name, targetStatus) {
			return c.TransitionIssue(ctx, issueKey, t.ID)
		}
	}

	return fail(fmt.Sprintf("no transition found to status %q on %s", targetStatus, issueKey))
}
