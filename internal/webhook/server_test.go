package webhook

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/escalatedhq/ticketbridge/internal/bridge"
	"github.com/escalatedhq/ticketbridge/internal/links"
	"github.com/escalatedhq/ticketbridge/internal/mapping"
	"github.com/escalatedhq/ticketbridge/internal/settings"
)

// recordingHost captures ticket updates applied through the bridge.
type recordingHost struct {
	updates []map[string]string
}

func (h *recordingHost) UpdateTicket(_ context.Context, ticketID string, fields map[string]string) error {
	rec := map[string]string{"_ticket": ticketID}
	for k, v := range fields {
		rec[k] = v
	}
	h.updates = append(h.updates, rec)
	return nil
}

func (h *recordingHost) FindAgentByJiraID(context.Context, string) (string, bool) {
	return "", false
}

func newTestServer(t *testing.T, secret []byte) (*Server, *recordingHost) {
	t.Helper()

	cfg := settings.Defaults()
	cfg.SyncDirection = settings.DirectionBoth

	ls := links.NewStore(filepath.Join(t.TempDir(), "links.json"))
	if _, err := ls.Add("42", "PROJ-5"); err != nil {
		t.Fatal(err)
	}

	host := &recordingHost{}
	handler := bridge.New(settings.NewStore(cfg), ls, mapping.Default(), host, nil)
	return NewServer(ServerConfig{Handler: handler, Secret: secret}), host
}

const updateBody = `{
	"webhookEvent": "jira:issue_updated",
	"issue": {"key": "PROJ-5"},
	"changelog": {"items": [{"field": "status", "to": "5", "toString": "Done"}]}
}`

func post(srv *Server, body string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhook/jira", strings.NewReader(body))
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	return w
}

func TestWebhookAppliesStatusChange(t *testing.T) {
	srv, host := newTestServer(t, nil)

	w := post(srv, updateBody, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	if len(host.updates) != 1 {
		t.Fatalf("got %d updates, want 1", len(host.updates))
	}
	up := host.updates[0]
	if up["_ticket"] != "42" || up["status"] != "resolved" {
		t.Errorf("update = %v, want ticket 42 -> resolved", up)
	}
}

func TestWebhookUnlinkedIssueStill200(t *testing.T) {
	srv, host := newTestServer(t, nil)

	body := strings.Replace(updateBody, "PROJ-5", "OTHER-9", 1)
	w := post(srv, body, nil)
	// Jira retries non-2xx; an ignored delivery must not be redelivered.
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 even for unlinked issues", w.Code)
	}
	if len(host.updates) != 0 {
		t.Errorf("unexpected updates: %v", host.updates)
	}
}

func TestWebhookMalformedJSON(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	w := post(srv, "{not json", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestWebhookMethodNotAllowed(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/webhook/jira", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", w.Code)
	}
}

func TestWebhookSignature(t *testing.T) {
	secret := []byte("hunter2")
	srv, host := newTestServer(t, secret)

	// No signature.
	if w := post(srv, updateBody, nil); w.Code != http.StatusUnauthorized {
		t.Errorf("unsigned request: status = %d, want 401", w.Code)
	}

	// Wrong signature.
	h := http.Header{}
	h.Set("X-Hub-Signature-256", SignBody([]byte(updateBody), []byte("wrong")))
	if w := post(srv, updateBody, h); w.Code != http.StatusUnauthorized {
		t.Errorf("bad signature: status = %d, want 401", w.Code)
	}

	// Garbage header format.
	h = http.Header{}
	h.Set("X-Hub-Signature-256", "md5=abc")
	if w := post(srv, updateBody, h); w.Code != http.StatusUnauthorized {
		t.Errorf("bad format: status = %d, want 401", w.Code)
	}

	if len(host.updates) != 0 {
		t.Fatalf("rejected deliveries must not reach the bridge: %v", host.updates)
	}

	// Valid signature.
	h = http.Header{}
	h.Set("X-Hub-Signature-256", SignBody([]byte(updateBody), secret))
	if w := post(srv, updateBody, h); w.Code != http.StatusOK {
		t.Errorf("valid signature: status = %d, want 200", w.Code)
	}
	if len(host.updates) != 1 {
		t.Errorf("signed delivery should apply, got %v", host.updates)
	}
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "ok") {
		t.Errorf("body = %s", w.Body.String())
	}
}
