// Package webhook provides the HTTP endpoint that receives Jira change
// notifications and feeds them to the bridge.
package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/escalatedhq/ticketbridge/internal/bridge"
	"github.com/escalatedhq/ticketbridge/internal/debug"
)

// Server handles inbound Jira webhook deliveries.
type Server struct {
	handler    *bridge.Handler
	secret     []byte
	mux        *http.ServeMux
	httpServer *http.Server
}

// ServerConfig holds configuration for the webhook server.
type ServerConfig struct {
	Handler *bridge.Handler
	// Secret enables HMAC-SHA256 signature verification when non-empty.
	Secret []byte
}

// NewServer creates a webhook server.
func NewServer(cfg ServerConfig) *Server {
	s := &Server{
		handler: cfg.Handler,
		secret:  cfg.Secret,
		mux:     http.NewServeMux(),
	}

	s.mux.HandleFunc("/webhook/jira", s.handleJiraWebhook)
	s.mux.HandleFunc("/health", s.handleHealth)

	return s
}

// Start starts the HTTP server on the given address.
func (s *Server) Start(addr string) error {
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

// Handler returns the HTTP handler for use with custom servers and tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// webhookResponse is the JSON response body.
type webhookResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// handleJiraWebhook handles POST /webhook/jira.
//
// Accepted payloads always get a 200 regardless of what the bridge did
// with them: Jira retries non-2xx responses, and a delivery the bridge
// chose to ignore must not be redelivered. Only malformed requests and
// bad signatures are rejected.
func (s *Server) handleJiraWebhook(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed: use POST")
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20)) // 1MB limit
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}
	defer func() { _ = r.Body.Close() }()

	if len(s.secret) > 0 {
		if err := verifySignature(r.Header.Get("X-Hub-Signature-256"), body, s.secret); err != nil {
			s.writeError(w, http.StatusUnauthorized, err.Error())
			return
		}
	}

	payload, err := bridge.ParsePayload(body)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %v", err))
		return
	}

	debug.Logf("webhook: %s issue=%s items=%d\n",
		payload.EventType(), payload.Issue.Key, len(payload.Changelog.Items))

	s.handler.HandleWebhook(r.Context(), payload)

	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(webhookResponse{Success: true})
}

// handleHealth handles GET /health for load balancer checks.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// writeError writes a JSON error response.
func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(webhookResponse{Error: message})
}
