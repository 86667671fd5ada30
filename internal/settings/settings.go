// Package settings manages the ticketbridge configuration record.
//
// Settings live in a single JSON file. Loading merges the file over the
// defaults: any key missing from the file keeps its default, any key present
// wins. A missing or malformed file yields the defaults, never an error,
// so a fresh install works without any setup step.
package settings

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const (
	SettingsFileName = "settings.json"
	LinksFileName    = "links.json"
)

// Direction controls which way status changes flow between the helpdesk
// and Jira.
type Direction string

const (
	// DirectionOutbound pushes helpdesk changes to Jira only.
	DirectionOutbound Direction = "outbound_only"
	// DirectionInbound applies Jira webhook changes to the helpdesk only.
	DirectionInbound Direction = "inbound_only"
	// DirectionBoth enables both handlers.
	DirectionBoth Direction = "bidirectional"
)

// DefaultDirection is used when sync_direction is absent or unrecognized.
const DefaultDirection = DirectionOutbound

// ParseDirection validates a direction string, falling back to the default
// for anything it does not recognize.
func ParseDirection(s string) Direction {
	switch Direction(s) {
	case DirectionOutbound, DirectionInbound, DirectionBoth:
		return Direction(s)
	default:
		return DefaultDirection
	}
}

// Outbound reports whether helpdesk-to-Jira status propagation is active.
func (d Direction) Outbound() bool { return d == DirectionOutbound || d == DirectionBoth }

// Inbound reports whether Jira-to-helpdesk webhook application is active.
func (d Direction) Inbound() bool { return d == DirectionInbound || d == DirectionBoth }

// FieldMap pairs a helpdesk ticket field with the Jira field it populates
// when building a new issue.
type FieldMap struct {
	TicketField string `json:"ticket_field"`
	JiraField   string `json:"jira_field"`
}

// Settings is the bridge configuration record.
type Settings struct {
	JiraURL          string     `json:"jira_url"`
	APIEmail         string     `json:"api_email"`
	APIToken         string     `json:"api_token"`
	DefaultProject   string     `json:"default_project"`
	DefaultIssueType string     `json:"default_issue_type"`
	AutoCreate       bool       `json:"auto_create"`
	SyncDirection    Direction  `json:"sync_direction"`
	FieldMapping     []FieldMap `json:"field_mapping"`

	// Webhook server surface.
	ListenAddr    string `json:"listen_addr,omitempty"`
	WebhookSecret string `json:"webhook_secret,omitempty"`

	// Helpdesk callback surface used by the serve daemon.
	HelpdeskURL   string `json:"helpdesk_url,omitempty"`
	HelpdeskToken string `json:"helpdesk_token,omitempty"`
}

// Defaults returns the default settings structure.
func Defaults() *Settings {
	return &Settings{
		DefaultIssueType: "Task",
		SyncDirection:    DefaultDirection,
		FieldMapping: []FieldMap{
			{TicketField: "subject", JiraField: "summary"},
			{TicketField: "description", JiraField: "description"},
			{TicketField: "priority", JiraField: "priority"},
			{TicketField: "status", JiraField: "status"},
			{TicketField: "assignee", JiraField: "assignee"},
		},
		ListenAddr: ":8347",
	}
}

// Load reads settings from path, merged over the defaults. A missing or
// unparseable file returns the defaults.
func Load(path string) *Settings {
	cfg := Defaults()

	data, err := os.ReadFile(path) // #nosec G304 - controlled path from config dir
	if err != nil {
		return cfg
	}

	// Unmarshal into the prefilled struct: keys present in the file
	// overwrite, keys absent keep their defaults.
	if err := json.Unmarshal(data, cfg); err != nil {
		return Defaults()
	}

	cfg.SyncDirection = ParseDirection(string(cfg.SyncDirection))
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = Defaults().ListenAddr
	}
	return cfg
}

// Save writes settings to path, creating the directory if needed.
func (s *Settings) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling settings: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing settings: %w", err)
	}
	return nil
}

// IsConfigured reports whether the minimum Jira credentials are present.
func (s *Settings) IsConfigured() bool {
	return s.JiraURL != "" && s.APIEmail != "" && s.APIToken != ""
}

// ApplyEnv overlays environment variables onto the settings. Env values
// win over the file so credentials can stay out of it entirely.
func (s *Settings) ApplyEnv() {
	envString("JIRA_URL", &s.JiraURL)
	envString("JIRA_API_EMAIL", &s.APIEmail)
	envString("JIRA_API_TOKEN", &s.APIToken)
	envString("JIRA_PROJECT", &s.DefaultProject)
	envString("JIRA_ISSUE_TYPE", &s.DefaultIssueType)
	envString("TICKETBRIDGE_ADDR", &s.ListenAddr)
	envString("TICKETBRIDGE_HOOK_SECRET", &s.WebhookSecret)
	envString("TICKETBRIDGE_HELPDESK_URL", &s.HelpdeskURL)
	envString("TICKETBRIDGE_HELPDESK_TOKEN", &s.HelpdeskToken)
	if v := os.Getenv("TICKETBRIDGE_SYNC_DIRECTION"); v != "" {
		s.SyncDirection = ParseDirection(v)
	}
}

func envString(key string, field *string) {
	if v := os.Getenv(key); v != "" {
		*field = v
	}
}

// SettingsPath returns the settings file path inside dir.
func SettingsPath(dir string) string {
	return filepath.Join(dir, SettingsFileName)
}

// LinksPath returns the link store path inside dir.
func LinksPath(dir string) string {
	return filepath.Join(dir, LinksFileName)
}
