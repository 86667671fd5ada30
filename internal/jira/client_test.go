package jira

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func testClient(baseURL string) *Client {
	return &Client{
		BaseURL:    baseURL,
		Email:      "agent@example.com",
		APIToken:   "token",
		HTTPClient: http.DefaultClient,
	}
}

func TestRequestFailsFastWhenUnconfigured(t *testing.T) {
	// No network listener anywhere; a call that touched the network
	// would produce a transport error, not this message.
	c := &Client{HTTPClient: http.DefaultClient}
	res := c.Request(context.Background(), http.MethodGet, "/rest/api/3/myself", nil)
	if res.OK {
		t.Fatal("expected failure for unconfigured client")
	}
	if res.Err != "Jira connection is not configured" {
		t.Errorf("Err = %q", res.Err)
	}
	if res.StatusCode != 0 {
		t.Errorf("StatusCode = %d, want 0", res.StatusCode)
	}
}

func TestRequestTransportErrorDoesNotPropagate(t *testing.T) {
	c := testClient("http://127.0.0.1:1") // nothing listens here
	res := c.Request(context.Background(), http.MethodGet, "/x", nil)
	if res.OK {
		t.Fatal("expected failure")
	}
	if res.Err == "" {
		t.Error("transport failure should carry a description")
	}
}

func TestRequestSetsAuthAndHeaders(t *testing.T) {
	var gotAuth, gotAccept string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotAccept = r.Header.Get("Accept")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"displayName": "Jane Agent"}`))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	res := c.Request(context.Background(), http.MethodGet, "/rest/api/3/myself", nil)
	if !res.OK {
		t.Fatalf("Request failed: %s", res.Err)
	}
	if gotAuth == "" {
		t.Error("no Authorization header sent")
	}
	if gotAccept != "application/json" {
		t.Errorf("Accept = %q", gotAccept)
	}
	if got := res.Str("displayName"); got != "Jane Agent" {
		t.Errorf("Str(displayName) = %q", got)
	}
}

func TestErrorMessageNormalization(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{
			name:    "errorMessages list",
			status:  400,
			body:    `{"errorMessages": ["Field is required", "Project missing"]}`,
			wantErr: "Field is required; Project missing",
		},
		{
			name:    "message field",
			status:  401,
			body:    `{"message": "Authentication failed"}`,
			wantErr: "Authentication failed",
		},
		{
			name:    "raw body fallback",
			status:  502,
			body:    `gateway timeout`,
			wantErr: "gateway timeout",
		},
		{
			name:    "empty body",
			status:  500,
			body:    ``,
			wantErr: "Jira request failed",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			res := testClient(srv.URL).Request(context.Background(), http.MethodGet, "/x", nil)
			if res.OK {
				t.Fatal("expected failure")
			}
			if res.Err != tt.wantErr {
				t.Errorf("Err = %q, want %q", res.Err, tt.wantErr)
			}
			if res.StatusCode != tt.status {
				t.Errorf("StatusCode = %d, want %d", res.StatusCode, tt.status)
			}
		})
	}
}

func TestCreateIssueRequiresProject(t *testing.T) {
	c := testClient("http://127.0.0.1:1")
	res := c.CreateIssue(context.Background(), CreateIssueRequest{Summary: "x"})
	if res.OK {
		t.Fatal("expected failure without project")
	}
	if res.Err != "no default Jira project configured" {
		t.Errorf("Err = %q", res.Err)
	}
}

func TestCreateIssuePayload(t *testing.T) {
	var payload map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rest/api/3/issue" || r.Method != http.MethodPost {
			t.Errorf("unexpected call: %s %s", r.Method, r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&payload)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"key": "PROJ-101"}`))
	}))
	defer srv.Close()

	res := testClient(srv.URL).CreateIssue(context.Background(), CreateIssueRequest{
		Project:     "PROJ",
		Summary:     "Printer on fire",
		Description: "It is very much on fire.",
	})
	if !res.OK {
		t.Fatalf("CreateIssue failed: %s", res.Err)
	}
	if got := res.Str("key"); got != "PROJ-101" {
		t.Errorf("key = %q", got)
	}

	fields, _ := payload["fields"].(map[string]interface{})
	if fields == nil {
		t.Fatal("no fields in payload")
	}
	project, _ := fields["project"].(map[string]interface{})
	if project["key"] != "PROJ" {
		t.Errorf("project = %v", project)
	}
	issueType, _ := fields["issuetype"].(map[string]interface{})
	if issueType["name"] != "Task" {
		t.Errorf("issue type should default to Task, got %v", issueType)
	}
	if fields["summary"] != "Printer on fire" {
		t.Errorf("summary = %v", fields["summary"])
	}
	desc, _ := fields["description"].(map[string]interface{})
	if desc["type"] != "doc" {
		t.Errorf("description should be an ADF document, got %v", fields["description"])
	}
}

// transitionServer simulates the two-step transition flow: a GET returning
// the available transitions and a POST recording the executed id.
func transitionServer(t *testing.T, listBody string, executed *string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			_, _ = w.Write([]byte(listBody))
		case http.MethodPost:
			var body struct {
				Transition struct {
					ID string `json:"id"`
				} `json:"transition"`
			}
			_ = json.NewDecoder(r.Body).Decode(&body)
			*executed = body.Transition.ID
			w.WriteHeader(http.StatusNoContent)
		}
	}))
}

const transitionsBody = `{"transitions": [
	{"id": "11", "name": "Start Progress", "to": {"name": "In Progress"}},
	{"id": "21", "name": "Finish", "to": {"name": "Done"}}
]}`

func TestTransitionToStatus(t *testing.T) {
	var executed string
	srv := transitionServer(t, transitionsBody, &executed)
	defer srv.Close()

	res := testClient(srv.URL).TransitionToStatus(context.Background(), "PROJ-1", "done")
	if !res.OK {
		t.Fatalf("TransitionToStatus failed: %s", res.Err)
	}
	if executed != "21" {
		t.Errorf("executed transition %q, want 21 (case-insensitive match on target state)", executed)
	}
}

func TestTransitionToStatusNoMatch(t *testing.T) {
	var executed string
	srv := transitionServer(t, transitionsBody, &executed)
	defer srv.Close()

	res := testClient(srv.URL).TransitionToStatus(context.Background(), "PROJ-1", "Cancelled")
	if res.OK {
		t.Fatal("expected failure for unmatched target status")
	}
	if executed != "" {
		t.Errorf("no transition should execute on a miss, ran %q", executed)
	}
	if res.Err != `no transition found to status "Cancelled" on PROJ-1` {
		t.Errorf("Err = %q", res.Err)
	}
}

func TestTransitionToStatusListFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"errorMessages": ["Issue does not exist"]}`))
	}))
	defer srv.Close()

	res := testClient(srv.URL).TransitionToStatus(context.Background(), "PROJ-404", "Done")
	if res.OK {
		t.Fatal("expected failure")
	}
	// The failed list call comes back unchanged, HTTP context intact.
	if res.StatusCode != http.StatusNotFound {
		t.Errorf("StatusCode = %d, want 404", res.StatusCode)
	}
	if res.Err != "Issue does not exist" {
		t.Errorf("Err = %q", res.Err)
	}
}

func TestTestConnection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rest/api/3/myself" {
			t.Errorf("path = %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"displayName": "Jane Agent"}`))
	}))
	defer srv.Close()

	name, res := testClient(srv.URL).TestConnection(context.Background())
	if !res.OK {
		t.Fatalf("TestConnection failed: %s", res.Err)
	}
	if name != "Jane Agent" {
		t.Errorf("name = %q", name)
	}
}
