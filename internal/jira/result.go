package jira

import "encoding/json"

// Result is the normalized outcome of a Jira API call. Every call produces
// one: configuration problems, transport failures, and API errors all land
// in the same shape with OK=false, so handlers never see a Go error escape
// the client boundary.
type Result struct {
	// OK is true for 2xx responses.
	OK bool
	// Err is a human-readable error description when OK is false.
	Err string
	// StatusCode is the HTTP status when a response was received, 0 otherwise.
	StatusCode int
	// Body is the decoded JSON response object, when there was one.
	Body map[string]interface{}

	raw []byte
}

// fail builds a failure result with no HTTP context.
func fail(msg string) Result {
	return Result{OK: false, Err: msg}
}

// Str returns a string field from the response body, or "" if absent or
// not a string.
func (r Result) Str(key string) string {
	if r.Body == nil {
		return ""
	}
	s, _ := r.Body[key].(string)
	return s
}

// Decode unmarshals the raw response body into v. Useful when a caller
// needs a typed view of the payload (e.g. the transitions list).
func (r Result) Decode(v interface{}) error {
	return json.Unmarshal(r.raw, v)
}
