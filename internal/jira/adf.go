package jira

import (
	"encoding/json"
	"strings"
)

// Jira Cloud's v3 API represents rich text as ADF (Atlassian Document
// Format), a JSON document tree. Tickets carry plain text, so the bridge
// only ever needs single-level paragraph documents in each direction.

// adfDoc is the subset of ADF the bridge produces and consumes.
type adfDoc struct {
	Type    string    `json:"type"`
	Version int       `json:"version,omitempty"`
	Content []adfNode `json:"content,omitempty"`
}

type adfNode struct {
	Type    string    `json:"type"`
	Text    string    `json:"text,omitempty"`
	Content []adfNode `json:"content,omitempty"`
}

// TextToADF wraps plain text in an ADF document, one paragraph per line.
func TextToADF(text string) map[string]interface{} {
	var content []interface{}
	for _, line := range strings.Split(text, "\n") {
		para := map[string]interface{}{
			"type":    "paragraph",
			"content": []interface{}{},
		}
		if line != "" {
			para["content"] = []interface{}{
				map[string]interface{}{"type": "text", "text": line},
			}
		}
		content = append(content, para)
	}

	return map[string]interface{}{
		"type":    "doc",
		"version": 1,
		"content": content,
	}
}

// ADFToText extracts plain text from an ADF document. Non-ADF values
// (plain JSON strings, or anything unparseable) pass through as text,
// since self-hosted Jira still returns plain descriptions.
func ADFToText(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}

	var doc adfDoc
	if err := json.Unmarshal(raw, &doc); err != nil || doc.Type != "doc" {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
		return string(raw)
	}

	var lines []string
	for _, block := range doc.Content {
		var b strings.Builder
		for _, inline := range block.Content {
			b.WriteString(inline.Text)
		}
		if b.Len() > 0 {
			lines = append(lines, b.String())
		}
	}
	return strings.Join(lines, "\n")
}
