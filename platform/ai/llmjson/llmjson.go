// Package llmjson decodes JSON emitted by language models, which often comes
// wrapped in markdown fences or with small syntax slips.
package llmjson

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// ErrNoJSON is returned when the text contains no JSON object or array.
var ErrNoJSON = errors.New("no json found in model output")

// Decode extracts the first JSON value from raw and unmarshals it into out.
// Malformed JSON is passed through jsonrepair once before giving up.
func Decode(raw string, out any) error {
	candidate := Extract(raw)
	if candidate == "" {
		return ErrNoJSON
	}

	if err := json.Unmarshal([]byte(candidate), out); err == nil {
		return nil
	}

	repaired, err := jsonrepair.JSONRepair(candidate)
	if err != nil {
		return fmt.Errorf("repair model json: %w", err)
	}
	if err := json.Unmarshal([]byte(repaired), out); err != nil {
		return fmt.Errorf("decode model json: %w", err)
	}
	return nil
}

// Extract strips code fences and surrounding prose and returns the span from
// the first opening brace or bracket to the matching last closing one.
func Extract(raw string) string {
	text := strings.TrimSpace(raw)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		if nl := strings.IndexByte(text, '\n'); nl >= 0 {
			text = text[nl+1:]
		}
		text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	}

	start := strings.IndexAny(text, "{[")
	if start < 0 {
		return ""
	}
	closer := byte('}')
	if text[start] == '[' {
		closer = ']'
	}
	end := strings.LastIndexByte(text, closer)
	if end < start {
		// Truncated output; let jsonrepair close it.
		return strings.TrimSpace(text[start:])
	}
	return strings.TrimSpace(text[start : end+1])
}
