package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

var ErrNoJSON = errors.New("no JSON object in response")

// ParseJSON decodes the JSON object embedded in raw model output into v.
// Code fences and surrounding prose are ignored; malformed objects are run
// through jsonrepair before giving up.
func ParseJSON(raw string, v any) error {
	candidate, err := ExtractObject(raw)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(candidate), v); err == nil {
		return nil
	}
	repaired, err := jsonrepair.JSONRepair(candidate)
	if err != nil {
		return fmt.Errorf("repair JSON: %w", err)
	}
	if err := json.Unmarshal([]byte(repaired), v); err != nil {
		return fmt.Errorf("decode repaired JSON: %w", err)
	}
	return nil
}

// ExtractObject returns the outermost {...} span of s.
func ExtractObject(s string) (string, error) {
	s = stripFences(s)
	start := strings.Index(s, "{")
	if start < 0 {
		return "", ErrNoJSON
	}
	end := strings.LastIndex(s, "}")
	if end < start {
		// Truncated output; let the repair pass close it.
		return s[start:], nil
	}
	return s[start : end+1], nil
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	if i := strings.LastIndex(s, "```"); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}
