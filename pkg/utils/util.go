package utils

import (
	"encoding/json"
	"strings"

	"github.com/mkrogh/tekstfix/pkg/errors"
)

// ExtractJSON strips markdown code fences from an LLM response. Models
// regularly wrap JSON in ```json blocks even when told not to.
func ExtractJSON(response string) string {
	s := strings.TrimSpace(response)

	if i := strings.Index(s, "```json"); i >= 0 {
		s = s[i+len("```json"):]
	} else if i := strings.Index(s, "```"); i >= 0 {
		s = s[i+len("```"):]
	} else {
		return s
	}

	if j := strings.LastIndex(s, "```"); j >= 0 {
		s = s[:j]
	}

	return strings.TrimSpace(s)
}

// ParseJSONResponse attempts to parse a string response as JSON.
// Markdown code fences around the payload are removed first.
func ParseJSONResponse(response string) (map[string]interface{}, error) {
	var result map[string]interface{}
	err := json.Unmarshal([]byte(ExtractJSON(response)), &result)
	if err != nil {
		return nil, errors.Wrap(err, errors.InvalidResponse, "failed to parse response as JSON")
	}
	return result, nil
}
