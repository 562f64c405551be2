package extraction

import (
	"encoding/json"
	"strings"
)

// ParseResponse recovers a JSON object from the model's free-text response.
// Markdown code fences are stripped, and if the remaining text is not a clean
// JSON object the substring from the first { to the last } is taken as the
// candidate, tolerating leading or trailing commentary.
//
// The brace scan is outermost and not nesting-aware: a } inside a string value
// before the real closing brace mis-extracts. Accepted limitation.
//
// The returned map carries raw field values unchanged; defaulting of missing
// fields happens at record construction, not here.
func ParseResponse(text string) (map[string]any, error) {
	original := text

	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	if !strings.HasPrefix(text, "{") || !strings.HasSuffix(text, "}") {
		startIdx := strings.Index(text, "{")
		if startIdx == -1 {
			return nil, &ParseError{Reason: "no JSON object found in response", Raw: original}
		}
		endIdx := strings.LastIndex(text, "}")
		if endIdx == -1 || endIdx < startIdx {
			return nil, &ParseError{Reason: "no JSON object found in response", Raw: original}
		}
		text = text[startIdx : endIdx+1]
	}

	var fields map[string]any
	if err := json.Unmarshal([]byte(text), &fields); err != nil {
		return nil, &ParseError{Reason: "invalid_structure", Raw: original, Err: err}
	}

	return fields, nil
}
