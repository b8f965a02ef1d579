package workflow

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrUnparseable is returned when a model response holds no JSON value.
var ErrUnparseable = errors.New("unparseable agent response")

// ParseJSON decodes a model response. Responses often wrap the JSON in prose
// or code fences, so when the whole text does not decode the substring
// between the first '{' and the last '}' is tried.
func ParseJSON(raw string) (any, error) {
	cleaned := strings.TrimSpace(raw)
	if cleaned == "" {
		return nil, fmt.Errorf("%w: empty response", ErrUnparseable)
	}

	var v any
	if err := json.Unmarshal([]byte(cleaned), &v); err == nil {
		return v, nil
	}

	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start != -1 && end > start {
		if err := json.Unmarshal([]byte(cleaned[start:end+1]), &v); err == nil {
			return v, nil
		}
	}
	return nil, ErrUnparseable
}
