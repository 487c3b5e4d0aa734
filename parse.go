package dendrite

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// extractCandidate pulls the first JSON object out of raw model output and
// flattens it into a candidate ParameterSet. Models frequently wrap the
// object in code fences or prose, so extraction scans for the outermost
// braces rather than demanding a clean document.
func extractCandidate(raw string) (ParameterSet, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return nil, fmt.Errorf("%w: empty response", ErrParse)
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end < start {
		return nil, fmt.Errorf("%w: no JSON object in response", ErrParse)
	}
	text = text[start : end+1]

	parsed := gjson.Parse(text)
	if !parsed.IsObject() {
		return nil, fmt.Errorf("%w: response is not a JSON object", ErrParse)
	}

	candidate := make(ParameterSet)
	parsed.ForEach(func(key, value gjson.Result) bool {
		candidate[key.String()] = value.Value()
		return true
	})
	if len(candidate) == 0 {
		return nil, fmt.Errorf("%w: response object is empty", ErrParse)
	}
	return candidate, nil
}
