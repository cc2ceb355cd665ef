package llm

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// ExtractObject returns the outermost JSON object embedded in model text,
// tolerating prose or code fences around it.
func ExtractObject(text string) (gjson.Result, error) {
	return extract(text, "{", "}")
}

// ExtractArray returns the outermost JSON array embedded in model text.
func ExtractArray(text string) (gjson.Result, error) {
	return extract(text, "[", "]")
}

func extract(text, open, close string) (gjson.Result, error) {
	start := strings.Index(text, open)
	end := strings.LastIndex(text, close)
	if start == -1 || end == -1 || end <= start {
		return gjson.Result{}, fmt.Errorf("no JSON %s...%s found in response (got %d chars): %q", open, close, len(text), preview(text))
	}
	raw := text[start : end+1]
	if !gjson.Valid(raw) {
		return gjson.Result{}, fmt.Errorf("invalid JSON in response: %q", preview(raw))
	}
	return gjson.Parse(raw), nil
}

func preview(s string) string {
	if len(s) > 200 {
		return s[:200] + "... (truncated)"
	}
	return s
}
