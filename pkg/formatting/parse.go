package formatting

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrParseFailed is returned when no JSON value in content decodes into the
// target type.
var ErrParseFailed = errors.New("no JSON value found")

var fence = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")

// Parse decodes a JSON value from model output into T. It tries the content
// as a whole, then the first fenced code block, then the outermost {...}
// span, which covers replies that wrap the object in prose.
func Parse[T any](content string) (T, error) {
	var result T

	for _, candidate := range candidates(strings.TrimSpace(content)) {
		var v T
		if err := json.Unmarshal([]byte(candidate), &v); err == nil {
			return v, nil
		}
	}

	return result, fmt.Errorf("%w: %s", ErrParseFailed, truncate(content, 200))
}

func candidates(content string) []string {
	out := []string{content}
	if m := fence.FindStringSubmatch(content); m != nil {
		out = append(out, strings.TrimSpace(m[1]))
	}
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start >= 0 && end > start {
		out = append(out, content[start:end+1])
	}
	return out
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
