// Package jsonx parses JSON out of model output that may be wrapped in
// markdown code fences or surrounded by prose.
package jsonx

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var (
	// Newlines around the fenced body are optional; models are inconsistent.
	codeFenceRegex     = regexp.MustCompile("(?s)```(?:json)?\\s*\\n?([\\s\\S]*?)\\n?```")
	trailingCommaRegex = regexp.MustCompile(`,(\s*[}\]])`)
	arrayRegex         = regexp.MustCompile(`(?s)\[[\s\S]*\]`)
	objectRegex        = regexp.MustCompile(`(?s)\{[\s\S]*\}`)
)

// Unmarshal decodes text into out, trying in order: the raw text, the text
// with code fences stripped, the fence-stripped text with trailing commas
// removed, and finally the first JSON array/object embedded in mixed content.
func Unmarshal(text string, out any) error {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return fmt.Errorf("empty input")
	}

	if err := json.Unmarshal([]byte(trimmed), out); err == nil {
		return nil
	}

	unfenced := StripCodeFences(trimmed)
	if err := json.Unmarshal([]byte(unfenced), out); err == nil {
		return nil
	}

	cleaned := trailingCommaRegex.ReplaceAllString(unfenced, "$1")
	if err := json.Unmarshal([]byte(cleaned), out); err == nil {
		return nil
	}

	if extracted := extract(cleaned); extracted != "" {
		if err := json.Unmarshal([]byte(extracted), out); err == nil {
			return nil
		}
	}

	return fmt.Errorf("no parseable JSON in input")
}

// StripCodeFences removes a wrapping markdown fence, if any.
func StripCodeFences(text string) string {
	cleaned := codeFenceRegex.ReplaceAllString(text, "$1")
	return strings.TrimSpace(cleaned)
}

func extract(text string) string {
	trimmed := strings.TrimSpace(text)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		return objectRegex.FindString(trimmed)
	}
	if m := arrayRegex.FindString(trimmed); m != "" {
		return m
	}
	return objectRegex.FindString(trimmed)
}
