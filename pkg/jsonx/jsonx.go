// Package jsonx extracts JSON objects from free-form LLM output. Models
// asked for "JSON only" still wrap the payload in prose or markdown fences
// often enough that every caller needs the same salvage logic.
package jsonx

import (
	"encoding/json"
	"regexp"

	"github.com/promptsim/backend/pkg/apperr"
)

var (
	fencedPattern    = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")
	barePattern      = regexp.MustCompile(`(?s)\{.*\}`)
	delimitedPattern = regexp.MustCompile("(?s)```.*?(\\{.*?\\}).*?```")

	leadingJunk   = regexp.MustCompile(`^[^{]*`)
	trailingJunk  = regexp.MustCompile(`[^}]*$`)
	trailingComma = regexp.MustCompile(`,(\s*[}\]])`)
)

const previewLen = 200

// ExtractObject returns the first-to-last-brace substring of s, the way the
// evaluator expects a bare JSON object in the response.
func ExtractObject(s string) (string, bool) {
	m := barePattern.FindString(s)
	if m == "" {
		return "", false
	}
	return m, true
}

// Extract runs the ordered extraction strategies (fenced code block, bare
// object, fenced block with surrounding noise) and returns the first
// candidate. It fails with a ParseError carrying a response preview.
func Extract(response string) (string, error) {
	if m := fencedPattern.FindStringSubmatch(response); m != nil {
		return m[1], nil
	}
	if m, ok := ExtractObject(response); ok {
		return m, nil
	}
	if m := delimitedPattern.FindStringSubmatch(response); m != nil {
		return m[1], nil
	}
	return "", apperr.Parse("response does not contain a JSON object", preview(response))
}

// Repair strips non-brace prefixes and suffixes and removes trailing commas
// before closing brackets, the two malformations models produce most.
func Repair(s string) string {
	s = leadingJunk.ReplaceAllString(s, "")
	s = trailingJunk.ReplaceAllString(s, "")
	s = trailingComma.ReplaceAllString(s, "$1")
	return s
}

// Unmarshal extracts a JSON object from response and decodes it into v,
// attempting one repair pass if the first decode fails.
func Unmarshal(response string, v interface{}) error {
	candidate, err := Extract(response)
	if err != nil {
		return err
	}

	if err := json.Unmarshal([]byte(candidate), v); err == nil {
		return nil
	}

	repaired := Repair(candidate)
	if err := json.Unmarshal([]byte(repaired), v); err != nil {
		return apperr.Parse("failed to decode JSON after repair", preview(candidate))
	}
	return nil
}

func preview(s string) string {
	if len(s) > previewLen {
		return s[:previewLen]
	}
	return s
}
