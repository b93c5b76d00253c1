// Package jsonutil extracts JSON from generative model replies that may be
// wrapped in markdown code fences or surrounded by prose.
package jsonutil

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"wardrobewiz/languageutil"
)

const previewLength = 200

// ParseError is the only error returned by Parse and Decode. Text holds the
// complete reply so it can be stored for offline debugging.
type ParseError struct {
	Text string
	Err  error
}

func (e *ParseError) Error() string {
	preview := e.Text
	if utf8.RuneCountInString(preview) > previewLength {
		preview = languageutil.Truncate(preview, previewLength) + "..."
	}
	if e.Err == nil {
		return fmt.Sprintf("response parse error (text: %s)", preview)
	}
	return fmt.Sprintf("response parse error: %v (text: %s)", e.Err, preview)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

var fencePattern = regexp.MustCompile("(?s)```(?:json|JSON)?[ \t]*\r?\n?(.*?)```")

// StripMarkdownFences returns the content of the first fenced block, or
// text unchanged when there is no fence.
func StripMarkdownFences(text string) string {
	content, ok := fencedContent(text)
	if !ok {
		return text
	}
	return content
}

func fencedContent(text string) (string, bool) {
	loc := fencePattern.FindStringSubmatchIndex(text)
	if loc == nil {
		return "", false
	}
	return text[loc[2]:loc[3]], true
}

// ExtractObject returns the substring between the first '{' and the last '}'.
func ExtractObject(text string) (string, bool) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end < start {
		return "", false
	}
	return text[start : end+1], true
}

// candidate runs the cleanup steps in priority order and returns the first
// fragment that is valid JSON. The object cut is tried on the fenced
// content first, then on the whole reply.
func candidate(raw string) (string, error) {
	if json.Valid([]byte(raw)) {
		return raw, nil
	}

	sources := []string{}
	if content, ok := fencedContent(raw); ok {
		content = strings.TrimSpace(content)
		if json.Valid([]byte(content)) {
			return content, nil
		}
		sources = append(sources, content)
	}
	sources = append(sources, strings.TrimSpace(raw))

	var lastErr error = fmt.Errorf("no JSON object found")
	for _, source := range sources {
		object, ok := ExtractObject(source)
		if !ok {
			continue
		}
		object = strings.TrimSpace(object)
		var probe any
		if err := json.Unmarshal([]byte(object), &probe); err != nil {
			lastErr = err
			continue
		}
		return object, nil
	}
	return "", &ParseError{Text: raw, Err: lastErr}
}

// Parse extracts a JSON value from a model reply.
func Parse(raw string) (any, error) {
	fragment, err := candidate(raw)
	if err != nil {
		return nil, err
	}
	var value any
	if err := json.Unmarshal([]byte(fragment), &value); err != nil {
		return nil, &ParseError{Text: raw, Err: err}
	}
	return value, nil
}

// Decode extracts a JSON value from a model reply and unmarshals it into T.
func Decode[T any](raw string) (T, error) {
	var result T
	fragment, err := candidate(raw)
	if err != nil {
		return result, err
	}
	if err := json.Unmarshal([]byte(fragment), &result); err != nil {
		var zero T
		return zero, &ParseError{Text: raw, Err: err}
	}
	return result, nil
}
