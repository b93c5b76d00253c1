package jsonutil

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAcceptedShapes(t *testing.T) {
	cases := map[string]string{
		"raw":                `{"a":1}`,
		"fenced json":        "```json\n{\"a\":1}\n```",
		"fenced plain":       "```\n{\"a\":1}\n```",
		"prose":              "Here is the result:\n{\"a\":1}\nHope that helps!",
		"fence inside prose": "Sure thing!\n```json\n{\"a\":1}\n```\nLet me know.",
		"padded":             "   \n{\"a\":1}\n\n",
		"braces in prose":    "Result for {item}:\n```json\n{\"a\":1}\n```",
		"fenced with prose":  "Parsed {a}\n```\n{\"a\":1}\n```\nfrom {b}",
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			value, err := Parse(input)
			require.NoError(t, err)
			assert.Equal(t, map[string]any{"a": float64(1)}, value)
		})
	}
}

func TestParseRoundTripsCleanJSON(t *testing.T) {
	values := []any{
		map[string]any{"name": "Sneakers", "colors": []any{"white", "grey"}, "isWearable": true},
		[]any{float64(1), "two", nil},
		"plain string",
		float64(42),
		nil,
	}
	for _, v := range values {
		encoded, err := json.Marshal(v)
		require.NoError(t, err)

		parsed, err := Parse(string(encoded))
		require.NoError(t, err)
		assert.Equal(t, v, parsed)
	}
}

func TestParseFailsWithParseError(t *testing.T) {
	inputs := []string{
		"no json here",
		"",
		"{ broken",
		"} backwards {",
		"```json\n{\"a\": }\n```",
	}
	for _, input := range inputs {
		_, err := Parse(input)
		require.Error(t, err, input)

		var parseErr *ParseError
		require.True(t, errors.As(err, &parseErr), "expected ParseError for %q, got %T", input, err)
		assert.Equal(t, input, parseErr.Text)
	}
}

func TestDecodeIntoStruct(t *testing.T) {
	type item struct {
		Name     string   `json:"name"`
		Category string   `json:"category"`
		Colors   []string `json:"colors"`
	}
	out, err := Decode[item]("```json\n{\"name\":\"Sneakers\",\"category\":\"shoes\",\"colors\":[\"white\"]}\n```")
	require.NoError(t, err)
	assert.Equal(t, "Sneakers", out.Name)
	assert.Equal(t, "shoes", out.Category)
	assert.Equal(t, []string{"white"}, out.Colors)
}

func TestDecodeTypeMismatchIsParseError(t *testing.T) {
	type item struct {
		Name string `json:"name"`
	}
	_, err := Decode[item](`{"name": 12}`)
	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, `{"name": 12}`, parseErr.Text)
}

func TestParseErrorPreviewIsTruncated(t *testing.T) {
	long := strings.Repeat("x", 500)
	_, err := Parse(long)
	require.Error(t, err)
	assert.Less(t, len(err.Error()), 300)

	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Len(t, parseErr.Text, 500)
}

func TestStripMarkdownFencesKeepsFirstFenceContent(t *testing.T) {
	text := "Intro {x}\n```json\n{\"a\":1}\n```\n```json\n{\"b\":2}\n```"
	assert.Equal(t, "{\"a\":1}\n", StripMarkdownFences(text))
	assert.Equal(t, "no fence here", StripMarkdownFences("no fence here"))
}

func TestParseFallsBackWhenFenceIsBroken(t *testing.T) {
	value, err := Parse("```json\nnote: {\"a\":1} done\n```")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": float64(1)}, value)
}

func TestParseErrorPreviewKeepsRunesWhole(t *testing.T) {
	text := strings.Repeat("a", 199) + "é and then some prose without json"
	_, err := Parse(text)
	require.Error(t, err)
	assert.True(t, utf8.ValidString(err.Error()))
	assert.Contains(t, err.Error(), "é...")
}
