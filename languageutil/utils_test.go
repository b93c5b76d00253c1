package languageutil

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeTags(t *testing.T) {
	tests := []struct {
		name  string
		in    []string
		limit int
		want  []string
	}{
		{"lower and trim", []string{" White ", "GREY"}, 10, []string{"white", "grey"}},
		{"dedupe after normalizing", []string{"Casual", "casual", " CASUAL"}, 10, []string{"casual"}},
		{"drops empty", []string{"", "  ", "navy"}, 10, []string{"navy"}},
		{"inner spaces", []string{"smart   casual"}, 10, []string{"smart casual"}},
		{"caps at limit", []string{"a", "b", "c", "d"}, 2, []string{"a", "b"}},
		{"nil input", nil, 10, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeTags(tt.in, tt.limit))
		})
	}
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "White Sneakers", DisplayName("  white   sneakers "))
	assert.Equal(t, "iPhone Case", DisplayName("iPhone Case"))
	assert.Equal(t, "", DisplayName("   "))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 50))
	assert.Equal(t, "abc", Truncate("abcdef", 3))

	long := strings.Repeat("é", 60)
	cut := Truncate(long, 50)
	assert.Equal(t, 50, utf8.RuneCountInString(cut))
	assert.True(t, utf8.ValidString(cut))
}
