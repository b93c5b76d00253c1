package languageutil

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Casers keep state, so every call builds its own.
func lower(s string) string {
	return cases.Lower(language.English).String(s)
}

func title(s string) string {
	return cases.Title(language.English).String(s)
}

// collapseSpaces trims s and squeezes inner whitespace runs to one space.
func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// NormalizeTags lower-cases and trims tags, drops empty and duplicate
// entries and keeps at most limit of them in their original order.
func NormalizeTags(tags []string, limit int) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		normalized := lower(collapseSpaces(tag))
		if normalized == "" {
			continue
		}
		if _, ok := seen[normalized]; ok {
			continue
		}
		seen[normalized] = struct{}{}
		out = append(out, normalized)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

// DisplayName tidies a generated garment or collection name. Names that come
// back fully lower-cased are title-cased, anything else is kept as written.
func DisplayName(name string) string {
	name = collapseSpaces(name)
	if name != "" && name == lower(name) {
		return title(name)
	}
	return name
}

// Truncate cuts s to at most max runes.
func Truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return strings.TrimSpace(string(runes[:max]))
}
