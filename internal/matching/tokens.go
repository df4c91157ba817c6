// Package matching implements the string-level machinery for entity
// resolution: name tokenization, edit-distance similarity, and multi-strategy
// fuzzy matching of attendee identities against candidate records.
package matching

import (
	"sort"
	"strings"
	"unicode"
)

// Normalize lowercases a name, strips punctuation, and collapses whitespace.
// Apostrophes are removed ("O'Brien" → "obrien"); other punctuation becomes a
// word boundary ("Chen-Smith" → "chen smith"). Garbage in, empty string out —
// Normalize never fails.
func Normalize(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range strings.ToLower(name) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case r == '\'' || r == '’':
			// drop
		default:
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// Tokens derives the comparison token set for a name: the full normalized
// name, each multi-character part, the common abbreviation patterns
// ("john s", "j smith", "j s"), and the all-initials string. The result is
// deduplicated and sorted for determinism. Empty or garbage input yields an
// empty set rather than an error.
func Tokens(name string) []string {
	normalized := Normalize(name)
	if normalized == "" {
		return nil
	}

	seen := map[string]bool{normalized: true}
	parts := strings.Fields(normalized)

	for _, part := range parts {
		if len(part) > 1 {
			seen[part] = true
		}
	}

	if len(parts) >= 2 {
		first := parts[0]
		last := parts[len(parts)-1]
		firstInitial := initial(first)
		lastInitial := initial(last)

		seen[first+" "+lastInitial] = true
		seen[firstInitial+" "+last] = true
		seen[firstInitial+" "+lastInitial] = true

		var initials strings.Builder
		for _, part := range parts {
			initials.WriteString(initial(part))
		}
		seen[initials.String()] = true
	}

	tokens := make([]string, 0, len(seen))
	for token := range seen {
		tokens = append(tokens, token)
	}
	sort.Strings(tokens)
	return tokens
}

// initial returns the first rune of a part as a string. Parts are never empty
// here; they come from strings.Fields.
func initial(part string) string {
	for _, r := range part {
		return string(r)
	}
	return ""
}
