package matching

import (
	"strings"

	"github.com/agnivade/levenshtein"
)

// Similarity returns an edit-distance similarity between two strings in
// [0, 1], defined as 1 - distance/max(len). The comparison is
// case-insensitive. Identical strings score 1.0; if exactly one side is empty
// the score is 0. Two empty strings are defined as 1.0 to avoid a zero
// denominator, though tokenization never emits empty tokens so the case does
// not influence matching.
func Similarity(a, b string) float64 {
	a = strings.ToLower(a)
	b = strings.ToLower(b)

	if a == b {
		return 1.0
	}
	if a == "" || b == "" {
		return 0.0
	}

	distance := levenshtein.ComputeDistance(a, b)
	maxLen := len([]rune(a))
	if l := len([]rune(b)); l > maxLen {
		maxLen = l
	}
	return 1.0 - float64(distance)/float64(maxLen)
}
