package matching

import (
	"math"
	"testing"
)

// TestSimilarity_Identical verifies identical strings score exactly 1.0,
// regardless of case.
func TestSimilarity_Identical(t *testing.T) {
	if got := Similarity("smith", "smith"); got != 1.0 {
		t.Errorf("Similarity(smith, smith) = %f, want 1.0", got)
	}
	if got := Similarity("Smith", "sMITH"); got != 1.0 {
		t.Errorf("case-insensitive identity = %f, want 1.0", got)
	}
}

// TestSimilarity_EmptyCases verifies the empty-string conventions.
func TestSimilarity_EmptyCases(t *testing.T) {
	if got := Similarity("", ""); got != 1.0 {
		t.Errorf("Similarity(\"\", \"\") = %f, want 1.0", got)
	}
	if got := Similarity("smith", ""); got != 0.0 {
		t.Errorf("Similarity(smith, \"\") = %f, want 0.0", got)
	}
	if got := Similarity("", "smith"); got != 0.0 {
		t.Errorf("Similarity(\"\", smith) = %f, want 0.0", got)
	}
}

// TestSimilarity_SingleEdit verifies a one-character substitution in a
// five-letter word scores 0.8: high but clearly below identity.
func TestSimilarity_SingleEdit(t *testing.T) {
	got := Similarity("smith", "smyth")
	if math.Abs(got-0.8) > 1e-9 {
		t.Errorf("Similarity(smith, smyth) = %f, want 0.8", got)
	}
	if got <= 0.7 || got >= 0.95 {
		t.Errorf("single-edit similarity %f outside expected band (0.7, 0.95)", got)
	}
}

// TestSimilarity_Unrelated verifies dissimilar strings score low.
func TestSimilarity_Unrelated(t *testing.T) {
	if got := Similarity("smith", "zhang"); got > 0.3 {
		t.Errorf("Similarity(smith, zhang) = %f, want <= 0.3", got)
	}
}

// TestSimilarity_RuneLength verifies the divisor counts runes, not bytes, so
// multibyte names are not over-penalized.
func TestSimilarity_RuneLength(t *testing.T) {
	// One substitution in a six-rune name: 1 - 1/6.
	got := Similarity("garcía", "garcia")
	want := 1.0 - 1.0/6.0
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("Similarity(garcía, garcia) = %f, want %f", got, want)
	}
}

// TestSimilarity_Symmetric verifies argument order does not matter.
func TestSimilarity_Symmetric(t *testing.T) {
	if a, b := Similarity("jonathan", "jon"), Similarity("jon", "jonathan"); a != b {
		t.Errorf("similarity not symmetric: %f vs %f", a, b)
	}
}
