package matching

import (
	"math"
	"testing"
)

// TestFindBestMatches_ExactEmail verifies an exact email match scores a
// perfect 1.0 even when the names disagree.
func TestFindBestMatches_ExactEmail(t *testing.T) {
	candidates := []Candidate{
		{ID: "per:1", Name: "Completely Different", Email: "sara@acme.com"},
	}

	matches := FindBestMatches(Query{Name: "Sara Chen", Email: "sara@acme.com"}, candidates, DefaultThreshold)
	if len(matches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(matches))
	}
	if matches[0].Score != 1.0 {
		t.Errorf("exact email score = %f, want 1.0", matches[0].Score)
	}
	if matches[0].Type != MatchExactEmail {
		t.Errorf("match type = %s, want %s", matches[0].Type, MatchExactEmail)
	}
}

// TestFindBestMatches_EmailDomain verifies same-domain different-address pairs
// score at the discounted domain weight.
func TestFindBestMatches_EmailDomain(t *testing.T) {
	candidates := []Candidate{
		{ID: "per:1", Name: "", Email: "bob@acme.com"},
	}

	matches := FindBestMatches(Query{Email: "alice@acme.com"}, candidates, DefaultThreshold)
	if len(matches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(matches))
	}
	if math.Abs(matches[0].Score-0.7) > 1e-9 {
		t.Errorf("domain match score = %f, want 0.7", matches[0].Score)
	}
	if matches[0].Type != MatchEmailDomain {
		t.Errorf("match type = %s, want %s", matches[0].Type, MatchEmailDomain)
	}
}

// TestFindBestMatches_DissimilarDomains verifies unrelated domains contribute
// nothing.
func TestFindBestMatches_DissimilarDomains(t *testing.T) {
	candidates := []Candidate{
		{ID: "per:1", Name: "", Email: "bob@globex.io"},
	}

	matches := FindBestMatches(Query{Email: "alice@acme.com"}, candidates, DefaultThreshold)
	if len(matches) != 0 {
		t.Errorf("expected no matches, got %v", matches)
	}
}

// TestFindBestMatches_ExactName verifies normalized-name equality scores 0.95.
func TestFindBestMatches_ExactName(t *testing.T) {
	candidates := []Candidate{
		{ID: "per:1", Name: "john smith"},
	}

	matches := FindBestMatches(Query{Name: "John Smith"}, candidates, DefaultThreshold)
	if len(matches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(matches))
	}
	// A shared full-name token also scores 1.0 through the fuzzy strategy,
	// which outranks the 0.95 exact-name score.
	if matches[0].Score < 0.95 {
		t.Errorf("exact name score = %f, want >= 0.95", matches[0].Score)
	}
}

// TestFindBestMatches_AliasToken verifies a learned alias carries a match
// the canonical name alone would miss, labeled as an alias match.
func TestFindBestMatches_AliasToken(t *testing.T) {
	withAlias := []Candidate{
		{ID: "per:1", Name: "Robert Zhang", Aliases: []string{"Bobby Z"}},
	}

	matches := FindBestMatches(Query{Name: "Bobby Z"}, withAlias, DefaultThreshold)
	if len(matches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(matches))
	}
	if matches[0].Type != MatchAlias {
		t.Errorf("match type = %s, want %s", matches[0].Type, MatchAlias)
	}
	if matches[0].Score <= 0.9 {
		t.Errorf("alias score = %f, want > 0.9", matches[0].Score)
	}

	// Control: without the alias the canonical name scores well below the
	// alias band.
	withoutAlias := []Candidate{{ID: "per:1", Name: "Robert Zhang"}}
	matches = FindBestMatches(Query{Name: "Bobby Z"}, withoutAlias, DefaultThreshold)
	for _, m := range matches {
		if m.Score > 0.9 {
			t.Errorf("canonical-name score = %f, expected below alias band", m.Score)
		}
	}
}

// TestFindBestMatches_FuzzySingleWord verifies a near-miss single-word name
// lands in the fuzzy band below the alias floor.
func TestFindBestMatches_FuzzySingleWord(t *testing.T) {
	candidates := []Candidate{
		{ID: "per:1", Name: "Jonathon"},
	}

	matches := FindBestMatches(Query{Name: "Jonathan"}, candidates, DefaultThreshold)
	if len(matches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(matches))
	}
	if math.Abs(matches[0].Score-0.875) > 1e-9 {
		t.Errorf("fuzzy score = %f, want 0.875", matches[0].Score)
	}
	if matches[0].Type != MatchFuzzyName {
		t.Errorf("match type = %s, want %s", matches[0].Type, MatchFuzzyName)
	}
}

// TestFindBestMatches_ThresholdFilters verifies candidates below threshold are
// dropped rather than reported with low scores.
func TestFindBestMatches_ThresholdFilters(t *testing.T) {
	candidates := []Candidate{
		{ID: "per:1", Name: "Xiulan Zhang"},
	}

	matches := FindBestMatches(Query{Name: "Pete Rivera"}, candidates, DefaultThreshold)
	if len(matches) != 0 {
		t.Errorf("expected no matches, got %v", matches)
	}
}

// TestFindBestMatches_SortedByScore verifies results come back score-descending.
func TestFindBestMatches_SortedByScore(t *testing.T) {
	candidates := []Candidate{
		{ID: "per:domain", Email: "other@acme.com"},
		{ID: "per:email", Email: "sara@acme.com"},
	}

	matches := FindBestMatches(Query{Email: "sara@acme.com"}, candidates, DefaultThreshold)
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(matches))
	}
	if matches[0].Candidate.ID != "per:email" {
		t.Errorf("best match = %s, want per:email", matches[0].Candidate.ID)
	}
	if matches[0].Score < matches[1].Score {
		t.Errorf("matches not sorted: %f then %f", matches[0].Score, matches[1].Score)
	}
}

// TestFindBestMatches_EmptyInputs verifies empty queries and candidate lists
// yield empty results, never errors or panics.
func TestFindBestMatches_EmptyInputs(t *testing.T) {
	if matches := FindBestMatches(Query{}, []Candidate{{ID: "per:1", Name: "Sara Chen"}}, DefaultThreshold); len(matches) != 0 {
		t.Errorf("empty query: expected no matches, got %v", matches)
	}
	if matches := FindBestMatches(Query{Name: "Sara Chen"}, nil, DefaultThreshold); len(matches) != 0 {
		t.Errorf("no candidates: expected no matches, got %v", matches)
	}
}
