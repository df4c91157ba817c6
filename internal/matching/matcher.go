package matching

import (
	"sort"
	"strings"
)

// MatchType labels the strategy that produced a candidate's winning score.
type MatchType string

// Match strategies, in priority order. When two strategies tie on score, the
// earlier (higher-priority) one labels the match.
const (
	MatchExactEmail  MatchType = "exact_email"
	MatchEmailDomain MatchType = "email_domain"
	MatchExactName   MatchType = "exact_name"
	MatchAlias       MatchType = "alias"
	MatchFuzzyName   MatchType = "fuzzy_name"
)

// DefaultThreshold is the general-purpose minimum score for a candidate to be
// reported. The resolution orchestrator uses its own, stricter threshold for
// person resolution; the two are deliberately separate knobs.
const DefaultThreshold = 0.6

// Scoring constants for the individual strategies.
const (
	domainSimilarityFloor = 0.8  // Domain similarity must exceed this to count
	domainScoreWeight     = 0.7  // Domain-only matches are discounted
	exactNameScore        = 0.95 // Normalized-name equality
	aliasScoreFloor       = 0.9  // Token scores above this are labeled "alias"
	boostFirstFloor       = 0.8  // First-name similarity gate for the structural boost
	boostLastFloor        = 0.6  // Last-name similarity gate for the structural boost
)

// Query is the attendee identity being matched. Either field may be empty.
type Query struct {
	Name  string
	Email string
}

// Candidate is one known identity to score the query against.
type Candidate struct {
	ID      string
	Name    string
	Email   string
	Aliases []string
}

// Match pairs a candidate with its winning score and strategy label.
type Match struct {
	Candidate Candidate
	Score     float64
	Type      MatchType
}

// FindBestMatches scores the query against every candidate independently and
// returns the candidates at or above threshold, sorted by score descending.
// Ties keep candidate insertion order. An empty query or empty candidate list
// yields an empty result, never an error.
func FindBestMatches(query Query, candidates []Candidate, threshold float64) []Match {
	matches := make([]Match, 0, len(candidates))

	queryTokens := Tokens(query.Name)
	queryEmail := strings.ToLower(strings.TrimSpace(query.Email))
	queryNorm := Normalize(query.Name)

	for _, candidate := range candidates {
		score, matchType := scoreCandidate(query, queryNorm, queryTokens, queryEmail, candidate)
		if score >= threshold && score > 0 {
			matches = append(matches, Match{Candidate: candidate, Score: score, Type: matchType})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	return matches
}

// scoreCandidate evaluates all strategies for one candidate and keeps the
// maximum, preferring the earlier strategy on ties.
func scoreCandidate(query Query, queryNorm string, queryTokens []string, queryEmail string, candidate Candidate) (float64, MatchType) {
	best := 0.0
	bestType := MatchFuzzyName

	consider := func(score float64, matchType MatchType) {
		if score > best {
			best = score
			bestType = matchType
		}
	}

	candidateEmail := strings.ToLower(strings.TrimSpace(candidate.Email))

	// Strategy 1: exact email. Highest possible score for this candidate;
	// other candidates are still evaluated by the caller.
	if queryEmail != "" && queryEmail == candidateEmail {
		return 1.0, MatchExactEmail
	}

	// Strategy 2: email domain proximity.
	if queryEmail != "" && candidateEmail != "" {
		queryDomain := ExtractDomain(queryEmail)
		candidateDomain := ExtractDomain(candidateEmail)
		if queryDomain != "" && candidateDomain != "" {
			if domainScore := Similarity(queryDomain, candidateDomain); domainScore > domainSimilarityFloor {
				consider(domainScore*domainScoreWeight, MatchEmailDomain)
			}
		}
	}

	// Strategy 3: exact normalized name.
	if queryNorm != "" && queryNorm == Normalize(candidate.Name) {
		consider(exactNameScore, MatchExactName)
	}

	// Strategy 4: fuzzy token comparison against the candidate's name and
	// every alias, keeping the best pairwise token score.
	if len(queryTokens) > 0 {
		fuzzy := fuzzyNameScore(query.Name, queryTokens, candidate.Name)
		for _, alias := range candidate.Aliases {
			if s := fuzzyNameScore(query.Name, queryTokens, alias); s > fuzzy {
				fuzzy = s
			}
		}
		if fuzzy > aliasScoreFloor {
			consider(fuzzy, MatchAlias)
		} else {
			consider(fuzzy, MatchFuzzyName)
		}
	}

	return best, bestType
}

// fuzzyNameScore computes the maximum pairwise token similarity between the
// query tokens and the tokens of one candidate name, then applies a
// structural boost: when both names have at least two parts and the first and
// last parts are each similar, the score is raised to at least the average of
// those two sub-scores. This rescues abbreviated forms ("Jon Smith" vs
// "Jonathan Smith") that token comparison alone undervalues.
func fuzzyNameScore(queryName string, queryTokens []string, candidateName string) float64 {
	candidateTokens := Tokens(candidateName)
	if len(candidateTokens) == 0 {
		return 0.0
	}

	best := 0.0
	for _, qt := range queryTokens {
		for _, ct := range candidateTokens {
			if s := Similarity(qt, ct); s > best {
				best = s
			}
		}
	}

	queryParts := strings.Fields(Normalize(queryName))
	candidateParts := strings.Fields(Normalize(candidateName))
	if len(queryParts) >= 2 && len(candidateParts) >= 2 {
		firstSim := Similarity(queryParts[0], candidateParts[0])
		lastSim := Similarity(queryParts[len(queryParts)-1], candidateParts[len(candidateParts)-1])
		if firstSim > boostFirstFloor && lastSim > boostLastFloor {
			if boosted := (firstSim + lastSim) / 2; boosted > best {
				best = boosted
			}
		}
	}

	return best
}
