// Package scoring computes calibrated, explainable confidence scores for
// entity resolutions. The scorer combines raw match signals into a four-facet
// breakdown (identity, completeness, freshness, reliability) plus a single
// weighted final score, along with human-readable factors and risk flags.
//
// Scoring is pure and CPU-only: no storage, no I/O, safe to run concurrently.
package scoring

import (
	"math"

	"github.com/prebriefhq/prebrief/pkg/types"
)

// Signals are the raw inputs to the scorer, gathered by the resolution
// orchestrator from the match result, the candidate person, and any
// contextual clues available for the meeting.
type Signals struct {
	// EmailMatch is true when the attendee email exactly matched one of the
	// person's known addresses.
	EmailMatch bool

	// NameMatchScore is the fuzzy matcher's name score in [0, 1].
	NameMatchScore float64

	// DomainMatch is true when the attendee's email domain matched the
	// person's company domain.
	DomainMatch bool

	// AliasMatch is true when the match went through a learned alias.
	AliasMatch bool

	// InteractionHistory is the person's sighting count.
	InteractionHistory int

	// ManualVerification is true when a human has confirmed this identity.
	ManualVerification bool

	// TimeDecay is the recency factor in [0, 1]; see TimeDecay.
	TimeDecay float64

	// Contextual clues.
	TitleMatch       bool
	CompanyMatch     bool
	SlackHandleMatch bool
}

// Weights are the facet weights for the final score. The default values are
// empirically chosen; they are preserved as configuration rather than
// re-derived, since downstream consumers calibrate against them.
type Weights struct {
	Identity     float64 `yaml:"identity" json:"identity"`
	Reliability  float64 `yaml:"reliability" json:"reliability"`
	Completeness float64 `yaml:"completeness" json:"completeness"`
	Freshness    float64 `yaml:"freshness" json:"freshness"`
}

// DefaultWeights returns the standard facet weighting.
func DefaultWeights() Weights {
	return Weights{
		Identity:     0.4,
		Reliability:  0.3,
		Completeness: 0.2,
		Freshness:    0.1,
	}
}

// manualVerificationBonus is the identity bonus applied when a human has
// confirmed the identity. Combined with an exact email match it caps the
// identity facet at 1.0.
const manualVerificationBonus = 0.5

// Scorer computes confidence reports from signals. The zero value is not
// usable; construct with NewScorer.
type Scorer struct {
	weights Weights
}

// NewScorer creates a scorer with the default facet weights.
func NewScorer() *Scorer {
	return NewScorerWithWeights(DefaultWeights())
}

// NewScorerWithWeights creates a scorer with custom facet weights.
func NewScorerWithWeights(weights Weights) *Scorer {
	return &Scorer{weights: weights}
}

// Score combines the signals (and the candidate person's profile, when one
// exists) into a confidence report. person may be nil; the completeness facet
// then carries only its base value.
func (s *Scorer) Score(signals Signals, person *types.Person) *types.ConfidenceReport {
	var factors, risks []string

	identity := s.identityFacet(signals, &factors, &risks)
	completeness := s.completenessFacet(person)
	freshness := s.freshnessFacet(signals, &risks)
	reliability := s.reliabilityFacet(signals, &risks)

	final := round2(identity*s.weights.Identity +
		reliability*s.weights.Reliability +
		completeness*s.weights.Completeness +
		freshness*s.weights.Freshness)

	if final < 0.3 {
		risks = append(risks, "Very low confidence")
	} else if final < 0.5 {
		risks = append(risks, "Low confidence")
	}

	return &types.ConfidenceReport{
		FinalScore: final,
		Breakdown: types.ConfidenceBreakdown{
			Identity:     round2(identity),
			Completeness: round2(completeness),
			Freshness:    round2(freshness),
			Reliability:  round2(reliability),
		},
		Factors:   dedupe(factors),
		RiskFlags: dedupe(risks),
	}
}

// identityFacet measures how strongly the signals identify the person.
// Additive, capped at 1.0. The email and domain bonuses are mutually
// exclusive; only one email-related term applies.
func (s *Scorer) identityFacet(signals Signals, factors, risks *[]string) float64 {
	score := 0.0

	if signals.EmailMatch {
		score += 0.5
		*factors = append(*factors, "Exact email match")
	} else if signals.DomainMatch {
		score += 0.3
		*factors = append(*factors, "Email domain matches company")
	}

	switch {
	case signals.NameMatchScore > 0.9:
		score += 0.4
		*factors = append(*factors, "Strong name match")
	case signals.NameMatchScore > 0.7:
		score += 0.25
		*factors = append(*factors, "Good name match")
	case signals.NameMatchScore > 0.5:
		score += 0.1
		*factors = append(*factors, "Partial name match")
	}
	if signals.NameMatchScore > 0.5 && signals.NameMatchScore < 0.6 {
		*risks = append(*risks, "Low name similarity")
	}

	if signals.AliasMatch {
		score += 0.2
		*factors = append(*factors, "Matched via known alias")
	}
	if signals.TitleMatch {
		score += 0.1
		*factors = append(*factors, "Title matches")
	}
	if signals.CompanyMatch {
		score += 0.15
		*factors = append(*factors, "Company matches")
	}
	if signals.SlackHandleMatch {
		score += 0.1
		*factors = append(*factors, "Slack handle matches")
	}

	score = math.Min(1.0, score)

	if signals.ManualVerification {
		score = math.Min(1.0, score+manualVerificationBonus)
		*factors = append(*factors, "Manually verified")
	}

	return score
}

// completenessFacet measures how complete the person's profile is.
func (s *Scorer) completenessFacet(person *types.Person) float64 {
	score := 0.2 // Base score

	if person == nil {
		return score
	}

	if len(person.Emails) > 1 {
		score += 0.1
	}
	if person.Title != "" {
		score += 0.2
	}
	if person.CompanyID != "" {
		score += 0.2
	}
	if person.ProfileURL != "" {
		score += 0.15
	}
	if len(person.Handles) > 0 {
		score += 0.1
	}
	if len(person.Facts) > 0 {
		score += 0.15
	}
	if len(person.Aliases) > 0 {
		score += 0.1
	}

	return math.Min(1.0, score)
}

// freshnessFacet measures how recent the underlying data is.
func (s *Scorer) freshnessFacet(signals Signals, risks *[]string) float64 {
	score := 0.5 // Base score

	if signals.TimeDecay > 0.8 {
		score += 0.3
	} else if signals.TimeDecay > 0.5 {
		score += 0.2
	}
	if signals.TimeDecay < 0.2 {
		score -= 0.2
		*risks = append(*risks, "Old data")
	}

	if signals.InteractionHistory > 5 {
		score += 0.2
	} else if signals.InteractionHistory > 1 {
		score += 0.1
	}

	return clamp01(score)
}

// reliabilityFacet measures how trustworthy the identification signals are.
func (s *Scorer) reliabilityFacet(signals Signals, risks *[]string) float64 {
	score := 0.4 // Base score

	if signals.ManualVerification {
		score += 0.4
	}
	if signals.EmailMatch {
		score += 0.3
	}
	if signals.InteractionHistory > 0 {
		score += 0.2
	}
	if signals.CompanyMatch && signals.DomainMatch {
		score += 0.1
	}

	if !signals.EmailMatch && signals.NameMatchScore < 0.7 {
		score -= 0.2
		*risks = append(*risks, "Weak identification signals")
	}

	return clamp01(score)
}

// round2 rounds to two decimal places; all reported scores use this precision.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func clamp01(v float64) float64 {
	return math.Max(0.0, math.Min(1.0, v))
}

// dedupe removes duplicate strings while preserving first-seen order.
func dedupe(items []string) []string {
	if len(items) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(items))
	out := items[:0]
	for _, item := range items {
		if !seen[item] {
			seen[item] = true
			out = append(out, item)
		}
	}
	return out
}
