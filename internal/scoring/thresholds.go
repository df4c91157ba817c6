package scoring

// UseCase names a downstream consumer of resolution confidence.
type UseCase string

// Use cases with distinct sufficiency requirements.
const (
	UseBriefGeneration UseCase = "brief_generation"
	UseAIAnalysis      UseCase = "ai_analysis"
	UseContactMerge    UseCase = "contact_merge"
	UseDisplayOnly     UseCase = "display_only"
)

// SufficiencyThresholds holds the minimum confidence required per use case.
// These are policy constants, exposed as configuration rather than hardcoded:
// callers with different risk tolerance override them wholesale.
type SufficiencyThresholds struct {
	BriefGeneration float64 `yaml:"brief_generation" json:"brief_generation"`
	AIAnalysis      float64 `yaml:"ai_analysis" json:"ai_analysis"`
	ContactMerge    float64 `yaml:"contact_merge" json:"contact_merge"`
	DisplayOnly     float64 `yaml:"display_only" json:"display_only"`
}

// DefaultThresholds returns the standard sufficiency policy.
func DefaultThresholds() SufficiencyThresholds {
	return SufficiencyThresholds{
		BriefGeneration: 0.6,
		AIAnalysis:      0.5,
		ContactMerge:    0.8,
		DisplayOnly:     0.3,
	}
}

// Sufficient reports whether a final confidence score meets the bar for the
// given use case. Unknown use cases require the strictest threshold.
func (t SufficiencyThresholds) Sufficient(score float64, useCase UseCase) bool {
	switch useCase {
	case UseBriefGeneration:
		return score >= t.BriefGeneration
	case UseAIAnalysis:
		return score >= t.AIAnalysis
	case UseContactMerge:
		return score >= t.ContactMerge
	case UseDisplayOnly:
		return score >= t.DisplayOnly
	default:
		return score >= t.ContactMerge
	}
}
