package types

// ResolutionMethod names the state of the resolution machine that produced a
// result.
type ResolutionMethod string

// Resolution methods, in state-machine priority order.
const (
	MethodManualOverride    ResolutionMethod = "manual_override"
	MethodExactEmail        ResolutionMethod = "exact_email"
	MethodAliasMatch        ResolutionMethod = "alias_match"
	MethodFuzzyName         ResolutionMethod = "fuzzy_name"
	MethodDomainMatch       ResolutionMethod = "domain_match"
	MethodInternalInference ResolutionMethod = "internal_inference"
	MethodUnresolved        ResolutionMethod = "unresolved"
)

// ConfidenceBreakdown is the explainable decomposition of a confidence score
// into its four facets, each in [0, 1] and rounded to two decimal places.
type ConfidenceBreakdown struct {
	Identity     float64 `json:"identity"`     // How strongly the signals identify this person
	Completeness float64 `json:"completeness"` // How complete the person's profile is
	Freshness    float64 `json:"freshness"`    // How recent the underlying data is
	Reliability  float64 `json:"reliability"`  // How trustworthy the identification signals are
}

// ConfidenceReport is the full output of the confidence scorer: the weighted
// final score, the facet breakdown, and human-readable explanations.
type ConfidenceReport struct {
	FinalScore float64             `json:"final_score"`
	Breakdown  ConfidenceBreakdown `json:"breakdown"`
	Factors    []string            `json:"factors,omitempty"`
	RiskFlags  []string            `json:"risk_flags,omitempty"`
}

// EntityResolutionResult is the engine's output for one attendee. It is never
// persisted; callers consume it and move on.
type EntityResolutionResult struct {
	// Person is the resolved record, nil when resolution failed entirely.
	Person *Person `json:"person,omitempty"`

	// Confidence is the final resolution confidence (0.0 to 1.0).
	Confidence float64 `json:"confidence"`

	// Method names the resolution path that produced this result.
	Method ResolutionMethod `json:"method"`

	// CreatedNewEntity is true when this call minted a new person record.
	CreatedNewEntity bool `json:"created_new_entity"`

	// Report carries the scorer's explainable breakdown when one was
	// computed for this resolution. Nil for override and failure paths.
	Report *ConfidenceReport `json:"report,omitempty"`
}
