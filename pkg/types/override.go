package types

import "time"

// OverrideType enumerates the kinds of manual corrections a user can assert.
type OverrideType string

// Override types.
const (
	OverrideMerge     OverrideType = "merge"
	OverrideSplit     OverrideType = "split"
	OverrideCompany   OverrideType = "company_assignment"
	OverrideAliasLink OverrideType = "alias_link"
)

// ManualOverride is a human-asserted correction. When an override exists for a
// source identifier it takes absolute precedence over automated resolution for
// that identifier. Overrides are immutable once created; corrections are made
// by recording a new override, never by editing an existing one.
type ManualOverride struct {
	ID   string       `json:"id"` // Unique identifier (format: ovr:<uuid>)
	Type OverrideType `json:"type"`

	// SourceIdentifier is the raw email (or name, when no email exists) being
	// overridden, stored lowercase.
	SourceIdentifier string `json:"source_identifier"`

	PersonID  string `json:"person_id,omitempty"`  // Target person, when applicable
	CompanyID string `json:"company_id,omitempty"` // Target company, when applicable

	Reason string `json:"reason,omitempty"`

	// Confidence defaults to 1.0: a human said so.
	Confidence float64 `json:"confidence"`

	Author    string    `json:"author,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
