package types

import (
	"strings"
	"time"
)

// PersonClass classifies a person relative to the organization running the
// system.
type PersonClass string

// Person classifications.
const (
	PersonInternal PersonClass = "internal"
	PersonExternal PersonClass = "external"
	PersonUnknown  PersonClass = "unknown"
)

// Person is a canonical identity record. A person is created the first time
// an attendee is sighted and mutated on every subsequent sighting; records
// are never hard-deleted, only archived via a manual override.
type Person struct {
	ID    string `json:"id"`   // Unique identifier (format: per:<uuid>)
	Name  string `json:"name"` // Canonical display name
	Title string `json:"title,omitempty"`

	// Emails are the known addresses for this person, ordered. The first
	// entry is the primary address. Addresses are case-insensitively unique
	// across the whole store: one email maps to at most one active person.
	Emails []string `json:"emails"`

	CompanyID string `json:"company_id,omitempty"` // Optional company reference

	// Handles maps a messaging channel name (e.g. "slack") to the person's
	// handle on that channel.
	Handles map[string]string `json:"handles,omitempty"`

	// ProfileURL is an optional link to an external profile (e.g. LinkedIn).
	ProfileURL string `json:"profile_url,omitempty"`

	// Facts are free-text notable facts gathered about the person.
	Facts []string `json:"facts,omitempty"`

	// Aliases are the alternate names this person is known by. Full alias
	// records (with source email and context) live in the Alias table; this
	// slice carries the alias names for matching.
	Aliases []string `json:"aliases,omitempty"`

	// Confidence reflects how certain the resolution was at creation or last
	// update (0.0 to 1.0).
	Confidence float64 `json:"confidence"`

	// LastInteraction is the most recent sighting. Nil when the person has
	// never been seen on a calendar event.
	LastInteraction *time.Time `json:"last_interaction,omitempty"`

	// InteractionCount is a monotonic sighting counter.
	InteractionCount int `json:"interaction_count"`

	Class PersonClass `json:"class"`

	// Archived marks a person merged away or retired by a manual override.
	// Archived persons are excluded from resolution.
	Archived bool `json:"archived,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PrimaryEmail returns the person's primary address, or "" when none is known.
func (p *Person) PrimaryEmail() string {
	if len(p.Emails) == 0 {
		return ""
	}
	return p.Emails[0]
}

// HasEmail reports whether the person already carries the given address
// (case-insensitive).
func (p *Person) HasEmail(email string) bool {
	for _, e := range p.Emails {
		if strings.EqualFold(e, email) {
			return true
		}
	}
	return false
}
