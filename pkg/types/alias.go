package types

import "time"

// Alias is a learned alternate identity for a person. An alias is recorded
// whenever fuzzy matching resolves an attendee to a person via a name or email
// that differs from the person's canonical name or primary address. Learning
// is idempotent: a given (person, name, email) triple is stored at most once.
type Alias struct {
	ID       string `json:"id"`        // Unique identifier (format: ali:<uuid>)
	PersonID string `json:"person_id"` // Owning person

	Name  string `json:"name"`            // The observed alternate name
	Email string `json:"email,omitempty"` // The observed address, when it differs

	// Context tags the channel that produced the alias ("calendar", "email",
	// "slack", "manual").
	Context string `json:"context,omitempty"`

	// Confidence is the match score that produced the alias (0.0 to 1.0).
	Confidence float64 `json:"confidence"`

	// Verified is true for human-confirmed aliases, false for auto-detected.
	Verified bool `json:"verified"`

	CreatedAt time.Time `json:"created_at"`
}
