// Package storage defines the persistence contract for the entity resolution
// engine: the ProfileStore interface over Person, Company, Alias, and
// ManualOverride records, plus the sentinel errors every backend maps to.
//
// Backends enforce the uniqueness invariants (one email per active person,
// one company per domain, one alias per (person, name, email) triple) at the
// store level — a unique index or equivalent — and surface violations as
// ErrDuplicate. Callers treat ErrDuplicate on create as "someone else won the
// race": they re-fetch and use the existing record.
package storage

import (
	"context"
	"time"

	"github.com/prebriefhq/prebrief/pkg/types"
)

// ProfileStore persists the person/company/alias/override records that
// resolution reads and writes. Every call may fail with a backend-specific
// unavailability error; the engine handles that by degrading to an in-memory
// fallback (see the failover package) rather than surfacing it to callers.
type ProfileStore interface {
	// FindPersonByEmail looks up the active person owning the given address,
	// case-insensitively, across all of the person's known emails.
	// Returns ErrNotFound when no active person carries the address.
	FindPersonByEmail(ctx context.Context, email string) (*types.Person, error)

	// FindCompanyByDomain looks up a company by its email domain,
	// case-insensitively. Returns ErrNotFound when the domain is unknown.
	FindCompanyByDomain(ctx context.Context, domain string) (*types.Company, error)

	// FindOverride looks up a manual override by its exact source identifier
	// (lowercase email, or name when no email exists). When several overrides
	// exist for the identifier the most recent wins. Returns ErrNotFound when
	// none exists.
	FindOverride(ctx context.Context, identifier string) (*types.ManualOverride, error)

	// CreatePerson stores a new person. Returns ErrDuplicate when any of the
	// person's emails is already owned by an active person.
	CreatePerson(ctx context.Context, person *types.Person) error

	// CreateCompany stores a new company. Returns ErrDuplicate when the
	// company's domain is already taken.
	CreateCompany(ctx context.Context, company *types.Company) error

	// CreateAlias stores a learned alias. Returns ErrDuplicate when the
	// (person, name, email) triple is already recorded, which callers treat
	// as success (idempotent alias learning).
	CreateAlias(ctx context.Context, alias *types.Alias) error

	// CreateOverride stores a human-asserted correction. Overrides are
	// append-only; there is no update or delete.
	CreateOverride(ctx context.Context, override *types.ManualOverride) error

	// UpdatePersonInteraction atomically increments the person's interaction
	// count and refreshes the last-interaction timestamp. Returns ErrNotFound
	// when the person does not exist.
	UpdatePersonInteraction(ctx context.Context, personID string, at time.Time) error

	// GetPerson retrieves a person by ID. Returns ErrNotFound when absent.
	GetPerson(ctx context.Context, id string) (*types.Person, error)

	// ListActivePersonsWithAliases returns all non-archived persons with
	// their alias names populated, for use as fuzzy-match candidates.
	ListActivePersonsWithAliases(ctx context.Context) ([]*types.Person, error)

	// Close releases any resources held by the store.
	Close() error
}
