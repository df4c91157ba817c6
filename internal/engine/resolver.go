// Package engine implements the entity resolution state machine: the
// component that takes a raw calendar attendee (email plus optional display
// name) and decides, with a calibrated confidence score, which known person
// record it refers to — or mints a new one.
//
// Resolution runs through fixed states in priority order, first success wins:
//
//  1. Manual override lookup — a human-asserted mapping beats everything.
//  2. Exact email match against known persons.
//  3. Fuzzy name match against all active persons and their aliases,
//     learning a new alias on success.
//  4. Internal-domain inference, then company domain inference (skipping
//     personal email providers), creating person and company records.
//  5. New unresolved person when only a display name is available.
//  6. Total failure: a zero-confidence unresolved result, never an error.
package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/prebriefhq/prebrief/internal/matching"
	"github.com/prebriefhq/prebrief/internal/scoring"
	"github.com/prebriefhq/prebrief/internal/storage"
	"github.com/prebriefhq/prebrief/pkg/types"
)

// ErrEmailRequired is returned by ResolveAttendee when no email is supplied.
// The display name is always optional; the email is not.
var ErrEmailRequired = errors.New("email required")

// AliasContextCalendar tags aliases learned from calendar attendee data.
const AliasContextCalendar = "calendar"

// Confidence assigned by the non-scoring resolution states.
const (
	domainInferenceConfidence   = 0.75
	internalInferenceConfidence = 0.8
	unresolvedPersonConfidence  = 0.25
)

// defaultPersonalDomains lists consumer email providers that never imply a
// company.
var defaultPersonalDomains = []string{
	"gmail.com", "yahoo.com", "hotmail.com", "outlook.com", "icloud.com",
	"me.com", "mac.com", "aol.com", "protonmail.com", "fastmail.com", "hey.com",
}

// Config tunes the resolver. All fields have working defaults via
// DefaultConfig.
type Config struct {
	// MatchThreshold is the minimum fuzzy-match score for person resolution.
	// Deliberately stricter than the matcher's general-purpose default of
	// 0.6; the two knobs are tuned independently.
	MatchThreshold float64

	// InternalDomainMarker classifies attendees as internal when their email
	// domain contains it (e.g. the company's domain). Empty disables
	// internal inference.
	InternalDomainMarker string

	// PersonalDomains are email domains that block company inference.
	PersonalDomains []string
}

// DefaultConfig returns the standard resolver tuning.
func DefaultConfig() Config {
	return Config{
		MatchThreshold:  0.7,
		PersonalDomains: defaultPersonalDomains,
	}
}

// Attendee is one raw (email, display name) pair from a calendar event.
type Attendee struct {
	Email       string `json:"email"`
	DisplayName string `json:"display_name,omitempty"`
}

// Resolver is the resolution orchestrator. Safe for concurrent use: each
// ResolveAttendee call is independent, and the profile store serializes
// conflicting writes.
type Resolver struct {
	store  storage.ProfileStore
	scorer *scoring.Scorer
	cfg    Config

	// now is injectable for tests.
	now func() time.Time
}

// NewResolver creates a resolver over the given store and scorer.
func NewResolver(store storage.ProfileStore, scorer *scoring.Scorer, cfg Config) *Resolver {
	if cfg.MatchThreshold <= 0 {
		cfg.MatchThreshold = DefaultConfig().MatchThreshold
	}
	if len(cfg.PersonalDomains) == 0 {
		cfg.PersonalDomains = defaultPersonalDomains
	}
	return &Resolver{
		store:  store,
		scorer: scorer,
		cfg:    cfg,
		now:    time.Now,
	}
}

// ResolveAttendee maps one attendee to a person record. It always returns a
// result object (possibly with a nil person and zero confidence); it errors
// only for invalid input or when the store — including the fallback — failed
// during this call.
func (r *Resolver) ResolveAttendee(ctx context.Context, email, displayName string) (*types.EntityResolutionResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, ErrEmailRequired
	}
	displayName = strings.TrimSpace(displayName)

	// State 1: manual override. Absolute precedence, no further scoring.
	if result, ok, err := r.resolveOverride(ctx, email); err != nil {
		return nil, err
	} else if ok {
		return result, nil
	}

	// State 2: exact email match.
	if result, ok, err := r.resolveExactEmail(ctx, email); err != nil {
		return nil, err
	} else if ok {
		return result, nil
	}

	// State 3: fuzzy match, only when a display name was supplied.
	if displayName != "" {
		if result, ok, err := r.resolveFuzzy(ctx, email, displayName); err != nil {
			return nil, err
		} else if ok {
			return result, nil
		}
	}

	// State 4: internal-domain and company-domain inference.
	if result, ok, err := r.resolveDomain(ctx, email, displayName); err != nil {
		return nil, err
	} else if ok {
		return result, nil
	}

	// State 5: new unresolved person, when we at least have a name.
	if displayName != "" {
		return r.createUnresolved(ctx, email, displayName)
	}

	// State 6: nothing to go on.
	return &types.EntityResolutionResult{
		Confidence: 0.0,
		Method:     types.MethodUnresolved,
	}, nil
}

// ResolveAttendees resolves a slice of attendees concurrently with the given
// fan-out width. Results are returned in input order; a per-attendee error is
// carried in its Outcome rather than aborting the batch.
func (r *Resolver) ResolveAttendees(ctx context.Context, attendees []Attendee, concurrency int) []Outcome {
	if concurrency < 1 {
		concurrency = 4
	}

	outcomes := make([]Outcome, len(attendees))
	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup

	for i, attendee := range attendees {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, attendee Attendee) {
			defer wg.Done()
			defer func() { <-sem }()
			result, err := r.ResolveAttendee(ctx, attendee.Email, attendee.DisplayName)
			outcomes[i] = Outcome{Attendee: attendee, Result: result, Err: err}
		}(i, attendee)
	}

	wg.Wait()
	return outcomes
}

// Outcome pairs one attendee with its resolution result or error.
type Outcome struct {
	Attendee Attendee
	Result   *types.EntityResolutionResult
	Err      error
}

// resolveOverride implements state 1.
func (r *Resolver) resolveOverride(ctx context.Context, email string) (*types.EntityResolutionResult, bool, error) {
	override, err := r.store.FindOverride(ctx, email)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("engine: override lookup failed: %w", err)
	}
	if override.PersonID == "" {
		return nil, false, nil
	}

	person, err := r.store.GetPerson(ctx, override.PersonID)
	if errors.Is(err, storage.ErrNotFound) {
		// Override points at a vanished record; fall through to automation.
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("engine: override person load failed: %w", err)
	}

	return &types.EntityResolutionResult{
		Person:     person,
		Confidence: override.Confidence,
		Method:     types.MethodManualOverride,
	}, true, nil
}

// resolveExactEmail implements state 2.
func (r *Resolver) resolveExactEmail(ctx context.Context, email string) (*types.EntityResolutionResult, bool, error) {
	person, err := r.store.FindPersonByEmail(ctx, email)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("engine: email lookup failed: %w", err)
	}

	now := r.now()
	r.touch(ctx, person, now)

	report := r.scorer.Score(scoring.Signals{
		EmailMatch:         true,
		NameMatchScore:     1.0,
		InteractionHistory: person.InteractionCount,
		TimeDecay:          scoring.TimeDecay(person.LastInteraction, now),
	}, person)

	return &types.EntityResolutionResult{
		Person:     person,
		Confidence: person.Confidence,
		Method:     types.MethodExactEmail,
		Report:     report,
	}, true, nil
}

// resolveFuzzy implements state 3: match the display name against every
// active person and their aliases, and learn a new alias on success.
func (r *Resolver) resolveFuzzy(ctx context.Context, email, displayName string) (*types.EntityResolutionResult, bool, error) {
	persons, err := r.store.ListActivePersonsWithAliases(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("engine: candidate listing failed: %w", err)
	}
	if len(persons) == 0 {
		return nil, false, nil
	}

	byID := make(map[string]*types.Person, len(persons))
	candidates := make([]matching.Candidate, 0, len(persons))
	for _, person := range persons {
		byID[person.ID] = person
		candidates = append(candidates, matching.Candidate{
			ID:      person.ID,
			Name:    person.Name,
			Email:   person.PrimaryEmail(),
			Aliases: person.Aliases,
		})
	}

	matches := matching.FindBestMatches(
		matching.Query{Name: displayName, Email: email},
		candidates, r.cfg.MatchThreshold)
	best, ok := pickIdentityMatch(matches)
	if !ok {
		return nil, false, nil
	}
	person := byID[best.Candidate.ID]
	now := r.now()
	r.touch(ctx, person, now)

	// Learn the observed (name, email) pair as an alias. Idempotent: a
	// duplicate means the pair was already recorded.
	alias := &types.Alias{
		ID:         newID("ali"),
		PersonID:   person.ID,
		Name:       displayName,
		Email:      email,
		Context:    AliasContextCalendar,
		Confidence: best.Score,
		CreatedAt:  now,
	}
	if err := r.store.CreateAlias(ctx, alias); err != nil && !errors.Is(err, storage.ErrDuplicate) {
		return nil, false, fmt.Errorf("engine: alias learning failed: %w", err)
	}

	method := types.MethodFuzzyName
	if best.Type == matching.MatchAlias {
		method = types.MethodAliasMatch
	}

	report := r.scorer.Score(scoring.Signals{
		NameMatchScore:     best.Score,
		AliasMatch:         best.Type == matching.MatchAlias,
		DomainMatch:        sameDomain(email, person.PrimaryEmail()),
		InteractionHistory: person.InteractionCount,
		TimeDecay:          scoring.TimeDecay(person.LastInteraction, now),
	}, person)

	return &types.EntityResolutionResult{
		Person:     person,
		Confidence: best.Score,
		Method:     method,
		Report:     report,
	}, true, nil
}

// resolveDomain implements state 4: internal-marker inference first, then
// company inference from a non-personal email domain. The internal check runs
// before generic inference so the organization's own domain is not swallowed
// by company creation.
func (r *Resolver) resolveDomain(ctx context.Context, email, displayName string) (*types.EntityResolutionResult, bool, error) {
	domain := matching.ExtractDomain(email)
	if domain == "" {
		return nil, false, nil
	}

	if r.cfg.InternalDomainMarker != "" && strings.Contains(domain, strings.ToLower(r.cfg.InternalDomainMarker)) {
		result, err := r.createInternal(ctx, email, displayName, domain)
		if err != nil {
			return nil, false, err
		}
		return result, true, nil
	}

	if r.isPersonalDomain(domain) {
		return nil, false, nil
	}

	company, err := r.findOrCreateCompany(ctx, domain)
	if err != nil {
		return nil, false, err
	}

	person, createdNew, err := r.createPerson(ctx, email, displayName, &newPersonSpec{
		companyID:  company.ID,
		class:      types.PersonExternal,
		confidence: domainInferenceConfidence,
	})
	if err != nil {
		return nil, false, err
	}

	report := r.scorer.Score(scoring.Signals{
		DomainMatch:        true,
		InteractionHistory: person.InteractionCount,
		TimeDecay:          scoring.TimeDecay(person.LastInteraction, r.now()),
	}, person)

	return &types.EntityResolutionResult{
		Person:           person,
		Confidence:       person.Confidence,
		Method:           types.MethodDomainMatch,
		CreatedNewEntity: createdNew,
		Report:           report,
	}, true, nil
}

// createInternal handles the internal-domain special case: classify as
// internal with high confidence and link the internal company when one is on
// record. The company is not auto-created; it is expected to be seeded.
func (r *Resolver) createInternal(ctx context.Context, email, displayName, domain string) (*types.EntityResolutionResult, error) {
	companyID := ""
	company, err := r.store.FindCompanyByDomain(ctx, domain)
	if err == nil {
		companyID = company.ID
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("engine: internal company lookup failed: %w", err)
	}

	person, createdNew, err := r.createPerson(ctx, email, displayName, &newPersonSpec{
		companyID:  companyID,
		class:      types.PersonInternal,
		confidence: internalInferenceConfidence,
	})
	if err != nil {
		return nil, err
	}

	return &types.EntityResolutionResult{
		Person:           person,
		Confidence:       person.Confidence,
		Method:           types.MethodInternalInference,
		CreatedNewEntity: createdNew,
	}, nil
}

// createUnresolved implements state 5: a low-confidence person carrying just
// the observed name and address.
func (r *Resolver) createUnresolved(ctx context.Context, email, displayName string) (*types.EntityResolutionResult, error) {
	person, createdNew, err := r.createPerson(ctx, email, displayName, &newPersonSpec{
		class:      types.PersonUnknown,
		confidence: unresolvedPersonConfidence,
	})
	if err != nil {
		return nil, err
	}

	return &types.EntityResolutionResult{
		Person:           person,
		Confidence:       person.Confidence,
		Method:           types.MethodUnresolved,
		CreatedNewEntity: createdNew,
	}, nil
}

// newPersonSpec carries the state-specific fields for person creation.
type newPersonSpec struct {
	companyID  string
	class      types.PersonClass
	confidence float64
}

// createPerson mints and stores a person for the attendee. A duplicate-create
// means a concurrent resolution of the same attendee won the race; the
// winner's record is fetched and used instead.
func (r *Resolver) createPerson(ctx context.Context, email, displayName string, spec *newPersonSpec) (*types.Person, bool, error) {
	name := displayName
	if name == "" {
		name = matching.DeriveNameFromEmail(email)
	}

	now := r.now()
	person := &types.Person{
		ID:               newID("per"),
		Name:             name,
		Emails:           []string{email},
		CompanyID:        spec.companyID,
		Confidence:       spec.confidence,
		LastInteraction:  &now,
		InteractionCount: 1,
		Class:            spec.class,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	err := r.store.CreatePerson(ctx, person)
	if errors.Is(err, storage.ErrDuplicate) {
		existing, ferr := r.store.FindPersonByEmail(ctx, email)
		if ferr != nil {
			return nil, false, fmt.Errorf("engine: re-fetch after duplicate person failed: %w", ferr)
		}
		return existing, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("engine: person creation failed: %w", err)
	}
	return person, true, nil
}

// findOrCreateCompany returns the company for a domain, synthesizing a name
// and creating the record on first encounter. A duplicate-create is a lost
// race; the winner's record is fetched.
func (r *Resolver) findOrCreateCompany(ctx context.Context, domain string) (*types.Company, error) {
	company, err := r.store.FindCompanyByDomain(ctx, domain)
	if err == nil {
		return company, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("engine: company lookup failed: %w", err)
	}

	now := r.now()
	company = &types.Company{
		ID:        newID("com"),
		Name:      matching.CompanyNameFromDomain(domain),
		Domain:    domain,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = r.store.CreateCompany(ctx, company)
	if errors.Is(err, storage.ErrDuplicate) {
		existing, ferr := r.store.FindCompanyByDomain(ctx, domain)
		if ferr != nil {
			return nil, fmt.Errorf("engine: re-fetch after duplicate company failed: %w", ferr)
		}
		return existing, nil
	}
	if err != nil {
		return nil, fmt.Errorf("engine: company creation failed: %w", err)
	}
	return company, nil
}

// touch records a sighting: bump the interaction counter in the store and
// mirror the change on the in-hand record. A failed touch does not fail the
// resolution.
func (r *Resolver) touch(ctx context.Context, person *types.Person, at time.Time) {
	if err := r.store.UpdatePersonInteraction(ctx, person.ID, at); err != nil {
		return
	}
	person.InteractionCount++
	t := at
	person.LastInteraction = &t
	person.UpdatedAt = at
}

// isPersonalDomain reports whether the domain belongs to a consumer email
// provider.
func (r *Resolver) isPersonalDomain(domain string) bool {
	for _, personal := range r.cfg.PersonalDomains {
		if strings.EqualFold(domain, personal) {
			return true
		}
	}
	return false
}

// sameDomain reports whether two email addresses share a domain.
func sameDomain(a, b string) bool {
	da, db := matching.ExtractDomain(a), matching.ExtractDomain(b)
	return da != "" && da == db
}

// pickIdentityMatch returns the best match backed by name evidence. Domain
// proximity alone places someone at a company, not in an identity; those
// matches fall through to domain inference instead.
func pickIdentityMatch(matches []matching.Match) (matching.Match, bool) {
	for _, m := range matches {
		if m.Type != matching.MatchEmailDomain {
			return m, true
		}
	}
	return matching.Match{}, false
}

// newID mints a prefixed record identifier, e.g. "per:4f1c...".
func newID(prefix string) string {
	return prefix + ":" + uuid.New().String()
}
