// Package memory provides a mutex-guarded in-memory ProfileStore. It backs
// unit tests and serves as the fallback store the engine degrades to when the
// primary backend becomes unavailable. Uniqueness semantics match the SQL
// backends exactly: duplicate creates return storage.ErrDuplicate.
package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/prebriefhq/prebrief/internal/storage"
	"github.com/prebriefhq/prebrief/pkg/types"
)

// Store implements storage.ProfileStore with in-process maps. Safe for
// concurrent use. Returned records are copies; mutating them does not affect
// the store.
type Store struct {
	mu sync.RWMutex

	persons   map[string]*types.Person // by ID
	emailIdx  map[string]string        // lowercase email -> person ID
	companies map[string]*types.Company
	domainIdx map[string]string // lowercase domain -> company ID
	aliases   map[string][]*types.Alias
	aliasIdx  map[string]bool // personID|name|email -> exists
	overrides map[string][]*types.ManualOverride
}

// NewStore creates an empty in-memory profile store.
func NewStore() *Store {
	return &Store{
		persons:   make(map[string]*types.Person),
		emailIdx:  make(map[string]string),
		companies: make(map[string]*types.Company),
		domainIdx: make(map[string]string),
		aliases:   make(map[string][]*types.Alias),
		aliasIdx:  make(map[string]bool),
		overrides: make(map[string][]*types.ManualOverride),
	}
}

// FindPersonByEmail looks up the active person owning the address.
func (s *Store) FindPersonByEmail(ctx context.Context, email string) (*types.Person, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.emailIdx[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return nil, storage.ErrNotFound
	}
	person := s.persons[id]
	if person == nil || person.Archived {
		return nil, storage.ErrNotFound
	}
	return copyPerson(person), nil
}

// FindCompanyByDomain looks up a company by email domain.
func (s *Store) FindCompanyByDomain(ctx context.Context, domain string) (*types.Company, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.domainIdx[strings.ToLower(strings.TrimSpace(domain))]
	if !ok {
		return nil, storage.ErrNotFound
	}
	company := *s.companies[id]
	return &company, nil
}

// FindOverride returns the most recent override for the identifier.
func (s *Store) FindOverride(ctx context.Context, identifier string) (*types.ManualOverride, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := s.overrides[strings.ToLower(strings.TrimSpace(identifier))]
	if len(list) == 0 {
		return nil, storage.ErrNotFound
	}
	override := *list[len(list)-1]
	return &override, nil
}

// CreatePerson stores a new person, enforcing email uniqueness.
func (s *Store) CreatePerson(ctx context.Context, person *types.Person) error {
	if person == nil || person.ID == "" {
		return fmt.Errorf("%w: person ID is required", storage.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, email := range person.Emails {
		key := strings.ToLower(strings.TrimSpace(email))
		if ownerID, taken := s.emailIdx[key]; taken {
			if owner := s.persons[ownerID]; owner != nil && !owner.Archived {
				return fmt.Errorf("%w: email %s already owned by %s", storage.ErrDuplicate, key, ownerID)
			}
		}
	}

	s.persons[person.ID] = copyPerson(person)
	for _, email := range person.Emails {
		s.emailIdx[strings.ToLower(strings.TrimSpace(email))] = person.ID
	}
	return nil
}

// CreateCompany stores a new company, enforcing domain uniqueness.
func (s *Store) CreateCompany(ctx context.Context, company *types.Company) error {
	if company == nil || company.ID == "" {
		return fmt.Errorf("%w: company ID is required", storage.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if company.Domain != "" {
		key := strings.ToLower(strings.TrimSpace(company.Domain))
		if _, taken := s.domainIdx[key]; taken {
			return fmt.Errorf("%w: domain %s already registered", storage.ErrDuplicate, key)
		}
		s.domainIdx[key] = company.ID
	}

	c := *company
	s.companies[company.ID] = &c
	return nil
}

// CreateAlias stores a learned alias, enforcing triple uniqueness.
func (s *Store) CreateAlias(ctx context.Context, alias *types.Alias) error {
	if alias == nil || alias.PersonID == "" {
		return fmt.Errorf("%w: alias person ID is required", storage.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := aliasKey(alias.PersonID, alias.Name, alias.Email)
	if s.aliasIdx[key] {
		return fmt.Errorf("%w: alias already recorded", storage.ErrDuplicate)
	}
	s.aliasIdx[key] = true

	a := *alias
	s.aliases[alias.PersonID] = append(s.aliases[alias.PersonID], &a)

	if person := s.persons[alias.PersonID]; person != nil && alias.Name != "" {
		if !containsFold(person.Aliases, alias.Name) {
			person.Aliases = append(person.Aliases, alias.Name)
		}
	}
	return nil
}

// CreateOverride appends an override for its source identifier.
func (s *Store) CreateOverride(ctx context.Context, override *types.ManualOverride) error {
	if override == nil || override.SourceIdentifier == "" {
		return fmt.Errorf("%w: override source identifier is required", storage.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.ToLower(strings.TrimSpace(override.SourceIdentifier))
	o := *override
	s.overrides[key] = append(s.overrides[key], &o)
	return nil
}

// UpdatePersonInteraction bumps the sighting counter and timestamp.
func (s *Store) UpdatePersonInteraction(ctx context.Context, personID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	person, ok := s.persons[personID]
	if !ok {
		return storage.ErrNotFound
	}
	person.InteractionCount++
	t := at
	person.LastInteraction = &t
	person.UpdatedAt = at
	return nil
}

// GetPerson retrieves a person by ID.
func (s *Store) GetPerson(ctx context.Context, id string) (*types.Person, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	person, ok := s.persons[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return copyPerson(person), nil
}

// ListActivePersonsWithAliases returns all non-archived persons.
func (s *Store) ListActivePersonsWithAliases(ctx context.Context) ([]*types.Person, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*types.Person, 0, len(s.persons))
	for _, person := range s.persons {
		if person.Archived {
			continue
		}
		out = append(out, copyPerson(person))
	}
	return out, nil
}

// Close is a no-op for the in-memory store.
func (s *Store) Close() error { return nil }

// aliasKey builds the uniqueness key for an alias triple.
func aliasKey(personID, name, email string) string {
	return personID + "|" + strings.ToLower(strings.TrimSpace(name)) + "|" + strings.ToLower(strings.TrimSpace(email))
}

func containsFold(list []string, v string) bool {
	for _, item := range list {
		if strings.EqualFold(item, v) {
			return true
		}
	}
	return false
}

// copyPerson deep-copies the mutable slices and maps so callers cannot mutate
// stored state.
func copyPerson(p *types.Person) *types.Person {
	c := *p
	c.Emails = append([]string(nil), p.Emails...)
	c.Facts = append([]string(nil), p.Facts...)
	c.Aliases = append([]string(nil), p.Aliases...)
	if p.Handles != nil {
		c.Handles = make(map[string]string, len(p.Handles))
		for k, v := range p.Handles {
			c.Handles[k] = v
		}
	}
	if p.LastInteraction != nil {
		t := *p.LastInteraction
		c.LastInteraction = &t
	}
	return &c
}
