// Package failover decorates a primary ProfileStore with an in-memory
// fallback. Store calls run through a circuit breaker; the first
// infrastructure failure flips the decorator into a degraded state for the
// remainder of the process lifetime, and every subsequent call is served by
// the fallback with identical semantics. Resolution therefore keeps working
// through a database outage — results just stop being durable.
//
// Business errors (not-found, duplicate, invalid input) are normal outcomes
// and neither trip the breaker nor trigger degradation.
package failover

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/sony/gobreaker"

	"github.com/prebriefhq/prebrief/internal/storage"
	"github.com/prebriefhq/prebrief/pkg/types"
)

// Store implements storage.ProfileStore by delegating to a primary store
// until it fails, then to the fallback. The degraded flag flips exactly once
// and is never retried; it is an explicit, inspectable field so the degrade
// path can be unit-tested with an injected failing primary.
type Store struct {
	primary  storage.ProfileStore
	fallback storage.ProfileStore
	breaker  *gobreaker.CircuitBreaker

	mu       sync.RWMutex
	degraded bool
}

// New wraps primary with the given fallback store.
func New(primary, fallback storage.ProfileStore) *Store {
	settings := gobreaker.Settings{
		Name:    "ProfileStore",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 1
		},
		IsSuccessful: func(err error) bool {
			return err == nil || isBusinessError(err)
		},
	}

	return &Store{
		primary:  primary,
		fallback: fallback,
		breaker:  gobreaker.NewCircuitBreaker(settings),
	}
}

// Degraded reports whether the store has switched to the fallback.
func (s *Store) Degraded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.degraded
}

// do runs fn against the primary store through the breaker, degrading to the
// fallback on the first infrastructure failure. Once degraded, all calls go
// straight to the fallback.
func (s *Store) do(op string, fn func(storage.ProfileStore) error) error {
	if s.Degraded() {
		return fn(s.fallback)
	}

	_, err := s.breaker.Execute(func() (interface{}, error) {
		return nil, fn(s.primary)
	})
	if err == nil || isBusinessError(err) {
		return err
	}

	s.degrade(op, err)
	return fn(s.fallback)
}

// degrade flips the store into fallback mode. Logged once per process.
func (s *Store) degrade(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.degraded {
		s.degraded = true
		log.Printf("failover: profile store unavailable during %s, degrading to in-memory fallback: %v", op, err)
	}
}

// isBusinessError reports whether err is an expected store outcome rather
// than an availability problem.
func isBusinessError(err error) bool {
	return errors.Is(err, storage.ErrNotFound) ||
		errors.Is(err, storage.ErrDuplicate) ||
		errors.Is(err, storage.ErrInvalidInput)
}

func (s *Store) FindPersonByEmail(ctx context.Context, email string) (*types.Person, error) {
	var person *types.Person
	err := s.do("find person by email", func(st storage.ProfileStore) error {
		var err error
		person, err = st.FindPersonByEmail(ctx, email)
		return err
	})
	return person, err
}

func (s *Store) FindCompanyByDomain(ctx context.Context, domain string) (*types.Company, error) {
	var company *types.Company
	err := s.do("find company by domain", func(st storage.ProfileStore) error {
		var err error
		company, err = st.FindCompanyByDomain(ctx, domain)
		return err
	})
	return company, err
}

func (s *Store) FindOverride(ctx context.Context, identifier string) (*types.ManualOverride, error) {
	var override *types.ManualOverride
	err := s.do("find override", func(st storage.ProfileStore) error {
		var err error
		override, err = st.FindOverride(ctx, identifier)
		return err
	})
	return override, err
}

func (s *Store) CreatePerson(ctx context.Context, person *types.Person) error {
	return s.do("create person", func(st storage.ProfileStore) error {
		return st.CreatePerson(ctx, person)
	})
}

func (s *Store) CreateCompany(ctx context.Context, company *types.Company) error {
	return s.do("create company", func(st storage.ProfileStore) error {
		return st.CreateCompany(ctx, company)
	})
}

func (s *Store) CreateAlias(ctx context.Context, alias *types.Alias) error {
	return s.do("create alias", func(st storage.ProfileStore) error {
		return st.CreateAlias(ctx, alias)
	})
}

func (s *Store) CreateOverride(ctx context.Context, override *types.ManualOverride) error {
	return s.do("create override", func(st storage.ProfileStore) error {
		return st.CreateOverride(ctx, override)
	})
}

func (s *Store) UpdatePersonInteraction(ctx context.Context, personID string, at time.Time) error {
	return s.do("update interaction", func(st storage.ProfileStore) error {
		return st.UpdatePersonInteraction(ctx, personID, at)
	})
}

func (s *Store) GetPerson(ctx context.Context, id string) (*types.Person, error) {
	var person *types.Person
	err := s.do("get person", func(st storage.ProfileStore) error {
		var err error
		person, err = st.GetPerson(ctx, id)
		return err
	})
	return person, err
}

func (s *Store) ListActivePersonsWithAliases(ctx context.Context) ([]*types.Person, error) {
	var persons []*types.Person
	err := s.do("list persons", func(st storage.ProfileStore) error {
		var err error
		persons, err = st.ListActivePersonsWithAliases(ctx)
		return err
	})
	return persons, err
}

// Close closes both stores; the first error wins.
func (s *Store) Close() error {
	err := s.primary.Close()
	if ferr := s.fallback.Close(); err == nil {
		err = ferr
	}
	return err
}
