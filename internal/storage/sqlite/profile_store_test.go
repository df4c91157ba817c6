package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prebriefhq/prebrief/internal/storage"
	"github.com/prebriefhq/prebrief/pkg/types"
)

func newTestStore(t *testing.T) *ProfileStore {
	t.Helper()
	store, err := NewProfileStore(filepath.Join(t.TempDir(), "prebrief.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestPersonRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Second)
	person := &types.Person{
		ID:               "per:sara",
		Name:             "Sara Chen",
		Title:            "VP Engineering",
		Emails:           []string{"sara@acme.com", "sara.chen@acme.com"},
		CompanyID:        "com:acme",
		Handles:          map[string]string{"slack": "@sara"},
		ProfileURL:       "https://linkedin.com/in/sarachen",
		Facts:            []string{"Led the platform migration"},
		Confidence:       0.9,
		InteractionCount: 3,
		Class:            types.PersonExternal,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	require.NoError(t, store.CreatePerson(ctx, person))

	got, err := store.GetPerson(ctx, "per:sara")
	require.NoError(t, err)
	assert.Equal(t, "Sara Chen", got.Name)
	assert.Equal(t, []string{"sara@acme.com", "sara.chen@acme.com"}, got.Emails,
		"email order must survive: the first entry is the primary address")
	assert.Equal(t, map[string]string{"slack": "@sara"}, got.Handles)
	assert.Equal(t, []string{"Led the platform migration"}, got.Facts)
	assert.Equal(t, types.PersonExternal, got.Class)
	assert.Nil(t, got.LastInteraction)

	// Secondary addresses resolve to the same person, case-insensitively.
	byEmail, err := store.FindPersonByEmail(ctx, "SARA.CHEN@acme.com")
	require.NoError(t, err)
	assert.Equal(t, "per:sara", byEmail.ID)
}

func TestCreatePerson_DuplicateEmailRollsBack(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, store.CreatePerson(ctx, &types.Person{
		ID: "per:1", Name: "Sara Chen", Emails: []string{"sara@acme.com"},
		CreatedAt: now, UpdatedAt: now,
	}))

	// The second create collides on its second email; the whole insert must
	// roll back, leaving no trace of the new person or its first email.
	err := store.CreatePerson(ctx, &types.Person{
		ID: "per:2", Name: "Impostor", Emails: []string{"other@acme.com", "sara@acme.com"},
		CreatedAt: now, UpdatedAt: now,
	})
	require.ErrorIs(t, err, storage.ErrDuplicate)

	_, err = store.GetPerson(ctx, "per:2")
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = store.FindPersonByEmail(ctx, "other@acme.com")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestCompanyDomainUniqueness(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, store.CreateCompany(ctx, &types.Company{
		ID: "com:1", Name: "Acme", Domain: "acme.com", CreatedAt: now, UpdatedAt: now,
	}))
	err := store.CreateCompany(ctx, &types.Company{
		ID: "com:2", Name: "Acme Again", Domain: "ACME.COM", CreatedAt: now, UpdatedAt: now,
	})
	assert.ErrorIs(t, err, storage.ErrDuplicate)

	// The partial index permits any number of domainless companies.
	require.NoError(t, store.CreateCompany(ctx, &types.Company{
		ID: "com:3", Name: "Stealth One", CreatedAt: now, UpdatedAt: now,
	}))
	require.NoError(t, store.CreateCompany(ctx, &types.Company{
		ID: "com:4", Name: "Stealth Two", CreatedAt: now, UpdatedAt: now,
	}))

	got, err := store.FindCompanyByDomain(ctx, "acme.com")
	require.NoError(t, err)
	assert.Equal(t, "com:1", got.ID)
}

func TestAliasTripleUniqueness(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, store.CreatePerson(ctx, &types.Person{
		ID: "per:1", Name: "Sara Chen", Emails: []string{"sara@acme.com"},
		CreatedAt: now, UpdatedAt: now,
	}))

	alias := &types.Alias{
		ID: "ali:1", PersonID: "per:1", Name: "S. Chen", Email: "sc@gmail.com",
		Context: "calendar", Confidence: 0.92, CreatedAt: now,
	}
	require.NoError(t, store.CreateAlias(ctx, alias))

	dup := *alias
	dup.ID = "ali:2"
	assert.ErrorIs(t, store.CreateAlias(ctx, &dup), storage.ErrDuplicate)

	// Alias names surface on the loaded person for matching.
	person, err := store.GetPerson(ctx, "per:1")
	require.NoError(t, err)
	assert.Contains(t, person.Aliases, "S. Chen")
}

func TestFindOverride_LatestWins(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Second)

	require.NoError(t, store.CreateOverride(ctx, &types.ManualOverride{
		ID: "ovr:1", Type: types.OverrideMerge, SourceIdentifier: "sara@acme.com",
		PersonID: "per:old", Confidence: 1.0, CreatedAt: base,
	}))
	require.NoError(t, store.CreateOverride(ctx, &types.ManualOverride{
		ID: "ovr:2", Type: types.OverrideMerge, SourceIdentifier: "Sara@Acme.com",
		PersonID: "per:new", Confidence: 1.0, CreatedAt: base.Add(time.Minute),
	}))

	override, err := store.FindOverride(ctx, "sara@acme.com")
	require.NoError(t, err)
	assert.Equal(t, "per:new", override.PersonID)
}

func TestUpdatePersonInteraction(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, store.CreatePerson(ctx, &types.Person{
		ID: "per:1", Name: "Sara Chen", Emails: []string{"sara@acme.com"},
		CreatedAt: now, UpdatedAt: now,
	}))

	require.NoError(t, store.UpdatePersonInteraction(ctx, "per:1", now))
	require.NoError(t, store.UpdatePersonInteraction(ctx, "per:1", now.Add(time.Hour)))

	person, err := store.GetPerson(ctx, "per:1")
	require.NoError(t, err)
	assert.Equal(t, 2, person.InteractionCount)
	require.NotNil(t, person.LastInteraction)

	assert.ErrorIs(t, store.UpdatePersonInteraction(ctx, "per:none", now), storage.ErrNotFound)
}

func TestListActivePersonsWithAliases(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, store.CreatePerson(ctx, &types.Person{
		ID: "per:active", Name: "Sara Chen", Emails: []string{"sara@acme.com"},
		CreatedAt: now, UpdatedAt: now,
	}))
	require.NoError(t, store.CreatePerson(ctx, &types.Person{
		ID: "per:gone", Name: "Archived Person", Emails: []string{"gone@acme.com"},
		Archived: true, CreatedAt: now, UpdatedAt: now,
	}))
	require.NoError(t, store.CreateAlias(ctx, &types.Alias{
		ID: "ali:1", PersonID: "per:active", Name: "S. Chen", CreatedAt: now,
	}))

	persons, err := store.ListActivePersonsWithAliases(ctx)
	require.NoError(t, err)
	require.Len(t, persons, 1)
	assert.Equal(t, "per:active", persons[0].ID)
	assert.Equal(t, []string{"sara@acme.com"}, persons[0].Emails)
	assert.Contains(t, persons[0].Aliases, "S. Chen")

	// Archived persons are invisible to email lookup too.
	_, err = store.FindPersonByEmail(ctx, "gone@acme.com")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
