package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prebriefhq/prebrief/internal/storage"
	"github.com/prebriefhq/prebrief/pkg/types"
)

func newPerson(id, name string, emails ...string) *types.Person {
	now := time.Now()
	return &types.Person{
		ID:         id,
		Name:       name,
		Emails:     emails,
		Confidence: 0.9,
		Class:      types.PersonExternal,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func TestCreateAndFindPersonByEmail(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	require.NoError(t, store.CreatePerson(ctx, newPerson("per:1", "Sara Chen", "sara@acme.com")))

	found, err := store.FindPersonByEmail(ctx, "sara@acme.com")
	require.NoError(t, err)
	assert.Equal(t, "per:1", found.ID)

	// Email lookup is case-insensitive.
	found, err = store.FindPersonByEmail(ctx, "SARA@ACME.COM")
	require.NoError(t, err)
	assert.Equal(t, "per:1", found.ID)

	_, err = store.FindPersonByEmail(ctx, "nobody@acme.com")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestCreatePerson_DuplicateEmail(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	require.NoError(t, store.CreatePerson(ctx, newPerson("per:1", "Sara Chen", "sara@acme.com")))

	err := store.CreatePerson(ctx, newPerson("per:2", "Sara C", "sara@acme.com"))
	assert.ErrorIs(t, err, storage.ErrDuplicate)
}

func TestCreatePerson_MissingID(t *testing.T) {
	store := NewStore()
	err := store.CreatePerson(context.Background(), &types.Person{Name: "No ID"})
	assert.ErrorIs(t, err, storage.ErrInvalidInput)
}

func TestReturnedRecordsAreCopies(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	require.NoError(t, store.CreatePerson(ctx, newPerson("per:1", "Sara Chen", "sara@acme.com")))

	first, err := store.GetPerson(ctx, "per:1")
	require.NoError(t, err)
	first.Name = "Mutated"
	first.Emails[0] = "mutated@acme.com"

	second, err := store.GetPerson(ctx, "per:1")
	require.NoError(t, err)
	assert.Equal(t, "Sara Chen", second.Name)
	assert.Equal(t, "sara@acme.com", second.Emails[0])
}

func TestCreateCompany_DomainUniqueness(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	require.NoError(t, store.CreateCompany(ctx, &types.Company{ID: "com:1", Name: "Acme", Domain: "acme.com"}))

	err := store.CreateCompany(ctx, &types.Company{ID: "com:2", Name: "Acme Again", Domain: "ACME.com"})
	assert.ErrorIs(t, err, storage.ErrDuplicate)

	// Empty domains do not collide.
	require.NoError(t, store.CreateCompany(ctx, &types.Company{ID: "com:3", Name: "Stealth"}))
	require.NoError(t, store.CreateCompany(ctx, &types.Company{ID: "com:4", Name: "Also Stealth"}))

	found, err := store.FindCompanyByDomain(ctx, "acme.com")
	require.NoError(t, err)
	assert.Equal(t, "com:1", found.ID)
}

func TestCreateAlias_IdempotentTriple(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	require.NoError(t, store.CreatePerson(ctx, newPerson("per:1", "Sara Chen", "sara@acme.com")))

	alias := &types.Alias{
		ID:       "ali:1",
		PersonID: "per:1",
		Name:     "S. Chen",
		Email:    "schen@acme.com",
		Context:  "calendar",
	}
	require.NoError(t, store.CreateAlias(ctx, alias))

	// Same triple again is a duplicate regardless of a fresh ID.
	dup := *alias
	dup.ID = "ali:2"
	assert.ErrorIs(t, store.CreateAlias(ctx, &dup), storage.ErrDuplicate)

	// The alias name is mirrored onto the person for matching.
	person, err := store.GetPerson(ctx, "per:1")
	require.NoError(t, err)
	assert.Contains(t, person.Aliases, "S. Chen")
}

func TestFindOverride_LatestWins(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	require.NoError(t, store.CreateOverride(ctx, &types.ManualOverride{
		ID: "ovr:1", Type: types.OverrideMerge, SourceIdentifier: "sara@acme.com", PersonID: "per:old",
	}))
	require.NoError(t, store.CreateOverride(ctx, &types.ManualOverride{
		ID: "ovr:2", Type: types.OverrideMerge, SourceIdentifier: "SARA@acme.com", PersonID: "per:new",
	}))

	override, err := store.FindOverride(ctx, "sara@acme.com")
	require.NoError(t, err)
	assert.Equal(t, "per:new", override.PersonID)

	_, err = store.FindOverride(ctx, "nobody@acme.com")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestUpdatePersonInteraction(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	require.NoError(t, store.CreatePerson(ctx, newPerson("per:1", "Sara Chen", "sara@acme.com")))

	at := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	require.NoError(t, store.UpdatePersonInteraction(ctx, "per:1", at))
	require.NoError(t, store.UpdatePersonInteraction(ctx, "per:1", at.Add(time.Hour)))

	person, err := store.GetPerson(ctx, "per:1")
	require.NoError(t, err)
	assert.Equal(t, 2, person.InteractionCount)
	require.NotNil(t, person.LastInteraction)
	assert.Equal(t, at.Add(time.Hour), *person.LastInteraction)

	assert.ErrorIs(t, store.UpdatePersonInteraction(ctx, "per:missing", at), storage.ErrNotFound)
}

func TestListActivePersonsWithAliases_SkipsArchived(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	require.NoError(t, store.CreatePerson(ctx, newPerson("per:1", "Sara Chen", "sara@acme.com")))
	archived := newPerson("per:2", "Gone Person", "gone@acme.com")
	archived.Archived = true
	require.NoError(t, store.CreatePerson(ctx, archived))

	persons, err := store.ListActivePersonsWithAliases(ctx)
	require.NoError(t, err)
	require.Len(t, persons, 1)
	assert.Equal(t, "per:1", persons[0].ID)

	// Archived persons are invisible to email lookup as well.
	_, err = store.FindPersonByEmail(ctx, "gone@acme.com")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
