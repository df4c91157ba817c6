// Package sqlite implements storage.ProfileStore on SQLite via the pure-Go
// modernc.org/sqlite driver. It is the default backend: a single local file,
// WAL mode for read concurrency, one writer connection to sidestep
// SQLITE_BUSY under concurrent resolution.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/prebriefhq/prebrief/internal/storage"
	"github.com/prebriefhq/prebrief/pkg/types"
)

// ProfileStore implements storage.ProfileStore using SQLite.
type ProfileStore struct {
	db *sql.DB
}

// NewProfileStore opens (creating if necessary) the profile database at dsn
// and applies the schema.
func NewProfileStore(dsn string) (*ProfileStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to open database: %w", err)
	}

	// SQLite only supports one concurrent writer. A single open connection
	// serialises writes; WAL mode lets readers proceed without blocking it.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("sqlite: failed to apply %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: failed to create schema: %w", err)
	}

	return &ProfileStore{db: db}, nil
}

// FindPersonByEmail looks up the active person owning the address.
func (s *ProfileStore) FindPersonByEmail(ctx context.Context, email string) (*types.Person, error) {
	var personID string
	err := s.db.QueryRowContext(ctx,
		`SELECT pe.person_id FROM person_emails pe
		 JOIN persons p ON p.id = pe.person_id
		 WHERE pe.email = ? AND p.archived = 0`,
		normalizeEmail(email),
	).Scan(&personID)
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to look up email: %w", err)
	}
	return s.GetPerson(ctx, personID)
}

// FindCompanyByDomain looks up a company by email domain.
func (s *ProfileStore) FindCompanyByDomain(ctx context.Context, domain string) (*types.Company, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, domain, industry, size, class, facts, parent_id, created_at, updated_at
		 FROM companies WHERE domain = ?`,
		strings.ToLower(strings.TrimSpace(domain)),
	)

	var company types.Company
	var factsJSON sql.NullString
	err := row.Scan(&company.ID, &company.Name, &company.Domain, &company.Industry,
		&company.Size, &company.Class, &factsJSON, &company.ParentID,
		&company.CreatedAt, &company.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to load company: %w", err)
	}

	if factsJSON.Valid && factsJSON.String != "" {
		if err := json.Unmarshal([]byte(factsJSON.String), &company.Facts); err != nil {
			return nil, fmt.Errorf("sqlite: failed to unmarshal company facts: %w", err)
		}
	}
	return &company, nil
}

// FindOverride returns the most recent override recorded for the identifier.
func (s *ProfileStore) FindOverride(ctx context.Context, identifier string) (*types.ManualOverride, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, type, source_identifier, person_id, company_id, reason, confidence, author, created_at
		 FROM overrides WHERE source_identifier = ?
		 ORDER BY created_at DESC, id DESC LIMIT 1`,
		strings.ToLower(strings.TrimSpace(identifier)),
	)

	var o types.ManualOverride
	err := row.Scan(&o.ID, &o.Type, &o.SourceIdentifier, &o.PersonID, &o.CompanyID,
		&o.Reason, &o.Confidence, &o.Author, &o.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to load override: %w", err)
	}
	return &o, nil
}

// CreatePerson inserts a person and its email rows in one transaction. A
// unique-index violation on any email maps to storage.ErrDuplicate.
func (s *ProfileStore) CreatePerson(ctx context.Context, person *types.Person) error {
	if person == nil || person.ID == "" {
		return fmt.Errorf("%w: person ID is required", storage.ErrInvalidInput)
	}

	handlesJSON, err := marshalOrNil(person.Handles)
	if err != nil {
		return fmt.Errorf("sqlite: failed to marshal handles: %w", err)
	}
	factsJSON, err := marshalOrNil(person.Facts)
	if err != nil {
		return fmt.Errorf("sqlite: failed to marshal facts: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO persons (id, name, title, company_id, profile_url, handles, facts,
		                      confidence, last_interaction, interaction_count, class, archived,
		                      created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		person.ID, person.Name, person.Title, person.CompanyID, person.ProfileURL,
		handlesJSON, factsJSON, person.Confidence, person.LastInteraction,
		person.InteractionCount, string(person.Class), boolToInt(person.Archived),
		person.CreatedAt, person.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: person %s", storage.ErrDuplicate, person.ID)
		}
		return fmt.Errorf("sqlite: failed to insert person: %w", err)
	}

	for i, email := range person.Emails {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO person_emails (person_id, email, position) VALUES (?, ?, ?)`,
			person.ID, normalizeEmail(email), i)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: email %s", storage.ErrDuplicate, email)
			}
			return fmt.Errorf("sqlite: failed to insert email: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: failed to commit person: %w", err)
	}
	return nil
}

// CreateCompany inserts a company; a domain collision maps to ErrDuplicate.
func (s *ProfileStore) CreateCompany(ctx context.Context, company *types.Company) error {
	if company == nil || company.ID == "" {
		return fmt.Errorf("%w: company ID is required", storage.ErrInvalidInput)
	}

	factsJSON, err := marshalOrNil(company.Facts)
	if err != nil {
		return fmt.Errorf("sqlite: failed to marshal company facts: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO companies (id, name, domain, industry, size, class, facts, parent_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		company.ID, company.Name, strings.ToLower(strings.TrimSpace(company.Domain)),
		company.Industry, company.Size, string(company.Class), factsJSON,
		company.ParentID, company.CreatedAt, company.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: domain %s", storage.ErrDuplicate, company.Domain)
		}
		return fmt.Errorf("sqlite: failed to insert company: %w", err)
	}
	return nil
}

// CreateAlias inserts an alias; a triple collision maps to ErrDuplicate.
func (s *ProfileStore) CreateAlias(ctx context.Context, alias *types.Alias) error {
	if alias == nil || alias.PersonID == "" {
		return fmt.Errorf("%w: alias person ID is required", storage.ErrInvalidInput)
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO aliases (id, person_id, name, email, context, confidence, verified, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		alias.ID, alias.PersonID, alias.Name, normalizeEmail(alias.Email),
		alias.Context, alias.Confidence, boolToInt(alias.Verified), alias.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: alias already recorded", storage.ErrDuplicate)
		}
		return fmt.Errorf("sqlite: failed to insert alias: %w", err)
	}
	return nil
}

// CreateOverride appends an override row.
func (s *ProfileStore) CreateOverride(ctx context.Context, override *types.ManualOverride) error {
	if override == nil || override.SourceIdentifier == "" {
		return fmt.Errorf("%w: override source identifier is required", storage.ErrInvalidInput)
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO overrides (id, type, source_identifier, person_id, company_id, reason, confidence, author, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		override.ID, string(override.Type),
		strings.ToLower(strings.TrimSpace(override.SourceIdentifier)),
		override.PersonID, override.CompanyID, override.Reason,
		override.Confidence, override.Author, override.CreatedAt)
	if err != nil {
		return fmt.Errorf("sqlite: failed to insert override: %w", err)
	}
	return nil
}

// UpdatePersonInteraction atomically bumps the counter and timestamp.
func (s *ProfileStore) UpdatePersonInteraction(ctx context.Context, personID string, at time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE persons
		 SET interaction_count = interaction_count + 1, last_interaction = ?, updated_at = ?
		 WHERE id = ?`,
		at, at, personID)
	if err != nil {
		return fmt.Errorf("sqlite: failed to update interaction: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: failed to read rows affected: %w", err)
	}
	if rows == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// GetPerson loads a person with emails and alias names.
func (s *ProfileStore) GetPerson(ctx context.Context, id string) (*types.Person, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, title, company_id, profile_url, handles, facts, confidence,
		        last_interaction, interaction_count, class, archived, created_at, updated_at
		 FROM persons WHERE id = ?`, id)

	person, err := scanPerson(row)
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if person.Emails, err = s.loadEmails(ctx, id); err != nil {
		return nil, err
	}
	if person.Aliases, err = s.loadAliasNames(ctx, id); err != nil {
		return nil, err
	}
	return person, nil
}

// ListActivePersonsWithAliases returns all non-archived persons with emails
// and alias names populated.
func (s *ProfileStore) ListActivePersonsWithAliases(ctx context.Context) ([]*types.Person, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, title, company_id, profile_url, handles, facts, confidence,
		        last_interaction, interaction_count, class, archived, created_at, updated_at
		 FROM persons WHERE archived = 0 ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to list persons: %w", err)
	}
	defer rows.Close()

	var persons []*types.Person
	for rows.Next() {
		person, err := scanPerson(rows)
		if err != nil {
			return nil, err
		}
		persons = append(persons, person)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: failed to iterate persons: %w", err)
	}

	for _, person := range persons {
		if person.Emails, err = s.loadEmails(ctx, person.ID); err != nil {
			return nil, err
		}
		if person.Aliases, err = s.loadAliasNames(ctx, person.ID); err != nil {
			return nil, err
		}
	}
	return persons, nil
}

// Close releases the underlying database handle.
func (s *ProfileStore) Close() error {
	return s.db.Close()
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanPerson(row scanner) (*types.Person, error) {
	var (
		person                 types.Person
		handlesJSON, factsJSON sql.NullString
		lastInteraction        sql.NullTime
		archived               int
		class                  string
	)
	err := row.Scan(&person.ID, &person.Name, &person.Title, &person.CompanyID,
		&person.ProfileURL, &handlesJSON, &factsJSON, &person.Confidence,
		&lastInteraction, &person.InteractionCount, &class, &archived,
		&person.CreatedAt, &person.UpdatedAt)
	if err != nil {
		return nil, err
	}

	person.Class = types.PersonClass(class)
	person.Archived = archived != 0
	if lastInteraction.Valid {
		t := lastInteraction.Time
		person.LastInteraction = &t
	}
	if handlesJSON.Valid && handlesJSON.String != "" {
		if err := json.Unmarshal([]byte(handlesJSON.String), &person.Handles); err != nil {
			return nil, fmt.Errorf("sqlite: failed to unmarshal handles: %w", err)
		}
	}
	if factsJSON.Valid && factsJSON.String != "" {
		if err := json.Unmarshal([]byte(factsJSON.String), &person.Facts); err != nil {
			return nil, fmt.Errorf("sqlite: failed to unmarshal facts: %w", err)
		}
	}
	return &person, nil
}

func (s *ProfileStore) loadEmails(ctx context.Context, personID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT email FROM person_emails WHERE person_id = ? ORDER BY position`, personID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to load emails: %w", err)
	}
	defer rows.Close()

	var emails []string
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, fmt.Errorf("sqlite: failed to scan email: %w", err)
		}
		emails = append(emails, email)
	}
	return emails, rows.Err()
}

func (s *ProfileStore) loadAliasNames(ctx context.Context, personID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT name FROM aliases WHERE person_id = ? AND name != '' ORDER BY name`, personID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to load aliases: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("sqlite: failed to scan alias: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// isUniqueViolation reports whether the driver error is a unique-index
// violation. modernc.org/sqlite surfaces these as SQLITE_CONSTRAINT_UNIQUE
// with a "UNIQUE constraint failed" message.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// marshalOrNil JSON-encodes v, returning nil for empty values so the column
// stays NULL instead of storing "null".
func marshalOrNil(v interface{}) ([]byte, error) {
	switch t := v.(type) {
	case map[string]string:
		if len(t) == 0 {
			return nil, nil
		}
	case []string:
		if len(t) == 0 {
			return nil, nil
		}
	}
	return json.Marshal(v)
}
