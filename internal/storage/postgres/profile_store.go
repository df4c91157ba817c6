// Package postgres implements storage.ProfileStore on PostgreSQL via lib/pq,
// for deployments where the profile catalog is shared between processes.
// Semantics are identical to the sqlite backend; unique-constraint violations
// (SQLSTATE 23505) map to storage.ErrDuplicate.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/prebriefhq/prebrief/internal/storage"
	"github.com/prebriefhq/prebrief/pkg/types"
)

// ProfileStore implements storage.ProfileStore using PostgreSQL.
type ProfileStore struct {
	db *sql.DB
}

// NewProfileStore connects to the database named by connStr, verifies the
// connection, and applies the schema.
func NewProfileStore(connStr string) (*ProfileStore, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres: failed to connect: %w", err)
	}
	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres: failed to create schema: %w", err)
	}
	return &ProfileStore{db: db}, nil
}

// FindPersonByEmail looks up the active person owning the address.
func (s *ProfileStore) FindPersonByEmail(ctx context.Context, email string) (*types.Person, error) {
	var personID string
	err := s.db.QueryRowContext(ctx,
		`SELECT pe.person_id FROM person_emails pe
		 JOIN persons p ON p.id = pe.person_id
		 WHERE pe.email = $1 AND NOT p.archived`,
		normalizeEmail(email),
	).Scan(&personID)
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to look up email: %w", err)
	}
	return s.GetPerson(ctx, personID)
}

// FindCompanyByDomain looks up a company by email domain.
func (s *ProfileStore) FindCompanyByDomain(ctx context.Context, domain string) (*types.Company, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, domain, industry, size, class, facts, parent_id, created_at, updated_at
		 FROM companies WHERE domain = $1`,
		strings.ToLower(strings.TrimSpace(domain)),
	)

	var company types.Company
	var factsJSON []byte
	err := row.Scan(&company.ID, &company.Name, &company.Domain, &company.Industry,
		&company.Size, &company.Class, &factsJSON, &company.ParentID,
		&company.CreatedAt, &company.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to load company: %w", err)
	}

	if len(factsJSON) > 0 {
		if err := json.Unmarshal(factsJSON, &company.Facts); err != nil {
			return nil, fmt.Errorf("postgres: failed to unmarshal company facts: %w", err)
		}
	}
	return &company, nil
}

// FindOverride returns the most recent override recorded for the identifier.
func (s *ProfileStore) FindOverride(ctx context.Context, identifier string) (*types.ManualOverride, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, type, source_identifier, person_id, company_id, reason, confidence, author, created_at
		 FROM overrides WHERE source_identifier = $1
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
		return nil, fmt.Errorf("postgres: failed to load override: %w", err)
	}
	return &o, nil
}

// CreatePerson inserts a person and its email rows in one transaction.
func (s *ProfileStore) CreatePerson(ctx context.Context, person *types.Person) error {
	if person == nil || person.ID == "" {
		return fmt.Errorf("%w: person ID is required", storage.ErrInvalidInput)
	}

	handlesJSON, err := marshalOrNil(person.Handles)
	if err != nil {
		return fmt.Errorf("postgres: failed to marshal handles: %w", err)
	}
	factsJSON, err := marshalOrNil(person.Facts)
	if err != nil {
		return fmt.Errorf("postgres: failed to marshal facts: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("postgres: failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO persons (id, name, title, company_id, profile_url, handles, facts,
		                      confidence, last_interaction, interaction_count, class, archived,
		                      created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		person.ID, person.Name, person.Title, person.CompanyID, person.ProfileURL,
		handlesJSON, factsJSON, person.Confidence, person.LastInteraction,
		person.InteractionCount, string(person.Class), person.Archived,
		person.CreatedAt, person.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: person %s", storage.ErrDuplicate, person.ID)
		}
		return fmt.Errorf("postgres: failed to insert person: %w", err)
	}

	for i, email := range person.Emails {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO person_emails (person_id, email, position) VALUES ($1, $2, $3)`,
			person.ID, normalizeEmail(email), i)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: email %s", storage.ErrDuplicate, email)
			}
			return fmt.Errorf("postgres: failed to insert email: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("postgres: failed to commit person: %w", err)
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
		return fmt.Errorf("postgres: failed to marshal company facts: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO companies (id, name, domain, industry, size, class, facts, parent_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		company.ID, company.Name, strings.ToLower(strings.TrimSpace(company.Domain)),
		company.Industry, company.Size, string(company.Class), factsJSON,
		company.ParentID, company.CreatedAt, company.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: domain %s", storage.ErrDuplicate, company.Domain)
		}
		return fmt.Errorf("postgres: failed to insert company: %w", err)
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
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		alias.ID, alias.PersonID, alias.Name, normalizeEmail(alias.Email),
		alias.Context, alias.Confidence, alias.Verified, alias.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: alias already recorded", storage.ErrDuplicate)
		}
		return fmt.Errorf("postgres: failed to insert alias: %w", err)
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
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		override.ID, string(override.Type),
		strings.ToLower(strings.TrimSpace(override.SourceIdentifier)),
		override.PersonID, override.CompanyID, override.Reason,
		override.Confidence, override.Author, override.CreatedAt)
	if err != nil {
		return fmt.Errorf("postgres: failed to insert override: %w", err)
	}
	return nil
}

// UpdatePersonInteraction atomically bumps the counter and timestamp.
func (s *ProfileStore) UpdatePersonInteraction(ctx context.Context, personID string, at time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE persons
		 SET interaction_count = interaction_count + 1, last_interaction = $1, updated_at = $1
		 WHERE id = $2`,
		at, personID)
	if err != nil {
		return fmt.Errorf("postgres: failed to update interaction: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("postgres: failed to read rows affected: %w", err)
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
		 FROM persons WHERE id = $1`, id)

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
		 FROM persons WHERE NOT archived ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to list persons: %w", err)
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
		return nil, fmt.Errorf("postgres: failed to iterate persons: %w", err)
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

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanPerson(row scanner) (*types.Person, error) {
	var (
		person                 types.Person
		handlesJSON, factsJSON []byte
		lastInteraction        sql.NullTime
		class                  string
	)
	err := row.Scan(&person.ID, &person.Name, &person.Title, &person.CompanyID,
		&person.ProfileURL, &handlesJSON, &factsJSON, &person.Confidence,
		&lastInteraction, &person.InteractionCount, &class, &person.Archived,
		&person.CreatedAt, &person.UpdatedAt)
	if err != nil {
		return nil, err
	}

	person.Class = types.PersonClass(class)
	if lastInteraction.Valid {
		t := lastInteraction.Time
		person.LastInteraction = &t
	}
	if len(handlesJSON) > 0 {
		if err := json.Unmarshal(handlesJSON, &person.Handles); err != nil {
			return nil, fmt.Errorf("postgres: failed to unmarshal handles: %w", err)
		}
	}
	if len(factsJSON) > 0 {
		if err := json.Unmarshal(factsJSON, &person.Facts); err != nil {
			return nil, fmt.Errorf("postgres: failed to unmarshal facts: %w", err)
		}
	}
	return &person, nil
}

func (s *ProfileStore) loadEmails(ctx context.Context, personID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT email FROM person_emails WHERE person_id = $1 ORDER BY position`, personID)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to load emails: %w", err)
	}
	defer rows.Close()

	var emails []string
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, fmt.Errorf("postgres: failed to scan email: %w", err)
		}
		emails = append(emails, email)
	}
	return emails, rows.Err()
}

func (s *ProfileStore) loadAliasNames(ctx context.Context, personID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT name FROM aliases WHERE person_id = $1 AND name != '' ORDER BY name`, personID)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to load aliases: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("postgres: failed to scan alias: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// isUniqueViolation reports whether err is a PostgreSQL unique-constraint
// violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

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
