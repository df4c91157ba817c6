package postgres

// Schema creates the profile tables. Mirrors the SQLite schema; the unique
// indexes are the authoritative guard for the concurrency invariants, and
// violations surface as storage.ErrDuplicate.
const Schema = `
CREATE TABLE IF NOT EXISTS persons (
    id                TEXT PRIMARY KEY,
    name              TEXT NOT NULL DEFAULT '',
    title             TEXT NOT NULL DEFAULT '',
    company_id        TEXT NOT NULL DEFAULT '',
    profile_url       TEXT NOT NULL DEFAULT '',
    handles           JSONB,
    facts             JSONB,
    confidence        DOUBLE PRECISION NOT NULL DEFAULT 0,
    last_interaction  TIMESTAMPTZ,
    interaction_count INTEGER NOT NULL DEFAULT 0,
    class             TEXT NOT NULL DEFAULT 'unknown',
    archived          BOOLEAN NOT NULL DEFAULT FALSE,
    created_at        TIMESTAMPTZ NOT NULL,
    updated_at        TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS person_emails (
    person_id TEXT NOT NULL REFERENCES persons(id),
    email     TEXT NOT NULL,
    position  INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (person_id, email)
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_person_emails_email ON person_emails(email);

CREATE TABLE IF NOT EXISTS companies (
    id         TEXT PRIMARY KEY,
    name       TEXT NOT NULL DEFAULT '',
    domain     TEXT NOT NULL DEFAULT '',
    industry   TEXT NOT NULL DEFAULT '',
    size       TEXT NOT NULL DEFAULT '',
    class      TEXT NOT NULL DEFAULT '',
    facts      JSONB,
    parent_id  TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMPTZ NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_companies_domain ON companies(domain) WHERE domain != '';

CREATE TABLE IF NOT EXISTS aliases (
    id         TEXT PRIMARY KEY,
    person_id  TEXT NOT NULL REFERENCES persons(id),
    name       TEXT NOT NULL DEFAULT '',
    email      TEXT NOT NULL DEFAULT '',
    context    TEXT NOT NULL DEFAULT '',
    confidence DOUBLE PRECISION NOT NULL DEFAULT 0,
    verified   BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TIMESTAMPTZ NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_aliases_triple ON aliases(person_id, name, email);

CREATE TABLE IF NOT EXISTS overrides (
    id                TEXT PRIMARY KEY,
    type              TEXT NOT NULL,
    source_identifier TEXT NOT NULL,
    person_id         TEXT NOT NULL DEFAULT '',
    company_id        TEXT NOT NULL DEFAULT '',
    reason            TEXT NOT NULL DEFAULT '',
    confidence        DOUBLE PRECISION NOT NULL DEFAULT 1.0,
    author            TEXT NOT NULL DEFAULT '',
    created_at        TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_overrides_source ON overrides(source_identifier);
`
