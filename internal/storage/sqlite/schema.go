package sqlite

// Schema creates the profile tables. Uniqueness invariants live here, as
// unique indexes, so that concurrent resolution of the same new attendee is
// decided by the database: the loser of a create race sees a constraint
// violation, which the store maps to storage.ErrDuplicate and the engine
// resolves by re-fetching.
const Schema = `
CREATE TABLE IF NOT EXISTS persons (
    id                TEXT PRIMARY KEY,
    name              TEXT NOT NULL DEFAULT '',
    title             TEXT NOT NULL DEFAULT '',
    company_id        TEXT NOT NULL DEFAULT '',
    profile_url       TEXT NOT NULL DEFAULT '',
    handles           TEXT,
    facts             TEXT,
    confidence        REAL NOT NULL DEFAULT 0,
    last_interaction  TIMESTAMP,
    interaction_count INTEGER NOT NULL DEFAULT 0,
    class             TEXT NOT NULL DEFAULT 'unknown',
    archived          INTEGER NOT NULL DEFAULT 0,
    created_at        TIMESTAMP NOT NULL,
    updated_at        TIMESTAMP NOT NULL
);

-- One row per known address. The unique index over email is the authoritative
-- guard for the one-email-one-person invariant.
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
    facts      TEXT,
    parent_id  TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_companies_domain ON companies(domain) WHERE domain != '';

CREATE TABLE IF NOT EXISTS aliases (
    id         TEXT PRIMARY KEY,
    person_id  TEXT NOT NULL REFERENCES persons(id),
    name       TEXT NOT NULL DEFAULT '',
    email      TEXT NOT NULL DEFAULT '',
    context    TEXT NOT NULL DEFAULT '',
    confidence REAL NOT NULL DEFAULT 0,
    verified   INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMP NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_aliases_triple ON aliases(person_id, name, email);

CREATE TABLE IF NOT EXISTS overrides (
    id                TEXT PRIMARY KEY,
    type              TEXT NOT NULL,
    source_identifier TEXT NOT NULL,
    person_id         TEXT NOT NULL DEFAULT '',
    company_id        TEXT NOT NULL DEFAULT '',
    reason            TEXT NOT NULL DEFAULT '',
    confidence        REAL NOT NULL DEFAULT 1.0,
    author            TEXT NOT NULL DEFAULT '',
    created_at        TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_overrides_source ON overrides(source_identifier);
`
