// Package postgres provides a PostgreSQL-backed implementation of the
// Lorescribe persistence contract (sessions, transcript chunks, entities,
// relationships).
//
// All operations share a single [pgxpool.Pool]. [Migrate] is idempotent and
// runs automatically from [NewStore].
//
// Usage:
//
//	st, err := postgres.NewStore(ctx, dsn)
//	if err != nil { … }
//	defer st.Close()
//
//	_ = st.CreateSession(ctx, session)
//	entities, _ := st.ListEntities(ctx)
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

const ddlSessions = `
CREATE TABLE IF NOT EXISTS transcription_sessions (
    id          TEXT         PRIMARY KEY,
    start_time  TIMESTAMPTZ  NOT NULL,
    end_time    TIMESTAMPTZ,
    status      TEXT         NOT NULL,
    final_text  TEXT         NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_sessions_status
    ON transcription_sessions (status);
`

const ddlChunks = `
CREATE TABLE IF NOT EXISTS transcription_chunks (
    id          BIGSERIAL    PRIMARY KEY,
    session_id  TEXT         NOT NULL,
    text        TEXT         NOT NULL,
    timestamp   TIMESTAMPTZ  NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_chunks_session_timestamp
    ON transcription_chunks (session_id, timestamp);
`

const ddlEntities = `
CREATE TABLE IF NOT EXISTS entities (
    id           TEXT              PRIMARY KEY,
    name         TEXT              NOT NULL,
    type         TEXT              NOT NULL,
    description  TEXT              NOT NULL DEFAULT '',
    confidence   DOUBLE PRECISION  NOT NULL DEFAULT 0,
    is_confirmed BOOLEAN           NOT NULL DEFAULT false,
    session_id   TEXT              NOT NULL DEFAULT '',
    created_at   TIMESTAMPTZ       NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_entities_name ON entities (name);
CREATE INDEX IF NOT EXISTS idx_entities_session ON entities (session_id);
`

// Relationship endpoints are deliberately NOT foreign keys: the domain
// tolerates dangling targets after an entity delete (soft references).
const ddlRelationships = `
CREATE TABLE IF NOT EXISTS entity_relationships (
    id                 TEXT         PRIMARY KEY,
    source_entity_id   TEXT         NOT NULL,
    target_entity_id   TEXT         NOT NULL,
    relationship_type  TEXT         NOT NULL,
    description        TEXT         NOT NULL DEFAULT '',
    created_at         TIMESTAMPTZ  NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_relationships_source
    ON entity_relationships (source_entity_id, created_at);
`

// Migrate creates all required tables and indexes. It is idempotent and safe
// to run on every startup.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for _, ddl := range []string{ddlSessions, ddlChunks, ddlEntities, ddlRelationships} {
		if _, err := pool.Exec(ctx, ddl); err != nil {
			return fmt.Errorf("postgres: migrate: %w", err)
		}
	}
	return nil
}
