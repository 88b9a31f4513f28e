// Package store defines the persistence contract for Lorescribe sessions,
// transcript chunks, entities, and relationships.
//
// The wire-level field names used by implementations are fixed by the remote
// schema: sessions carry (id, start_time, end_time, status, final_text),
// chunks (session_id, text, timestamp), entities (id, name, type,
// description, confidence, is_confirmed, session_id, created_at), and
// relationships (id, source_entity_id, target_entity_id, relationship_type,
// description, created_at).
//
// Implementations wrap infrastructure failures in [lore.RemoteError] and
// report missing rows with [lore.ErrNotFound]. Authorization is enforced by
// callers (see internal/wiki and internal/recorder), not here — the store is
// assumed to run with a session-bound credential attached by the backend.
//
// Every implementation must be safe for concurrent use.
package store

import (
	"context"
	"time"

	"github.com/lorescribe/lorescribe/pkg/lore"
)

// EntityFields is the set of entity columns a caller may change after
// creation. Identity (id), confidence, and provenance columns are immutable.
type EntityFields struct {
	Name        string
	Type        lore.EntityType
	Description string
	Confirmed   bool
}

// SessionStore persists recording sessions and their transcript chunk
// telemetry.
type SessionStore interface {
	// CreateSession inserts a new session record. The session's Status is
	// typically [lore.StatusRecording] and EndTime nil.
	CreateSession(ctx context.Context, s lore.Session) error

	// FinishSession closes the session: it sets status, end_time, and
	// final_text in one update. Returns [lore.ErrNotFound] when no session
	// with that id exists.
	FinishSession(ctx context.Context, id string, status lore.SessionStatus, endTime time.Time, finalText string) error

	// GetSession retrieves a session by id.
	// Returns [lore.ErrNotFound] when it does not exist.
	GetSession(ctx context.Context, id string) (lore.Session, error)

	// AppendChunk appends a transcript chunk. Chunks are append-only
	// telemetry; there is no update or delete.
	AppendChunk(ctx context.Context, c lore.TranscriptChunk) error

	// ListChunks returns all chunks for a session in timestamp order.
	// Used for transcript recovery when a session ended without a final
	// write. Returns an empty (non-nil) slice when none exist.
	ListChunks(ctx context.Context, sessionID string) ([]lore.TranscriptChunk, error)
}

// EntityStore persists confirmed entities and their relationships.
type EntityStore interface {
	// ListEntities returns all entities ordered by name, with each
	// entity's outgoing relationships attached in creation order.
	// Returns an empty (non-nil) slice when the store is empty.
	ListEntities(ctx context.Context) ([]lore.Entity, error)

	// InsertEntity persists a new entity. The caller assigns the id.
	InsertEntity(ctx context.Context, e lore.Entity) error

	// UpdateEntity persists the mutable fields of an existing entity.
	// Returns [lore.ErrNotFound] when no entity with that id exists.
	UpdateEntity(ctx context.Context, id string, fields EntityFields) error

	// DeleteEntity removes the entity and its own (outgoing) relationship
	// rows. Relationships owned by other entities that point at the
	// deleted id are left in place — dangling targets are tolerated.
	// Returns [lore.ErrNotFound] when no entity with that id exists.
	DeleteEntity(ctx context.Context, id string) error

	// InsertRelationship appends a relationship row. Duplicate
	// (source, target, type) triples are permitted.
	InsertRelationship(ctx context.Context, r lore.Relationship) error
}

// Store is the full persistence contract.
type Store interface {
	SessionStore
	EntityStore
}
