package postgres

import (
	"context"

	"github.com/lorescribe/lorescribe/pkg/lore"
	"github.com/lorescribe/lorescribe/pkg/store"
)

// ListEntities implements [store.EntityStore]. Entities come back ordered by
// name with their outgoing relationships attached in creation order.
//
// Two queries instead of a join: entity counts are small (a campaign wiki,
// not a warehouse) and keeping the scans simple beats saving a round trip.
func (s *Store) ListEntities(ctx context.Context) ([]lore.Entity, error) {
	const qEntities = `
		SELECT id, name, type, description, confidence, is_confirmed, session_id, created_at
		FROM   entities
		ORDER  BY name`

	rows, err := s.pool.Query(ctx, qEntities)
	if err != nil {
		return nil, &lore.RemoteError{Op: "list entities", Err: err}
	}
	defer rows.Close()

	entities := []lore.Entity{}
	index := map[string]int{}
	for rows.Next() {
		var (
			e        lore.Entity
			typeName string
		)
		if err := rows.Scan(&e.ID, &e.Name, &typeName, &e.Description,
			&e.Confidence, &e.Confirmed, &e.SessionID, &e.CreatedAt); err != nil {
			return nil, &lore.RemoteError{Op: "scan entity", Err: err}
		}
		e.Type, _ = lore.ParseEntityType(typeName)
		index[e.ID] = len(entities)
		entities = append(entities, e)
	}
	if err := rows.Err(); err != nil {
		return nil, &lore.RemoteError{Op: "list entities", Err: err}
	}

	const qRels = `
		SELECT id, source_entity_id, target_entity_id, relationship_type, description, created_at
		FROM   entity_relationships
		ORDER  BY source_entity_id, created_at`

	relRows, err := s.pool.Query(ctx, qRels)
	if err != nil {
		return nil, &lore.RemoteError{Op: "list relationships", Err: err}
	}
	defer relRows.Close()

	for relRows.Next() {
		var (
			r        lore.Relationship
			typeName string
		)
		if err := relRows.Scan(&r.ID, &r.SourceID, &r.TargetID, &typeName,
			&r.Description, &r.CreatedAt); err != nil {
			return nil, &lore.RemoteError{Op: "scan relationship", Err: err}
		}
		r.Type, _ = lore.ParseRelationshipType(typeName)
		// Rows whose source entity was deleted are skipped; rows whose
		// target is gone stay attached (soft reference).
		if i, ok := index[r.SourceID]; ok {
			entities[i].Relationships = append(entities[i].Relationships, r)
		}
	}
	if err := relRows.Err(); err != nil {
		return nil, &lore.RemoteError{Op: "list relationships", Err: err}
	}
	return entities, nil
}

// InsertEntity implements [store.EntityStore].
func (s *Store) InsertEntity(ctx context.Context, e lore.Entity) error {
	const q = `
		INSERT INTO entities (id, name, type, description, confidence, is_confirmed, session_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := s.pool.Exec(ctx, q,
		e.ID, e.Name, string(e.Type), e.Description,
		e.Confidence, e.Confirmed, e.SessionID, e.CreatedAt,
	)
	if err != nil {
		return &lore.RemoteError{Op: "insert entity", Err: err}
	}
	return nil
}

// UpdateEntity implements [store.EntityStore].
func (s *Store) UpdateEntity(ctx context.Context, id string, fields store.EntityFields) error {
	const q = `
		UPDATE entities
		SET    name = $2, type = $3, description = $4, is_confirmed = $5
		WHERE  id = $1`

	tag, err := s.pool.Exec(ctx, q, id,
		fields.Name, string(fields.Type), fields.Description, fields.Confirmed)
	if err != nil {
		return &lore.RemoteError{Op: "update entity", Err: err}
	}
	if tag.RowsAffected() == 0 {
		return lore.ErrNotFound
	}
	return nil
}

// DeleteEntity implements [store.EntityStore]. Only the entity's own
// outgoing relationship rows are removed; edges from other entities that
// point at the deleted id survive as soft references.
func (s *Store) DeleteEntity(ctx context.Context, id string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return &lore.RemoteError{Op: "delete entity", Err: err}
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `DELETE FROM entities WHERE id = $1`, id)
	if err != nil {
		return &lore.RemoteError{Op: "delete entity", Err: err}
	}
	if tag.RowsAffected() == 0 {
		return lore.ErrNotFound
	}
	if _, err := tx.Exec(ctx, `DELETE FROM entity_relationships WHERE source_entity_id = $1`, id); err != nil {
		return &lore.RemoteError{Op: "delete entity relationships", Err: err}
	}
	if err := tx.Commit(ctx); err != nil {
		return &lore.RemoteError{Op: "delete entity", Err: err}
	}
	return nil
}

// InsertRelationship implements [store.EntityStore]. No uniqueness
// constraint applies to (source, target, type) triples.
func (s *Store) InsertRelationship(ctx context.Context, r lore.Relationship) error {
	const q = `
		INSERT INTO entity_relationships (id, source_entity_id, target_entity_id, relationship_type, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := s.pool.Exec(ctx, q,
		r.ID, r.SourceID, r.TargetID, string(r.Type), r.Description, r.CreatedAt)
	if err != nil {
		return &lore.RemoteError{Op: "insert relationship", Err: err}
	}
	return nil
}
