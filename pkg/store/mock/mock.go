// Package mock provides an in-memory test double for the store package.
//
// Store keeps all records in maps and slices, records every mutating call,
// and lets tests inject errors per operation:
//
//	st := mock.NewStore()
//	st.FailAppendChunk = errors.New("network down")
//	…
//	if len(st.AppendChunkCalls) != 3 { … }
//
// The embedded mutex guards all state; tests inspecting call records while
// goroutines are still running should hold it.
package mock

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/lorescribe/lorescribe/pkg/lore"
	"github.com/lorescribe/lorescribe/pkg/store"
)

// Compile-time interface check.
var _ store.Store = (*Store)(nil)

// Store is an in-memory implementation of [store.Store] with call recording
// and error injection. All methods are safe for concurrent use.
type Store struct {
	sync.Mutex

	// Sessions, Chunks, Entities and Relationships hold the stored
	// records. Tests may pre-populate them before use.
	Sessions      map[string]lore.Session
	Chunks        []lore.TranscriptChunk
	Entities      map[string]lore.Entity
	Relationships []lore.Relationship

	// Fail* fields, when non-nil, are returned by the corresponding
	// operation instead of performing it.
	FailCreateSession      error
	FailFinishSession      error
	FailAppendChunk        error
	FailListEntities       error
	FailInsertEntity       error
	FailUpdateEntity       error
	FailDeleteEntity       error
	FailInsertRelationship error

	// Call records.
	CreateSessionCalls      []lore.Session
	FinishSessionCalls      []FinishSessionCall
	AppendChunkCalls        []lore.TranscriptChunk
	InsertEntityCalls       []lore.Entity
	UpdateEntityCalls       []UpdateEntityCall
	DeleteEntityCalls       []string
	InsertRelationshipCalls []lore.Relationship
	ListEntitiesCalls       int
}

// FinishSessionCall records one invocation of FinishSession.
type FinishSessionCall struct {
	ID        string
	Status    lore.SessionStatus
	EndTime   time.Time
	FinalText string
}

// UpdateEntityCall records one invocation of UpdateEntity.
type UpdateEntityCall struct {
	ID     string
	Fields store.EntityFields
}

// NewStore returns an initialised empty mock store.
func NewStore() *Store {
	return &Store{
		Sessions: make(map[string]lore.Session),
		Entities: make(map[string]lore.Entity),
	}
}

// CreateSession implements [store.SessionStore].
func (s *Store) CreateSession(_ context.Context, sess lore.Session) error {
	s.Lock()
	defer s.Unlock()
	s.CreateSessionCalls = append(s.CreateSessionCalls, sess)
	if s.FailCreateSession != nil {
		return s.FailCreateSession
	}
	s.Sessions[sess.ID] = sess
	return nil
}

// FinishSession implements [store.SessionStore].
func (s *Store) FinishSession(_ context.Context, id string, status lore.SessionStatus, endTime time.Time, finalText string) error {
	s.Lock()
	defer s.Unlock()
	s.FinishSessionCalls = append(s.FinishSessionCalls, FinishSessionCall{
		ID: id, Status: status, EndTime: endTime, FinalText: finalText,
	})
	if s.FailFinishSession != nil {
		return s.FailFinishSession
	}
	sess, ok := s.Sessions[id]
	if !ok {
		return lore.ErrNotFound
	}
	sess.Status = status
	sess.EndTime = &endTime
	sess.FinalText = finalText
	s.Sessions[id] = sess
	return nil
}

// GetSession implements [store.SessionStore].
func (s *Store) GetSession(_ context.Context, id string) (lore.Session, error) {
	s.Lock()
	defer s.Unlock()
	sess, ok := s.Sessions[id]
	if !ok {
		return lore.Session{}, lore.ErrNotFound
	}
	return sess, nil
}

// AppendChunk implements [store.SessionStore].
func (s *Store) AppendChunk(_ context.Context, c lore.TranscriptChunk) error {
	s.Lock()
	defer s.Unlock()
	s.AppendChunkCalls = append(s.AppendChunkCalls, c)
	if s.FailAppendChunk != nil {
		return s.FailAppendChunk
	}
	s.Chunks = append(s.Chunks, c)
	return nil
}

// ListChunks implements [store.SessionStore].
func (s *Store) ListChunks(_ context.Context, sessionID string) ([]lore.TranscriptChunk, error) {
	s.Lock()
	defer s.Unlock()
	chunks := []lore.TranscriptChunk{}
	for _, c := range s.Chunks {
		if c.SessionID == sessionID {
			chunks = append(chunks, c)
		}
	}
	slices.SortStableFunc(chunks, func(a, b lore.TranscriptChunk) int {
		return a.Timestamp.Compare(b.Timestamp)
	})
	return chunks, nil
}

// ListEntities implements [store.EntityStore].
func (s *Store) ListEntities(_ context.Context) ([]lore.Entity, error) {
	s.Lock()
	defer s.Unlock()
	s.ListEntitiesCalls++
	if s.FailListEntities != nil {
		return nil, s.FailListEntities
	}
	entities := make([]lore.Entity, 0, len(s.Entities))
	for _, e := range s.Entities {
		e.Relationships = nil
		for _, r := range s.Relationships {
			if r.SourceID == e.ID {
				e.Relationships = append(e.Relationships, r)
			}
		}
		entities = append(entities, e)
	}
	slices.SortFunc(entities, func(a, b lore.Entity) int {
		return strings.Compare(a.Name, b.Name)
	})
	return entities, nil
}

// InsertEntity implements [store.EntityStore].
func (s *Store) InsertEntity(_ context.Context, e lore.Entity) error {
	s.Lock()
	defer s.Unlock()
	s.InsertEntityCalls = append(s.InsertEntityCalls, e)
	if s.FailInsertEntity != nil {
		return s.FailInsertEntity
	}
	s.Entities[e.ID] = e
	return nil
}

// UpdateEntity implements [store.EntityStore].
func (s *Store) UpdateEntity(_ context.Context, id string, fields store.EntityFields) error {
	s.Lock()
	defer s.Unlock()
	s.UpdateEntityCalls = append(s.UpdateEntityCalls, UpdateEntityCall{ID: id, Fields: fields})
	if s.FailUpdateEntity != nil {
		return s.FailUpdateEntity
	}
	e, ok := s.Entities[id]
	if !ok {
		return lore.ErrNotFound
	}
	e.Name = fields.Name
	e.Type = fields.Type
	e.Description = fields.Description
	e.Confirmed = fields.Confirmed
	s.Entities[id] = e
	return nil
}

// DeleteEntity implements [store.EntityStore]. Mirrors the production
// policy: only the entity's own outgoing relationship rows are removed.
func (s *Store) DeleteEntity(_ context.Context, id string) error {
	s.Lock()
	defer s.Unlock()
	s.DeleteEntityCalls = append(s.DeleteEntityCalls, id)
	if s.FailDeleteEntity != nil {
		return s.FailDeleteEntity
	}
	if _, ok := s.Entities[id]; !ok {
		return lore.ErrNotFound
	}
	delete(s.Entities, id)
	s.Relationships = slices.DeleteFunc(s.Relationships, func(r lore.Relationship) bool {
		return r.SourceID == id
	})
	return nil
}

// InsertRelationship implements [store.EntityStore].
func (s *Store) InsertRelationship(_ context.Context, r lore.Relationship) error {
	s.Lock()
	defer s.Unlock()
	s.InsertRelationshipCalls = append(s.InsertRelationshipCalls, r)
	if s.FailInsertRelationship != nil {
		return s.FailInsertRelationship
	}
	s.Relationships = append(s.Relationships, r)
	return nil
}
