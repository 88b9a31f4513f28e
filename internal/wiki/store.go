// Package wiki maintains the campaign's graph of confirmed entities and
// typed relationships.
//
// Store fronts the persistent entity tables with an in-memory, name-ordered
// snapshot. The snapshot is the single source of truth for readers: every
// successful mutation performs a full reload from the backing store instead
// of patching the cache locally, so readers can never observe a state the
// store would disagree with. Frontends watch for changes through Version and
// Subscribe rather than holding references into the cache.
package wiki

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lorescribe/lorescribe/pkg/auth"
	"github.com/lorescribe/lorescribe/pkg/lore"
	"github.com/lorescribe/lorescribe/pkg/store"
)

// Store is the confirmed-entity graph. All methods are safe for concurrent
// use. Every operation that touches the backing store requires a valid
// remote session and fails with [lore.ErrUnauthorized] without one.
type Store struct {
	store store.EntityStore
	auth  auth.Authenticator
	log   *slog.Logger

	now   func() time.Time
	newID func() string

	mu       sync.RWMutex
	entities []lore.Entity
	version  uint64
	subs     []chan struct{}
}

// New returns a Store over the given backing entity store. The cache starts
// empty; call Refresh to populate it. A nil logger falls back to
// slog.Default.
func New(st store.EntityStore, authn auth.Authenticator, log *slog.Logger) *Store {
	if log == nil {
		log = slog.Default()
	}
	return &Store{
		store: st,
		auth:  authn,
		log:   log,
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// guard rejects the operation when no valid remote session exists.
func (s *Store) guard(ctx context.Context) error {
	if !s.auth.SessionValid(ctx) {
		return lore.ErrUnauthorized
	}
	return nil
}

// Refresh reloads the snapshot from the backing store.
func (s *Store) Refresh(ctx context.Context) error {
	if err := s.guard(ctx); err != nil {
		return err
	}
	return s.reload(ctx)
}

// reload replaces the snapshot with the store's current contents, bumps the
// version, and wakes subscribers.
func (s *Store) reload(ctx context.Context) error {
	entities, err := s.store.ListEntities(ctx)
	if err != nil {
		return fmt.Errorf("wiki: reload: %w", err)
	}

	s.mu.Lock()
	s.entities = entities
	s.version++
	for _, ch := range s.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
	s.mu.Unlock()
	return nil
}

// List returns the cached entities ordered by name. An empty filter returns
// everything; a non-empty filter matches case-insensitively against entity
// names and descriptions.
func (s *Store) List(ctx context.Context, filter string) ([]lore.Entity, error) {
	if err := s.guard(ctx); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if filter == "" {
		return slices.Clone(s.entities), nil
	}

	needle := strings.ToLower(filter)
	matched := []lore.Entity{}
	for _, e := range s.entities {
		if strings.Contains(strings.ToLower(e.Name), needle) ||
			strings.Contains(strings.ToLower(e.Description), needle) {
			matched = append(matched, e)
		}
	}
	return matched, nil
}

// Get returns the cached entity with the given id.
func (s *Store) Get(ctx context.Context, id string) (lore.Entity, error) {
	if err := s.guard(ctx); err != nil {
		return lore.Entity{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.entities {
		if e.ID == id {
			return e, nil
		}
	}
	return lore.Entity{}, lore.ErrNotFound
}

// Create validates and persists a new confirmed entity, then reloads the
// snapshot. An empty name fails with a [lore.ValidationError] before any
// store call is made. Missing ID and CreatedAt fields are filled in; the
// stored entity is returned.
func (s *Store) Create(ctx context.Context, e lore.Entity) (lore.Entity, error) {
	if err := s.guard(ctx); err != nil {
		return lore.Entity{}, err
	}
	if strings.TrimSpace(e.Name) == "" {
		return lore.Entity{}, &lore.ValidationError{Field: "name", Reason: "must not be empty"}
	}

	if e.ID == "" {
		e.ID = s.newID()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.now()
	}
	e.Confirmed = true

	if err := s.store.InsertEntity(ctx, e); err != nil {
		return lore.Entity{}, fmt.Errorf("wiki: create %q: %w", e.Name, err)
	}
	if err := s.reload(ctx); err != nil {
		return lore.Entity{}, err
	}
	return e, nil
}

// Update persists the mutable fields of an existing entity (name, type,
// description, confirmed) and reloads the snapshot. Unknown ids fail with
// [lore.ErrNotFound].
func (s *Store) Update(ctx context.Context, e lore.Entity) error {
	if err := s.guard(ctx); err != nil {
		return err
	}
	if strings.TrimSpace(e.Name) == "" {
		return &lore.ValidationError{Field: "name", Reason: "must not be empty"}
	}

	fields := store.EntityFields{
		Name:        e.Name,
		Type:        e.Type,
		Description: e.Description,
		Confirmed:   e.Confirmed,
	}
	if err := s.store.UpdateEntity(ctx, e.ID, fields); err != nil {
		return fmt.Errorf("wiki: update %s: %w", e.ID, err)
	}
	return s.reload(ctx)
}

// Delete removes an entity and reloads the snapshot. Relationships from
// other entities that point at the deleted id are left in place as dangling
// soft references; only the entity's own outgoing edges go with it.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.guard(ctx); err != nil {
		return err
	}
	if err := s.store.DeleteEntity(ctx, id); err != nil {
		return fmt.Errorf("wiki: delete %s: %w", id, err)
	}
	return s.reload(ctx)
}

// AddRelationship appends a directed relationship from sourceID and reloads
// the snapshot. Both endpoints must currently exist in the graph. Duplicate
// triples and self-relationships are permitted.
func (s *Store) AddRelationship(ctx context.Context, sourceID string, rel lore.Relationship) error {
	if err := s.guard(ctx); err != nil {
		return err
	}

	rel.SourceID = sourceID
	s.mu.RLock()
	srcOK := s.contains(sourceID)
	tgtOK := s.contains(rel.TargetID)
	s.mu.RUnlock()
	if !srcOK || !tgtOK {
		return fmt.Errorf("wiki: relationship %s -> %s: %w", sourceID, rel.TargetID, lore.ErrNotFound)
	}

	if rel.ID == "" {
		rel.ID = s.newID()
	}
	if rel.CreatedAt.IsZero() {
		rel.CreatedAt = s.now()
	}

	if err := s.store.InsertRelationship(ctx, rel); err != nil {
		return fmt.Errorf("wiki: add relationship: %w", err)
	}
	return s.reload(ctx)
}

// contains reports whether the cached snapshot holds the given id. Callers
// must hold at least a read lock.
func (s *Store) contains(id string) bool {
	return slices.ContainsFunc(s.entities, func(e lore.Entity) bool {
		return e.ID == id
	})
}

// Version returns the current snapshot version. The version increases on
// every successful reload.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Subscribe returns a channel that receives a signal after every snapshot
// reload. The channel has a buffer of one; slow consumers coalesce signals
// instead of blocking mutations.
func (s *Store) Subscribe() <-chan struct{} {
	ch := make(chan struct{}, 1)
	s.mu.Lock()
	s.subs = append(s.subs, ch)
	s.mu.Unlock()
	return ch
}

// SuggestSimilar returns cached entity names that sound like name, best
// match first. Reviewers use this to catch transcription drift — the same
// character arriving once as "Eldrinax" and later as "Elder Nacks". The
// check runs against the already-loaded snapshot and needs no store access.
func (s *Store) SuggestSimilar(name string) []Suggestion {
	s.mu.RLock()
	names := make([]string, 0, len(s.entities))
	for _, e := range s.entities {
		names = append(names, e.Name)
	}
	s.mu.RUnlock()
	return suggestSimilar(name, names)
}
