// Package review tracks the human confirmation workflow for extracted
// candidate entities.
//
// Each candidate is pending until a reviewer confirms it (promoting it to a
// persisted entity) or dismisses it (terminal, no persistence). The workflow
// holds the state of exactly one extraction pass at a time: loading a new
// pass replaces everything, matching the replace-not-append contract of the
// extractor.
package review

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lorescribe/lorescribe/internal/extract"
	"github.com/lorescribe/lorescribe/pkg/lore"
)

// EntityCreator persists a confirmed entity. Satisfied by wiki.Store.
type EntityCreator interface {
	Create(ctx context.Context, e lore.Entity) (lore.Entity, error)
}

// Workflow manages confirmation state for the candidates of one extraction
// pass. All methods are safe for concurrent use.
type Workflow struct {
	creator EntityCreator
	now     func() time.Time

	mu         sync.Mutex
	sessionID  string
	candidates []lore.Candidate
	low        []lore.Candidate
	dismissed  map[string]bool
	inflight   map[string]bool
}

// New returns a Workflow that persists confirmed candidates through creator.
func New(creator EntityCreator) *Workflow {
	return &Workflow{
		creator:   creator,
		now:       time.Now,
		dismissed: make(map[string]bool),
		inflight:  make(map[string]bool),
	}
}

// SetSession binds the workflow to the recording session that produced the
// transcript under review. Confirmation fails until a session is set.
func (w *Workflow) SetSession(id string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.sessionID = id
}

// Load replaces all candidate state with a fresh extraction result.
// Prior confirmations and dismissals are discarded with the old pass.
func (w *Workflow) Load(res extract.Result) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.candidates = slices.Clone(res.Candidates)
	w.low = slices.Clone(res.LowConfidence)
	w.dismissed = make(map[string]bool)
	w.inflight = make(map[string]bool)
}

// Confirm promotes the candidate with the given id into a persisted entity.
//
// It fails with [lore.ErrNoActiveSession] when no session is bound, and
// [lore.ErrNotFound] when the id does not name a live candidate. On success
// the candidate is marked confirmed, removed from the low-confidence subset,
// and the stored entity is returned. Confirming an already-confirmed
// candidate, or one whose confirmation is still persisting on another
// goroutine, is a no-op that succeeds and returns the zero entity.
func (w *Workflow) Confirm(ctx context.Context, candidateID string) (lore.Entity, error) {
	w.mu.Lock()
	if w.sessionID == "" {
		w.mu.Unlock()
		return lore.Entity{}, fmt.Errorf("review: confirm: %w", lore.ErrNoActiveSession)
	}

	idx := -1
	for i, c := range w.candidates {
		if c.ID == candidateID && !w.dismissed[c.ID] {
			idx = i
			break
		}
	}
	if idx < 0 {
		w.mu.Unlock()
		return lore.Entity{}, fmt.Errorf("review: confirm %q: %w", candidateID, lore.ErrNotFound)
	}
	if w.candidates[idx].Confirmed || w.inflight[candidateID] {
		w.mu.Unlock()
		return lore.Entity{}, nil
	}
	w.inflight[candidateID] = true

	cand := w.candidates[idx]
	sessionID := w.sessionID
	w.mu.Unlock()

	// Persist outside the lock: Create performs remote I/O.
	entity := lore.Entity{
		ID:         uuid.NewString(),
		Name:       cand.Text,
		Type:       cand.Type,
		Confidence: cand.Confidence,
		Confirmed:  true,
		SessionID:  sessionID,
		CreatedAt:  w.now().UTC(),
	}
	stored, err := w.creator.Create(ctx, entity)

	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.inflight, candidateID)
	if err != nil {
		// The candidate stays pending and can be confirmed again.
		return lore.Entity{}, fmt.Errorf("review: confirm %q: %w", cand.Text, err)
	}
	for i := range w.candidates {
		if w.candidates[i].ID == candidateID {
			w.candidates[i].Confirmed = true
		}
	}
	w.low = slices.DeleteFunc(w.low, func(c lore.Candidate) bool {
		return c.ID == candidateID
	})
	return stored, nil
}

// Dismiss removes the candidate from both the full and low-confidence sets.
// Dismissal is terminal and performs no persistence call. Dismissing an
// unknown or already-dismissed id is a no-op.
func (w *Workflow) Dismiss(candidateID string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.dismissed[candidateID] = true
	w.candidates = slices.DeleteFunc(w.candidates, func(c lore.Candidate) bool {
		return c.ID == candidateID
	})
	w.low = slices.DeleteFunc(w.low, func(c lore.Candidate) bool {
		return c.ID == candidateID
	})
}

// Candidates returns a copy of the full candidate set in document order.
func (w *Workflow) Candidates() []lore.Candidate {
	w.mu.Lock()
	defer w.mu.Unlock()
	return slices.Clone(w.candidates)
}

// LowConfidence returns a copy of the candidates still needing review.
func (w *Workflow) LowConfidence() []lore.Candidate {
	w.mu.Lock()
	defer w.mu.Unlock()
	return slices.Clone(w.low)
}
