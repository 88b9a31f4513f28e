package wiki

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lorescribe/lorescribe/pkg/auth"
	"github.com/lorescribe/lorescribe/pkg/lore"
	"github.com/lorescribe/lorescribe/pkg/store/mock"
)

var testTime = time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)

// newTestStore returns a Store over a seeded mock backend with a
// deterministic clock and id sequence, refreshed once.
func newTestStore(t *testing.T, seed ...lore.Entity) (*Store, *mock.Store) {
	t.Helper()
	backend := mock.NewStore()
	for _, e := range seed {
		backend.Entities[e.ID] = e
	}

	s := New(backend, auth.Static(true), nil)
	s.now = func() time.Time { return testTime }
	ids := 0
	s.newID = func() string {
		ids++
		return string(rune('a'+ids-1)) + "-generated"
	}

	if err := s.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	return s, backend
}

func TestUnauthorized(t *testing.T) {
	backend := mock.NewStore()
	s := New(backend, auth.Static(false), nil)
	ctx := context.Background()

	if err := s.Refresh(ctx); !errors.Is(err, lore.ErrUnauthorized) {
		t.Errorf("Refresh: got %v, want ErrUnauthorized", err)
	}
	if _, err := s.List(ctx, ""); !errors.Is(err, lore.ErrUnauthorized) {
		t.Errorf("List: got %v, want ErrUnauthorized", err)
	}
	if _, err := s.Create(ctx, lore.Entity{Name: "Aldric"}); !errors.Is(err, lore.ErrUnauthorized) {
		t.Errorf("Create: got %v, want ErrUnauthorized", err)
	}
	if err := s.Update(ctx, lore.Entity{ID: "e1", Name: "Aldric"}); !errors.Is(err, lore.ErrUnauthorized) {
		t.Errorf("Update: got %v, want ErrUnauthorized", err)
	}
	if err := s.Delete(ctx, "e1"); !errors.Is(err, lore.ErrUnauthorized) {
		t.Errorf("Delete: got %v, want ErrUnauthorized", err)
	}
	if err := s.AddRelationship(ctx, "e1", lore.Relationship{TargetID: "e2"}); !errors.Is(err, lore.ErrUnauthorized) {
		t.Errorf("AddRelationship: got %v, want ErrUnauthorized", err)
	}

	if len(backend.InsertEntityCalls) != 0 || backend.ListEntitiesCalls != 0 {
		t.Error("unauthorized operations must not reach the backing store")
	}
}

func TestCreate(t *testing.T) {
	t.Run("empty name fails before any store call", func(t *testing.T) {
		s, backend := newTestStore(t)

		_, err := s.Create(context.Background(), lore.Entity{Name: "   "})
		if !lore.IsValidation(err) {
			t.Fatalf("got %v, want ValidationError", err)
		}
		if len(backend.InsertEntityCalls) != 0 {
			t.Errorf("InsertEntity called %d times, want 0", len(backend.InsertEntityCalls))
		}
	})

	t.Run("fills id, timestamp, and confirmed flag", func(t *testing.T) {
		s, backend := newTestStore(t)

		got, err := s.Create(context.Background(), lore.Entity{
			Name: "Aldric", Type: lore.EntityCharacter, SessionID: "s1",
		})
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		if got.ID == "" {
			t.Error("Create must assign an id")
		}
		if !got.Confirmed {
			t.Error("created entities must be confirmed")
		}
		if !got.CreatedAt.Equal(testTime) {
			t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, testTime)
		}
		if len(backend.InsertEntityCalls) != 1 {
			t.Fatalf("InsertEntity called %d times, want 1", len(backend.InsertEntityCalls))
		}
	})

	t.Run("snapshot reflects the new entity", func(t *testing.T) {
		s, _ := newTestStore(t)
		ctx := context.Background()

		before := s.Version()
		if _, err := s.Create(ctx, lore.Entity{Name: "Rivendell", Type: lore.EntityLocation}); err != nil {
			t.Fatalf("Create: %v", err)
		}

		entities, err := s.List(ctx, "")
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if len(entities) != 1 || entities[0].Name != "Rivendell" {
			t.Fatalf("List after create: got %+v", entities)
		}
		if s.Version() <= before {
			t.Error("version must advance after a mutation")
		}
	})
}

func TestListFilter(t *testing.T) {
	s, _ := newTestStore(t,
		lore.Entity{ID: "e1", Name: "Aldric", Type: lore.EntityCharacter, Description: "A knight of the realm"},
		lore.Entity{ID: "e2", Name: "Rivendell", Type: lore.EntityLocation, Description: "Elven refuge"},
		lore.Entity{ID: "e3", Name: "Sting", Type: lore.EntityItem, Description: "An elven blade"},
	)
	ctx := context.Background()

	t.Run("empty filter returns everything name-ordered", func(t *testing.T) {
		entities, err := s.List(ctx, "")
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if len(entities) != 3 || entities[0].Name != "Aldric" || entities[2].Name != "Sting" {
			t.Fatalf("got %+v", entities)
		}
	})

	t.Run("filter matches name case-insensitively", func(t *testing.T) {
		entities, err := s.List(ctx, "riVEN")
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if len(entities) != 1 || entities[0].Name != "Rivendell" {
			t.Fatalf("got %+v", entities)
		}
	})

	t.Run("filter matches description too", func(t *testing.T) {
		entities, err := s.List(ctx, "elven")
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if len(entities) != 2 {
			t.Fatalf("want Rivendell and Sting, got %+v", entities)
		}
	})

	t.Run("no match yields empty non-nil slice", func(t *testing.T) {
		entities, err := s.List(ctx, "dragon")
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if entities == nil || len(entities) != 0 {
			t.Fatalf("got %v, want empty slice", entities)
		}
	})
}

func TestUpdate(t *testing.T) {
	s, backend := newTestStore(t,
		lore.Entity{ID: "e1", Name: "Aldric", Type: lore.EntityCharacter, Confirmed: true},
	)
	ctx := context.Background()

	t.Run("unknown id", func(t *testing.T) {
		err := s.Update(ctx, lore.Entity{ID: "missing", Name: "Ghost"})
		if !errors.Is(err, lore.ErrNotFound) {
			t.Fatalf("got %v, want ErrNotFound", err)
		}
	})

	t.Run("persists mutable fields and reloads", func(t *testing.T) {
		err := s.Update(ctx, lore.Entity{
			ID: "e1", Name: "Aldric the Bold", Type: lore.EntityCharacter,
			Description: "A knight", Confirmed: true,
		})
		if err != nil {
			t.Fatalf("Update: %v", err)
		}
		if len(backend.UpdateEntityCalls) != 1 {
			t.Fatalf("UpdateEntity called %d times, want 1", len(backend.UpdateEntityCalls))
		}

		got, err := s.Get(ctx, "e1")
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if got.Name != "Aldric the Bold" || got.Description != "A knight" {
			t.Errorf("snapshot not reloaded: %+v", got)
		}
	})

	t.Run("empty name rejected", func(t *testing.T) {
		err := s.Update(ctx, lore.Entity{ID: "e1", Name: ""})
		if !lore.IsValidation(err) {
			t.Fatalf("got %v, want ValidationError", err)
		}
	})
}

func TestDelete(t *testing.T) {
	s, backend := newTestStore(t,
		lore.Entity{ID: "e1", Name: "Aldric", Type: lore.EntityCharacter},
		lore.Entity{ID: "e2", Name: "Rivendell", Type: lore.EntityLocation},
	)
	ctx := context.Background()

	// Aldric lives in Rivendell.
	if err := s.AddRelationship(ctx, "e1", lore.Relationship{
		TargetID: "e2", Type: lore.RelLivesIn,
	}); err != nil {
		t.Fatalf("AddRelationship: %v", err)
	}

	if err := s.Delete(ctx, "e2"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Get(ctx, "e2"); !errors.Is(err, lore.ErrNotFound) {
		t.Errorf("Get after delete: got %v, want ErrNotFound", err)
	}

	// Aldric's edge now dangles; deletion must not cascade into other
	// entities' relationship lists.
	got, err := s.Get(ctx, "e1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(got.Relationships) != 1 || got.Relationships[0].TargetID != "e2" {
		t.Errorf("dangling edge must survive: %+v", got.Relationships)
	}

	if err := s.Delete(ctx, "missing"); !errors.Is(err, lore.ErrNotFound) {
		t.Errorf("Delete(missing): got %v, want ErrNotFound", err)
	}
	if len(backend.DeleteEntityCalls) != 2 {
		t.Errorf("DeleteEntity called %d times, want 2", len(backend.DeleteEntityCalls))
	}
}

func TestAddRelationship(t *testing.T) {
	seed := []lore.Entity{
		{ID: "e1", Name: "Aldric", Type: lore.EntityCharacter},
		{ID: "e2", Name: "Rivendell", Type: lore.EntityLocation},
	}
	ctx := context.Background()

	t.Run("both endpoints must exist", func(t *testing.T) {
		s, backend := newTestStore(t, seed...)

		err := s.AddRelationship(ctx, "e1", lore.Relationship{TargetID: "ghost", Type: lore.RelKnows})
		if !errors.Is(err, lore.ErrNotFound) {
			t.Fatalf("missing target: got %v, want ErrNotFound", err)
		}
		err = s.AddRelationship(ctx, "ghost", lore.Relationship{TargetID: "e2", Type: lore.RelKnows})
		if !errors.Is(err, lore.ErrNotFound) {
			t.Fatalf("missing source: got %v, want ErrNotFound", err)
		}
		if len(backend.InsertRelationshipCalls) != 0 {
			t.Error("failed endpoint checks must not persist anything")
		}
	})

	t.Run("fills id and timestamp, appends in order", func(t *testing.T) {
		s, backend := newTestStore(t, seed...)

		if err := s.AddRelationship(ctx, "e1", lore.Relationship{TargetID: "e2", Type: lore.RelLivesIn}); err != nil {
			t.Fatalf("AddRelationship: %v", err)
		}
		// Duplicate triple is permitted.
		if err := s.AddRelationship(ctx, "e1", lore.Relationship{TargetID: "e2", Type: lore.RelLivesIn}); err != nil {
			t.Fatalf("duplicate AddRelationship: %v", err)
		}

		if len(backend.InsertRelationshipCalls) != 2 {
			t.Fatalf("InsertRelationship called %d times, want 2", len(backend.InsertRelationshipCalls))
		}
		rel := backend.InsertRelationshipCalls[0]
		if rel.ID == "" || !rel.CreatedAt.Equal(testTime) || rel.SourceID != "e1" {
			t.Errorf("relationship not filled in: %+v", rel)
		}

		got, err := s.Get(ctx, "e1")
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if len(got.Relationships) != 2 {
			t.Errorf("snapshot edges = %d, want 2", len(got.Relationships))
		}
	})

	t.Run("self relationship permitted", func(t *testing.T) {
		s, _ := newTestStore(t, seed...)

		if err := s.AddRelationship(ctx, "e1", lore.Relationship{TargetID: "e1", Type: lore.RelKnows}); err != nil {
			t.Fatalf("self relationship: %v", err)
		}
	})
}

func TestSubscribe(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	ch := s.Subscribe()
	select {
	case <-ch:
		t.Fatal("no signal expected before a mutation")
	default:
	}

	if _, err := s.Create(ctx, lore.Entity{Name: "Aldric"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("expected a signal after a mutation")
	}

	// Two quick mutations coalesce into at most one pending signal; the
	// subscriber must not be able to deadlock the store.
	if _, err := s.Create(ctx, lore.Entity{Name: "Rivendell"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := s.Create(ctx, lore.Entity{Name: "Sting"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("expected a coalesced signal")
	}
}
