package resilience

import (
	"errors"
	"testing"
	"time"
)

var errBoom = errors.New("boom")

func newTestBreaker(trip int, cooldown time.Duration) (*Breaker, *time.Time) {
	b := New(Config{Name: "test", Trip: trip, Cooldown: cooldown})
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	b.now = func() time.Time { return now }
	return b, &now
}

func TestBreakerStaysClosedBelowTrip(t *testing.T) {
	b, _ := newTestBreaker(3, time.Minute)

	for i := 0; i < 2; i++ {
		if err := b.Do(func() error { return errBoom }); !errors.Is(err, errBoom) {
			t.Fatalf("call %d: err = %v, want boom", i, err)
		}
	}
	if got := b.State(); got != Closed {
		t.Fatalf("state = %v, want closed", got)
	}

	// A success resets the run.
	if err := b.Do(func() error { return nil }); err != nil {
		t.Fatalf("success call: %v", err)
	}
	for i := 0; i < 2; i++ {
		_ = b.Do(func() error { return errBoom })
	}
	if got := b.State(); got != Closed {
		t.Errorf("state after reset run = %v, want closed", got)
	}
}

func TestBreakerOpensAtTrip(t *testing.T) {
	b, _ := newTestBreaker(3, time.Minute)

	for i := 0; i < 3; i++ {
		_ = b.Do(func() error { return errBoom })
	}
	if got := b.State(); got != Open {
		t.Fatalf("state = %v, want open", got)
	}

	called := false
	err := b.Do(func() error { called = true; return nil })
	if !errors.Is(err, ErrOpen) {
		t.Errorf("err = %v, want ErrOpen", err)
	}
	if called {
		t.Error("fn was called while open")
	}
}

func TestBreakerProbesAfterCooldown(t *testing.T) {
	t.Run("probe success closes", func(t *testing.T) {
		b, now := newTestBreaker(1, time.Minute)
		_ = b.Do(func() error { return errBoom })
		*now = now.Add(2 * time.Minute)

		if got := b.State(); got != HalfOpen {
			t.Fatalf("state = %v, want half-open", got)
		}
		if err := b.Do(func() error { return nil }); err != nil {
			t.Fatalf("probe: %v", err)
		}
		if got := b.State(); got != Closed {
			t.Errorf("state = %v, want closed", got)
		}
	})

	t.Run("probe failure re-opens", func(t *testing.T) {
		b, now := newTestBreaker(1, time.Minute)
		_ = b.Do(func() error { return errBoom })
		*now = now.Add(2 * time.Minute)

		if err := b.Do(func() error { return errBoom }); !errors.Is(err, errBoom) {
			t.Fatalf("probe err = %v", err)
		}
		if got := b.State(); got != Open {
			t.Errorf("state = %v, want open", got)
		}

		// Rejected again until the next cooldown elapses.
		if err := b.Do(func() error { return nil }); !errors.Is(err, ErrOpen) {
			t.Errorf("err = %v, want ErrOpen", err)
		}
	})
}

func TestBreakerReset(t *testing.T) {
	b, _ := newTestBreaker(1, time.Hour)
	_ = b.Do(func() error { return errBoom })
	if got := b.State(); got != Open {
		t.Fatalf("state = %v, want open", got)
	}

	b.Reset()
	if got := b.State(); got != Closed {
		t.Fatalf("state after reset = %v, want closed", got)
	}
	if err := b.Do(func() error { return nil }); err != nil {
		t.Errorf("call after reset: %v", err)
	}
}
