// Package resilience provides a three-state circuit breaker used to shed
// best-effort remote writes while the store is unhealthy.
//
// The breaker moves closed → open after a run of consecutive failures,
// rejects calls with [ErrOpen] while open, and probes the dependency again
// after a cooldown (half-open). Telemetry writes guarded by a breaker are
// droppable by contract, so a rejected call is logged and forgotten rather
// than retried.
package resilience

import (
	"errors"
	"log/slog"
	"sync"
	"time"
)

// ErrOpen is returned by [Breaker.Do] when the breaker rejects a call
// without attempting it.
var ErrOpen = errors.New("breaker open")

// State is the operating mode of a [Breaker].
type State int

const (
	// Closed forwards every call.
	Closed State = iota

	// Open rejects every call until the cooldown elapses.
	Open

	// HalfOpen forwards a single probe call; its outcome decides whether
	// the breaker closes or re-opens.
	HalfOpen
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half-open"
	}
	return "unknown"
}

// Config tunes a [Breaker]. Zero fields take the documented defaults.
type Config struct {
	// Name labels the breaker in log output.
	Name string

	// Trip is the number of consecutive failures that opens the breaker.
	// Default: 5.
	Trip int

	// Cooldown is how long the breaker stays open before probing again.
	// Default: 30s.
	Cooldown time.Duration

	// Logger defaults to slog.Default.
	Logger *slog.Logger
}

// Breaker is a three-state circuit breaker. Safe for concurrent use.
type Breaker struct {
	name     string
	trip     int
	cooldown time.Duration
	log      *slog.Logger
	now      func() time.Time

	mu       sync.Mutex
	state    State
	failures int
	openedAt time.Time
	probing  bool
}

// New returns a closed Breaker.
func New(cfg Config) *Breaker {
	if cfg.Trip <= 0 {
		cfg.Trip = 5
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 30 * time.Second
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Breaker{
		name:     cfg.Name,
		trip:     cfg.Trip,
		cooldown: cfg.Cooldown,
		log:      log,
		now:      time.Now,
	}
}

// Do runs fn unless the breaker is open, in which case it returns [ErrOpen]
// without calling fn. In the half-open state exactly one probe call runs at
// a time; concurrent calls are rejected until the probe settles.
func (b *Breaker) Do(fn func() error) error {
	b.mu.Lock()
	switch b.state {
	case Open:
		if b.now().Sub(b.openedAt) < b.cooldown {
			b.mu.Unlock()
			return ErrOpen
		}
		b.state = HalfOpen
		b.log.Info("breaker probing", "name", b.name)
		fallthrough
	case HalfOpen:
		if b.probing {
			b.mu.Unlock()
			return ErrOpen
		}
		b.probing = true
	}
	probe := b.state == HalfOpen
	b.mu.Unlock()

	err := fn()

	b.mu.Lock()
	defer b.mu.Unlock()
	if probe {
		b.probing = false
	}

	if err != nil {
		b.failures++
		if probe || (b.state == Closed && b.failures >= b.trip) {
			b.state = Open
			b.openedAt = b.now()
			b.log.Warn("breaker opened", "name", b.name, "consecutive_failures", b.failures)
		}
		return err
	}

	if b.state != Closed {
		b.log.Info("breaker closed", "name", b.name)
	}
	b.state = Closed
	b.failures = 0
	return nil
}

// State returns the breaker's current state. An open breaker whose cooldown
// has elapsed reports [HalfOpen]; the transition itself happens on the next
// [Breaker.Do].
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == Open && b.now().Sub(b.openedAt) >= b.cooldown {
		return HalfOpen
	}
	return b.state
}

// Reset forces the breaker back to [Closed] and clears failure accounting.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = Closed
	b.failures = 0
	b.probing = false
}
