// Package mock provides a scripted test double for the audio package.
package mock

import (
	"context"
	"sync"

	"github.com/lorescribe/lorescribe/pkg/audio"
)

// Compile-time interface check.
var _ audio.Capture = (*Capture)(nil)

// Capture is an in-memory [audio.Capture]. Tests script its permission and
// device answers, feed frames with Push, and observe lifecycle calls.
type Capture struct {
	// Granted and Available are the answers returned by PermissionGranted
	// and InputAvailable. Both default to true from NewCapture.
	Granted   bool
	Available bool

	// StartErr, when non-nil, is returned by Start.
	StartErr error

	mu      sync.Mutex
	frames  chan audio.Frame
	started bool
	stopped bool
}

// NewCapture returns a ready-to-use mock with permission granted and an
// input device available.
func NewCapture() *Capture {
	return &Capture{
		Granted:   true,
		Available: true,
		frames:    make(chan audio.Frame, 16),
	}
}

// PermissionGranted implements [audio.Capture].
func (c *Capture) PermissionGranted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Granted
}

// InputAvailable implements [audio.Capture].
func (c *Capture) InputAvailable() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Available
}

// Start implements [audio.Capture].
func (c *Capture) Start(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.StartErr != nil {
		return c.StartErr
	}
	c.started = true
	return nil
}

// Frames implements [audio.Capture].
func (c *Capture) Frames() <-chan audio.Frame {
	return c.frames
}

// Stop implements [audio.Capture]. The frame channel is closed exactly once.
func (c *Capture) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.stopped {
		c.stopped = true
		close(c.frames)
	}
	return nil
}

// Push delivers a frame to the consumer. Frames pushed after Stop are
// silently dropped.
func (c *Capture) Push(f audio.Frame) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped {
		return
	}
	c.frames <- f
}

// Started reports whether Start has been called successfully.
func (c *Capture) Started() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.started
}
