// Package audio defines the capture contract for raw audio input.
//
// The core never touches audio formats or device APIs itself — a [Capture]
// implementation (OS microphone, network stream, file playback in tests)
// delivers raw PCM frames, and the recorder pumps them into the speech
// provider. Only the contract and a test double live in this repository.
package audio

import "context"

// Frame is a chunk of raw PCM audio bytes. The sample rate, channel count,
// and bit depth are agreed out of band between the capture implementation
// and the speech provider configuration.
type Frame []byte

// Capture is a source of raw audio frames.
//
// Lifecycle: PermissionGranted and InputAvailable may be checked at any
// time; Start begins delivery on the Frames channel; Stop ends delivery and
// closes the channel. Implementations must be safe for concurrent use.
type Capture interface {
	// PermissionGranted reports whether the user has granted audio/speech
	// capture permission.
	PermissionGranted() bool

	// InputAvailable reports whether an input device is present.
	InputAvailable() bool

	// Start begins capturing. Frames are delivered on the channel returned
	// by Frames until Stop is called or ctx is cancelled.
	Start(ctx context.Context) error

	// Frames returns the frame delivery channel. The channel is closed
	// when capture stops.
	Frames() <-chan Frame

	// Stop ends capture and releases the device. Calling Stop when not
	// capturing is a no-op.
	Stop() error
}
