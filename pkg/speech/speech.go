// Package speech defines the Provider interface for streaming
// speech-to-text backends.
//
// A speech provider wraps a real-time transcription service (e.g. Deepgram,
// or an on-device recognizer) behind a uniform streaming interface. The
// central abstraction is SessionHandle: once opened, a session accepts raw
// PCM audio frames and emits cumulative Transcript values — each emission
// carries the full running transcript of the session so far, superseding
// every previous one. Consumers therefore never stitch segments together;
// the latest value is always the whole truth.
//
// Implementations must be safe for concurrent use.
package speech

import "context"

// Transcript is one recognition result. Text is cumulative: it holds the
// entire transcript recognised since the session opened, not just the most
// recent utterance.
type Transcript struct {
	// Text is the full running transcript.
	Text string

	// Final reports whether the trailing segment of Text has been committed
	// by the recogniser. Non-final emissions may still be revised.
	Final bool

	// Confidence is the provider's confidence in the trailing segment,
	// in [0, 1]. Zero when the provider does not report one.
	Confidence float64
}

// StreamConfig describes the audio format and recognition hints for a new
// streaming session.
type StreamConfig struct {
	// SampleRate is the audio sample rate in Hz (e.g. 16000).
	SampleRate int

	// Channels is the number of audio channels. 1 = mono, which most
	// providers require.
	Channels int

	// Language is the BCP-47 language tag for recognition (e.g. "en-US").
	// Empty lets the provider apply its default.
	Language string

	// Keywords are vocabulary hints that raise recognition probability for
	// uncommon words such as fantasy proper nouns.
	Keywords []string
}

// SessionHandle represents an open streaming transcription session.
//
// Callers must call Close when the session is no longer needed; failing to
// do so may leak goroutines and network connections inside the provider.
// All methods must be safe for concurrent use.
type SessionHandle interface {
	// SendAudio delivers a chunk of raw PCM audio bytes for transcription.
	// The chunk must match the format agreed in StreamConfig. Calling
	// SendAudio after Close returns an error.
	SendAudio(chunk []byte) error

	// Partials returns the channel of cumulative transcripts. Each value
	// replaces all previous ones. The channel is closed when the session
	// ends, whether by Close or by a recognition failure.
	Partials() <-chan Transcript

	// Err reports why the session ended. It returns nil before the session
	// ends and nil after a clean Close; after the Partials channel closes
	// because of a recognition failure it returns that failure.
	Err() error

	// Close terminates the session, flushes pending audio, and releases
	// all resources. Calling Close more than once is safe and returns nil.
	Close() error
}

// Provider is the abstraction over any streaming speech-to-text backend.
type Provider interface {
	// StartStream opens a new streaming session with the given audio format
	// and recognition configuration. The returned SessionHandle is ready to
	// accept audio immediately. The caller owns the handle and must call
	// Close when done.
	StartStream(ctx context.Context, cfg StreamConfig) (SessionHandle, error)
}
