// Package recorder manages the lifecycle of a live recording session: idle
// until started, pumping audio into the speech provider while recording, and
// writing the authoritative session record on stop.
//
// The transcript model is cumulative: every partial result from the speech
// provider replaces the in-memory transcript wholesale. Each meaningful
// update also fires a best-effort TranscriptChunk upload — chunk telemetry
// may arrive out of order or drop entirely; only the final stop-time write
// is authoritative.
package recorder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lorescribe/lorescribe/internal/observe"
	"github.com/lorescribe/lorescribe/internal/resilience"
	"github.com/lorescribe/lorescribe/pkg/audio"
	"github.com/lorescribe/lorescribe/pkg/auth"
	"github.com/lorescribe/lorescribe/pkg/lore"
	"github.com/lorescribe/lorescribe/pkg/speech"
	"github.com/lorescribe/lorescribe/pkg/store"
)

// chunkTimeout bounds one best-effort chunk upload.
const chunkTimeout = 10 * time.Second

type state int

const (
	stateIdle state = iota
	stateRecording
	stateStopping
)

// Snapshot is a point-in-time view of the recorder for frontends.
type Snapshot struct {
	// Recording reports whether a session is live.
	Recording bool

	// SessionID is the live session's id, empty when idle.
	SessionID string

	// Transcript is the cumulative transcript. After a stop it holds the
	// final text of the last session.
	Transcript string

	// Err is the recognition failure that ended the last session, if any.
	// Cleared by the next successful Start.
	Err error
}

// Config wires a [Recorder]'s collaborators.
type Config struct {
	// Store persists session records and chunk telemetry.
	Store store.SessionStore

	// Speech opens streaming transcription sessions.
	Speech speech.Provider

	// Capture is the raw audio source.
	Capture audio.Capture

	// Auth gates session starts on a valid remote session.
	Auth auth.Authenticator

	// Stream is the audio/recognition configuration passed to Speech.
	Stream speech.StreamConfig

	// Metrics is optional; nil disables instrumentation.
	Metrics *observe.Metrics

	// Logger is optional; nil falls back to slog.Default.
	Logger *slog.Logger
}

// Recorder is the recording session state machine. All methods are safe for
// concurrent use.
type Recorder struct {
	store   store.SessionStore
	speech  speech.Provider
	capture audio.Capture
	auth    auth.Authenticator
	stream  speech.StreamConfig
	metrics *observe.Metrics
	log     *slog.Logger

	now   func() time.Time
	newID func() string

	// chunkBreaker sheds chunk uploads while the store is unhealthy. Chunks
	// are droppable telemetry, so shed uploads are logged and forgotten.
	chunkBreaker *resilience.Breaker

	mu         sync.Mutex
	state      state
	sessionID  string
	transcript string
	lastErr    error
	sess       speech.SessionHandle
	pumpDone   chan struct{}
	subs       []chan struct{}

	inflight sync.WaitGroup
}

// New returns an idle Recorder.
func New(cfg Config) *Recorder {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Recorder{
		store:   cfg.Store,
		speech:  cfg.Speech,
		capture: cfg.Capture,
		auth:    cfg.Auth,
		stream:  cfg.Stream,
		metrics: cfg.Metrics,
		log:     log,
		now:     time.Now,
		newID:   uuid.NewString,
		chunkBreaker: resilience.New(resilience.Config{
			Name:   "chunk-upload",
			Logger: log,
		}),
	}
}

// Start begins a new recording session. Starting while already recording is
// a no-op. Preconditions are checked in order: capture permission
// ([lore.ErrPermissionDenied]), input device ([lore.ErrCapabilityUnavailable]),
// then remote session ([lore.ErrUnauthenticated]). Any failure after the
// checks rolls the recorder back to idle.
func (r *Recorder) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch r.state {
	case stateRecording:
		return nil
	case stateStopping:
		return fmt.Errorf("recorder: stop in progress")
	}

	if !r.capture.PermissionGranted() {
		return lore.ErrPermissionDenied
	}
	if !r.capture.InputAvailable() {
		return lore.ErrCapabilityUnavailable
	}
	if !r.auth.SessionValid(ctx) {
		return lore.ErrUnauthenticated
	}

	id := r.newID()
	startTime := r.now()

	sess, err := r.speech.StartStream(ctx, r.stream)
	if err != nil {
		return fmt.Errorf("recorder: start stream: %w", err)
	}
	if err := r.capture.Start(ctx); err != nil {
		_ = sess.Close()
		return fmt.Errorf("recorder: start capture: %w", err)
	}
	record := lore.Session{ID: id, StartTime: startTime, Status: lore.StatusRecording}
	opStart := time.Now()
	err = r.store.CreateSession(ctx, record)
	if r.metrics != nil {
		r.metrics.RecordStoreOp(ctx, "create_session", opStart)
	}
	if err != nil {
		_ = r.capture.Stop()
		_ = sess.Close()
		return fmt.Errorf("recorder: create session: %w", err)
	}

	r.state = stateRecording
	r.sessionID = id
	r.transcript = ""
	r.lastErr = nil
	r.sess = sess
	r.pumpDone = make(chan struct{})

	go r.pumpAudio(sess)
	go r.pumpTranscripts(sess, id, r.pumpDone)

	if r.metrics != nil {
		r.metrics.ActiveRecordings.Add(ctx, 1)
	}
	r.log.Info("recording started", "session_id", id)
	r.notifyLocked()
	return nil
}

// Stop ends the live session and writes the authoritative final record
// (status completed, end time, final text). Stopping while idle is a no-op.
// The recorder returns to idle even when the final write fails; the error
// is still returned. In-flight chunk uploads are never waited on.
func (r *Recorder) Stop(ctx context.Context) error {
	r.mu.Lock()
	if r.state != stateRecording {
		r.mu.Unlock()
		return nil
	}
	r.state = stateStopping
	id := r.sessionID
	sess := r.sess
	pumpDone := r.pumpDone
	r.mu.Unlock()

	_ = r.capture.Stop()
	_ = sess.Close()
	// Wait for the transcript to settle; the pump exits once the provider's
	// channel closes.
	<-pumpDone

	end := r.now()
	r.mu.Lock()
	finalText := r.transcript
	r.mu.Unlock()

	opStart := time.Now()
	err := r.store.FinishSession(ctx, id, lore.StatusCompleted, end, finalText)
	if r.metrics != nil {
		r.metrics.RecordStoreOp(ctx, "finish_session", opStart)
		r.metrics.ActiveRecordings.Add(ctx, -1)
		r.metrics.RecordSessionFinished(ctx, string(lore.StatusCompleted))
	}

	r.mu.Lock()
	r.state = stateIdle
	r.sessionID = ""
	r.sess = nil
	r.notifyLocked()
	r.mu.Unlock()

	if err != nil {
		return fmt.Errorf("recorder: finish session: %w", err)
	}
	r.log.Info("recording stopped", "session_id", id, "final_len", len(finalText))
	return nil
}

// Recording reports whether a session is live.
func (r *Recorder) Recording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state == stateRecording
}

// Snapshot returns the current recorder state.
func (r *Recorder) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Snapshot{
		Recording:  r.state == stateRecording,
		SessionID:  r.sessionID,
		Transcript: r.transcript,
		Err:        r.lastErr,
	}
}

// Subscribe returns a channel that receives a signal after every state
// change. The channel has a buffer of one; slow consumers coalesce signals
// instead of blocking the recorder. Consumers call Snapshot for the state.
func (r *Recorder) Subscribe() <-chan struct{} {
	ch := make(chan struct{}, 1)
	r.mu.Lock()
	r.subs = append(r.subs, ch)
	r.mu.Unlock()
	return ch
}

// notifyLocked wakes subscribers. Callers must hold r.mu.
func (r *Recorder) notifyLocked() {
	for _, ch := range r.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// pumpAudio forwards capture frames to the speech session until the capture
// channel closes or the session rejects audio.
func (r *Recorder) pumpAudio(sess speech.SessionHandle) {
	for frame := range r.capture.Frames() {
		if err := sess.SendAudio(frame); err != nil {
			return
		}
	}
}

// pumpTranscripts consumes cumulative partials until the session ends, then
// handles a recognition failure if one ended it.
func (r *Recorder) pumpTranscripts(sess speech.SessionHandle, id string, done chan struct{}) {
	defer close(done)
	for t := range sess.Partials() {
		r.applyPartial(id, t)
	}
	if err := sess.Err(); err != nil {
		r.engineFailed(id, err)
	}
}

// applyPartial replaces the in-memory transcript and fires a best-effort
// chunk upload for the update.
func (r *Recorder) applyPartial(id string, t speech.Transcript) {
	r.mu.Lock()
	if r.state != stateRecording || r.sessionID != id || t.Text == r.transcript {
		r.mu.Unlock()
		return
	}
	r.transcript = t.Text
	chunk := lore.TranscriptChunk{SessionID: id, Text: t.Text, Timestamp: r.now()}
	r.notifyLocked()
	r.mu.Unlock()

	if chunk.Text == "" {
		return
	}
	r.inflight.Add(1)
	go func() {
		defer r.inflight.Done()
		ctx, cancel := context.WithTimeout(context.Background(), chunkTimeout)
		defer cancel()

		err := r.chunkBreaker.Do(func() error {
			opStart := time.Now()
			err := r.store.AppendChunk(ctx, chunk)
			if r.metrics != nil {
				r.metrics.RecordStoreOp(ctx, "append_chunk", opStart)
			}
			return err
		})
		if r.metrics != nil {
			r.metrics.RecordChunkUpload(ctx, err == nil)
		}
		switch {
		case errors.Is(err, resilience.ErrOpen):
			r.log.Debug("chunk upload shed, store unhealthy", "session_id", id)
		case err != nil:
			// Telemetry only; the session keeps going.
			r.log.Warn("chunk upload failed", "session_id", id, "error", err)
		}
	}()
}

// engineFailed tears the session down after a fatal recognition error and
// records the error status. The recorder must never stay in the recording
// state after the provider gives up.
func (r *Recorder) engineFailed(id string, cause error) {
	r.mu.Lock()
	if r.state != stateRecording || r.sessionID != id {
		// A concurrent Stop won the transition; it owns the teardown.
		r.mu.Unlock()
		return
	}
	r.state = stateStopping
	sess := r.sess
	finalText := r.transcript
	r.mu.Unlock()

	r.log.Error("recognition failed", "session_id", id, "error", cause)
	_ = r.capture.Stop()
	_ = sess.Close()

	ctx, cancel := context.WithTimeout(context.Background(), chunkTimeout)
	defer cancel()
	opStart := time.Now()
	err := r.store.FinishSession(ctx, id, lore.StatusError, r.now(), finalText)
	if r.metrics != nil {
		r.metrics.RecordStoreOp(ctx, "finish_session", opStart)
	}
	if err != nil {
		r.log.Warn("error-status write failed", "session_id", id, "error", err)
	}
	if r.metrics != nil {
		r.metrics.ActiveRecordings.Add(ctx, -1)
		r.metrics.RecordSessionFinished(ctx, string(lore.StatusError))
	}

	r.mu.Lock()
	r.state = stateIdle
	r.sessionID = ""
	r.sess = nil
	r.lastErr = cause
	r.notifyLocked()
	r.mu.Unlock()
}
