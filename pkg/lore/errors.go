package lore

import (
	"errors"
	"fmt"
)

// Sentinel errors shared across subsystems. Match with [errors.Is].
var (
	// ErrUnauthenticated indicates no valid remote session exists.
	// Returned before any write is attempted.
	ErrUnauthenticated = errors.New("not authenticated")

	// ErrUnauthorized indicates a store operation was attempted without a
	// valid authenticated session.
	ErrUnauthorized = errors.New("not authorized")

	// ErrPermissionDenied indicates the speech/audio capability has not been
	// granted by the user.
	ErrPermissionDenied = errors.New("speech permission denied")

	// ErrCapabilityUnavailable indicates no microphone or recognizer is
	// present on this host.
	ErrCapabilityUnavailable = errors.New("audio capability unavailable")

	// ErrNotFound indicates a mutate or delete targeted a missing id.
	ErrNotFound = errors.New("not found")

	// ErrNoActiveSession indicates a candidate confirmation was attempted
	// without an open recording session.
	ErrNoActiveSession = errors.New("no active recording session")
)

// ValidationError reports a synchronously-checked invalid field. Operations
// returning a ValidationError have performed no side effects.
type ValidationError struct {
	// Field names the offending field (e.g. "name").
	Field string

	// Reason describes the violation.
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s %s", e.Field, e.Reason)
}

// IsValidation reports whether err is (or wraps) a [ValidationError].
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// RemoteError wraps a failure from the remote persistence service so that
// callers can distinguish infrastructure faults from domain errors.
type RemoteError struct {
	// Op is the failed operation (e.g. "insert entity").
	Op string

	// Err is the underlying failure.
	Err error
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("remote store: %s: %v", e.Op, e.Err)
}

func (e *RemoteError) Unwrap() error { return e.Err }

// IsRemote reports whether err is (or wraps) a [RemoteError].
func IsRemote(err error) bool {
	var re *RemoteError
	return errors.As(err, &re)
}
