// Package auth defines the authentication contract consumed by subsystems
// that write to the remote store.
//
// The core only ever needs one question answered — "is there a valid remote
// session right now?" — so the contract is a single boolean check.
// Credential management, token refresh, and offline caching are the
// backend's concern and are out of scope here.
package auth

import "context"

// Authenticator reports whether a valid remote session exists. Writes must
// not be attempted when SessionValid returns false.
//
// Implementations must be safe for concurrent use.
type Authenticator interface {
	SessionValid(ctx context.Context) bool
}

// Static is an [Authenticator] with a fixed answer. Useful for wiring local
// development setups (Static(true)) and for tests.
type Static bool

// SessionValid implements [Authenticator].
func (s Static) SessionValid(context.Context) bool { return bool(s) }

// Func adapts a function to the [Authenticator] interface.
type Func func(ctx context.Context) bool

// SessionValid implements [Authenticator].
func (f Func) SessionValid(ctx context.Context) bool { return f(ctx) }
