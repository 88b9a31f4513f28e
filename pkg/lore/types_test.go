package lore_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/lorescribe/lorescribe/pkg/lore"
)

func TestParseEntityType(t *testing.T) {
	t.Parallel()

	t.Run("round-trips every known type", func(t *testing.T) {
		t.Parallel()
		for _, et := range []lore.EntityType{
			lore.EntityCharacter,
			lore.EntityLocation,
			lore.EntityItem,
			lore.EntityDescription,
			lore.EntityUnknown,
		} {
			got, ok := lore.ParseEntityType(string(et))
			if !ok {
				t.Errorf("ParseEntityType(%q): ok = false, want true", et)
			}
			if got != et {
				t.Errorf("ParseEntityType(%q) = %q, want %q", et, got, et)
			}
		}
	})

	t.Run("unknown string degrades to EntityUnknown", func(t *testing.T) {
		t.Parallel()
		got, ok := lore.ParseEntityType("Deity")
		if ok {
			t.Error("ParseEntityType(\"Deity\"): ok = true, want false")
		}
		if got != lore.EntityUnknown {
			t.Errorf("ParseEntityType(\"Deity\") = %q, want %q", got, lore.EntityUnknown)
		}
	})

	t.Run("wire form is case-sensitive", func(t *testing.T) {
		t.Parallel()
		if _, ok := lore.ParseEntityType("character"); ok {
			t.Error("ParseEntityType(\"character\"): ok = true, want false")
		}
	})
}

func TestParseRelationshipType(t *testing.T) {
	t.Parallel()

	t.Run("round-trips every known type", func(t *testing.T) {
		t.Parallel()
		for _, rt := range []lore.RelationshipType{
			lore.RelLivesIn,
			lore.RelOwns,
			lore.RelIsLocatedIn,
			lore.RelIsPartOf,
			lore.RelKnows,
			lore.RelCustom,
		} {
			got, ok := lore.ParseRelationshipType(string(rt))
			if !ok {
				t.Errorf("ParseRelationshipType(%q): ok = false, want true", rt)
			}
			if got != rt {
				t.Errorf("ParseRelationshipType(%q) = %q, want %q", rt, got, rt)
			}
		}
	})

	t.Run("unknown string degrades to RelCustom", func(t *testing.T) {
		t.Parallel()
		got, ok := lore.ParseRelationshipType("Worships")
		if ok {
			t.Error("ParseRelationshipType(\"Worships\"): ok = true, want false")
		}
		if got != lore.RelCustom {
			t.Errorf("ParseRelationshipType(\"Worships\") = %q, want %q", got, lore.RelCustom)
		}
	})

	t.Run("wire strings contain spaces, not underscores", func(t *testing.T) {
		t.Parallel()
		if _, ok := lore.ParseRelationshipType("lives_in"); ok {
			t.Error("ParseRelationshipType(\"lives_in\"): ok = true, want false")
		}
	})
}

func TestSessionStatusIsValid(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct {
		status lore.SessionStatus
		want   bool
	}{
		{lore.StatusRecording, true},
		{lore.StatusCompleted, true},
		{lore.StatusError, true},
		{lore.SessionStatus("paused"), false},
		{lore.SessionStatus(""), false},
	} {
		if got := tc.status.IsValid(); got != tc.want {
			t.Errorf("SessionStatus(%q).IsValid() = %v, want %v", tc.status, got, tc.want)
		}
	}
}

func TestValidationError(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("wiki: create: %w", &lore.ValidationError{Field: "name", Reason: "must not be empty"})
	if !lore.IsValidation(err) {
		t.Error("IsValidation: expected true for wrapped ValidationError")
	}
	if lore.IsValidation(errors.New("boom")) {
		t.Error("IsValidation: expected false for unrelated error")
	}
}

func TestRemoteError(t *testing.T) {
	t.Parallel()

	cause := errors.New("connection refused")
	err := &lore.RemoteError{Op: "insert entity", Err: cause}
	if !errors.Is(err, cause) {
		t.Error("RemoteError: expected Unwrap to expose the cause")
	}
	if !lore.IsRemote(fmt.Errorf("outer: %w", err)) {
		t.Error("IsRemote: expected true for wrapped RemoteError")
	}
}
