// Package lore defines the domain model shared by all Lorescribe subsystems:
// recording sessions, transcript chunks, extracted candidates, confirmed
// entities, and the typed relationships between them.
//
// The package is deliberately dependency-free. It is the contract layer that
// internal subsystems and storage backends agree on; wire-level string forms
// for every enum live here and nowhere else.
package lore

import "time"

// SessionStatus is the lifecycle state of a recording session as persisted
// in the remote store.
type SessionStatus string

const (
	// StatusRecording marks a session that is currently capturing audio.
	StatusRecording SessionStatus = "recording"

	// StatusCompleted marks a session that ended normally. Completed
	// sessions are immutable.
	StatusCompleted SessionStatus = "completed"

	// StatusError marks a session that ended due to a fatal capture or
	// recognition failure.
	StatusError SessionStatus = "error"
)

// IsValid reports whether s is a recognised session status.
func (s SessionStatus) IsValid() bool {
	switch s {
	case StatusRecording, StatusCompleted, StatusError:
		return true
	}
	return false
}

// Session is one bounded recording-to-transcript lifecycle instance.
// A Session is created when recording starts, mutated exactly once on stop,
// and immutable once its status is [StatusCompleted].
type Session struct {
	// ID is an opaque unique token (UUID string).
	ID string

	// StartTime is when recording began.
	StartTime time.Time

	// EndTime is when the session was closed. Nil while recording.
	EndTime *time.Time

	// Status is the lifecycle state.
	Status SessionStatus

	// FinalText is the authoritative transcript, set at stop time.
	FinalText string
}

// TranscriptChunk is an incremental best-effort snapshot of the in-progress
// transcript. Chunks are append-only telemetry: they may arrive out of order
// or be dropped entirely, and are never the source of truth — the session's
// FinalText written at stop time is.
type TranscriptChunk struct {
	// SessionID is the owning session.
	SessionID string

	// Text is the cumulative transcript at the time of the snapshot.
	Text string

	// Timestamp is when the snapshot was taken on the client.
	Timestamp time.Time
}

// EntityType classifies a lore entity.
//
// The constant values are the wire-string form used by the persistence layer
// and were inherited from the original campaign data; do not rename them.
type EntityType string

const (
	EntityCharacter   EntityType = "Character"
	EntityLocation    EntityType = "Location"
	EntityItem        EntityType = "Item"
	EntityDescription EntityType = "Description"
	EntityUnknown     EntityType = "Unknown"
)

// entityTypes is the single source of truth for EntityType serialization.
var entityTypes = map[string]EntityType{
	string(EntityCharacter):   EntityCharacter,
	string(EntityLocation):    EntityLocation,
	string(EntityItem):        EntityItem,
	string(EntityDescription): EntityDescription,
	string(EntityUnknown):     EntityUnknown,
}

// ParseEntityType maps a wire string to its EntityType.
// Unrecognised strings map to [EntityUnknown] with ok=false, so that rows
// written by newer schema revisions degrade gracefully instead of failing.
func ParseEntityType(s string) (t EntityType, ok bool) {
	if t, ok = entityTypes[s]; ok {
		return t, true
	}
	return EntityUnknown, false
}

// IsValid reports whether t is a recognised entity type.
func (t EntityType) IsValid() bool {
	_, ok := entityTypes[string(t)]
	return ok
}

// Entity is a confirmed, persisted lore record. Name, Type, Description and
// Confirmed are mutable; ID never changes once assigned.
type Entity struct {
	// ID is the unique identifier (UUID string).
	ID string

	// Name is the display name. Must be non-empty.
	Name string

	// Type classifies the entity.
	Type EntityType

	// Description is optional free text shown on the entity's wiki page.
	Description string

	// Confidence is the extraction heuristic's score (0.0–1.0) at the time
	// the entity was confirmed. Purely informational afterwards.
	Confidence float64

	// Confirmed reports whether a human accepted this entity.
	Confirmed bool

	// SessionID is the recording session the entity was extracted from.
	SessionID string

	// CreatedAt is when the entity was first persisted.
	CreatedAt time.Time

	// Relationships is the ordered collection of outgoing edges owned by
	// this entity. Edges are directional and never auto-mirrored.
	Relationships []Relationship
}

// RelationshipType is the semantic label of a directed edge between two
// entities. Constant values are the wire-string form; do not rename.
type RelationshipType string

const (
	RelLivesIn     RelationshipType = "Lives In"
	RelOwns        RelationshipType = "Owns"
	RelIsLocatedIn RelationshipType = "Is Located In"
	RelIsPartOf    RelationshipType = "Is Part Of"
	RelKnows       RelationshipType = "Knows"
	RelCustom      RelationshipType = "Custom"
)

// relationshipTypes is the single source of truth for RelationshipType
// serialization.
var relationshipTypes = map[string]RelationshipType{
	string(RelLivesIn):     RelLivesIn,
	string(RelOwns):        RelOwns,
	string(RelIsLocatedIn): RelIsLocatedIn,
	string(RelIsPartOf):    RelIsPartOf,
	string(RelKnows):       RelKnows,
	string(RelCustom):      RelCustom,
}

// ParseRelationshipType maps a wire string to its RelationshipType.
// Unrecognised strings map to [RelCustom] with ok=false.
func ParseRelationshipType(s string) (t RelationshipType, ok bool) {
	if t, ok = relationshipTypes[s]; ok {
		return t, true
	}
	return RelCustom, false
}

// IsValid reports whether t is a recognised relationship type.
func (t RelationshipType) IsValid() bool {
	_, ok := relationshipTypes[string(t)]
	return ok
}

// Relationship is a directed, typed edge between two persisted entities.
//
// The model tolerates soft references: deleting an entity does not remove
// edges that point at it from elsewhere, so a TargetID may no longer resolve.
// Self-edges (SourceID == TargetID) are permitted at this layer.
type Relationship struct {
	// ID is the unique identifier (UUID string).
	ID string

	// SourceID is the owning entity the edge originates from.
	SourceID string

	// TargetID is the entity the edge points at.
	TargetID string

	// Type is the semantic label of the edge.
	Type RelationshipType

	// Description is optional free text qualifying the edge.
	Description string

	// CreatedAt is when the edge was persisted.
	CreatedAt time.Time
}

// Candidate is a transient entity guess produced by extraction. It exists
// only during the extraction/review pass and is discarded once converted
// into a persisted [Entity] (or dismissed).
type Candidate struct {
	// ID identifies the candidate during review. Not persisted.
	ID string

	// Text is the span of transcript text the candidate covers.
	Text string

	// Type is the mapped entity type.
	Type EntityType

	// Confidence is the heuristic score (0.0–1.0).
	Confidence float64

	// Confirmed reports whether the candidate has been promoted.
	Confirmed bool

	// Start and End are byte offsets of Text within the source transcript.
	Start int
	End   int
}
