package main

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/lorescribe/lorescribe/internal/observe"
	"github.com/lorescribe/lorescribe/internal/recorder"
	"github.com/lorescribe/lorescribe/internal/review"
	"github.com/lorescribe/lorescribe/internal/wiki"
	"github.com/lorescribe/lorescribe/pkg/lore"
)

// server holds the handler dependencies for the control API.
type server struct {
	recorder *recorder.Recorder
	wiki     *wiki.Store
	review   *review.Workflow
	metrics  *observe.Metrics
	log      *slog.Logger
}

// routes registers all /v1 control endpoints on mux.
func (s *server) routes(mux *http.ServeMux) {
	mux.HandleFunc("POST /v1/recording/start", s.startRecording)
	mux.HandleFunc("POST /v1/recording/stop", s.stopRecording)
	mux.HandleFunc("GET /v1/recording", s.recordingStatus)

	mux.HandleFunc("GET /v1/entities", s.listEntities)
	mux.HandleFunc("POST /v1/entities", s.createEntity)
	mux.HandleFunc("GET /v1/entities/suggest", s.suggestEntities)
	mux.HandleFunc("GET /v1/entities/{id}", s.getEntity)
	mux.HandleFunc("PUT /v1/entities/{id}", s.updateEntity)
	mux.HandleFunc("DELETE /v1/entities/{id}", s.deleteEntity)
	mux.HandleFunc("POST /v1/entities/{id}/relationships", s.addRelationship)

	mux.HandleFunc("GET /v1/review/candidates", s.listCandidates)
	mux.HandleFunc("POST /v1/review/candidates/{id}/confirm", s.confirmCandidate)
	mux.HandleFunc("POST /v1/review/candidates/{id}/dismiss", s.dismissCandidate)
}

// ── Wire types ────────────────────────────────────────────────────────────────

type recordingJSON struct {
	Recording  bool   `json:"recording"`
	SessionID  string `json:"session_id,omitempty"`
	Transcript string `json:"transcript"`
	Error      string `json:"error,omitempty"`
}

type relationshipJSON struct {
	ID          string    `json:"id"`
	SourceID    string    `json:"source_id"`
	TargetID    string    `json:"target_id"`
	Type        string    `json:"type"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type entityJSON struct {
	ID            string             `json:"id"`
	Name          string             `json:"name"`
	Type          string             `json:"type"`
	Description   string             `json:"description,omitempty"`
	Confidence    float64            `json:"confidence"`
	Confirmed     bool               `json:"confirmed"`
	SessionID     string             `json:"session_id,omitempty"`
	CreatedAt     time.Time          `json:"created_at"`
	Relationships []relationshipJSON `json:"relationships,omitempty"`
}

type candidateJSON struct {
	ID         string  `json:"id"`
	Text       string  `json:"text"`
	Type       string  `json:"type"`
	Confidence float64 `json:"confidence"`
	Confirmed  bool    `json:"confirmed"`
	Start      int     `json:"start"`
	End        int     `json:"end"`
}

type suggestionJSON struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

func toEntityJSON(e lore.Entity) entityJSON {
	out := entityJSON{
		ID:          e.ID,
		Name:        e.Name,
		Type:        string(e.Type),
		Description: e.Description,
		Confidence:  e.Confidence,
		Confirmed:   e.Confirmed,
		SessionID:   e.SessionID,
		CreatedAt:   e.CreatedAt,
	}
	for _, r := range e.Relationships {
		out.Relationships = append(out.Relationships, relationshipJSON{
			ID:          r.ID,
			SourceID:    r.SourceID,
			TargetID:    r.TargetID,
			Type:        string(r.Type),
			Description: r.Description,
			CreatedAt:   r.CreatedAt,
		})
	}
	return out
}

func toCandidateJSON(c lore.Candidate) candidateJSON {
	return candidateJSON{
		ID:         c.ID,
		Text:       c.Text,
		Type:       string(c.Type),
		Confidence: c.Confidence,
		Confirmed:  c.Confirmed,
		Start:      c.Start,
		End:        c.End,
	}
}

// ── Recording ─────────────────────────────────────────────────────────────────

func (s *server) startRecording(w http.ResponseWriter, r *http.Request) {
	if err := s.recorder.Start(r.Context()); err != nil {
		s.writeError(w, err)
		return
	}
	s.recordingStatus(w, r)
}

func (s *server) stopRecording(w http.ResponseWriter, r *http.Request) {
	if err := s.recorder.Stop(r.Context()); err != nil {
		s.writeError(w, err)
		return
	}
	s.recordingStatus(w, r)
}

func (s *server) recordingStatus(w http.ResponseWriter, _ *http.Request) {
	snap := s.recorder.Snapshot()
	out := recordingJSON{
		Recording:  snap.Recording,
		SessionID:  snap.SessionID,
		Transcript: snap.Transcript,
	}
	if snap.Err != nil {
		out.Error = snap.Err.Error()
	}
	s.writeJSON(w, http.StatusOK, out)
}

// ── Entities ──────────────────────────────────────────────────────────────────

func (s *server) listEntities(w http.ResponseWriter, r *http.Request) {
	entities, err := s.wiki.List(r.Context(), r.URL.Query().Get("filter"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	out := make([]entityJSON, 0, len(entities))
	for _, e := range entities {
		out = append(out, toEntityJSON(e))
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *server) getEntity(w http.ResponseWriter, r *http.Request) {
	e, err := s.wiki.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toEntityJSON(e))
}

type entityRequest struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description"`
	Confirmed   *bool  `json:"confirmed,omitempty"`
}

func (s *server) createEntity(w http.ResponseWriter, r *http.Request) {
	var req entityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	typ, ok := lore.ParseEntityType(req.Type)
	if req.Type != "" && !ok {
		http.Error(w, "unknown entity type", http.StatusBadRequest)
		return
	}
	e, err := s.wiki.Create(r.Context(), lore.Entity{
		Name:        req.Name,
		Type:        typ,
		Description: req.Description,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, toEntityJSON(e))
}

func (s *server) updateEntity(w http.ResponseWriter, r *http.Request) {
	var req entityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	typ, ok := lore.ParseEntityType(req.Type)
	if req.Type != "" && !ok {
		http.Error(w, "unknown entity type", http.StatusBadRequest)
		return
	}
	confirmed := true
	if req.Confirmed != nil {
		confirmed = *req.Confirmed
	}
	err := s.wiki.Update(r.Context(), lore.Entity{
		ID:          r.PathValue("id"),
		Name:        req.Name,
		Type:        typ,
		Description: req.Description,
		Confirmed:   confirmed,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	e, err := s.wiki.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toEntityJSON(e))
}

func (s *server) deleteEntity(w http.ResponseWriter, r *http.Request) {
	if err := s.wiki.Delete(r.Context(), r.PathValue("id")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type relationshipRequest struct {
	TargetID    string `json:"target_id"`
	Type        string `json:"type"`
	Description string `json:"description"`
}

func (s *server) addRelationship(w http.ResponseWriter, r *http.Request) {
	var req relationshipRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	typ, ok := lore.ParseRelationshipType(req.Type)
	if req.Type != "" && !ok {
		http.Error(w, "unknown relationship type", http.StatusBadRequest)
		return
	}
	err := s.wiki.AddRelationship(r.Context(), r.PathValue("id"), lore.Relationship{
		TargetID:    req.TargetID,
		Type:        typ,
		Description: req.Description,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (s *server) suggestEntities(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		http.Error(w, "missing name parameter", http.StatusBadRequest)
		return
	}
	out := make([]suggestionJSON, 0)
	for _, sg := range s.wiki.SuggestSimilar(name) {
		out = append(out, suggestionJSON{Name: sg.Name, Score: sg.Score})
	}
	s.writeJSON(w, http.StatusOK, out)
}

// ── Review ────────────────────────────────────────────────────────────────────

func (s *server) listCandidates(w http.ResponseWriter, r *http.Request) {
	candidates := s.review.Candidates()
	if r.URL.Query().Get("low_confidence") == "true" {
		candidates = s.review.LowConfidence()
	}
	out := make([]candidateJSON, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, toCandidateJSON(c))
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *server) confirmCandidate(w http.ResponseWriter, r *http.Request) {
	e, err := s.review.Confirm(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	// A zero entity means an idempotent re-confirm; nothing was promoted.
	if s.metrics != nil && e.ID != "" {
		s.metrics.RecordConfirmation(r.Context())
	}
	s.writeJSON(w, http.StatusOK, toEntityJSON(e))
}

func (s *server) dismissCandidate(w http.ResponseWriter, r *http.Request) {
	s.review.Dismiss(r.PathValue("id"))
	w.WriteHeader(http.StatusNoContent)
}

// ── Response helpers ──────────────────────────────────────────────────────────

func (s *server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Warn("response encode failed", "err", err)
	}
}

// writeError maps domain errors onto HTTP status codes.
func (s *server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case lore.IsValidation(err):
		status = http.StatusBadRequest
	case errors.Is(err, lore.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, lore.ErrUnauthenticated), errors.Is(err, lore.ErrUnauthorized):
		status = http.StatusUnauthorized
	case errors.Is(err, lore.ErrPermissionDenied):
		status = http.StatusForbidden
	case errors.Is(err, lore.ErrCapabilityUnavailable):
		status = http.StatusServiceUnavailable
	case errors.Is(err, lore.ErrNoActiveSession):
		status = http.StatusConflict
	}
	if status == http.StatusInternalServerError {
		s.log.Error("request failed", "err", err)
	}
	http.Error(w, err.Error(), status)
}
