package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/lorescribe/lorescribe/pkg/lore"
)

// CreateSession implements [store.SessionStore].
func (s *Store) CreateSession(ctx context.Context, sess lore.Session) error {
	const q = `
		INSERT INTO transcription_sessions (id, start_time, end_time, status, final_text)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := s.pool.Exec(ctx, q,
		sess.ID,
		sess.StartTime,
		sess.EndTime,
		string(sess.Status),
		sess.FinalText,
	)
	if err != nil {
		return &lore.RemoteError{Op: "create session", Err: err}
	}
	return nil
}

// FinishSession implements [store.SessionStore]. It writes status, end_time,
// and final_text in a single update.
func (s *Store) FinishSession(ctx context.Context, id string, status lore.SessionStatus, endTime time.Time, finalText string) error {
	const q = `
		UPDATE transcription_sessions
		SET    status = $2, end_time = $3, final_text = $4
		WHERE  id = $1`

	tag, err := s.pool.Exec(ctx, q, id, string(status), endTime, finalText)
	if err != nil {
		return &lore.RemoteError{Op: "finish session", Err: err}
	}
	if tag.RowsAffected() == 0 {
		return lore.ErrNotFound
	}
	return nil
}

// GetSession implements [store.SessionStore].
func (s *Store) GetSession(ctx context.Context, id string) (lore.Session, error) {
	const q = `
		SELECT id, start_time, end_time, status, final_text
		FROM   transcription_sessions
		WHERE  id = $1`

	var (
		sess    lore.Session
		status  string
		endTime *time.Time
	)
	err := s.pool.QueryRow(ctx, q, id).Scan(&sess.ID, &sess.StartTime, &endTime, &status, &sess.FinalText)
	if errors.Is(err, pgx.ErrNoRows) {
		return lore.Session{}, lore.ErrNotFound
	}
	if err != nil {
		return lore.Session{}, &lore.RemoteError{Op: "get session", Err: err}
	}
	sess.EndTime = endTime
	sess.Status = lore.SessionStatus(status)
	return sess, nil
}

// AppendChunk implements [store.SessionStore].
func (s *Store) AppendChunk(ctx context.Context, c lore.TranscriptChunk) error {
	const q = `
		INSERT INTO transcription_chunks (session_id, text, timestamp)
		VALUES ($1, $2, $3)`

	if _, err := s.pool.Exec(ctx, q, c.SessionID, c.Text, c.Timestamp); err != nil {
		return &lore.RemoteError{Op: "append chunk", Err: err}
	}
	return nil
}

// ListChunks implements [store.SessionStore].
func (s *Store) ListChunks(ctx context.Context, sessionID string) ([]lore.TranscriptChunk, error) {
	const q = `
		SELECT session_id, text, timestamp
		FROM   transcription_chunks
		WHERE  session_id = $1
		ORDER  BY timestamp`

	rows, err := s.pool.Query(ctx, q, sessionID)
	if err != nil {
		return nil, &lore.RemoteError{Op: "list chunks", Err: err}
	}
	defer rows.Close()

	chunks := []lore.TranscriptChunk{}
	for rows.Next() {
		var c lore.TranscriptChunk
		if err := rows.Scan(&c.SessionID, &c.Text, &c.Timestamp); err != nil {
			return nil, &lore.RemoteError{Op: "scan chunk", Err: err}
		}
		chunks = append(chunks, c)
	}
	if err := rows.Err(); err != nil {
		return nil, &lore.RemoteError{Op: "list chunks", Err: err}
	}
	return chunks, nil
}
