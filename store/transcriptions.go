package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/pkg/errors"

	"github.com/ashutosha-neuradynamics/AI-Voice-keyboard-app/model"
)

const transcriptionColumns = "id, user_id, text, COALESCE(session_id, ''), metadata, created_at"

func scanTranscription(row interface{ Scan(...any) error }) (*model.Transcription, error) {
	var t model.Transcription
	var metadata string
	if err := row.Scan(&t.ID, &t.UserID, &t.Text, &t.SessionID, &metadata, timestamp{&t.CreatedAt}); err != nil {
		return nil, err
	}
	if metadata != "" {
		if err := json.Unmarshal([]byte(metadata), &t.Metadata); err != nil {
			return nil, errors.Wrapf(err, "decode metadata of transcription %d", t.ID)
		}
	}
	return &t, nil
}

// CreateTranscription stores text for a user. An empty sessionID is stored as
// a null session in both the column and the metadata.
func (s *Store) CreateTranscription(ctx context.Context, userID int64, sessionID, text string) (*model.Transcription, error) {
	const q = `INSERT INTO transcriptions (user_id, text, session_id, metadata) VALUES (?, ?, ?, ?) RETURNING ` + transcriptionColumns

	var meta model.TranscriptionMetadata
	var session sql.NullString
	if sessionID != "" {
		meta.SessionID = &sessionID
		session = sql.NullString{String: sessionID, Valid: true}
	}
	metadata, err := json.Marshal(meta)
	if err != nil {
		return nil, errors.Wrap(err, "encode metadata")
	}

	start := time.Now()
	t, err := scanTranscription(s.db.QueryRowContext(ctx, q, userID, text, session, string(metadata)))
	if err != nil {
		return nil, errors.Wrap(err, "insert transcription")
	}
	s.logQuery(q, start, 1)
	return t, nil
}

// LatestSessionTranscription returns the newest transcription of a session,
// or ErrNotFound when the session has none.
func (s *Store) LatestSessionTranscription(ctx context.Context, userID int64, sessionID string) (*model.Transcription, error) {
	const q = `SELECT ` + transcriptionColumns + ` FROM transcriptions
		WHERE user_id = ? AND session_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT 1`

	start := time.Now()
	t, err := scanTranscription(s.db.QueryRowContext(ctx, q, userID, sessionID))
	if errors.Is(err, sql.ErrNoRows) {
		s.logQuery(q, start, 0)
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "select latest transcription")
	}
	s.logQuery(q, start, 1)
	return t, nil
}

// ListTranscriptions returns one page of a user's transcriptions, newest
// first, together with the user's total count.
func (s *Store) ListTranscriptions(ctx context.Context, userID int64, limit, offset int) ([]model.Transcription, int, error) {
	const q = `SELECT ` + transcriptionColumns + ` FROM transcriptions
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?`
	const countQ = `SELECT COUNT(*) FROM transcriptions WHERE user_id = ?`

	start := time.Now()
	items, err := s.queryTranscriptions(ctx, q, userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	s.logQuery(q, start, int64(len(items)))

	var total int
	if err := s.db.QueryRowContext(ctx, countQ, userID).Scan(&total); err != nil {
		return nil, 0, errors.Wrap(err, "count transcriptions")
	}
	return items, total, nil
}

// queryTranscriptions closes its rows before returning so the caller can
// issue the next query on the single connection.
func (s *Store) queryTranscriptions(ctx context.Context, q string, args ...any) ([]model.Transcription, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, errors.Wrap(err, "list transcriptions")
	}
	defer rows.Close()

	items := []model.Transcription{}
	for rows.Next() {
		t, err := scanTranscription(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan transcription")
		}
		items = append(items, *t)
	}
	return items, errors.Wrap(rows.Err(), "iterate transcriptions")
}
