package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"

	"github.com/ashutosha-neuradynamics/AI-Voice-keyboard-app/model"
	"github.com/ashutosha-neuradynamics/AI-Voice-keyboard-app/stt"
)

const dictionaryColumns = "id, user_id, keyword, spelling, created_at, updated_at"

func scanDictionaryEntry(row interface{ Scan(...any) error }) (*model.DictionaryEntry, error) {
	var e model.DictionaryEntry
	err := row.Scan(&e.ID, &e.UserID, &e.Keyword, &e.Spelling, timestamp{&e.CreatedAt}, timestamp{&e.UpdatedAt})
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// ListDictionary returns a user's entries ordered by keyword.
func (s *Store) ListDictionary(ctx context.Context, userID int64) ([]model.DictionaryEntry, error) {
	const q = `SELECT ` + dictionaryColumns + ` FROM dictionary WHERE user_id = ? ORDER BY keyword ASC`

	start := time.Now()
	rows, err := s.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, errors.Wrap(err, "list dictionary")
	}
	defer rows.Close()

	entries := []model.DictionaryEntry{}
	for rows.Next() {
		e, err := scanDictionaryEntry(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan dictionary entry")
		}
		entries = append(entries, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate dictionary")
	}
	s.logQuery(q, start, int64(len(entries)))
	return entries, nil
}

// DictionaryHints returns a user's entries as transcription hints.
func (s *Store) DictionaryHints(ctx context.Context, userID int64) ([]stt.DictionaryHint, error) {
	entries, err := s.ListDictionary(ctx, userID)
	if err != nil {
		return nil, err
	}
	hints := make([]stt.DictionaryHint, 0, len(entries))
	for _, e := range entries {
		hints = append(hints, stt.DictionaryHint{Keyword: e.Keyword, Spelling: e.Spelling})
	}
	return hints, nil
}

// CreateDictionaryEntry adds an entry. A keyword the user already has yields
// ErrDuplicate.
func (s *Store) CreateDictionaryEntry(ctx context.Context, userID int64, keyword, spelling string) (*model.DictionaryEntry, error) {
	const q = `INSERT INTO dictionary (user_id, keyword, spelling) VALUES (?, ?, ?) RETURNING ` + dictionaryColumns

	start := time.Now()
	e, err := scanDictionaryEntry(s.db.QueryRowContext(ctx, q, userID, keyword, spelling))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, errors.Wrap(err, "insert dictionary entry")
	}
	s.logQuery(q, start, 1)
	return e, nil
}

// checkOwner returns ErrNotFound when the entry does not exist and
// ErrForbidden when it belongs to someone else.
func checkOwner(ctx context.Context, tx *sql.Tx, userID, id int64) error {
	var owner int64
	err := tx.QueryRowContext(ctx, "SELECT user_id FROM dictionary WHERE id = ?", id).Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return errors.Wrap(err, "select dictionary owner")
	}
	if owner != userID {
		return ErrForbidden
	}
	return nil
}

// UpdateDictionaryEntry replaces the keyword and spelling of one of the
// user's entries.
func (s *Store) UpdateDictionaryEntry(ctx context.Context, userID, id int64, keyword, spelling string) (*model.DictionaryEntry, error) {
	q := `UPDATE dictionary SET keyword = ?, spelling = ?, updated_at = ` + nowSQL +
		` WHERE id = ? AND user_id = ? RETURNING ` + dictionaryColumns

	var entry *model.DictionaryEntry
	start := time.Now()
	err := s.WithTx(ctx, func(tx *sql.Tx) error {
		if err := checkOwner(ctx, tx, userID, id); err != nil {
			return err
		}
		e, err := scanDictionaryEntry(tx.QueryRowContext(ctx, q, keyword, spelling, id, userID))
		if err != nil {
			if isUniqueViolation(err) {
				return ErrDuplicate
			}
			return errors.Wrap(err, "update dictionary entry")
		}
		entry = e
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logQuery(q, start, 1)
	return entry, nil
}

// DeleteDictionaryEntry removes one of the user's entries.
func (s *Store) DeleteDictionaryEntry(ctx context.Context, userID, id int64) error {
	const q = `DELETE FROM dictionary WHERE id = ? AND user_id = ?`

	start := time.Now()
	var affected int64
	err := s.WithTx(ctx, func(tx *sql.Tx) error {
		if err := checkOwner(ctx, tx, userID, id); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, q, id, userID)
		if err != nil {
			return errors.Wrap(err, "delete dictionary entry")
		}
		affected, _ = res.RowsAffected()
		return nil
	})
	if err != nil {
		return err
	}
	s.logQuery(q, start, affected)
	return nil
}
