package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"

	"github.com/ashutosha-neuradynamics/AI-Voice-keyboard-app/model"
)

const userColumns = "id, email, name, password_hash, created_at, updated_at"

func scanUser(row interface{ Scan(...any) error }) (*model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, timestamp{&u.CreatedAt}, timestamp{&u.UpdatedAt})
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateUser inserts a user. A second user with the same email yields
// ErrDuplicate.
func (s *Store) CreateUser(ctx context.Context, email, passwordHash, name string) (*model.User, error) {
	const q = `INSERT INTO users (email, password_hash, name) VALUES (?, ?, ?) RETURNING ` + userColumns

	start := time.Now()
	u, err := scanUser(s.db.QueryRowContext(ctx, q, email, passwordHash, name))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, errors.Wrap(err, "insert user")
	}
	s.logQuery(q, start, 1)
	return u, nil
}

func (s *Store) UserByEmail(ctx context.Context, email string) (*model.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE email = ?`
	return s.getUser(ctx, q, email)
}

func (s *Store) UserByID(ctx context.Context, id int64) (*model.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE id = ?`
	return s.getUser(ctx, q, id)
}

func (s *Store) getUser(ctx context.Context, q string, arg any) (*model.User, error) {
	start := time.Now()
	u, err := scanUser(s.db.QueryRowContext(ctx, q, arg))
	if errors.Is(err, sql.ErrNoRows) {
		s.logQuery(q, start, 0)
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "select user")
	}
	s.logQuery(q, start, 1)
	return u, nil
}

// UpdateUserName renames a user and bumps updated_at.
func (s *Store) UpdateUserName(ctx context.Context, id int64, name string) (*model.User, error) {
	q := `UPDATE users SET name = ?, updated_at = ` + nowSQL + ` WHERE id = ? RETURNING ` + userColumns

	start := time.Now()
	u, err := scanUser(s.db.QueryRowContext(ctx, q, name, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "update user")
	}
	s.logQuery(q, start, 1)
	return u, nil
}
