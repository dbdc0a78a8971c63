// Package store persists users, dictionary entries and transcriptions in SQLite.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("already exists")
	ErrForbidden = errors.New("belongs to another user")
)

// Options configures Open.
type Options struct {
	Path     string
	DebugSQL bool
}

// Store is a handle to the database. It is safe for concurrent use.
type Store struct {
	db    *sql.DB
	debug bool
}

// Open opens (creating if needed) the SQLite database at opts.Path with
// foreign keys enforced, and verifies the connection.
func Open(ctx context.Context, opts Options) (*Store, error) {
	if opts.Path == "" {
		return nil, fmt.Errorf("database path is required")
	}

	dsn := "file:" + opts.Path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.Wrapf(err, "open database %s", opts.Path)
	}
	// Single writer. Never query s.db while holding a transaction or open rows.
	db.SetMaxOpenConns(1)

	s := &Store{db: db, debug: opts.DebugSQL}
	if err := s.Ping(ctx); err != nil {
		db.Close()
		return nil, err
	}

	log.Printf("✅ Connected to database %s", opts.Path)
	return s, nil
}

func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return errors.Wrap(err, "ping database")
	}
	var one int
	if err := s.db.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
		return errors.Wrap(err, "test query")
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// WithTx runs fn inside a transaction, committing when fn returns nil and
// rolling back otherwise.
func (s *Store) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin transaction")
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			log.Printf("❌ Rollback failed: %v", rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "commit transaction")
	}
	return nil
}

// logQuery prints the statement, its duration and affected rows when debug
// logging is enabled.
func (s *Store) logQuery(query string, start time.Time, rows int64) {
	if !s.debug {
		return
	}
	log.Printf("🗄️ Executed query {text: %q, duration: %s, rows: %d}", compactSQL(query), time.Since(start).Round(time.Microsecond), rows)
}

func compactSQL(query string) string {
	return strings.Join(strings.Fields(query), " ")
}

// isUniqueViolation reports whether err came from a UNIQUE constraint.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// timestamp scans the DATETIME columns, which the driver may hand back either
// as time.Time or as text depending on how the value was produced.
type timestamp struct {
	t *time.Time
}

var timestampLayouts = []string{
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02T15:04:05.999999999-07:00",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339Nano,
}

func (ts timestamp) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		*ts.t = v.UTC()
		return nil
	case string:
		return ts.parse(v)
	case []byte:
		return ts.parse(string(v))
	case int64:
		*ts.t = time.Unix(v, 0).UTC()
		return nil
	case nil:
		*ts.t = time.Time{}
		return nil
	}
	return fmt.Errorf("unsupported timestamp type %T", src)
}

func (ts timestamp) parse(v string) error {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			*ts.t = t.UTC()
			return nil
		}
	}
	return fmt.Errorf("unrecognised timestamp %q", v)
}

// nowSQL is the expression used to stamp updated_at.
const nowSQL = "strftime('%Y-%m-%d %H:%M:%f', 'now')"
