package store

import (
	"context"
	"database/sql"
	"embed"
	"io/fs"
	"log"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// Migrate applies every embedded migration not yet recorded in the
// migrations table, in file name order, each inside its own transaction.
// It returns the names of the migrations it applied.
func (s *Store) Migrate(ctx context.Context) ([]string, error) {
	if err := s.ensureMigrationsTable(ctx); err != nil {
		return nil, err
	}

	files, err := migrationFiles()
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		log.Println("No migration files found")
		return nil, nil
	}

	executed, err := s.ExecutedMigrations(ctx)
	if err != nil {
		return nil, err
	}
	done := make(map[string]bool, len(executed))
	for _, name := range executed {
		done[name] = true
	}

	var applied []string
	for _, name := range files {
		if done[name] {
			continue
		}
		if err := s.runMigration(ctx, name); err != nil {
			log.Printf("❌ Migration %s failed: %v", name, err)
			return applied, err
		}
		log.Printf("✅ Migration %s executed successfully", name)
		applied = append(applied, name)
	}

	if len(applied) == 0 {
		log.Println("All migrations are up to date")
	}
	return applied, nil
}

func (s *Store) ensureMigrationsTable(ctx context.Context) error {
	const ddl = `
		CREATE TABLE IF NOT EXISTS migrations (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			name        VARCHAR(255) NOT NULL UNIQUE,
			executed_at DATETIME NOT NULL DEFAULT (strftime('%Y-%m-%d %H:%M:%f', 'now'))
		)`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return errors.Wrap(err, "create migrations table")
	}
	return nil
}

// ExecutedMigrations lists the applied migration names in execution order.
func (s *Store) ExecutedMigrations(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT name FROM migrations ORDER BY id ASC")
	if err != nil {
		return nil, errors.Wrap(err, "list executed migrations")
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, errors.Wrap(err, "scan migration")
		}
		names = append(names, name)
	}
	return names, errors.Wrap(rows.Err(), "iterate migrations")
}

func (s *Store) runMigration(ctx context.Context, name string) error {
	body, err := migrationFS.ReadFile("migrations/" + name)
	if err != nil {
		return errors.Wrapf(err, "read migration %s", name)
	}

	return s.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, string(body)); err != nil {
			return errors.Wrapf(err, "execute migration %s", name)
		}
		if _, err := tx.ExecContext(ctx, "INSERT INTO migrations (name) VALUES (?) ON CONFLICT (name) DO NOTHING", name); err != nil {
			return errors.Wrapf(err, "record migration %s", name)
		}
		return nil
	})
}

func migrationFiles() ([]string, error) {
	entries, err := fs.ReadDir(migrationFS, "migrations")
	if err != nil {
		return nil, errors.Wrap(err, "list migrations")
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// TableExists reports whether a table with the given name exists.
func (s *Store) TableExists(ctx context.Context, name string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?", name).Scan(&n)
	if err != nil {
		return false, errors.Wrapf(err, "check table %s", name)
	}
	return n > 0, nil
}

// Column describes one table column.
type Column struct {
	Name     string
	Type     string
	Nullable bool
	Default  sql.NullString
}

// TableInfo returns the columns of a table in declaration order.
func (s *Store) TableInfo(ctx context.Context, name string) ([]Column, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT name, type, \"notnull\", dflt_value FROM pragma_table_info(?) ORDER BY cid", name)
	if err != nil {
		return nil, errors.Wrapf(err, "table info %s", name)
	}
	defer rows.Close()

	var cols []Column
	for rows.Next() {
		var c Column
		var notNull int
		if err := rows.Scan(&c.Name, &c.Type, &notNull, &c.Default); err != nil {
			return nil, errors.Wrap(err, "scan column")
		}
		c.Nullable = notNull == 0
		cols = append(cols, c)
	}
	return cols, errors.Wrap(rows.Err(), "iterate columns")
}
