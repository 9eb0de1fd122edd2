package sqlstore

import (
	"context"
	"fmt"
	"strconv"

	"github.com/jmoiron/sqlx"
)

const schemaVersion = 1

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL CHECK (role IN ('member', 'admin')),
		created_at DATETIME NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS books (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT NOT NULL,
		author TEXT NOT NULL,
		available BOOLEAN NOT NULL DEFAULT 1
	);`,
	`CREATE TABLE IF NOT EXISTS borrow_records (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL REFERENCES users(id),
		book_id INTEGER NOT NULL REFERENCES books(id),
		borrow_date DATETIME NOT NULL,
		return_date DATETIME
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS borrow_records_one_active
		ON borrow_records(book_id) WHERE return_date IS NULL;`,
	`CREATE INDEX IF NOT EXISTS borrow_records_user ON borrow_records(user_id);`,
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
		username TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL CHECK (role IN ('member', 'admin')),
		created_at TIMESTAMPTZ NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS books (
		id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
		title TEXT NOT NULL,
		author TEXT NOT NULL,
		available BOOLEAN NOT NULL DEFAULT TRUE
	);`,
	`CREATE TABLE IF NOT EXISTS borrow_records (
		id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
		user_id BIGINT NOT NULL REFERENCES users(id),
		book_id BIGINT NOT NULL REFERENCES books(id),
		borrow_date TIMESTAMPTZ NOT NULL,
		return_date TIMESTAMPTZ
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS borrow_records_one_active
		ON borrow_records(book_id) WHERE return_date IS NULL;`,
	`CREATE INDEX IF NOT EXISTS borrow_records_user ON borrow_records(user_id);`,
}

// Migrate brings the schema up to schemaVersion. It is a no-op when the
// recorded version is current.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS meta (key TEXT PRIMARY KEY, value TEXT)`); err != nil {
		return fmt.Errorf("create meta table: %w", err)
	}

	current, err := s.SchemaVersion(ctx)
	if err != nil {
		return err
	}
	if current >= schemaVersion {
		return nil
	}

	stmts := sqliteSchema
	if s.dialect == dialectPostgres {
		stmts = postgresSchema
	}

	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		for _, stmt := range stmts {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("apply migration: %w", err)
			}
		}
		_, err := tx.ExecContext(ctx, tx.Rebind(
			`INSERT INTO meta(key, value) VALUES ('schema_version', ?)
			 ON CONFLICT(key) DO UPDATE SET value = excluded.value`),
			strconv.Itoa(schemaVersion))
		if err != nil {
			return fmt.Errorf("record schema version: %w", err)
		}
		return nil
	})
}

// SchemaVersion returns the applied version, 0 for a fresh database.
func (s *Store) SchemaVersion(ctx context.Context) (int, error) {
	var raw []string
	if err := s.db.SelectContext(ctx, &raw, `SELECT value FROM meta WHERE key = 'schema_version'`); err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	if len(raw) == 0 {
		return 0, nil
	}
	v, err := strconv.Atoi(raw[0])
	if err != nil {
		return 0, fmt.Errorf("parse schema version %q: %w", raw[0], err)
	}
	return v, nil
}
