// Package sqlstore implements the repositories on PostgreSQL or SQLite through
// sqlx, with goqu building the dialect-specific queries.
package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect registration
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"  // dialect registration
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"
)

const (
	dialectPostgres = "postgres"
	dialectSQLite   = "sqlite3"

	pgUniqueViolation = "23505"
)

// Store owns the connection pool shared by the repositories.
type Store struct {
	db      *sqlx.DB
	dialect string
	goqu    goqu.DialectWrapper
	pool    *pgxpool.Pool
}

// OpenSQLite opens (or creates) the database file at path. SQLite allows one
// writer, so the pool is pinned to a single connection and every transaction
// takes the write lock up front.
func OpenSQLite(ctx context.Context, path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_foreign_keys=1&_txlock=immediate", path)
	db, err := sqlx.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}

	return &Store{db: db, dialect: dialectSQLite, goqu: goqu.Dialect(dialectSQLite)}, nil
}

// OpenPostgres builds a pgx pool and exposes it to sqlx via the pgx stdlib
// adapter.
func OpenPostgres(ctx context.Context, dsn string, maxConns int32) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	db := sqlx.NewDb(stdlib.OpenDBFromPool(pool), "pgx")
	return &Store{db: db, dialect: dialectPostgres, goqu: goqu.Dialect(dialectPostgres), pool: pool}, nil
}

func (s *Store) Users() *UserRepository     { return &UserRepository{store: s} }
func (s *Store) Books() *BookRepository     { return &BookRepository{store: s} }
func (s *Store) Borrows() *BorrowRepository { return &BorrowRepository{store: s} }

// Name reports the backing engine.
func (s *Store) Name() string {
	if s.dialect == dialectPostgres {
		return "postgres"
	}
	return "sqlite"
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	err := s.db.Close()
	if s.pool != nil {
		s.pool.Close()
	}
	return err
}

// withTx runs fn in a transaction, committing only when fn succeeds. fn must
// use tx exclusively: the SQLite pool has a single connection.
func (s *Store) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			liteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}
