// Package storage selects and opens the configured persistence backend.
package storage

import (
	"context"
	"fmt"

	"github.com/99minutos/library-system/internal/core/ports"
	"github.com/99minutos/library-system/internal/infrastructure/config"
	"github.com/99minutos/library-system/internal/infrastructure/db/mongo"
	"github.com/99minutos/library-system/internal/infrastructure/db/sqlstore"
)

// Store is the process-wide persistence handle.
type Store struct {
	Users   ports.UserRepository
	Books   ports.BookRepository
	Borrows ports.BorrowRepository

	backend backend
}

type backend interface {
	Name() string
	Ping(ctx context.Context) error
	Close() error
}

// Open connects to the backend named by cfg.Store.Driver. Schema is not
// touched; call Migrate for that.
func Open(ctx context.Context, cfg *config.Config) (*Store, error) {
	switch cfg.Store.Driver {
	case config.DriverSQLite:
		s, err := sqlstore.OpenSQLite(ctx, cfg.Store.SQLitePath)
		if err != nil {
			return nil, err
		}
		return &Store{Users: s.Users(), Books: s.Books(), Borrows: s.Borrows(), backend: s}, nil

	case config.DriverPostgres:
		s, err := sqlstore.OpenPostgres(ctx, cfg.Postgres.DSN, cfg.Postgres.MaxConns)
		if err != nil {
			return nil, err
		}
		return &Store{Users: s.Users(), Books: s.Books(), Borrows: s.Borrows(), backend: s}, nil

	case config.DriverMongo:
		s, err := mongo.Open(ctx, mongo.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			return nil, err
		}
		return &Store{Users: s.Users(), Books: s.Books(), Borrows: s.Borrows(), backend: s}, nil

	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

// Migrate applies SQL migrations or creates Mongo indexes.
func (s *Store) Migrate(ctx context.Context) error {
	switch b := s.backend.(type) {
	case *sqlstore.Store:
		return b.Migrate(ctx)
	case *mongo.Store:
		return b.EnsureIndexes(ctx)
	}
	return nil
}

func (s *Store) Name() string                   { return s.backend.Name() }
func (s *Store) Ping(ctx context.Context) error { return s.backend.Ping(ctx) }
func (s *Store) Close() error                   { return s.backend.Close() }
