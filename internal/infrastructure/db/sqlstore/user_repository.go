package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"

	"github.com/99minutos/library-system/internal/core/domain"
)

const usersTable = "users"

var userColumns = []any{"id", "username", "password_hash", "role", "created_at"}

type userRow struct {
	ID           int64     `db:"id"`
	Username     string    `db:"username"`
	PasswordHash string    `db:"password_hash"`
	Role         string    `db:"role"`
	CreatedAt    time.Time `db:"created_at"`
}

func (r userRow) toDomain() *domain.User {
	return &domain.User{
		ID:           r.ID,
		Username:     r.Username,
		PasswordHash: r.PasswordHash,
		Role:         domain.Role(r.Role),
		CreatedAt:    r.CreatedAt.UTC(),
	}
}

// UserRepository implements ports.UserRepository.
type UserRepository struct {
	store *Store
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	created := *user
	if created.CreatedAt.IsZero() {
		created.CreatedAt = time.Now().UTC()
	}

	query := r.store.db.Rebind(`INSERT INTO users (username, password_hash, role, created_at) VALUES (?, ?, ?, ?) RETURNING id`)
	err := r.store.db.QueryRowxContext(ctx, query,
		created.Username, created.PasswordHash, string(created.Role), created.CreatedAt,
	).Scan(&created.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrDuplicateUsername
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return &created, nil
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.findOne(ctx, goqu.Ex{"username": username})
}

func (r *UserRepository) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	return r.findOne(ctx, goqu.Ex{"id": id})
}

func (r *UserRepository) findOne(ctx context.Context, where goqu.Ex) (*domain.User, error) {
	query, args, err := r.store.goqu.From(usersTable).
		Select(userColumns...).
		Where(where).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build user query: %w", err)
	}

	var row userRow
	if err := r.store.db.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return row.toDomain(), nil
}
