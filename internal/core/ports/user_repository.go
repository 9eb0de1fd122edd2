package ports

import (
	"context"

	"github.com/99minutos/library-system/internal/core/domain"
)

// UserRepository persists credentials. Username uniqueness is enforced by
// the store itself so that concurrent registrations cannot both succeed.
type UserRepository interface {
	// Create returns domain.ErrDuplicateUsername when the username is taken.
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	// FindByUsername returns domain.ErrUserNotFound for unknown usernames.
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	FindByID(ctx context.Context, id int64) (*domain.User, error)
}
