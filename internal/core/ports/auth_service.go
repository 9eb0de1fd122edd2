package ports

import (
	"context"

	"github.com/99minutos/library-system/internal/core/domain"
)

type AuthService interface {
	Register(ctx context.Context, username, password string, role domain.Role) (*domain.User, error)
	Login(ctx context.Context, username, password string) (*domain.Token, *domain.User, error)
	Logout(ctx context.Context, principal *domain.Principal) error
}

// Guard turns a bearer token into a principal and checks roles.
type Guard interface {
	Resolve(ctx context.Context, token string) (*domain.Principal, error)
	RequireRole(principal *domain.Principal, role domain.Role) error
}
