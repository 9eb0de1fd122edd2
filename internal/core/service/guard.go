package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/99minutos/library-system/internal/core/domain"
	"github.com/99minutos/library-system/internal/core/ports"
)

// Guard resolves bearer tokens to principals. The role is read from the
// user store on every call so a token never carries stale privileges.
type Guard struct {
	tokens *TokenService
	users  ports.UserRepository
}

func NewGuard(tokens *TokenService, users ports.UserRepository) *Guard {
	return &Guard{tokens: tokens, users: users}
}

func (g *Guard) Resolve(ctx context.Context, raw string) (*domain.Principal, error) {
	if raw == "" {
		return nil, domain.ErrUnauthenticated
	}

	id, err := g.tokens.Verify(ctx, raw)
	if err != nil {
		if domain.IsTokenError(err) {
			return nil, fmt.Errorf("%w: %w", domain.ErrUnauthenticated, err)
		}
		return nil, fmt.Errorf("resolve token: %w", err)
	}

	user, err := g.users.FindByUsername(ctx, id.Subject)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, fmt.Errorf("%w: subject no longer exists", domain.ErrUnauthenticated)
		}
		return nil, fmt.Errorf("resolve token: %w", err)
	}

	return &domain.Principal{
		UserID:   user.ID,
		Username: user.Username,
		Role:     user.Role,
		Token:    *id,
	}, nil
}

func (g *Guard) RequireRole(p *domain.Principal, role domain.Role) error {
	if p == nil {
		return domain.ErrUnauthenticated
	}
	if p.Role != role {
		return domain.ErrForbidden
	}
	return nil
}
