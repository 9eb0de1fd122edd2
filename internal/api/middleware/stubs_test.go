package middleware

import (
	"context"

	"github.com/99minutos/library-system/internal/core/domain"
)

// stubGuard accepts exactly one token.
type stubGuard struct {
	token     string
	principal *domain.Principal
	err       error
}

func (g *stubGuard) Resolve(_ context.Context, token string) (*domain.Principal, error) {
	if g.err != nil {
		return nil, g.err
	}
	if token != g.token {
		return nil, domain.ErrUnauthenticated
	}
	return g.principal, nil
}

func (g *stubGuard) RequireRole(p *domain.Principal, role domain.Role) error {
	if p == nil {
		return domain.ErrUnauthenticated
	}
	if p.Role != role {
		return domain.ErrForbidden
	}
	return nil
}
