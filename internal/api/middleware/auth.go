package middleware

import (
	"fmt"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/library-system/internal/api/handler"
	"github.com/99minutos/library-system/internal/core/domain"
	"github.com/99minutos/library-system/internal/core/ports"
)

// Auth resolves the bearer token through the guard and injects the
// principal into the context. Failures are returned to the central error
// handler, which answers 401 with a WWW-Authenticate challenge.
func Auth(guard ports.Guard) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				return fmt.Errorf("%w: missing authorization header", domain.ErrUnauthenticated)
			}

			scheme, token, ok := strings.Cut(authHeader, " ")
			if !ok || !strings.EqualFold(scheme, "bearer") || strings.TrimSpace(token) == "" {
				return fmt.Errorf("%w: invalid authorization header", domain.ErrUnauthenticated)
			}

			principal, err := guard.Resolve(c.Request().Context(), strings.TrimSpace(token))
			if err != nil {
				return err
			}

			c.Set(handler.PrincipalKey, principal)
			return next(c)
		}
	}
}
