package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/99minutos/library-system/internal/api/handler"
	"github.com/99minutos/library-system/internal/core/domain"
	"github.com/99minutos/library-system/internal/core/ports"
)

// RequireRole lets the request through only when the principal set by Auth
// holds role. Must be chained after Auth.
func RequireRole(guard ports.Guard, role domain.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			principal, _ := c.Get(handler.PrincipalKey).(*domain.Principal)
			if err := guard.RequireRole(principal, role); err != nil {
				return err
			}
			return next(c)
		}
	}
}
