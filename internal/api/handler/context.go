package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/library-system/internal/core/domain"
)

// PrincipalKey is the echo context key the Auth middleware stores the
// resolved *domain.Principal under.
const PrincipalKey = "principal"

// ctxPrincipal returns the principal injected by the Auth middleware. Its
// absence means the route was wired without authentication.
func ctxPrincipal(c echo.Context) (*domain.Principal, error) {
	p, _ := c.Get(PrincipalKey).(*domain.Principal)
	if p == nil {
		return nil, fmt.Errorf("%w: missing principal", domain.ErrUnauthenticated)
	}
	return p, nil
}

// pathID parses an integer path parameter.
func pathID(c echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusUnprocessableEntity, name+" must be an integer")
	}
	return id, nil
}

// bindAndValidate decodes the body into req and runs the struct validator.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload").SetInternal(err)
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}
	return nil
}
