package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/library-system/internal/api/metrics"
	"github.com/99minutos/library-system/internal/core/domain"
	"github.com/99minutos/library-system/internal/core/ports"
)

type AuthHandler struct {
	authService ports.AuthService
}

func NewAuthHandler(authService ports.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Register creates a new user account.
//
// @Summary      Register a new user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "User registration details"
// @Success      201   {object}  userResponse
// @Failure      400   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Failure      500   {object}  errorResponse
// @Router       /register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := bindAndValidate(c, &req); err != nil {
		metrics.RegistrationsTotal.WithLabelValues(metrics.ResultRejected).Inc()
		return err
	}

	user, err := h.authService.Register(c.Request().Context(), req.Username, req.Password, domain.Role(req.Role))
	metrics.RegistrationsTotal.WithLabelValues(metrics.Result(err, isRegistrationRejection)).Inc()
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, toUserResponse(user))
}

// Token authenticates a user and returns a bearer token. Accepts an
// OAuth2-style form body or JSON.
//
// @Summary      Log in
// @Tags         auth
// @Accept       x-www-form-urlencoded,json
// @Produce      json
// @Param        username  formData  string  true  "Username"
// @Param        password  formData  string  true  "Password"
// @Success      200       {object}  tokenResponse
// @Failure      401       {object}  errorResponse
// @Failure      422       {object}  errorResponse
// @Router       /token [post]
func (h *AuthHandler) Token(c echo.Context) error {
	var req tokenRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	token, _, err := h.authService.Login(c.Request().Context(), req.Username, req.Password)
	metrics.LoginsTotal.WithLabelValues(metrics.Result(err, func(err error) bool {
		return errors.Is(err, domain.ErrAuthFailure)
	})).Inc()
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, tokenResponse{
		AccessToken: token.Value,
		TokenType:   "bearer",
		ExpiresAt:   token.ExpiresAt,
	})
}

// Logout revokes the bearer token used for this request.
//
// @Summary      Log out
// @Tags         auth
// @Security     BearerAuth
// @Success      204
// @Failure      401  {object}  errorResponse
// @Failure      501  {object}  errorResponse
// @Router       /logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	p, err := ctxPrincipal(c)
	if err != nil {
		return err
	}
	if err := h.authService.Logout(c.Request().Context(), p); err != nil {
		return err
	}
	metrics.TokensRevokedTotal.Inc()
	return c.NoContent(http.StatusNoContent)
}

func isRegistrationRejection(err error) bool {
	return errors.Is(err, domain.ErrDuplicateUsername) || errors.Is(err, domain.ErrInvalidInput)
}
