package api

import (
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/99minutos/library-system/docs" // swagger spec registration
	"github.com/99minutos/library-system/internal/api/handler"
	"github.com/99minutos/library-system/internal/api/middleware"
	"github.com/99minutos/library-system/internal/core/domain"
	"github.com/99minutos/library-system/internal/core/ports"
)

// Dependencies is everything the router wires into handlers.
type Dependencies struct {
	Auth    ports.AuthService
	Guard   ports.Guard
	Catalog ports.CatalogService
	Ledger  ports.LedgerService

	// Checks are probed by /health/ready.
	Checks []handler.Check

	Logger zerolog.Logger

	// Registerer and Gatherer back the HTTP metrics and /metrics. Nil means
	// the Prometheus defaults.
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.JSONSerializer = jsonSerializer{}
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Logger)

	registerer := deps.Registerer
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	// --- Global middleware ---
	e.Pre(echomiddleware.RemoveTrailingSlash())
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestIDWithConfig(echomiddleware.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(middleware.RequestLogger(deps.Logger))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Namespace:  "library",
		Subsystem:  "http",
		Registerer: registerer,
		Skipper: func(c echo.Context) bool {
			p := c.Path()
			return p == "/metrics" || strings.HasPrefix(p, "/health") || strings.HasPrefix(p, "/swagger")
		},
	}))

	authHandler := handler.NewAuthHandler(deps.Auth)
	bookHandler := handler.NewBookHandler(deps.Catalog)
	borrowHandler := handler.NewBorrowHandler(deps.Ledger)
	healthHandler := handler.NewHealthHandler(deps.Checks...)

	authn := middleware.Auth(deps.Guard)
	adminOnly := middleware.RequireRole(deps.Guard, domain.RoleAdmin)

	// --- Auth routes ---
	e.POST("/register", authHandler.Register)
	e.POST("/token", authHandler.Token)
	e.POST("/logout", authHandler.Logout, authn)

	// --- Catalog ---
	e.GET("/books", bookHandler.List)
	e.GET("/books/:id", bookHandler.Get)
	e.POST("/books", bookHandler.Create, authn, adminOnly)

	// --- Ledger ---
	e.POST("/borrow/:book_id", borrowHandler.Borrow, authn)
	e.POST("/return/:book_id", borrowHandler.Return, authn)
	e.GET("/me/borrows", borrowHandler.Mine, authn)

	// --- Health probes (no auth required) ---
	e.GET("/health", healthHandler.Liveness)        // liveness  – is the process alive?
	e.GET("/health/ready", healthHandler.Readiness) // readiness – are dependencies up?

	// --- Ops ---
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: gatherer}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}
