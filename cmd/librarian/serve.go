package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/99minutos/library-system/internal/api"
	"github.com/99minutos/library-system/internal/api/handler"
	"github.com/99minutos/library-system/internal/core/ports"
	"github.com/99minutos/library-system/internal/core/service"
	"github.com/99minutos/library-system/internal/infrastructure/db/redis"
	"github.com/99minutos/library-system/pkg/logger"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx)
		},
	}
}

func serve(ctx context.Context) error {
	cfg, log, store, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	checks := []handler.Check{{Name: store.Name(), Pinger: store}}

	var denylist ports.TokenDenylist
	if cfg.RevocationEnabled() {
		client, err := redis.Connect(ctx, redis.Config{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
		if err != nil {
			return err
		}
		dl := redis.NewDenylist(client)
		defer dl.Close()
		denylist = dl
		checks = append(checks, handler.Check{Name: "redis", Pinger: dl})
	} else {
		log.Warn().Msg("REDIS_ADDR not set, logout is disabled")
	}

	tokens := service.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.TokenTTL, denylist)
	users := store.Users

	e := api.NewRouter(api.Dependencies{
		Auth:    service.NewAuthService(users, tokens, cfg.Auth.BcryptCost, logger.Component("auth")),
		Guard:   service.NewGuard(tokens, users),
		Catalog: service.NewCatalogService(store.Books, logger.Component("catalog")),
		Ledger:  service.NewLedgerService(store.Borrows, logger.Component("ledger")),
		Checks:  checks,
		Logger:  logger.Component("http"),
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("store", store.Name()).Msg("starting server")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
	}

	log.Info().Dur("timeout", cfg.ShutdownTimeout).Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info().Msg("server exited")
	return nil
}
