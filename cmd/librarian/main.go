// Command librarian runs the library lending API and its admin tasks.
//
//	@title						Library API
//	@version					1.0
//	@description				Credentials, bearer tokens, a book catalog and a borrow ledger.
//	@BasePath					/
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/99minutos/library-system/internal/infrastructure/config"
	"github.com/99minutos/library-system/internal/infrastructure/storage"
	"github.com/99minutos/library-system/pkg/logger"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "librarian",
		Short:         "Library lending service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCmd(), newMigrateCmd(), newCreateUserCmd())
	return root
}

// bootstrap loads and validates configuration, starts the logger and opens
// the configured store with its schema applied. Nothing is opened when the
// configuration is invalid.
func bootstrap(ctx context.Context) (*config.Config, zerolog.Logger, *storage.Store, error) {
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, zerolog.Nop(), nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, zerolog.Nop(), nil, fmt.Errorf("invalid configuration: %w", err)
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "librarian",
	})

	store, err := storage.Open(ctx, cfg)
	if err != nil {
		return nil, log, nil, fmt.Errorf("open store: %w", err)
	}
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, log, nil, fmt.Errorf("migrate %s store: %w", store.Name(), err)
	}
	return cfg, log, store, nil
}
