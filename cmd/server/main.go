package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"blogflow/internal/config"
	"blogflow/pkg/factory"
	"blogflow/pkg/logger"
	"blogflow/pkg/tracing"
)

const shutdownTimeout = 30 * time.Second

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var skipMigrations bool

	cmd := &cobra.Command{
		Use:   "blogflow",
		Short: "Run the blogflow content API",
		Long: `Run the blogflow content API: users, follows and articles over HTTP.

Configuration is read from the environment and an optional .env file.

Examples:
  blogflow                    # Migrate and serve
  blogflow --skip-migrations  # Serve without touching the schema
  blogflow migrate            # Apply migrations and exit
`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), skipMigrations)
		},
	}

	cmd.Flags().BoolVar(&skipMigrations, "skip-migrations", false, "Do not apply schema migrations on startup")

	cmd.AddCommand(migrateCmd())

	return cmd
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}

			app, err := factory.NewFactory(cfg, log)
			if err != nil {
				return err
			}
			defer app.Close()

			return app.Migrate(cmd.Context())
		},
	}
}

func setup() (*config.Config, logger.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("configuration could not be loaded: %w", err)
	}

	log := logger.New(logger.LogLevel(cfg.LogLevel), nil, cfg.IsDevelopment())
	return cfg, log, nil
}

func serve(ctx context.Context, skipMigrations bool) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}

	log.Info("Starting application", map[string]interface{}{"env": cfg.AppEnv, "db_driver": cfg.Database.Driver})

	shutdownTracing, err := tracing.Init(ctx, tracing.Config{
		Enabled:     cfg.Tracing.Enabled,
		Endpoint:    cfg.Tracing.Endpoint,
		ServiceName: "blogflow",
	})
	if err != nil {
		return err
	}
	defer func() {
		tctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(tctx); err != nil {
			log.Error("Tracer shutdown failed", map[string]interface{}{"error": err.Error()})
		}
	}()

	app, err := factory.NewFactory(cfg, log)
	if err != nil {
		return err
	}
	defer app.Close()

	if !skipMigrations {
		if err := app.Migrate(ctx); err != nil {
			return fmt.Errorf("migrations could not be applied: %w", err)
		}
	}

	server := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           app.Handler(),
		ReadHeaderTimeout: cfg.Server.Timeout,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening", map[string]interface{}{"port": cfg.Server.Port})

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
	case <-quit:
	}

	log.Info("Shutting down server", nil)

	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(sctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("Server stopped", nil)
	return nil
}
