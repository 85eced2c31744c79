package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"rentpricing/internal/infra/config"
	ginserver "rentpricing/internal/infra/http/gin"
	"rentpricing/internal/infra/obs"
)

func newServeCmd() *cobra.Command {
	var seed bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the pricing HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			app, err := buildApplication(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer app.close(context.Background())

			if err := app.storage.migrate(ctx); err != nil {
				return err
			}
			// the memory store starts empty, so it always gets the demo data
			if seed || cfg.StoreDriver == config.DriverMemory {
				if err := app.loadFixtures(ctx, cfg.FixturesPath); err != nil {
					logger.Warn("pricing fixtures load failed", "error", err, "path", cfg.FixturesPath)
				}
			}

			if app.worker != nil {
				go func() {
					if err := app.worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
						logger.Error("outbox worker stopped", "error", err)
					}
				}()
			}

			if app.storage.purge != nil && cfg.IdempotencyTTL > 0 {
				go purgeLoop(ctx, app.storage.purge, cfg.IdempotencyTTL, logger)
			}

			server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger, Timeout: cfg.RequestTimeout},
				obs.HealthHandlers{Checks: app.storage.checks}, app.httpHandlers())
			go func() {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					logger.Error("http shutdown failed", "error", err)
				}
			}()

			logger.Info("HTTP server starting", "addr", cfg.HTTPAddr, "driver", cfg.StoreDriver)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			logger.Info("HTTP server stopped")
			return nil
		},
	}
	cmd.Flags().BoolVar(&seed, "seed", false, "load FIXTURES_PATH before serving")
	return cmd
}

func purgeLoop(ctx context.Context, purge func(context.Context) (int64, error), every time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := purge(ctx)
			if err != nil {
				logger.Warn("idempotency purge failed", "error", err)
				continue
			}
			if n > 0 {
				logger.Debug("idempotency records purged", "count", n)
			}
		}
	}
}
