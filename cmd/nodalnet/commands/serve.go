package commands

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/mark-henry/mhnodalnetwork/infrastructure/config"
	"github.com/mark-henry/mhnodalnetwork/infrastructure/di"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server (default)",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	container, cleanup, err := di.InitializeContainer(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()
	logger := container.Logger

	if err := container.Bootstrap(ctx); err != nil {
		return err
	}

	if cfg.File != "" {
		watcher, err := config.NewWatcher(cfg, logger)
		if err != nil {
			logger.Warn("Config hot reload disabled", zap.Error(err))
		} else {
			defer watcher.Stop()
			watcher.OnChange(func(next *config.Config) {
				level, err := zapcore.ParseLevel(next.LogLevel)
				if err != nil {
					logger.Warn("Ignoring invalid log level", zap.String("level", next.LogLevel))
					return
				}
				container.LogLevel.SetLevel(level)
				logger.Info("Log level changed", zap.String("level", level.String()))
			})
		}
	}

	srv := &http.Server{
		Addr:         cfg.ServerAddress,
		Handler:      container.Router.Setup(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting server",
			zap.String("address", cfg.ServerAddress),
			zap.String("environment", cfg.Environment),
			zap.String("store", cfg.StoreBackend),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("Server failed", zap.Error(err))
			return err
		}
	case <-ctx.Done():
	}

	logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", zap.Error(err))
		return err
	}
	logger.Info("Server stopped")
	return nil
}
