package app

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"game-release-tracker/internal/catalog"
	"game-release-tracker/internal/common/logging"
	"game-release-tracker/internal/config"
	"game-release-tracker/internal/server"
	"game-release-tracker/internal/storage"
)

// Serve runs the HTTP API and the sync scheduler until ctx is cancelled
func Serve(ctx context.Context, cfg *config.Config) error {
	logging.Info("Starting game release tracker",
		logging.Int("cpus", runtime.NumCPU()),
		logging.String("port", cfg.Port),
	)

	app, err := New(cfg)
	if err != nil {
		logging.Error("Failed to initialize application", err)
		return err
	}
	defer app.Cleanup()

	// verify credentials up front; a failure is logged and surfaced by /api/health
	tokenCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	if _, err := app.Tokens.AccessToken(tokenCtx); err != nil {
		logging.Error("IGDB authentication failed at startup", err)
	} else {
		logging.Info("IGDB API connection successful")
	}
	cancel()

	if err := app.Scheduler.Start(ctx); err != nil {
		return err
	}

	srv := app.RunServer()
	if err := srv.Start(); err != nil {
		logging.Error("Server failed to start", err)
		return err
	}

	var serveErr error
	select {
	case <-ctx.Done():
		logging.Info("Shutting down server...")
	case serveErr = <-srv.Errors():
		logging.Error("Server stopped unexpectedly", serveErr)
	}

	// Graceful shutdown
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), server.ShutdownTimeout)
	defer cancelShutdown()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Error("Server forced to shutdown", err)
		return err
	}

	if err := app.Shutdown(shutdownCtx); err != nil {
		logging.Warn("Error during app shutdown", logging.Err(err))
	}

	logging.Info("Server exited")
	return serveErr
}

// SyncOnce runs a single catalog sync and returns its report
func SyncOnce(ctx context.Context, cfg *config.Config) (catalog.SyncReport, error) {
	app, err := New(cfg)
	if err != nil {
		return catalog.SyncReport{}, err
	}
	defer app.Cleanup()

	return app.Catalog.Sync(ctx)
}

// Migrate opens the configured database, which applies pending migrations,
// and returns the resulting schema version
func Migrate(ctx context.Context, cfg *config.Config) (int64, error) {
	store, err := storage.NewStore(cfg)
	if err != nil {
		return 0, err
	}
	defer store.Close()

	version, err := store.MigrationVersion(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return version, nil
}
