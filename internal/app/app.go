package app

import (
	"context"
	"fmt"

	"game-release-tracker/internal/catalog"
	"game-release-tracker/internal/common/cache"
	"game-release-tracker/internal/common/logging"
	"game-release-tracker/internal/common/ratelimit"
	"game-release-tracker/internal/config"
	"game-release-tracker/internal/igdb"
	"game-release-tracker/internal/locks"
	"game-release-tracker/internal/oauth2"
	"game-release-tracker/internal/redis"
	"game-release-tracker/internal/storage"
)

// App holds all the application dependencies
type App struct {
	Config      *config.Config
	Store       storage.Store
	RedisClient *redis.Client
	Limiter     ratelimit.Limiter
	Tokens      *oauth2.Manager
	IGDB        *igdb.Client
	Cache       cache.Cache
	Locker      locks.Locker
	Catalog     *catalog.Service
	Scheduler   *catalog.Scheduler
	Logger      logging.Logger
}

// New creates a new application instance with all dependencies
func New(cfg *config.Config) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logging.GetGlobalLogger().WithFields(logging.String("component", "app")),
	}

	// Initialize components in order of dependency
	if err := app.initializeStorage(); err != nil {
		return nil, err
	}

	if err := app.initializeRedis(); err != nil {
		// Redis is optional, just log the error
		app.Logger.Warn("Redis initialization failed, continuing without Redis", logging.Err(err))
	}

	if err := app.initializeOutboundLimiter(); err != nil {
		app.Cleanup()
		return nil, err
	}

	if err := app.initializeCatalogClient(); err != nil {
		app.Cleanup()
		return nil, err
	}

	if err := app.initializeCache(); err != nil {
		app.Cleanup()
		return nil, err
	}

	app.Locker = locks.NewLocker(app.RedisClient)

	if err := app.initializeCatalog(); err != nil {
		app.Cleanup()
		return nil, err
	}

	return app, nil
}

func (app *App) initializeCatalog() error {
	opts := catalog.Options{
		Store:    app.Store,
		Cache:    app.Cache,
		CacheTTL: app.Config.CacheTTL,
		Locker:   app.Locker,
	}
	if app.RedisClient != nil {
		opts.Publisher = app.RedisClient
	}

	svc, err := catalog.NewService(app.IGDB, opts)
	if err != nil {
		return fmt.Errorf("failed to initialize catalog: %w", err)
	}

	svc.AddHealthCheck("igdb", func(ctx context.Context) error {
		_, err := app.Tokens.AccessToken(ctx)
		return err
	})
	if app.RedisClient != nil {
		svc.AddHealthCheck("redis", func(ctx context.Context) error {
			return app.RedisClient.Health()
		})
	}
	app.Catalog = svc

	scheduler, err := catalog.NewScheduler(app.Config.SyncSchedule, svc, nil)
	if err != nil {
		return err
	}
	app.Scheduler = scheduler
	return nil
}

// Cleanup releases all resources in reverse order of creation
func (app *App) Cleanup() {
	if app.Locker != nil {
		if err := app.Locker.Close(); err != nil {
			app.Logger.Warn("Error closing locker", logging.Err(err))
		}
	}
	if app.RedisClient != nil {
		if err := app.RedisClient.Close(); err != nil {
			app.Logger.Warn("Error closing Redis", logging.Err(err))
		}
	}
	if app.Store != nil {
		if err := app.Store.Close(); err != nil {
			app.Logger.Warn("Error closing database", logging.Err(err))
		}
	}
}
