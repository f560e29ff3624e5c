package app

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	"game-release-tracker/internal/common/logging"
	"game-release-tracker/internal/handlers"
	"game-release-tracker/internal/middleware"
	"game-release-tracker/internal/server"
)

// Handler builds the full HTTP handler: routes wrapped in CORS
func (app *App) Handler() http.Handler {
	h := handlers.New(app.Catalog, app.Config)

	router := mux.NewRouter()
	SetupRoutes(router, h, app.InitializeInboundLimiter())

	return middleware.CORS(app.Config.CORSAllowedOrigins)(router)
}

// RunServer creates the HTTP server with all handlers configured
func (app *App) RunServer() *server.Server {
	return server.New(app.Handler(), app.Config.Port)
}

// Shutdown stops the scheduler and waits for background syncs
func (app *App) Shutdown(ctx context.Context) error {
	if app.Scheduler != nil {
		if err := app.Scheduler.Stop(ctx); err != nil {
			app.Logger.Warn("Error stopping scheduler", logging.Err(err))
		}
	}

	if app.Catalog != nil {
		if err := app.Catalog.Wait(ctx); err != nil {
			app.Logger.Warn("Background sync still running at shutdown", logging.Err(err))
			return err
		}
	}
	return nil
}
