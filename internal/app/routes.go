package app

import (
	"net/http"

	"github.com/gorilla/mux"
	httpSwagger "github.com/swaggo/http-swagger"
	"game-release-tracker/internal/common/ratelimit"
	"game-release-tracker/internal/handlers"
	"game-release-tracker/internal/middleware"
)

// SetupRoutes configures all HTTP routes for the application. A nil
// inboundLimiter disables per-IP limiting.
func SetupRoutes(router *mux.Router, h *handlers.Handlers, inboundLimiter ratelimit.KeyLimiter) {
	router.Use(middleware.RequestID)
	router.Use(middleware.LoggingMiddleware)

	// Health check (never rate limited)
	router.HandleFunc("/api/health", h.HealthCheck).Methods(http.MethodGet)

	// Swagger UI
	router.PathPrefix("/swagger/").Handler(httpSwagger.WrapHandler)

	api := router.PathPrefix("/api").Subrouter()
	if inboundLimiter != nil {
		api.Use(ratelimit.HTTPMiddleware(inboundLimiter, ratelimit.IPKey))
	}

	api.HandleFunc("/", h.Info).Methods(http.MethodGet)
	api.HandleFunc("", h.Info).Methods(http.MethodGet)

	api.HandleFunc("/games/upcoming", h.GetUpcomingGames).Methods(http.MethodGet)
	api.HandleFunc("/games/search", h.SearchGames).Methods(http.MethodGet)
	api.HandleFunc("/platforms", h.GetPlatforms).Methods(http.MethodGet)

	api.HandleFunc("/sync", h.StartSync).Methods(http.MethodPost)
	api.HandleFunc("/sync", h.GetSyncStatus).Methods(http.MethodGet)

	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"not found"}`))
	})
}
