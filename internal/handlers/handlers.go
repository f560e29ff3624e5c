// Package handlers implements the JSON HTTP API over the catalog service.
package handlers

import (
	"context"
	"net/http"

	"game-release-tracker/internal/catalog"
	"game-release-tracker/internal/common/logging"
	"game-release-tracker/internal/common/validation"
	"game-release-tracker/internal/config"
	"game-release-tracker/internal/models"
)

// Version is reported by the info and health endpoints
var Version = "1.0.0"

// CatalogService is what the handlers need from the catalog
type CatalogService interface {
	UpcomingGames(ctx context.Context, params catalog.UpcomingParams) ([]models.Game, error)
	SearchGames(ctx context.Context, term string, limit int) ([]models.Game, error)
	Platforms(ctx context.Context, forceRefresh bool) ([]models.Platform, error)
	StartSync(ctx context.Context) string
	LastSync() (catalog.SyncReport, bool)
	Health(ctx context.Context) catalog.HealthReport
}

type Handlers struct {
	catalog   CatalogService
	config    *config.Config
	validator *validation.CentralizedValidator
	logger    logging.Logger
}

func New(svc CatalogService, cfg *config.Config) *Handlers {
	return &Handlers{
		catalog:   svc,
		config:    cfg,
		validator: validation.NewCentralizedValidator(),
		logger:    logging.GetGlobalLogger().WithFields(logging.String("component", "handlers")),
	}
}

// InfoResponse describes the API
type InfoResponse struct {
	Message   string            `json:"message"`
	Version   string            `json:"version"`
	Endpoints map[string]string `json:"endpoints"`
}

// Info returns API information
// @Summary API information
// @Description Returns the API name, version and the main endpoints
// @Tags root
// @Produce json
// @Success 200 {object} InfoResponse
// @Router / [get]
func (h *Handlers) Info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, InfoResponse{
		Message: h.config.AppName,
		Version: Version,
		Endpoints: map[string]string{
			"upcoming_games": "/api/games/upcoming",
			"search_games":   "/api/games/search",
			"platforms":      "/api/platforms",
			"sync_data":      "/api/sync",
			"health":         "/api/health",
		},
	})
}
