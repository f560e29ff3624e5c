package handlers

import (
	"net/http"
	"strings"

	"game-release-tracker/internal/catalog"
	"game-release-tracker/internal/models"
)

// GetUpcomingGames returns upcoming releases
// @Summary Get upcoming game releases
// @Description Returns games releasing within the next days_ahead days, served from the local catalog and refreshed from IGDB when it holds no match
// @Tags games
// @Produce json
// @Param days_ahead query int false "Days to look ahead (1-365)" default(90)
// @Param limit query int false "Maximum number of games (1-500)" default(50)
// @Param platform_ids query string false "Comma-separated platform ids"
// @Param force_refresh query bool false "Bypass the local catalog"
// @Success 200 {object} models.GameResponse
// @Failure 400 {object} ErrorResponse "Invalid parameters"
// @Failure 429 {object} ErrorResponse "IGDB rate limit"
// @Failure 503 {object} ErrorResponse "IGDB authentication failed"
// @Failure 500 {object} ErrorResponse
// @Router /games/upcoming [get]
func (h *Handlers) GetUpcomingGames(w http.ResponseWriter, r *http.Request) {
	q, err := h.parseUpcomingQuery(r)
	if err != nil {
		h.writeError(w, r, "upcoming games", err)
		return
	}

	games, err := h.catalog.UpcomingGames(r.Context(), catalog.UpcomingParams{
		DaysAhead:    q.DaysAhead,
		Limit:        q.Limit,
		PlatformIDs:  q.PlatformIDs,
		ForceRefresh: q.ForceRefresh,
	})
	if err != nil {
		h.writeError(w, r, "upcoming games", err)
		return
	}

	writeJSON(w, http.StatusOK, models.NewGameResponse(games, q.Limit))
}

// SearchGames searches games by name
// @Summary Search games
// @Description Searches IGDB for games whose name matches q. Results are cached briefly.
// @Tags games
// @Produce json
// @Param q query string true "Search term (at least 2 characters)"
// @Param limit query int false "Maximum number of results (1-100)" default(20)
// @Success 200 {object} models.GameResponse
// @Failure 400 {object} ErrorResponse "Invalid parameters"
// @Failure 429 {object} ErrorResponse "IGDB rate limit"
// @Failure 503 {object} ErrorResponse "IGDB authentication failed"
// @Failure 500 {object} ErrorResponse
// @Router /games/search [get]
func (h *Handlers) SearchGames(w http.ResponseWriter, r *http.Request) {
	q, err := h.parseSearchQuery(r)
	if err != nil {
		h.writeError(w, r, "game search", err)
		return
	}

	games, err := h.catalog.SearchGames(r.Context(), strings.TrimSpace(q.Q), q.Limit)
	if err != nil {
		h.writeError(w, r, "game search", err)
		return
	}

	writeJSON(w, http.StatusOK, models.NewGameResponse(games, q.Limit))
}

// GetPlatforms lists gaming platforms
// @Summary Get platforms
// @Description Returns every known platform sorted by name
// @Tags platforms
// @Produce json
// @Param force_refresh query bool false "Refresh from IGDB"
// @Success 200 {array} models.Platform
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /platforms [get]
func (h *Handlers) GetPlatforms(w http.ResponseWriter, r *http.Request) {
	force, err := boolParam(r.URL.Query().Get("force_refresh"), "force_refresh")
	if err != nil {
		h.writeError(w, r, "platforms", err)
		return
	}

	platforms, err := h.catalog.Platforms(r.Context(), force)
	if err != nil {
		h.writeError(w, r, "platforms", err)
		return
	}
	if platforms == nil {
		platforms = []models.Platform{}
	}

	writeJSON(w, http.StatusOK, platforms)
}
