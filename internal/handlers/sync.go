package handlers

import (
	"net/http"

	"game-release-tracker/internal/catalog"
	"game-release-tracker/internal/common/logging"
)

// SyncStartedResponse acknowledges a background sync
type SyncStartedResponse struct {
	Message string `json:"message"`
	Status  string `json:"status"`
	JobID   string `json:"job_id"`
}

// StartSync starts a background sync
// @Summary Start a catalog sync
// @Description Refreshes platforms and the next 180 days of releases in the background
// @Tags sync
// @Produce json
// @Success 202 {object} SyncStartedResponse
// @Router /sync [post]
func (h *Handlers) StartSync(w http.ResponseWriter, r *http.Request) {
	jobID := h.catalog.StartSync(r.Context())

	h.logger.WithContext(r.Context()).Info("Background sync requested", logging.String("job_id", jobID))

	writeJSON(w, http.StatusAccepted, SyncStartedResponse{
		Message: "Data sync started in background",
		Status:  string(catalog.SyncRunning),
		JobID:   jobID,
	})
}

// GetSyncStatus returns the last sync report
// @Summary Get last sync
// @Description Returns the report of the most recent sync
// @Tags sync
// @Produce json
// @Success 200 {object} catalog.SyncReport
// @Failure 404 {object} ErrorResponse "No sync has run"
// @Router /sync [get]
func (h *Handlers) GetSyncStatus(w http.ResponseWriter, r *http.Request) {
	report, ok := h.catalog.LastSync()
	if !ok {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "no sync has run yet"})
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// HealthResponse wraps the dependency report
type HealthResponse struct {
	catalog.HealthReport
	Version string `json:"version"`
}

// HealthCheck reports dependency health
// @Summary Health check
// @Description Checks the IGDB token, the database and redis when configured
// @Tags health
// @Produce json
// @Success 200 {object} HealthResponse
// @Failure 503 {object} HealthResponse
// @Router /health [get]
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := h.catalog.Health(r.Context())

	status := http.StatusOK
	if !report.Healthy() {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, HealthResponse{HealthReport: report, Version: Version})
}
