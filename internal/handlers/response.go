package handlers

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"

	"game-release-tracker/internal/common/errors"
	"game-release-tracker/internal/common/logging"
)

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error string `json:"error"`
}

const defaultRetryAfter = "60"

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logging.Warn("Failed to encode response", logging.Err(err))
	}
}

// writeError maps the error taxonomy onto HTTP statuses. Internal details
// are logged, never returned.
func (h *Handlers) writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	logger := h.logger.WithContext(r.Context())

	switch errors.GetType(err) {
	case errors.ErrTypeValidation:
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: validationMessage(err)})
	case errors.ErrTypeRateLimit:
		logger.Warn("Upstream rate limit hit", logging.String("operation", op))
		w.Header().Set("Retry-After", retryAfter(err))
		writeJSON(w, http.StatusTooManyRequests, ErrorResponse{Error: "Rate limit exceeded. Please try again later."})
	case errors.ErrTypeAuth:
		logger.Error("Upstream authentication failed", err, logging.String("operation", op))
		writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{Error: "Authentication failed with IGDB API"})
	default:
		logger.Error(fmt.Sprintf("Error during %s", op), err)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "Internal server error"})
	}
}

func validationMessage(err error) string {
	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}

func retryAfter(err error) string {
	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		if v, ok := appErr.Context["retry_after"].(string); ok && v != "" {
			return v
		}
	}
	return defaultRetryAfter
}
