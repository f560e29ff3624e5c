package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"game-release-tracker/internal/common/errors"
)

// UpcomingQuery holds the parameters of GET /api/games/upcoming
type UpcomingQuery struct {
	DaysAhead    int     `query:"days_ahead" validate:"min=1,max=365"`
	Limit        int     `query:"limit" validate:"min=1,max=500"`
	PlatformIDs  []int64 `query:"platform_ids"`
	ForceRefresh bool    `query:"force_refresh"`
}

// SearchQuery holds the parameters of GET /api/games/search
type SearchQuery struct {
	Q     string `query:"q" validate:"required,min=2"`
	Limit int    `query:"limit" validate:"min=1,max=100"`
}

func (h *Handlers) parseUpcomingQuery(r *http.Request) (UpcomingQuery, error) {
	values := r.URL.Query()
	q := UpcomingQuery{DaysAhead: 90, Limit: 50}

	var err error
	if q.DaysAhead, err = intParam(values.Get("days_ahead"), "days_ahead", q.DaysAhead); err != nil {
		return q, err
	}
	if q.Limit, err = intParam(values.Get("limit"), "limit", q.Limit); err != nil {
		return q, err
	}
	if q.ForceRefresh, err = boolParam(values.Get("force_refresh"), "force_refresh"); err != nil {
		return q, err
	}
	if q.PlatformIDs, err = parsePlatformIDs(values.Get("platform_ids")); err != nil {
		return q, err
	}

	return q, h.validator.ValidateStruct(q)
}

func (h *Handlers) parseSearchQuery(r *http.Request) (SearchQuery, error) {
	values := r.URL.Query()
	q := SearchQuery{Q: values.Get("q"), Limit: 20}

	var err error
	if q.Limit, err = intParam(values.Get("limit"), "limit", q.Limit); err != nil {
		return q, err
	}

	return q, h.validator.ValidateStruct(q)
}

func intParam(raw, name string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, errors.ValidationError(fmt.Sprintf("field '%s' must be an integer", name))
	}
	return v, nil
}

func boolParam(raw, name string) (bool, error) {
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return false, errors.ValidationError(fmt.Sprintf("field '%s' must be a boolean", name))
	}
	return v, nil
}

// parsePlatformIDs reads a comma-separated id list. Every entry must be an
// integer, so "6,,48" is rejected.
func parsePlatformIDs(raw string) ([]int64, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}

	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil {
			return nil, errors.ValidationError("Invalid platform IDs format")
		}
		ids = append(ids, id)
	}
	return ids, nil
}
