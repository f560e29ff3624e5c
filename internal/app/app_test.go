package app

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"game-release-tracker/internal/catalog"
	"game-release-tracker/internal/config"
	"game-release-tracker/internal/models"
)

// fakeIGDB serves the token endpoint and the games and platforms endpoints
type fakeIGDB struct {
	*httptest.Server
	tokenCalls    atomic.Int32
	gamesCalls    atomic.Int32
	platformCalls atomic.Int32
}

func newFakeIGDB(t *testing.T) *fakeIGDB {
	t.Helper()
	f := &fakeIGDB{}
	release := time.Now().Add(10 * 24 * time.Hour).Unix()

	mux := http.NewServeMux()
	mux.HandleFunc("/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		f.tokenCalls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprint(w, `{"access_token":"test-token","expires_in":5000000,"token_type":"bearer"}`)
	})
	mux.HandleFunc("/v4/games", func(w http.ResponseWriter, r *http.Request) {
		f.gamesCalls.Add(1)
		_, _ = fmt.Fprintf(w, `[
			{"id": 2, "name": "Zeta", "first_release_date": %d, "platforms": [{"id": 6, "name": "PC"}]},
			{"id": 1, "name": "Alpha", "first_release_date": %d, "platforms": [{"id": 48, "name": "PlayStation 4"}]}
		]`, release+60, release)
	})
	mux.HandleFunc("/v4/platforms", func(w http.ResponseWriter, r *http.Request) {
		f.platformCalls.Add(1)
		_, _ = fmt.Fprint(w, `[{"id": 48, "name": "PlayStation 4", "abbreviation": "PS4"}, {"id": 6, "name": "PC"}]`)
	})

	f.Server = httptest.NewServer(mux)
	t.Cleanup(f.Close)
	return f
}

func testConfig(t *testing.T, upstream *fakeIGDB) *config.Config {
	t.Helper()
	return &config.Config{
		Port:               "0",
		AppName:            "Game Release Tracker API",
		CORSAllowedOrigins: []string{"*"},
		IGDBClientID:       "client-id",
		IGDBClientSecret:   "client-secret",
		IGDBBaseURL:        upstream.URL + "/v4",
		IGDBTokenURL:       upstream.URL + "/oauth2/token",
		IGDBTimeout:        5 * time.Second,
		RequestsPerSecond:  100,
		OutboundLimiter:    "local",
		CacheTTL:           time.Minute,
		CacheType:          "local",
		DatabaseType:       "sqlite",
		DatabasePath:       filepath.Join(t.TempDir(), "tracker.db"),
	}
}

func newTestApp(t *testing.T, cfg *config.Config) *App {
	t.Helper()
	app, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(app.Cleanup)
	return app
}

func get(handler http.Handler, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestApp_EndToEnd(t *testing.T) {
	upstream := newFakeIGDB(t)
	app := newTestApp(t, testConfig(t, upstream))
	handler := app.Handler()

	rec := get(handler, "/api/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	rec = get(handler, "/api/games/upcoming?days_ahead=30")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var games models.GameResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &games))
	require.Len(t, games.Games, 2)
	assert.Equal(t, "Alpha", games.Games[0].Name)

	// served from the database the second time
	rec = get(handler, "/api/games/upcoming?days_ahead=30&platform_ids=6")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &games))
	require.Len(t, games.Games, 1)
	assert.Equal(t, "Zeta", games.Games[0].Name)
	assert.Equal(t, int32(1), upstream.gamesCalls.Load())

	rec = get(handler, "/api/platforms")
	require.Equal(t, http.StatusOK, rec.Code)
	var platforms []models.Platform
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &platforms))
	require.Len(t, platforms, 2)
	assert.Equal(t, "PC", platforms[0].Name)

	rec = get(handler, "/api/games/upcoming?days_ahead=0")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = get(handler, "/api/health")
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = get(handler, "/api/nowhere")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// one token serves every request
	assert.Equal(t, int32(1), upstream.tokenCalls.Load())
}

func TestApp_Sync(t *testing.T) {
	upstream := newFakeIGDB(t)
	app := newTestApp(t, testConfig(t, upstream))
	handler := app.Handler()

	rec := get(handler, "/api/sync")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/sync", nil)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusAccepted, rec.Code)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, app.Catalog.Wait(ctx))

	rec = get(handler, "/api/sync")
	require.Equal(t, http.StatusOK, rec.Code)
	var report catalog.SyncReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, catalog.SyncCompleted, report.Status)
	assert.Equal(t, 2, report.Platforms)
	assert.Equal(t, 2, report.Games)

	// the sync filled the database, so reads do not reach upstream
	rec = get(handler, "/api/games/upcoming")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int32(1), upstream.gamesCalls.Load())
}

func TestApp_HealthReportsAuthFailure(t *testing.T) {
	upstream := newFakeIGDB(t)
	cfg := testConfig(t, upstream)
	cfg.IGDBTokenURL = upstream.URL + "/missing"

	app := newTestApp(t, cfg)
	rec := get(app.Handler(), "/api/health")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "unhealthy")

	rec = get(app.Handler(), "/api/games/upcoming")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestApp_InboundRateLimit(t *testing.T) {
	upstream := newFakeIGDB(t)
	cfg := testConfig(t, upstream)
	cfg.RateLimitEnabled = true
	cfg.RateLimitRPS = 0.01
	cfg.RateLimitBurst = 1

	handler := newTestApp(t, cfg).Handler()

	assert.Equal(t, http.StatusOK, get(handler, "/api/").Code)
	rec := get(handler, "/api/")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))

	// health stays reachable
	assert.Equal(t, http.StatusOK, get(handler, "/api/health").Code)
}

func TestApp_CORSPreflight(t *testing.T) {
	upstream := newFakeIGDB(t)
	handler := newTestApp(t, testConfig(t, upstream)).Handler()

	req := httptest.NewRequest(http.MethodOptions, "/api/games/upcoming", nil)
	req.Header.Set("Origin", "https://tracker.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestApp_RedisFallbacks(t *testing.T) {
	upstream := newFakeIGDB(t)
	cfg := testConfig(t, upstream)
	cfg.OutboundLimiter = "redis"
	cfg.CacheType = "two_tier"

	app := newTestApp(t, cfg)
	assert.Nil(t, app.RedisClient)
	assert.Equal(t, "local", app.Limiter.Stats()["type"])
}

func TestApp_InvalidCacheType(t *testing.T) {
	upstream := newFakeIGDB(t)
	cfg := testConfig(t, upstream)
	cfg.CacheType = "memcached"

	_, err := New(cfg)
	assert.Error(t, err)
}

func TestMigrate(t *testing.T) {
	upstream := newFakeIGDB(t)
	cfg := testConfig(t, upstream)

	version, err := Migrate(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)

	cfg.DatabaseType = "oracle"
	_, err = Migrate(context.Background(), cfg)
	assert.Error(t, err)
}
