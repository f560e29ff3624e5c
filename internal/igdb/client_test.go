package igdb

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"game-release-tracker/internal/common/errors"
	"game-release-tracker/internal/common/ratelimit"
	"game-release-tracker/internal/oauth2"
)

// recorder keeps the order in which the pacer, token source and server were hit
type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) add(event string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recorder) list() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

type fakePacer struct {
	rec *recorder
	err error
}

func (p *fakePacer) Wait(ctx context.Context) error {
	p.rec.add("pace")
	return p.err
}

type fakeTokens struct {
	rec         *recorder
	token       string
	err         error
	invalidated atomic.Int64
}

func (f *fakeTokens) AccessToken(ctx context.Context) (string, error) {
	f.rec.add("token")
	return f.token, f.err
}

func (f *fakeTokens) Invalidate(ctx context.Context) error {
	f.invalidated.Add(1)
	return nil
}

type apiServer struct {
	*httptest.Server
	calls atomic.Int64
	mu    sync.Mutex
	last  *http.Request
	body  string
}

func newAPIServer(t *testing.T, rec *recorder, handler http.HandlerFunc) *apiServer {
	s := &apiServer{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.calls.Add(1)
		rec.add("request " + r.URL.Path)
		data, _ := io.ReadAll(r.Body)
		s.mu.Lock()
		s.last = r
		s.body = string(data)
		s.mu.Unlock()
		handler(w, r)
	}))
	t.Cleanup(s.Close)
	return s
}

func jsonHandler(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}
}

func newTestClient(t *testing.T, baseURL string, tokens TokenSource, pacer Pacer, opts ...Option) *Client {
	c, err := NewClient(Config{ClientID: "client-id", BaseURL: baseURL}, tokens, pacer, opts...)
	require.NoError(t, err)
	return c
}

func fixture() (*recorder, *fakeTokens, *fakePacer) {
	rec := &recorder{}
	return rec, &fakeTokens{rec: rec, token: "abc"}, &fakePacer{rec: rec}
}

func TestClient_RequestShape(t *testing.T) {
	rec, tokens, pacer := fixture()
	server := newAPIServer(t, rec, jsonHandler(http.StatusOK, `[{"id":6,"name":"PC (Microsoft Windows)","abbreviation":"PC"}]`))
	client := newTestClient(t, server.URL, tokens, pacer)

	platforms, err := client.FetchPlatforms(context.Background())
	require.NoError(t, err)
	require.Len(t, platforms, 1)
	assert.Equal(t, "PC", platforms[0].Abbreviation)

	assert.Equal(t, []string{"pace", "token", "request /platforms"}, rec.list())

	req := server.last
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "client-id", req.Header.Get("Client-ID"))
	assert.Equal(t, "Bearer abc", req.Header.Get("Authorization"))
	assert.Equal(t, "application/json", req.Header.Get("Accept"))
	assert.Equal(t, "text/plain", req.Header.Get("Content-Type"))
	assert.Equal(t, PlatformsQuery().String(), server.body)
}

func TestClient_FetchUpcomingReleasesWindow(t *testing.T) {
	rec, tokens, pacer := fixture()
	server := newAPIServer(t, rec, jsonHandler(http.StatusOK, `[]`))

	now := time.Unix(1_735_689_600, 0)
	client := newTestClient(t, server.URL, tokens, pacer, WithClock(clockwork.NewFakeClockAt(now)))

	games, err := client.FetchUpcomingReleases(context.Background(), 90, 50, []int64{6, 48})
	require.NoError(t, err)
	assert.Empty(t, games)

	assert.Contains(t, server.body, "where release_dates.date >= 1735689600 & release_dates.date < 1743465600 & release_dates.platform = (6,48);")
	assert.Contains(t, server.body, "limit 50;")
	assert.Equal(t, "/games", server.last.URL.Path)
}

func TestClient_SkipsMalformedEntities(t *testing.T) {
	var elements []string
	for i := 1; i <= 9; i++ {
		elements = append(elements, fmt.Sprintf(`{"id":%d,"name":"Game %d","first_release_date":%d}`, i, i, 1_800_000_000+i))
	}
	elements = append(elements[:4], append([]string{`{"id":"ten","name":"Broken","first_release_date":"tomorrow"}`}, elements[4:]...)...)
	body := "[" + strings.Join(elements, ",") + "]"

	rec, tokens, pacer := fixture()
	server := newAPIServer(t, rec, jsonHandler(http.StatusOK, body))
	client := newTestClient(t, server.URL, tokens, pacer)

	games, err := client.SearchByName(context.Background(), "game", 10)
	require.NoError(t, err)
	assert.Len(t, games, 9)
	assert.Equal(t, int64(1), client.Stats()["skipped_entities"])
	for _, g := range games {
		assert.NotEqual(t, "Broken", g.Name)
	}
}

func TestClient_SkipsInvalidEntities(t *testing.T) {
	body := `[
		{"id":1,"name":"Valid"},
		{"id":2},
		{"name":"No id"},
		{"id":3,"name":"Bad nested","platforms":[{"id":0,"name":"x"}]},
		{"id":4,"name":"Bad timestamp","release_dates":[{"id":9,"date":12.5}]},
		42
	]`

	rec, tokens, pacer := fixture()
	server := newAPIServer(t, rec, jsonHandler(http.StatusOK, body))
	client := newTestClient(t, server.URL, tokens, pacer)

	games, err := client.SearchByName(context.Background(), "valid", 10)
	require.NoError(t, err)
	require.Len(t, games, 1)
	assert.Equal(t, "Valid", games[0].Name)
	assert.Equal(t, int64(5), client.Stats()["skipped_entities"])
}

func TestClient_RateLimited(t *testing.T) {
	rec, tokens, pacer := fixture()
	server := newAPIServer(t, rec, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "2")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"message":"Too Many Requests"}`))
	})
	client := newTestClient(t, server.URL, tokens, pacer)

	_, err := client.FetchUpcomingReleases(context.Background(), 30, 10, nil)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTypeRateLimit))
	assert.False(t, errors.IsType(err, errors.ErrTypeUpstream))
	assert.Equal(t, http.StatusTooManyRequests, errors.StatusOf(err))
	assert.Contains(t, err.Error(), "retry_after=2")
	assert.Equal(t, int64(1), client.Stats()["rate_limited"])
}

func TestClient_UpstreamStatus(t *testing.T) {
	rec, tokens, pacer := fixture()
	server := newAPIServer(t, rec, jsonHandler(http.StatusBadRequest, `[{"title":"Syntax Error","status":400}]`))
	client := newTestClient(t, server.URL, tokens, pacer)

	_, err := client.SearchByName(context.Background(), "zelda", 5)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTypeUpstream))
	assert.Equal(t, http.StatusBadRequest, errors.StatusOf(err))
	assert.Contains(t, err.Error(), "Syntax Error")
	assert.Zero(t, tokens.invalidated.Load())
}

func TestClient_UnauthorizedInvalidatesToken(t *testing.T) {
	rec, tokens, pacer := fixture()
	server := newAPIServer(t, rec, jsonHandler(http.StatusUnauthorized, `{"message":"Authorization Failure"}`))
	client := newTestClient(t, server.URL, tokens, pacer)

	_, err := client.FetchPlatforms(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTypeUpstream))
	assert.Equal(t, http.StatusUnauthorized, errors.StatusOf(err))
	assert.Equal(t, int64(1), tokens.invalidated.Load())
}

func TestClient_AuthFailureSkipsRequest(t *testing.T) {
	rec, tokens, pacer := fixture()
	tokens.err = errors.AuthError("token request failed", nil).WithStatus(http.StatusForbidden)
	server := newAPIServer(t, rec, jsonHandler(http.StatusOK, `[]`))
	client := newTestClient(t, server.URL, tokens, pacer)

	_, err := client.FetchPlatforms(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTypeAuth))
	assert.Equal(t, http.StatusForbidden, errors.StatusOf(err))
	assert.Zero(t, server.calls.Load())
}

func TestClient_PlainTokenErrorBecomesAuthError(t *testing.T) {
	_, tokens, pacer := fixture()
	tokens.err = fmt.Errorf("dial tcp: refused")
	client := newTestClient(t, "http://127.0.0.1:1", tokens, pacer)

	result := client.Do(context.Background(), EndpointGames, SearchQuery("x", 1))
	assert.Equal(t, AuthFailed, result.Outcome)
	assert.True(t, errors.IsType(result.Error(), errors.ErrTypeAuth))
}

func TestClient_NonArrayBody(t *testing.T) {
	rec, tokens, pacer := fixture()
	server := newAPIServer(t, rec, jsonHandler(http.StatusOK, `{"message":"not a list"}`))
	client := newTestClient(t, server.URL, tokens, pacer)

	_, err := client.FetchPlatforms(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTypeUpstream))
	assert.Contains(t, err.Error(), "not a JSON array")
}

func TestClient_TransportFailure(t *testing.T) {
	rec, tokens, pacer := fixture()
	server := newAPIServer(t, rec, jsonHandler(http.StatusOK, `[]`))
	url := server.URL
	server.Close()

	client := newTestClient(t, url, tokens, pacer)
	_, err := client.FetchPlatforms(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTypeUpstream))
	assert.Zero(t, errors.StatusOf(err))
}

func TestClient_Timeout(t *testing.T) {
	rec, tokens, pacer := fixture()
	release := make(chan struct{})
	server := newAPIServer(t, rec, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	client := newTestClient(t, server.URL, tokens, pacer, WithHTTPClient(&http.Client{Timeout: 50 * time.Millisecond}))

	result := client.Do(context.Background(), EndpointGames, SearchQuery("slow", 1))
	assert.Equal(t, TransportError, result.Outcome)

	err := result.Error()
	assert.True(t, errors.IsType(err, errors.ErrTypeUpstream))

	var appErr *errors.AppError
	require.ErrorAs(t, result.Err, &appErr)
	assert.Equal(t, errors.ErrTypeTimeout, appErr.Type)
}

func TestClient_PacerErrorStopsRequest(t *testing.T) {
	rec, tokens, pacer := fixture()
	pacer.err = context.Canceled
	server := newAPIServer(t, rec, jsonHandler(http.StatusOK, `[]`))
	client := newTestClient(t, server.URL, tokens, pacer)

	_, err := client.FetchPlatforms(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []string{"pace"}, rec.list())
}

func TestClient_Validation(t *testing.T) {
	rec, tokens, pacer := fixture()
	server := newAPIServer(t, rec, jsonHandler(http.StatusOK, `[]`))
	client := newTestClient(t, server.URL, tokens, pacer)
	ctx := context.Background()

	_, err := client.FetchUpcomingReleases(ctx, 0, 10, nil)
	assert.True(t, errors.IsType(err, errors.ErrTypeValidation))

	_, err = client.FetchUpcomingReleases(ctx, 10, 0, nil)
	assert.True(t, errors.IsType(err, errors.ErrTypeValidation))

	_, err = client.FetchUpcomingReleases(ctx, 10, 10, []int64{6, -1})
	assert.True(t, errors.IsType(err, errors.ErrTypeValidation))

	_, err = client.SearchByName(ctx, "  ", 10)
	assert.True(t, errors.IsType(err, errors.ErrTypeValidation))

	_, err = client.SearchByName(ctx, "halo", -3)
	assert.True(t, errors.IsType(err, errors.ErrTypeValidation))

	assert.Zero(t, server.calls.Load())
	assert.Empty(t, rec.list())
}

func TestNewClient_Validation(t *testing.T) {
	_, tokens, pacer := fixture()

	_, err := NewClient(Config{}, tokens, pacer)
	assert.True(t, errors.IsType(err, errors.ErrTypeConfig))

	_, err = NewClient(Config{ClientID: "x"}, nil, pacer)
	assert.Error(t, err)

	_, err = NewClient(Config{ClientID: "x"}, tokens, nil)
	assert.Error(t, err)

	c, err := NewClient(Config{ClientID: "x", BaseURL: "http://example.com/v4/"}, tokens, pacer)
	require.NoError(t, err)
	assert.Equal(t, "http://example.com/v4", c.config.BaseURL)
	assert.Equal(t, DefaultTimeout, c.httpClient.Timeout)
}

// The following run the client against the real token manager and limiter.

func TestClient_ExpiredTokenRefreshedBeforeQuery(t *testing.T) {
	rec := &recorder{}
	clock := clockwork.NewFakeClockAt(time.Now())

	var tokenCalls atomic.Int64
	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := tokenCalls.Add(1)
		rec.add("token endpoint")
		_ = json.NewEncoder(w).Encode(oauth2.TokenResponse{AccessToken: fmt.Sprintf("t%d", n), ExpiresIn: 3600})
	}))
	defer tokenServer.Close()

	var seenTokens []string
	var mu sync.Mutex
	api := newAPIServer(t, rec, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		seenTokens = append(seenTokens, r.Header.Get("Authorization"))
		mu.Unlock()
		_, _ = w.Write([]byte(`[]`))
	})

	manager, err := oauth2.NewManager(oauth2.Config{
		Credentials: oauth2.Credentials{ClientID: "client-id", ClientSecret: "secret"},
		TokenURL:    tokenServer.URL,
	}, oauth2.WithClock(clock))
	require.NoError(t, err)

	limiter, err := ratelimit.NewIntervalLimiter(ratelimit.Config{RequestsPerSecond: 1000, Enabled: true})
	require.NoError(t, err)

	client := newTestClient(t, api.URL, manager, limiter, WithClock(clock))
	ctx := context.Background()

	_, err = client.FetchPlatforms(ctx)
	require.NoError(t, err)
	_, err = client.FetchPlatforms(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), tokenCalls.Load())

	clock.Advance(3300 * time.Second)
	_, err = client.FetchPlatforms(ctx)
	require.NoError(t, err)

	assert.Equal(t, int64(2), tokenCalls.Load())
	assert.Equal(t, []string{
		"token endpoint", "request /platforms",
		"request /platforms",
		"token endpoint", "request /platforms",
	}, rec.list())
	assert.Equal(t, []string{"Bearer t1", "Bearer t1", "Bearer t2"}, seenTokens)
}

func TestClient_SharedLimiterSpacesAllQueryKinds(t *testing.T) {
	rec := &recorder{}
	var mu sync.Mutex
	var starts []time.Time
	api := newAPIServer(t, rec, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		starts = append(starts, time.Now())
		mu.Unlock()
		_, _ = w.Write([]byte(`[]`))
	})

	limiter, err := ratelimit.NewIntervalLimiter(ratelimit.Config{RequestsPerSecond: 20, Enabled: true})
	require.NoError(t, err)
	tokens := &fakeTokens{rec: &recorder{}, token: "abc"}
	client := newTestClient(t, api.URL, tokens, limiter)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(3)
		go func() { defer wg.Done(); _, _ = client.FetchPlatforms(ctx) }()
		go func() { defer wg.Done(); _, _ = client.SearchByName(ctx, "halo", 5) }()
		go func() { defer wg.Done(); _, _ = client.FetchUpcomingReleases(ctx, 30, 5, nil) }()
	}
	wg.Wait()

	require.Len(t, starts, 6)
	first, last := starts[0], starts[0]
	for _, s := range starts {
		if s.Before(first) {
			first = s
		}
		if s.After(last) {
			last = s
		}
	}
	// five gaps of 50ms between six request starts, minus scheduling jitter
	assert.GreaterOrEqual(t, last.Sub(first), 200*time.Millisecond)
}

func TestOutcome_String(t *testing.T) {
	assert.Equal(t, "success", Success.String())
	assert.Equal(t, "rate_limited", RateLimited.String())
	assert.Equal(t, "auth_failed", AuthFailed.String())
	assert.Equal(t, "transport_error", TransportError.String())
	assert.Equal(t, "unknown", Outcome(42).String())
	assert.NoError(t, Result{Outcome: Success}.Error())
}
