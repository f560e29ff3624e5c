package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyedLimiter_PerKeyBuckets(t *testing.T) {
	clock := clockwork.NewFakeClock()
	kl, err := NewKeyedLimiter(Config{RequestsPerSecond: 2, BurstSize: 2, Enabled: true}, WithClock(clock))
	require.NoError(t, err)

	assert.True(t, kl.TryAcquireForKey("10.0.0.1"))
	assert.True(t, kl.TryAcquireForKey("10.0.0.1"))
	assert.False(t, kl.TryAcquireForKey("10.0.0.1"))
	assert.True(t, kl.TryAcquireForKey("10.0.0.2"))

	clock.Advance(time.Second)
	assert.True(t, kl.TryAcquireForKey("10.0.0.1"))

	stats := kl.Stats()
	assert.Equal(t, 2, stats["active_keys"])
	assert.Equal(t, int64(1), stats["rejected"])
}

func TestKeyedLimiter_CleanupIdleKeys(t *testing.T) {
	clock := clockwork.NewFakeClock()
	kl, err := NewKeyedLimiter(Config{
		RequestsPerSecond: 1,
		Enabled:           true,
		CleanupPeriod:     time.Minute,
	}, WithClock(clock))
	require.NoError(t, err)

	kl.TryAcquireForKey("a")
	clock.Advance(2 * time.Minute)
	kl.TryAcquireForKey("b")

	assert.Equal(t, 1, kl.Stats()["active_keys"])
}

func TestKeyedLimiter_Disabled(t *testing.T) {
	kl, err := NewKeyedLimiter(Config{Enabled: false})
	require.NoError(t, err)
	for i := 0; i < 100; i++ {
		assert.True(t, kl.TryAcquireForKey("k"))
	}
}

func TestHTTPMiddleware(t *testing.T) {
	kl, err := NewKeyedLimiter(Config{RequestsPerSecond: 1, BurstSize: 1, Enabled: true}, WithClock(clockwork.NewFakeClock()))
	require.NoError(t, err)

	handler := HTTPMiddleware(kl, IPKey)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/games/upcoming", nil)
	req.RemoteAddr = "192.168.1.10:5555"

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
	assert.Equal(t, "1", rec.Header().Get("X-RateLimit-Limit"))
	assert.JSONEq(t, `{"error":"rate limit exceeded"}`, rec.Body.String())
}

func TestIPKey(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"remote addr v4", nil, "10.1.2.3:4000", "10.1.2.3"},
		{"remote addr v6", nil, "[::1]:4000", "::1"},
		{"no port", nil, "10.1.2.3", "10.1.2.3"},
		{"forwarded for", map[string]string{"X-Forwarded-For": "203.0.113.5, 10.0.0.1"}, "10.0.0.1:80", "203.0.113.5"},
		{"real ip", map[string]string{"X-Real-IP": "198.51.100.7"}, "10.0.0.1:80", "198.51.100.7"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, IPKey(req))
		})
	}
}
