package ratelimit

import (
	"fmt"
	"net"
	"net/http"
	"strings"
)

// OutboundKey names the shared slot stream for catalog API requests
const OutboundKey = "igdb:outbound"

// New creates the outbound limiter selected by config.Type. The redis backend
// requires a SlotReserver.
func New(config Config, reserver SlotReserver, opts ...Option) (Limiter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case BackendLocal:
		return NewIntervalLimiter(config, opts...)
	case BackendRedis:
		if reserver == nil {
			return nil, fmt.Errorf("redis client is required for distributed rate limiter")
		}
		return NewDistributedIntervalLimiter(config, OutboundKey, reserver, opts...)
	default:
		return nil, fmt.Errorf("unsupported rate limiter backend type: %s", config.Type)
	}
}

// HTTPMiddleware rejects requests with 429 once their key exceeds the limit
func HTTPMiddleware(limiter KeyLimiter, keyFunc func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.TryAcquireForKey(keyFunc(r)) {
				if rps, ok := limiter.Stats()["requests_per_second"].(float64); ok {
					w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%g", rps))
				}
				w.Header().Set("X-RateLimit-Remaining", "0")
				w.Header().Set("Retry-After", "1")
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte(`{"error":"rate limit exceeded"}`))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// IPKey extracts the client IP, preferring proxy headers
func IPKey(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first := strings.TrimSpace(strings.Split(fwd, ",")[0])
		if first != "" {
			return first
		}
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
