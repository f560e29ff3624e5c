// Package ratelimit paces outbound catalog requests and protects the public
// API from abusive clients.
//
// # Outbound pacing
//
// Outbound requests share one minimum-interval limiter. Every Wait call is
// admitted at least 1/RequestsPerSecond after the previous one:
//
//	limiter, err := ratelimit.New(ratelimit.DefaultConfig(), nil)
//	if err != nil {
//		return err
//	}
//	if err := limiter.Wait(ctx); err != nil {
//		return err
//	}
//
// With Type set to BackendRedis the spacing holds across processes. Each
// caller reserves the next slot with an atomic script and sleeps until it.
//
// # Inbound protection
//
// KeyedLimiter keeps a golang.org/x/time/rate bucket per key and plugs into
// HTTP handlers:
//
//	keyed, _ := ratelimit.NewKeyedLimiter(cfg)
//	router.Use(ratelimit.HTTPMiddleware(keyed, ratelimit.IPKey))
package ratelimit
