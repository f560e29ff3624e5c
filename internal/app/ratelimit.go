package app

import (
	"fmt"

	"game-release-tracker/internal/common/logging"
	"game-release-tracker/internal/common/ratelimit"
)

// initializeOutboundLimiter creates the pacer shared by every catalog API
// request. The redis backend falls back to a local limiter when Redis is
// unavailable.
func (app *App) initializeOutboundLimiter() error {
	limiterConfig := ratelimit.Config{
		RequestsPerSecond: app.Config.RequestsPerSecond,
		Enabled:           true,
		Type:              ratelimit.BackendType(app.Config.OutboundLimiter),
		KeyPrefix:         "ratelimit:",
	}

	var reserver ratelimit.SlotReserver
	if app.RedisClient != nil {
		reserver = app.RedisClient
	} else if limiterConfig.Type == ratelimit.BackendRedis {
		app.Logger.Warn("Redis unavailable, using a local outbound rate limiter")
		limiterConfig.Type = ratelimit.BackendLocal
	}

	limiter, err := ratelimit.New(limiterConfig, reserver)
	if err != nil {
		return fmt.Errorf("failed to initialize rate limiter: %w", err)
	}

	app.Limiter = limiter
	app.Logger.Info("Outbound Rate Limiting: Enabled",
		logging.Float64("requests_per_second", limiterConfig.RequestsPerSecond),
		logging.String("backend", string(limiterConfig.Type)),
	)
	return nil
}

// InitializeInboundLimiter creates the per-IP limiter for the HTTP API, or
// nil when inbound limiting is disabled
func (app *App) InitializeInboundLimiter() ratelimit.KeyLimiter {
	if !app.Config.RateLimitEnabled {
		return nil
	}

	limiter, err := ratelimit.NewKeyedLimiter(ratelimit.Config{
		RequestsPerSecond: app.Config.RateLimitRPS,
		BurstSize:         app.Config.RateLimitBurst,
		Enabled:           true,
		Type:              ratelimit.BackendLocal,
		KeyPrefix:         "api:",
	})
	if err != nil {
		app.Logger.Warn("Inbound rate limiting disabled", logging.Err(err))
		return nil
	}

	app.Logger.Info("Inbound Rate Limiting: Enabled",
		logging.Float64("requests_per_second", app.Config.RateLimitRPS),
		logging.Int("burst", app.Config.RateLimitBurst),
	)
	return limiter
}
