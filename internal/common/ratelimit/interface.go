package ratelimit

import (
	"context"
	"time"
)

// Limiter paces a single stream of requests
type Limiter interface {
	// Wait blocks until the caller may start its request or ctx is done
	Wait(ctx context.Context) error

	Stats() map[string]interface{}
	Health() error
}

// KeyLimiter admits or rejects requests per key without blocking
type KeyLimiter interface {
	TryAcquireForKey(key string) bool
	Stats() map[string]interface{}
}

// SlotReserver is the minimal Redis surface the distributed limiter needs.
// ReserveSlot atomically returns max(now, next) for key and advances next by
// interval.
type SlotReserver interface {
	ReserveSlot(ctx context.Context, key string, now time.Time, interval time.Duration) (time.Time, error)
	Health() error
}
