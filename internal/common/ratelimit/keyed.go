package ratelimit

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/time/rate"
)

// KeyedLimiter keeps one token bucket per key, used to protect the public API
// from individual clients.
type KeyedLimiter struct {
	mu       sync.Mutex
	config   Config
	clock    clockwork.Clock
	limiters map[string]*limiterEntry

	lastCleanup time.Time
	rejected    int64
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastUsed time.Time
}

// NewKeyedLimiter creates a per-key limiter using golang.org/x/time/rate
func NewKeyedLimiter(config Config, opts ...Option) (*KeyedLimiter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	o := applyOptions(opts)
	return &KeyedLimiter{
		config:      config,
		clock:       o.clock,
		limiters:    make(map[string]*limiterEntry),
		lastCleanup: o.clock.Now(),
	}, nil
}

// TryAcquireForKey reports whether a request for key may proceed now
func (kl *KeyedLimiter) TryAcquireForKey(key string) bool {
	if !kl.config.Enabled {
		return true
	}

	kl.mu.Lock()
	defer kl.mu.Unlock()

	now := kl.clock.Now()
	if now.Sub(kl.lastCleanup) > kl.config.CleanupPeriod {
		kl.cleanup(now)
	}

	entry, exists := kl.limiters[key]
	if !exists {
		entry = &limiterEntry{
			limiter: rate.NewLimiter(rate.Limit(kl.config.RequestsPerSecond), kl.config.BurstSize),
		}
		kl.limiters[key] = entry

		if len(kl.limiters) > kl.config.MaxKeys {
			kl.cleanup(now)
		}
	}
	entry.lastUsed = now

	if !entry.limiter.AllowN(now, 1) {
		kl.rejected++
		return false
	}
	return true
}

// cleanup removes limiters that haven't been used recently
func (kl *KeyedLimiter) cleanup(now time.Time) {
	cutoff := now.Add(-kl.config.CleanupPeriod)

	for key, entry := range kl.limiters {
		if entry.lastUsed.Before(cutoff) {
			delete(kl.limiters, key)
		}
	}

	kl.lastCleanup = now
}

// Stats returns limiter statistics
func (kl *KeyedLimiter) Stats() map[string]interface{} {
	kl.mu.Lock()
	defer kl.mu.Unlock()

	return map[string]interface{}{
		"type":                "keyed",
		"enabled":             kl.config.Enabled,
		"requests_per_second": kl.config.RequestsPerSecond,
		"burst_size":          kl.config.BurstSize,
		"active_keys":         len(kl.limiters),
		"max_keys":            kl.config.MaxKeys,
		"rejected":            kl.rejected,
		"last_cleanup":        kl.lastCleanup.Format(time.RFC3339),
	}
}

var _ KeyLimiter = (*KeyedLimiter)(nil)
