package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Option customizes a limiter
type Option func(*options)

type options struct {
	clock clockwork.Clock
}

// WithClock replaces the wall clock, mainly for tests
func WithClock(clock clockwork.Clock) Option {
	return func(o *options) {
		o.clock = clock
	}
}

func applyOptions(opts []Option) options {
	o := options{clock: clockwork.NewRealClock()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// IntervalLimiter enforces a minimum interval between consecutive request
// starts within one process. The mutex is held while sleeping so callers are
// admitted one at a time, in lock order.
type IntervalLimiter struct {
	mu       sync.Mutex
	config   Config
	interval time.Duration
	clock    clockwork.Clock

	last     time.Time
	acquired int64
	waited   time.Duration
}

// NewIntervalLimiter creates a local minimum-interval limiter
func NewIntervalLimiter(config Config, opts ...Option) (*IntervalLimiter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	o := applyOptions(opts)
	return &IntervalLimiter{
		config:   config,
		interval: config.Interval(),
		clock:    o.clock,
	}, nil
}

// Wait blocks until at least one interval has passed since the previous
// admitted request, then records the current time as the new start.
func (l *IntervalLimiter) Wait(ctx context.Context) error {
	if !l.config.Enabled {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	now := l.clock.Now()
	if !l.last.IsZero() {
		if elapsed := now.Sub(l.last); elapsed < l.interval {
			wait := l.interval - elapsed
			timer := l.clock.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.Chan():
			}
			l.waited += wait
			now = l.clock.Now()
		}
	}

	l.last = now
	l.acquired++
	return nil
}

// Stats returns limiter counters
func (l *IntervalLimiter) Stats() map[string]interface{} {
	l.mu.Lock()
	defer l.mu.Unlock()

	stats := map[string]interface{}{
		"type":                "local",
		"enabled":             l.config.Enabled,
		"requests_per_second": l.config.RequestsPerSecond,
		"interval_ms":         l.interval.Milliseconds(),
		"acquired":            l.acquired,
		"total_wait_ms":       l.waited.Milliseconds(),
	}
	if !l.last.IsZero() {
		stats["last_request"] = l.last.Format(time.RFC3339Nano)
	}
	return stats
}

// Health always succeeds for the in-process limiter
func (l *IntervalLimiter) Health() error {
	return nil
}

var _ Limiter = (*IntervalLimiter)(nil)
