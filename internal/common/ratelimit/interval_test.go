package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func waitAsync(ctx context.Context, l Limiter) <-chan error {
	done := make(chan error, 1)
	go func() { done <- l.Wait(ctx) }()
	return done
}

func newFakeIntervalLimiter(t require.TestingT, rps float64) (*IntervalLimiter, *clockwork.FakeClock) {
	clock := clockwork.NewFakeClock()
	l, err := NewIntervalLimiter(Config{RequestsPerSecond: rps, Enabled: true}, WithClock(clock))
	require.NoError(t, err)
	return l, clock
}

func TestConfig_Interval(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, time.Duration(285714285), cfg.Interval())

	assert.Equal(t, 250*time.Millisecond, Config{RequestsPerSecond: 4}.Interval())
	assert.Zero(t, Config{}.Interval())
}

func TestConfig_Validate(t *testing.T) {
	cfg := Config{Enabled: true}
	require.NoError(t, cfg.Validate())
	assert.Equal(t, DefaultRequestsPerSecond, cfg.RequestsPerSecond)
	assert.Equal(t, 3, cfg.BurstSize)
	assert.Equal(t, BackendLocal, cfg.Type)
	assert.Equal(t, 10000, cfg.MaxKeys)

	redisCfg := Config{Enabled: true, Type: BackendRedis}
	require.NoError(t, redisCfg.Validate())
	assert.Equal(t, "ratelimit:", redisCfg.KeyPrefix)

	bad := Config{Enabled: true, RequestsPerSecond: -1}
	assert.Error(t, bad.Validate())

	unknown := Config{Enabled: true, Type: "memcached"}
	assert.Error(t, unknown.Validate())

	disabled := Config{RequestsPerSecond: -1}
	assert.NoError(t, disabled.Validate())
}

func TestIntervalLimiter_FirstCallImmediate(t *testing.T) {
	l, _ := newFakeIntervalLimiter(t, 4)
	require.NoError(t, l.Wait(context.Background()))
	assert.Equal(t, int64(1), l.Stats()["acquired"])
}

func TestIntervalLimiter_WaitsRemainingInterval(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	l, clock := newFakeIntervalLimiter(t, 4)
	start := clock.Now()
	require.NoError(t, l.Wait(ctx))

	clock.Advance(100 * time.Millisecond)
	done := waitAsync(ctx, l)

	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	clock.Advance(150 * time.Millisecond)

	require.NoError(t, <-done)
	assert.Equal(t, 250*time.Millisecond, clock.Now().Sub(start))
	assert.Equal(t, int64(150), l.Stats()["total_wait_ms"])
}

func TestIntervalLimiter_NoWaitAfterInterval(t *testing.T) {
	l, clock := newFakeIntervalLimiter(t, 4)
	require.NoError(t, l.Wait(context.Background()))

	clock.Advance(time.Second)
	require.NoError(t, l.Wait(context.Background()))
	assert.Equal(t, int64(0), l.Stats()["total_wait_ms"])
}

func TestIntervalLimiter_ContextCancelled(t *testing.T) {
	bg, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()

	l, clock := newFakeIntervalLimiter(t, 4)
	require.NoError(t, l.Wait(bg))

	ctx, cancel := context.WithCancel(bg)
	done := waitAsync(ctx, l)
	require.NoError(t, clock.BlockUntilContext(bg, 1))
	cancel()

	assert.ErrorIs(t, <-done, context.Canceled)
	assert.Equal(t, int64(1), l.Stats()["acquired"])

	already, cancelNow := context.WithCancel(bg)
	cancelNow()
	assert.ErrorIs(t, l.Wait(already), context.Canceled)
}

func TestIntervalLimiter_ConcurrentCallersSerialized(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	l, clock := newFakeIntervalLimiter(t, 4)
	require.NoError(t, l.Wait(ctx))

	const callers = 3
	var (
		mu     sync.Mutex
		starts []time.Time
		wg     sync.WaitGroup
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := l.Wait(ctx); err == nil {
				mu.Lock()
				starts = append(starts, clock.Now())
				mu.Unlock()
			}
		}()
	}

	// only the lock holder sleeps, so exactly one timer is pending at a time
	for i := 0; i < callers; i++ {
		require.NoError(t, clock.BlockUntilContext(ctx, 1))
		clock.Advance(250 * time.Millisecond)
	}
	wg.Wait()

	require.Len(t, starts, callers)
	assert.Equal(t, int64(callers+1), l.Stats()["acquired"])
}

func TestIntervalLimiter_Disabled(t *testing.T) {
	l, err := NewIntervalLimiter(Config{Enabled: false})
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		require.NoError(t, l.Wait(context.Background()))
	}
}

func TestIntervalLimiter_RealClockSpacing(t *testing.T) {
	l, err := NewIntervalLimiter(Config{RequestsPerSecond: 50, Enabled: true})
	require.NoError(t, err)

	start := time.Now()
	for i := 0; i < 5; i++ {
		require.NoError(t, l.Wait(context.Background()))
	}
	assert.GreaterOrEqual(t, time.Since(start), 80*time.Millisecond)
}

func TestIntervalLimiter_SpacingProperty(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		rps := rapid.Float64Range(0.5, 20).Draw(rt, "rps")
		gaps := rapid.SliceOfN(rapid.Int64Range(0, 2000), 1, 20).Draw(rt, "gaps_ms")

		l, clock := newFakeIntervalLimiter(rt, rps)
		interval := l.interval

		var prev time.Time
		for _, gap := range gaps {
			clock.Advance(time.Duration(gap) * time.Millisecond)
			done := waitAsync(ctx, l)

			if !prev.IsZero() {
				if elapsed := clock.Now().Sub(prev); elapsed < interval {
					if err := clock.BlockUntilContext(ctx, 1); err != nil {
						rt.Fatalf("limiter did not block: %v", err)
					}
					clock.Advance(interval - elapsed)
				}
			}

			if err := <-done; err != nil {
				rt.Fatalf("wait: %v", err)
			}
			start := clock.Now()
			if !prev.IsZero() && start.Sub(prev) < interval {
				rt.Fatalf("starts %v apart, want >= %v", start.Sub(prev), interval)
			}
			prev = start
		}
	})
}
