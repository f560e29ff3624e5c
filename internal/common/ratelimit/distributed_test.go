package ratelimit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryReserver mirrors the Redis script: slot = max(now, next), next = slot + interval
type memoryReserver struct {
	mu   sync.Mutex
	next map[string]time.Time
	err  error
}

func newMemoryReserver() *memoryReserver {
	return &memoryReserver{next: make(map[string]time.Time)}
}

func (m *memoryReserver) ReserveSlot(_ context.Context, key string, now time.Time, interval time.Duration) (time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return time.Time{}, m.err
	}
	slot := now
	if next, ok := m.next[key]; ok && next.After(now) {
		slot = next
	}
	m.next[key] = slot.Add(interval)
	return slot, nil
}

func (m *memoryReserver) Health() error { return m.err }

func TestDistributedIntervalLimiter_SharedSpacing(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	clock := clockwork.NewFakeClock()
	reserver := newMemoryReserver()
	cfg := Config{RequestsPerSecond: 4, Enabled: true, Type: BackendRedis}

	// two instances sharing one Redis key
	a, err := NewDistributedIntervalLimiter(cfg, OutboundKey, reserver, WithClock(clock))
	require.NoError(t, err)
	b, err := NewDistributedIntervalLimiter(cfg, OutboundKey, reserver, WithClock(clock))
	require.NoError(t, err)

	start := clock.Now()
	require.NoError(t, a.Wait(ctx))

	done := waitAsync(ctx, b)
	require.NoError(t, clock.BlockUntilContext(ctx, 1))
	clock.Advance(250 * time.Millisecond)
	require.NoError(t, <-done)

	assert.Equal(t, 250*time.Millisecond, clock.Now().Sub(start))
	assert.Equal(t, int64(1), b.Stats()["acquired"])
	assert.Equal(t, "ratelimit:"+OutboundKey, b.Stats()["key"])
}

func TestDistributedIntervalLimiter_ReserverError(t *testing.T) {
	reserver := newMemoryReserver()
	reserver.err = errors.New("connection refused")

	l, err := NewDistributedIntervalLimiter(Config{Enabled: true, Type: BackendRedis}, OutboundKey, reserver)
	require.NoError(t, err)

	err = l.Wait(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
	assert.Equal(t, int64(1), l.Stats()["redis_failures"])
	assert.Error(t, l.Health())
}

func TestNew_SelectsBackend(t *testing.T) {
	local, err := New(Config{Enabled: true}, nil)
	require.NoError(t, err)
	assert.IsType(t, &IntervalLimiter{}, local)

	distributed, err := New(Config{Enabled: true, Type: BackendRedis}, newMemoryReserver())
	require.NoError(t, err)
	assert.IsType(t, &DistributedIntervalLimiter{}, distributed)

	_, err = New(Config{Enabled: true, Type: BackendRedis}, nil)
	assert.Error(t, err)
}
