package circuitbreaker

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"game-release-tracker/internal/common/errors"
	"game-release-tracker/internal/common/logging"
)

func testConfig() Config {
	return Config{
		MaxFailures:           3,
		Timeout:               50 * time.Millisecond,
		MaxConcurrentRequests: 1,
	}
}

func TestGoBreakerAdapter(t *testing.T) {
	logger := logging.GetGlobalLogger()

	t.Run("starts closed and passes results through", func(t *testing.T) {
		cb := NewGoBreaker("test-basic", testConfig(), logger)
		assert.Equal(t, StateClosed, cb.State())

		assert.NoError(t, cb.Execute(context.Background(), func() error { return nil }))

		boom := fmt.Errorf("boom")
		assert.Equal(t, boom, cb.Execute(context.Background(), func() error { return boom }))
		assert.Equal(t, StateClosed, cb.State())
	})

	t.Run("opens after consecutive failures", func(t *testing.T) {
		cb := NewGoBreaker("test-open", testConfig(), logger)

		for i := 0; i < 3; i++ {
			_ = cb.Execute(context.Background(), func() error {
				return errors.AuthError("token request failed", nil)
			})
		}

		require.True(t, cb.IsOpen())

		called := false
		err := cb.Execute(context.Background(), func() error {
			called = true
			return nil
		})
		assert.False(t, called)
		assert.True(t, IsRejection(err))
		assert.True(t, errors.IsType(err, errors.ErrTypeConnection))
		assert.Contains(t, err.Error(), "circuit breaker 'test-open' is open")
	})

	t.Run("half-open probe closes the circuit", func(t *testing.T) {
		cb := NewGoBreaker("test-recover", testConfig(), logger)
		for i := 0; i < 3; i++ {
			_ = cb.Execute(context.Background(), func() error { return fmt.Errorf("down") })
		}
		require.Equal(t, StateOpen, cb.State())

		time.Sleep(80 * time.Millisecond)
		assert.Equal(t, StateHalfOpen, cb.State())

		require.NoError(t, cb.Execute(context.Background(), func() error { return nil }))
		assert.Equal(t, StateClosed, cb.State())
	})

	t.Run("client errors do not trip", func(t *testing.T) {
		cb := NewGoBreaker("test-client-errors", testConfig(), logger)
		for i := 0; i < 10; i++ {
			_ = cb.Execute(context.Background(), func() error {
				return errors.ValidationError("bad input")
			})
		}
		assert.Equal(t, StateClosed, cb.State())
		assert.Equal(t, 0, cb.Stats().ConsecutiveFailures)
	})

	t.Run("cancelled context skips the call", func(t *testing.T) {
		cb := NewGoBreaker("test-ctx", testConfig(), logger)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		called := false
		err := cb.Execute(ctx, func() error {
			called = true
			return nil
		})
		assert.ErrorIs(t, err, context.Canceled)
		assert.False(t, called)
	})

	t.Run("invalid config falls back to defaults", func(t *testing.T) {
		cb := NewGoBreaker("test-invalid", Config{}, nil)
		for i := 0; i < 4; i++ {
			_ = cb.Execute(context.Background(), func() error { return fmt.Errorf("x") })
		}
		assert.Equal(t, StateClosed, cb.State())

		stats := cb.Stats()
		assert.Equal(t, "test-invalid", stats.Name)
		assert.Equal(t, "closed", stats.State)
		assert.Equal(t, 4, stats.Failures)
	})
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "closed", StateClosed.String())
	assert.Equal(t, "open", StateOpen.String())
	assert.Equal(t, "half-open", StateHalfOpen.String())
	assert.Equal(t, "unknown", State(9).String())
}
