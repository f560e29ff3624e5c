// Package locks provides exclusive locks for work that must not run twice at
// once, such as a catalog sync. With Redis configured the lock is shared by
// every instance via the Redlock implementation in go-redsync/redsync/v4;
// otherwise an in-process lock is used.
//
// Example usage:
//
//	locker := locks.NewLocker(redisClient) // nil client gives a local locker
//	defer locker.Close()
//
//	lock, err := locker.TryAcquire(ctx, "catalog-sync", 10*time.Minute)
//	if errors.Is(err, locks.ErrLockHeld) {
//		return // someone else is syncing
//	}
//	defer lock.Release(ctx)
package locks

import (
	"context"
	stderrors "errors"
	"time"
)

// ErrLockHeld is returned when the lock is owned by someone else
var ErrLockHeld = stderrors.New("lock already held")

// Lock is an acquired lock
type Lock interface {
	// Key returns the unique identifier for this lock.
	Key() string

	// Release gives the lock up and stops renewal. Releasing twice is a
	// no-op.
	Release(ctx context.Context) error

	// IsHeld reports whether this holder still owns the lock. It checks
	// local state only.
	IsHeld() bool
}

// Locker hands out exclusive locks by key
type Locker interface {
	// TryAcquire makes one attempt and returns ErrLockHeld when the key is
	// taken. Held locks are renewed until released.
	TryAcquire(ctx context.Context, key string, expiration time.Duration) (Lock, error)
	Close() error
}

// renewInterval renews at a third of the expiration, and never more often
// than once a second
func renewInterval(expiration time.Duration) time.Duration {
	interval := expiration / 3
	if interval < time.Second {
		interval = time.Second
	}
	return interval
}
