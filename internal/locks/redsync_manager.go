package locks

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v8"
	"game-release-tracker/internal/common/errors"
	"game-release-tracker/internal/common/logging"
	"game-release-tracker/internal/redis"
)

// RedsyncManager implements Locker with the Redlock algorithm from
// go-redsync/redsync/v4, so a lock is exclusive across every instance that
// shares the Redis server.
type RedsyncManager struct {
	redsync    *redsync.Redsync
	localLocks map[string]*RedsyncLock
	mutex      sync.Mutex
	logger     logging.Logger
}

// RedsyncLock wraps a redsync.Mutex and renews it in the background
type RedsyncLock struct {
	mutex      *redsync.Mutex
	key        string
	expiration time.Duration
	acquired   time.Time
	ctx        context.Context
	cancel     context.CancelFunc
	once       sync.Once
	manager    *RedsyncManager
}

// NewRedsyncManager creates a distributed lock manager on a connected client
func NewRedsyncManager(redisClient *redis.Client) (*RedsyncManager, error) {
	if redisClient == nil {
		return nil, errors.ConfigError("redis client is required")
	}

	pool := goredis.NewPool(redisClient.GetGoRedisClient())

	return &RedsyncManager{
		redsync:    redsync.New(pool),
		localLocks: make(map[string]*RedsyncLock),
		logger:     logging.GetGlobalLogger().WithFields(logging.String("component", "locks")),
	}, nil
}

// TryAcquire makes a single attempt on key. A lock owned by another holder
// yields ErrLockHeld; Redis failures yield a connection error.
func (rm *RedsyncManager) TryAcquire(ctx context.Context, key string, expiration time.Duration) (Lock, error) {
	mutex := rm.redsync.NewMutex(fmt.Sprintf("lock:%s", key), redsync.WithExpiry(expiration), redsync.WithTries(1))

	if err := mutex.TryLockContext(ctx); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if isTaken(err) {
			return nil, ErrLockHeld
		}
		return nil, errors.ConnectionError("failed to acquire distributed lock", err)
	}

	lockCtx, cancel := context.WithCancel(context.Background())
	lock := &RedsyncLock{
		mutex:      mutex,
		key:        key,
		expiration: expiration,
		acquired:   time.Now(),
		ctx:        lockCtx,
		cancel:     cancel,
		manager:    rm,
	}

	rm.mutex.Lock()
	rm.localLocks[key] = lock
	rm.mutex.Unlock()

	go rm.renewLock(lock)

	return lock, nil
}

func isTaken(err error) bool {
	if stderrors.Is(err, redsync.ErrFailed) {
		return true
	}
	var taken *redsync.ErrTaken
	return stderrors.As(err, &taken)
}

// renewLock extends the lock until it is released. A failed extension means
// the lock was lost, so it is released locally.
func (rm *RedsyncManager) renewLock(lock *RedsyncLock) {
	ticker := time.NewTicker(renewInterval(lock.expiration))
	defer ticker.Stop()

	for {
		select {
		case <-lock.ctx.Done():
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			ok, err := lock.mutex.ExtendContext(ctx)
			cancel()

			if err != nil || !ok {
				rm.logger.Warn("Lost distributed lock", logging.String("key", lock.key), logging.Err(err))
				_ = lock.Release(context.Background())
				return
			}
		}
	}
}

// Close releases every lock held through this manager
func (rm *RedsyncManager) Close() error {
	rm.mutex.Lock()
	locks := make([]*RedsyncLock, 0, len(rm.localLocks))
	for _, lock := range rm.localLocks {
		locks = append(locks, lock)
	}
	rm.mutex.Unlock()

	for _, lock := range locks {
		_ = lock.Release(context.Background())
	}
	return nil
}

func (rl *RedsyncLock) Key() string {
	return rl.key
}

// Release stops renewal and deletes the lock in Redis
func (rl *RedsyncLock) Release(ctx context.Context) error {
	var err error
	rl.once.Do(func() {
		rl.cancel()

		rl.manager.mutex.Lock()
		if rl.manager.localLocks[rl.key] == rl {
			delete(rl.manager.localLocks, rl.key)
		}
		rl.manager.mutex.Unlock()

		unlockCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if _, unlockErr := rl.mutex.UnlockContext(unlockCtx); unlockErr != nil && !isTaken(unlockErr) {
			err = errors.ConnectionError("failed to release distributed lock", unlockErr)
		}
	})
	return err
}

func (rl *RedsyncLock) IsHeld() bool {
	select {
	case <-rl.ctx.Done():
		return false
	default:
		return true
	}
}

var _ Locker = (*LocalManager)(nil)
var _ Locker = (*RedsyncManager)(nil)
