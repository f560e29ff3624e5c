package locks

import (
	"context"
	"sync"
	"time"
)

// LocalManager is an in-process Locker used when Redis is not configured
type LocalManager struct {
	mu   sync.Mutex
	held map[string]*localLock
}

type localLock struct {
	key     string
	manager *LocalManager
	once    sync.Once
	done    chan struct{}
}

func NewLocalManager() *LocalManager {
	return &LocalManager{held: make(map[string]*localLock)}
}

// TryAcquire takes key if no one holds it. Local locks never expire, so
// expiration is ignored.
func (m *LocalManager) TryAcquire(ctx context.Context, key string, expiration time.Duration) (Lock, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, taken := m.held[key]; taken {
		return nil, ErrLockHeld
	}

	lock := &localLock{key: key, manager: m, done: make(chan struct{})}
	m.held[key] = lock
	return lock, nil
}

// Close releases every held lock
func (m *LocalManager) Close() error {
	m.mu.Lock()
	locks := make([]*localLock, 0, len(m.held))
	for _, l := range m.held {
		locks = append(locks, l)
	}
	m.mu.Unlock()

	for _, l := range locks {
		_ = l.Release(context.Background())
	}
	return nil
}

func (l *localLock) Key() string {
	return l.key
}

func (l *localLock) Release(ctx context.Context) error {
	l.once.Do(func() {
		l.manager.mu.Lock()
		if l.manager.held[l.key] == l {
			delete(l.manager.held, l.key)
		}
		l.manager.mu.Unlock()
		close(l.done)
	})
	return nil
}

func (l *localLock) IsHeld() bool {
	select {
	case <-l.done:
		return false
	default:
		return true
	}
}
