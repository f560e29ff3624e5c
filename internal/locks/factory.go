package locks

import (
	"game-release-tracker/internal/redis"
)

// NewLocker returns a RedsyncManager when redisClient is set and a
// LocalManager otherwise
func NewLocker(redisClient *redis.Client) Locker {
	if redisClient == nil {
		return NewLocalManager()
	}
	manager, err := NewRedsyncManager(redisClient)
	if err != nil {
		return NewLocalManager()
	}
	return manager
}
