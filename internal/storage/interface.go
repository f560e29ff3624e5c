package storage

import (
	"context"
	"time"

	"game-release-tracker/internal/models"
)

// Store persists the catalog between upstream fetches
type Store interface {
	// SaveGames upserts games by id and stamps last_updated. It returns the
	// number of games written.
	SaveGames(ctx context.Context, games []models.Game) (int, error)

	// UpcomingGames returns games whose first release date falls within
	// [from, to], earliest first. When platformIDs is non-empty only games on
	// at least one of those platforms are returned.
	UpcomingGames(ctx context.Context, from, to time.Time, platformIDs []int64, limit int) ([]models.Game, error)

	SavePlatforms(ctx context.Context, platforms []models.Platform) (int, error)

	// Platforms returns every stored platform sorted by name
	Platforms(ctx context.Context) ([]models.Platform, error)

	// MigrationVersion reports the applied schema version
	MigrationVersion(ctx context.Context) (int64, error)

	Health(ctx context.Context) error
	Close() error
}

type StoreConfig interface {
	Validate() error
	GetType() string
	GetConnectionString() string
}

type StoreFactory interface {
	Create(config StoreConfig) (Store, error)
	GetType() string
}

// GenericConfig is a map-based StoreConfig that backend factories convert
// into their own typed configuration
type GenericConfig map[string]interface{}

func (gc GenericConfig) Validate() error {
	return nil
}

func (gc GenericConfig) GetType() string {
	if t, ok := gc["type"].(string); ok {
		return t
	}
	return "unknown"
}

func (gc GenericConfig) GetConnectionString() string {
	if cs, ok := gc["connection_string"].(string); ok {
		return cs
	}
	return ""
}

// String returns the value stored under key, or "" when absent
func (gc GenericConfig) String(key string) string {
	s, _ := gc[key].(string)
	return s
}
