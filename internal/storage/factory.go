package storage

import (
	"fmt"

	"game-release-tracker/internal/common/errors"
	"game-release-tracker/internal/config"
)

// NewStore creates the store selected by DATABASE_TYPE. The backend package
// must be linked in so its factory is registered.
func NewStore(cfg *config.Config) (Store, error) {
	var storeConfig StoreConfig

	switch cfg.DatabaseType {
	case "sqlite":
		storeConfig = GenericConfig{
			"path": cfg.DatabasePath,
		}

	case "postgres":
		storeConfig = GenericConfig{
			"host":     cfg.PostgresHost,
			"port":     cfg.PostgresPort,
			"database": cfg.PostgresDB,
			"username": cfg.PostgresUser,
			"password": cfg.PostgresPassword,
			"sslmode":  cfg.PostgresSSLMode,
		}

	default:
		return nil, errors.ConfigError(fmt.Sprintf("unsupported database type: %s", cfg.DatabaseType))
	}

	if !DefaultRegistry.IsRegistered(cfg.DatabaseType) {
		return nil, errors.ConfigError(fmt.Sprintf("storage backend %s is not linked", cfg.DatabaseType))
	}

	return Create(cfg.DatabaseType, storeConfig)
}
