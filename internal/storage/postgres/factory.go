package postgres

import (
	"context"
	"fmt"

	"game-release-tracker/internal/storage"
)

type Factory struct{}

func (f *Factory) Create(config storage.StoreConfig) (storage.Store, error) {
	switch cfg := config.(type) {
	case *Config:
		return NewAdapter(context.Background(), cfg)
	case storage.GenericConfig:
		return NewAdapter(context.Background(), NewConfigFromGeneric(cfg))
	default:
		return nil, fmt.Errorf("invalid config type for PostgreSQL storage")
	}
}

func (f *Factory) GetType() string {
	return "postgres"
}

func init() {
	storage.Register("postgres", &Factory{})
}
