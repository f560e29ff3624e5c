package sqlite

import (
	"fmt"
	"os"
	"path/filepath"
)

type Config struct {
	DatabasePath string
}

// Validate checks the path and creates its parent directory when missing
func (c *Config) Validate() error {
	if c.DatabasePath == "" {
		return fmt.Errorf("database path is required")
	}
	if c.DatabasePath == ":memory:" {
		return nil
	}

	dir := filepath.Dir(c.DatabasePath)
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create database directory: %w", err)
	}
	return nil
}

func (c *Config) GetType() string {
	return "sqlite"
}

// GetConnectionString returns the DSN with foreign keys and a busy timeout
// enabled
func (c *Config) GetConnectionString() string {
	return fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000", c.DatabasePath)
}

func DefaultConfig() *Config {
	return &Config{
		DatabasePath: "./data/game_releases.db",
	}
}
