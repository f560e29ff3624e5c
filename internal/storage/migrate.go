package storage

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"sync"

	"github.com/pressly/goose/v3"
	"game-release-tracker/internal/common/logging"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrationFiles embed.FS

// goose keeps its dialect and filesystem in package state
var migrationMu sync.Mutex

type gooseLogger struct {
	logger logging.Logger
}

func (g gooseLogger) Printf(format string, v ...interface{}) {
	g.logger.Info(fmt.Sprintf(format, v...))
}

func (g gooseLogger) Fatalf(format string, v ...interface{}) {
	g.logger.Error(fmt.Sprintf(format, v...), nil)
}

func dialectDir(dialect string) (string, error) {
	switch dialect {
	case "sqlite3":
		return "migrations/sqlite", nil
	case "postgres":
		return "migrations/postgres", nil
	default:
		return "", fmt.Errorf("no migrations for dialect %s", dialect)
	}
}

// MigrateUp applies the embedded migrations for dialect ("sqlite3" or
// "postgres") to db
func MigrateUp(ctx context.Context, db *sql.DB, dialect string) error {
	dir, err := dialectDir(dialect)
	if err != nil {
		return err
	}

	migrationMu.Lock()
	defer migrationMu.Unlock()

	goose.SetLogger(gooseLogger{logger: logging.GetGlobalLogger().WithFields(logging.String("component", "migrations"))})
	goose.SetBaseFS(migrationFiles)
	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("error setting goose dialect: %w", err)
	}

	if err := goose.UpContext(ctx, db, dir); err != nil {
		return fmt.Errorf("error running migrations up: %w", err)
	}
	return nil
}

// MigrationVersion returns the latest applied migration version
func MigrationVersion(ctx context.Context, db *sql.DB, dialect string) (int64, error) {
	migrationMu.Lock()
	defer migrationMu.Unlock()

	if err := goose.SetDialect(dialect); err != nil {
		return 0, fmt.Errorf("error setting goose dialect: %w", err)
	}
	return goose.GetDBVersionContext(ctx, db)
}
