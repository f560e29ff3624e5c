package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	_ "github.com/mattn/go-sqlite3"
	"game-release-tracker/internal/models"
	"game-release-tracker/internal/storage"
)

const dialect = "sqlite3"

type Adapter struct {
	db     *sql.DB
	config *Config
	clock  clockwork.Clock
}

// Option customizes an Adapter
type Option func(*Adapter)

// WithClock sets the clock used to stamp last_updated
func WithClock(clock clockwork.Clock) Option {
	return func(a *Adapter) { a.clock = clock }
}

func NewAdapter(config *Config, opts ...Option) (*Adapter, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid SQLite config: %w", err)
	}

	db, err := sql.Open("sqlite3", config.GetConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// a single writer avoids SQLITE_BUSY between concurrent upserts
	db.SetMaxOpenConns(1)

	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := storage.MigrateUp(ctx, db, dialect); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	adapter := &Adapter{
		db:     db,
		config: config,
		clock:  clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(adapter)
	}
	return adapter, nil
}

func (a *Adapter) Close() error {
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}

func (a *Adapter) Health(ctx context.Context) error {
	return a.db.PingContext(ctx)
}

func (a *Adapter) MigrationVersion(ctx context.Context) (int64, error) {
	return storage.MigrationVersion(ctx, a.db, dialect)
}

func (a *Adapter) SaveGames(ctx context.Context, games []models.Game) (int, error) {
	if len(games) == 0 {
		return 0, nil
	}

	records, err := storage.NewGameRecords(games, a.clock.Now())
	if err != nil {
		return 0, err
	}

	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	upsert, err := tx.PrepareContext(ctx, `
		INSERT INTO games (id, name, first_release_date, document, last_updated)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			first_release_date = excluded.first_release_date,
			document = excluded.document,
			last_updated = excluded.last_updated`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare game upsert: %w", err)
	}
	defer upsert.Close()

	for _, r := range records {
		if _, err := upsert.ExecContext(ctx, r.ID, r.Name, r.FirstReleaseDate, string(r.Document), r.LastUpdated); err != nil {
			return 0, fmt.Errorf("failed to save game %d: %w", r.ID, err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM game_platforms WHERE game_id = ?`, r.ID); err != nil {
			return 0, fmt.Errorf("failed to clear platforms for game %d: %w", r.ID, err)
		}
		for _, pid := range r.PlatformIDs {
			if _, err := tx.ExecContext(ctx, `INSERT INTO game_platforms (game_id, platform_id) VALUES (?, ?)`, r.ID, pid); err != nil {
				return 0, fmt.Errorf("failed to link game %d to platform %d: %w", r.ID, pid, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit games: %w", err)
	}
	return len(records), nil
}

func (a *Adapter) UpcomingGames(ctx context.Context, from, to time.Time, platformIDs []int64, limit int) ([]models.Game, error) {
	query := `SELECT document FROM games WHERE first_release_date >= ? AND first_release_date <= ?`
	args := []interface{}{from.Unix(), to.Unix()}

	if len(platformIDs) > 0 {
		placeholders := make([]string, len(platformIDs))
		for i, id := range platformIDs {
			placeholders[i] = "?"
			args = append(args, id)
		}
		query += ` AND id IN (SELECT game_id FROM game_platforms WHERE platform_id IN (` + strings.Join(placeholders, ",") + `))`
	}

	query += ` ORDER BY first_release_date ASC, name ASC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := a.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query upcoming games: %w", err)
	}
	defer rows.Close()

	games := []models.Game{}
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("failed to scan game: %w", err)
		}
		game, err := storage.DecodeGame([]byte(doc))
		if err != nil {
			return nil, err
		}
		games = append(games, game)
	}
	return games, rows.Err()
}

func (a *Adapter) SavePlatforms(ctx context.Context, platforms []models.Platform) (int, error) {
	if len(platforms) == 0 {
		return 0, nil
	}
	platforms = storage.DedupePlatforms(platforms)
	now := a.clock.Now().UTC()

	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, p := range platforms {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO platforms (id, name, abbreviation, last_updated)
			VALUES (?, ?, ?, ?)
			ON CONFLICT (id) DO UPDATE SET
				name = excluded.name,
				abbreviation = excluded.abbreviation,
				last_updated = excluded.last_updated`,
			p.ID, p.Name, p.Abbreviation, now)
		if err != nil {
			return 0, fmt.Errorf("failed to save platform %d: %w", p.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit platforms: %w", err)
	}
	return len(platforms), nil
}

func (a *Adapter) Platforms(ctx context.Context) ([]models.Platform, error) {
	rows, err := a.db.QueryContext(ctx, `SELECT id, name, abbreviation FROM platforms ORDER BY name ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query platforms: %w", err)
	}
	defer rows.Close()

	platforms := []models.Platform{}
	for rows.Next() {
		var p models.Platform
		if err := rows.Scan(&p.ID, &p.Name, &p.Abbreviation); err != nil {
			return nil, fmt.Errorf("failed to scan platform: %w", err)
		}
		platforms = append(platforms, p)
	}
	return platforms, rows.Err()
}
