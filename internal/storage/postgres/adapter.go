package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/jonboulle/clockwork"
	"game-release-tracker/internal/models"
	"game-release-tracker/internal/storage"
)

const dialect = "postgres"

type Adapter struct {
	pool   *pgxpool.Pool
	config *Config
	clock  clockwork.Clock
}

// Option customizes an Adapter
type Option func(*Adapter)

// WithClock sets the clock used to stamp last_updated
func WithClock(clock clockwork.Clock) Option {
	return func(a *Adapter) { a.clock = clock }
}

func NewAdapter(ctx context.Context, config *Config, opts ...Option) (*Adapter, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid PostgreSQL config: %w", err)
	}

	pool, err := pgxpool.New(ctx, config.GetConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	adapter := &Adapter{
		pool:   pool,
		config: config,
		clock:  clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(adapter)
	}

	if err := adapter.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return adapter, nil
}

// migrate runs goose through a database/sql handle borrowed from the pool
func (a *Adapter) migrate(ctx context.Context) error {
	db := stdlib.OpenDBFromPool(a.pool)
	defer db.Close()
	return storage.MigrateUp(ctx, db, dialect)
}

func (a *Adapter) Close() error {
	if a.pool != nil {
		a.pool.Close()
	}
	return nil
}

func (a *Adapter) Health(ctx context.Context) error {
	return a.pool.Ping(ctx)
}

func (a *Adapter) MigrationVersion(ctx context.Context) (int64, error) {
	db := stdlib.OpenDBFromPool(a.pool)
	defer db.Close()
	return storage.MigrationVersion(ctx, db, dialect)
}

func (a *Adapter) SaveGames(ctx context.Context, games []models.Game) (int, error) {
	if len(games) == 0 {
		return 0, nil
	}

	records, err := storage.NewGameRecords(games, a.clock.Now())
	if err != nil {
		return 0, err
	}

	err = pgx.BeginFunc(ctx, a.pool, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, r := range records {
			batch.Queue(`
				INSERT INTO games (id, name, first_release_date, document, last_updated)
				VALUES ($1, $2, $3, $4, $5)
				ON CONFLICT (id) DO UPDATE SET
					name = EXCLUDED.name,
					first_release_date = EXCLUDED.first_release_date,
					document = EXCLUDED.document,
					last_updated = EXCLUDED.last_updated`,
				r.ID, r.Name, r.FirstReleaseDate, string(r.Document), r.LastUpdated)
			batch.Queue(`DELETE FROM game_platforms WHERE game_id = $1`, r.ID)
			if len(r.PlatformIDs) > 0 {
				batch.Queue(`
					INSERT INTO game_platforms (game_id, platform_id)
					SELECT $1, unnest($2::bigint[])`, r.ID, r.PlatformIDs)
			}
		}
		return tx.SendBatch(ctx, batch).Close()
	})
	if err != nil {
		return 0, fmt.Errorf("failed to save games: %w", err)
	}
	return len(records), nil
}

func (a *Adapter) UpcomingGames(ctx context.Context, from, to time.Time, platformIDs []int64, limit int) ([]models.Game, error) {
	query := `SELECT document FROM games WHERE first_release_date >= $1 AND first_release_date <= $2`
	args := []interface{}{from.Unix(), to.Unix()}

	if len(platformIDs) > 0 {
		args = append(args, platformIDs)
		query += fmt.Sprintf(` AND id IN (SELECT game_id FROM game_platforms WHERE platform_id = ANY($%d))`, len(args))
	}

	query += ` ORDER BY first_release_date ASC, name ASC`
	if limit > 0 {
		args = append(args, limit)
		query += fmt.Sprintf(` LIMIT $%d`, len(args))
	}

	rows, err := a.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query upcoming games: %w", err)
	}

	docs, err := pgx.CollectRows(rows, pgx.RowTo[[]byte])
	if err != nil {
		return nil, fmt.Errorf("failed to scan games: %w", err)
	}

	games := make([]models.Game, 0, len(docs))
	for _, doc := range docs {
		game, err := storage.DecodeGame(doc)
		if err != nil {
			return nil, err
		}
		games = append(games, game)
	}
	return games, nil
}

func (a *Adapter) SavePlatforms(ctx context.Context, platforms []models.Platform) (int, error) {
	if len(platforms) == 0 {
		return 0, nil
	}
	platforms = storage.DedupePlatforms(platforms)
	now := a.clock.Now().UTC()

	err := pgx.BeginFunc(ctx, a.pool, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, p := range platforms {
			batch.Queue(`
				INSERT INTO platforms (id, name, abbreviation, last_updated)
				VALUES ($1, $2, $3, $4)
				ON CONFLICT (id) DO UPDATE SET
					name = EXCLUDED.name,
					abbreviation = EXCLUDED.abbreviation,
					last_updated = EXCLUDED.last_updated`,
				p.ID, p.Name, p.Abbreviation, now)
		}
		return tx.SendBatch(ctx, batch).Close()
	})
	if err != nil {
		return 0, fmt.Errorf("failed to save platforms: %w", err)
	}
	return len(platforms), nil
}

func (a *Adapter) Platforms(ctx context.Context) ([]models.Platform, error) {
	rows, err := a.pool.Query(ctx, `SELECT id, name, abbreviation FROM platforms ORDER BY name ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query platforms: %w", err)
	}

	platforms, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Platform, error) {
		var p models.Platform
		err := row.Scan(&p.ID, &p.Name, &p.Abbreviation)
		return p, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan platforms: %w", err)
	}
	return platforms, nil
}
