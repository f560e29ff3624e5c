package catalog

import (
	"context"
	stderrors "errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/lucsky/cuid"
	"game-release-tracker/internal/common/cache"
	"game-release-tracker/internal/common/logging"
	"game-release-tracker/internal/locks"
	"game-release-tracker/internal/models"
	"game-release-tracker/internal/storage"
)

const (
	// SyncChannel receives a SyncReport after every finished sync
	SyncChannel = "catalog:sync"

	SyncDaysAhead = 180
	SyncLimit     = 500

	syncLockKey = "catalog-sync"
	syncLockTTL = 10 * time.Minute
)

// ErrSyncInProgress is returned when another sync holds the sync lock
var ErrSyncInProgress = stderrors.New("sync already in progress")

// Upstream is the subset of the catalog API client the service uses
type Upstream interface {
	FetchUpcomingReleases(ctx context.Context, daysAhead, limit int, platformIDs []int64) ([]models.Game, error)
	SearchByName(ctx context.Context, term string, limit int) ([]models.Game, error)
	FetchPlatforms(ctx context.Context) ([]models.Platform, error)
}

// Publisher announces finished syncs
type Publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) error
}

// UpcomingParams selects upcoming releases
type UpcomingParams struct {
	DaysAhead    int
	Limit        int
	PlatformIDs  []int64
	ForceRefresh bool
}

// Options configures a Service. Store, Cache and Locker are required;
// Publisher is optional.
type Options struct {
	Store     storage.Store
	Cache     cache.Cache
	CacheTTL  time.Duration
	Locker    locks.Locker
	Publisher Publisher
	Clock     clockwork.Clock
	Logger    logging.Logger
}

// Service serves catalog reads from the store and cache, falls back to the
// upstream API and refreshes the store on demand or on schedule
type Service struct {
	upstream  Upstream
	store     storage.Store
	cache     cache.Cache
	cacheTTL  time.Duration
	locker    locks.Locker
	publisher Publisher
	clock     clockwork.Clock
	logger    logging.Logger

	checks []HealthCheck

	mu       sync.RWMutex
	lastSync *SyncReport
	jobs     sync.WaitGroup
}

// NewService creates a Service
func NewService(upstream Upstream, opts Options) (*Service, error) {
	if upstream == nil {
		return nil, fmt.Errorf("upstream client is required")
	}
	if opts.Store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if opts.Cache == nil {
		return nil, fmt.Errorf("cache is required")
	}
	if opts.Locker == nil {
		opts.Locker = locks.NewLocalManager()
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Logger == nil {
		opts.Logger = logging.GetGlobalLogger().WithFields(logging.String("component", "catalog"))
	}

	return &Service{
		upstream:  upstream,
		store:     opts.Store,
		cache:     opts.Cache,
		cacheTTL:  opts.CacheTTL,
		locker:    opts.Locker,
		publisher: opts.Publisher,
		clock:     opts.Clock,
		logger:    opts.Logger,
	}, nil
}

// UpcomingGames returns releases in the next DaysAhead days. Stored games are
// served when any match; otherwise, or when ForceRefresh is set, the upstream
// API is queried and the result stored.
func (s *Service) UpcomingGames(ctx context.Context, params UpcomingParams) ([]models.Game, error) {
	logger := s.logger.WithContext(ctx)

	if !params.ForceRefresh {
		now := s.clock.Now()
		to := now.Add(time.Duration(params.DaysAhead) * 24 * time.Hour)
		games, err := s.store.UpcomingGames(ctx, now, to, params.PlatformIDs, params.Limit)
		if err != nil {
			logger.Warn("Failed to read stored games, querying upstream", logging.Err(err))
		} else if len(games) > 0 {
			models.SortGames(games)
			return games, nil
		}
	}

	games, err := s.upstream.FetchUpcomingReleases(ctx, params.DaysAhead, params.Limit, params.PlatformIDs)
	if err != nil {
		return nil, err
	}

	if _, err := s.store.SaveGames(ctx, games); err != nil {
		logger.Error("Failed to store fetched games", err, logging.Int("count", len(games)))
	}

	models.SortGames(games)
	return games, nil
}

// SearchGames runs a name search upstream. Results are cached per term and
// limit for the configured TTL.
func (s *Service) SearchGames(ctx context.Context, term string, limit int) ([]models.Game, error) {
	logger := s.logger.WithContext(ctx)
	key := searchCacheKey(term, limit)

	cached, found, err := cache.GetJSON[[]models.Game](ctx, s.cache, key)
	if err != nil {
		logger.Warn("Search cache read failed", logging.Err(err))
	}
	if found {
		return cached, nil
	}

	games, err := s.upstream.SearchByName(ctx, term, limit)
	if err != nil {
		return nil, err
	}

	if err := cache.SetJSON(ctx, s.cache, key, games, s.cacheTTL); err != nil {
		logger.Warn("Search cache write failed", logging.Err(err))
	}
	return games, nil
}

func searchCacheKey(term string, limit int) string {
	return fmt.Sprintf("search:%s:%d", strings.ToLower(strings.TrimSpace(term)), limit)
}

// Platforms returns stored platforms, fetching and storing them first when
// the store is empty or forceRefresh is set
func (s *Service) Platforms(ctx context.Context, forceRefresh bool) ([]models.Platform, error) {
	logger := s.logger.WithContext(ctx)

	if !forceRefresh {
		platforms, err := s.store.Platforms(ctx)
		if err != nil {
			logger.Warn("Failed to read stored platforms, querying upstream", logging.Err(err))
		} else if len(platforms) > 0 {
			return platforms, nil
		}
	}

	platforms, err := s.upstream.FetchPlatforms(ctx)
	if err != nil {
		return nil, err
	}

	if _, err := s.store.SavePlatforms(ctx, platforms); err != nil {
		logger.Error("Failed to store fetched platforms", err, logging.Int("count", len(platforms)))
	}

	sortPlatforms(platforms)
	return platforms, nil
}

func sortPlatforms(platforms []models.Platform) {
	sort.SliceStable(platforms, func(i, j int) bool {
		if platforms[i].Name != platforms[j].Name {
			return platforms[i].Name < platforms[j].Name
		}
		return platforms[i].ID < platforms[j].ID
	})
}

// Sync refreshes platforms and then upcoming games. Only one sync runs at a
// time across every instance sharing the locker.
func (s *Service) Sync(ctx context.Context) (SyncReport, error) {
	jobID := logging.JobIDFromContext(ctx)
	if jobID == "" {
		jobID = cuid.New()
		ctx = logging.ContextWithJobID(ctx, jobID)
	}
	return s.runSync(ctx, jobID)
}

// StartSync runs a sync in the background and returns its job id. The
// returned report placeholder is visible through LastSync until the sync
// finishes.
func (s *Service) StartSync(ctx context.Context) string {
	jobID := cuid.New()
	ctx = logging.ContextWithJobID(context.WithoutCancel(ctx), jobID)

	s.setLastSync(SyncReport{
		JobID:     jobID,
		Status:    SyncRunning,
		StartedAt: s.clock.Now(),
	})

	s.jobs.Add(1)
	go func() {
		defer s.jobs.Done()
		if _, err := s.runSync(ctx, jobID); err != nil && !stderrors.Is(err, ErrSyncInProgress) {
			s.logger.WithContext(ctx).Error("Background sync failed", err)
		}
	}()

	return jobID
}

func (s *Service) runSync(ctx context.Context, jobID string) (SyncReport, error) {
	logger := s.logger.WithContext(ctx)

	lock, err := s.locker.TryAcquire(ctx, syncLockKey, syncLockTTL)
	if err != nil {
		if stderrors.Is(err, locks.ErrLockHeld) {
			logger.Info("Sync skipped, another sync is running")
			s.replaceRunning(jobID, SyncReport{
				JobID:      jobID,
				Status:     SyncSkipped,
				StartedAt:  s.clock.Now(),
				FinishedAt: s.clock.Now(),
				Error:      ErrSyncInProgress.Error(),
			})
			return SyncReport{}, ErrSyncInProgress
		}
		return SyncReport{}, fmt.Errorf("acquire sync lock: %w", err)
	}
	defer func() {
		if err := lock.Release(context.WithoutCancel(ctx)); err != nil {
			logger.Warn("Failed to release sync lock", logging.Err(err))
		}
	}()

	report := SyncReport{JobID: jobID, Status: SyncRunning, StartedAt: s.clock.Now()}
	logger.Info("Sync started")

	syncErr := s.syncCatalog(ctx, &report)

	report.FinishedAt = s.clock.Now()
	report.DurationMS = report.FinishedAt.Sub(report.StartedAt).Milliseconds()
	if syncErr != nil {
		report.Status = SyncFailed
		report.Error = syncErr.Error()
		logger.Error("Sync failed", syncErr,
			logging.Int("platforms", report.Platforms),
			logging.Int("games", report.Games),
		)
	} else {
		report.Status = SyncCompleted
		logger.Info("Sync completed",
			logging.Int("platforms", report.Platforms),
			logging.Int("games", report.Games),
			logging.Int64("duration_ms", report.DurationMS),
		)
	}

	s.setLastSync(report)
	s.publish(ctx, report)

	return report, syncErr
}

func (s *Service) syncCatalog(ctx context.Context, report *SyncReport) error {
	platforms, err := s.upstream.FetchPlatforms(ctx)
	if err != nil {
		return err
	}
	if report.Platforms, err = s.store.SavePlatforms(ctx, platforms); err != nil {
		return fmt.Errorf("store platforms: %w", err)
	}

	games, err := s.upstream.FetchUpcomingReleases(ctx, SyncDaysAhead, SyncLimit, nil)
	if err != nil {
		return err
	}
	if report.Games, err = s.store.SaveGames(ctx, games); err != nil {
		return fmt.Errorf("store games: %w", err)
	}
	return nil
}

func (s *Service) publish(ctx context.Context, report SyncReport) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, SyncChannel, report); err != nil {
		s.logger.WithContext(ctx).Warn("Failed to publish sync report", logging.Err(err))
	}
}

// LastSync returns the most recent sync report
func (s *Service) LastSync() (SyncReport, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.lastSync == nil {
		return SyncReport{}, false
	}
	return *s.lastSync, true
}

func (s *Service) setLastSync(report SyncReport) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSync = &report
}

// replaceRunning records report only while jobID is still the pending job, so
// a skipped background run does not hide the report of the sync it lost to
func (s *Service) replaceRunning(jobID string, report SyncReport) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastSync != nil && s.lastSync.JobID == jobID {
		s.lastSync = &report
	}
}

// Wait blocks until background syncs started with StartSync have finished
// or ctx is done
func (s *Service) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.jobs.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
