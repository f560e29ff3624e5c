package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	"game-release-tracker/internal/common/logging"
	"game-release-tracker/internal/common/validation"
)

// Syncer runs one catalog sync
type Syncer interface {
	Sync(ctx context.Context) (SyncReport, error)
}

// Scheduler triggers syncs on a cron schedule. Overlapping runs are skipped.
type Scheduler struct {
	schedule string
	syncer   Syncer
	logger   logging.Logger

	mu      sync.Mutex
	cron    *cron.Cron
	entry   cron.EntryID
	ctx     context.Context
	cancel  context.CancelFunc
	running bool
}

// NewScheduler creates a scheduler. An empty schedule yields a scheduler
// whose Start is a no-op.
func NewScheduler(schedule string, syncer Syncer, logger logging.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}
	if schedule != "" {
		if _, err := validation.ParseSchedule(schedule); err != nil {
			return nil, fmt.Errorf("invalid sync schedule %q: %w", schedule, err)
		}
	}

	return &Scheduler{
		schedule: schedule,
		syncer:   syncer,
		logger:   logger.WithFields(logging.String("component", "scheduler")),
	}, nil
}

// Enabled reports whether a schedule is configured
func (s *Scheduler) Enabled() bool {
	return s.schedule != ""
}

// Start begins scheduling syncs
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.Enabled() {
		s.logger.Info("Sync schedule not configured, scheduler disabled")
		return nil
	}
	if s.running {
		return fmt.Errorf("scheduler already running")
	}

	cronLogger := cronLogger{logger: s.logger}
	s.cron = cron.New(cron.WithChain(
		cron.Recover(cronLogger),
		cron.SkipIfStillRunning(cronLogger),
	), cron.WithLogger(cronLogger))

	s.ctx, s.cancel = context.WithCancel(ctx)
	entry, err := s.cron.AddFunc(s.schedule, s.run)
	if err != nil {
		s.cancel()
		return fmt.Errorf("failed to schedule sync: %w", err)
	}
	s.entry = entry

	s.cron.Start()
	s.running = true

	s.logger.Info("Scheduler started",
		logging.String("schedule", s.schedule),
		logging.Time("next_run", s.cron.Entry(entry).Next),
	)
	return nil
}

func (s *Scheduler) run() {
	_, err := s.syncer.Sync(s.ctx)
	if err != nil && !errors.Is(err, ErrSyncInProgress) {
		s.logger.Error("Scheduled sync failed", err)
	}
}

// Stop halts scheduling and waits for a running sync to finish or ctx to end
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	stopped := s.cron.Stop()
	s.mu.Unlock()

	select {
	case <-stopped.Done():
		s.cancel()
		s.logger.Info("Scheduler stopped")
		return nil
	case <-ctx.Done():
		s.cancel()
		return ctx.Err()
	}
}

// cronLogger routes cron's logr-style calls into our logger
type cronLogger struct {
	logger logging.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug("cron: "+msg, kvFields(keysAndValues)...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error("cron: "+msg, err, kvFields(keysAndValues)...)
}

func kvFields(keysAndValues []interface{}) []logging.Field {
	fields := make([]logging.Field, 0, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			key = fmt.Sprint(keysAndValues[i])
		}
		fields = append(fields, logging.Any(key, keysAndValues[i+1]))
	}
	return fields
}
