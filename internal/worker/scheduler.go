package worker

import (
	"context"
	"errors"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Scheduler triggers incremental syncs on a cron schedule.
type Scheduler struct {
	cron    *cron.Cron
	runner  *SyncRunner
	logger  *zap.Logger
	timeout time.Duration
}

// NewScheduler parses a five-field cron spec evaluated in UTC.
func NewScheduler(spec string, runner *SyncRunner, timeout time.Duration, logger *zap.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithParser(cron.NewParser(cron.Minute|cron.Hour|cron.Dom|cron.Month|cron.Dow|cron.Descriptor)),
	)
	s := &Scheduler{cron: c, runner: runner, logger: logger, timeout: timeout}
	if _, err := c.AddFunc(spec, s.Tick); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Scheduler) Start() { s.cron.Start() }

// Stop halts the schedule and waits for a running tick.
func (s *Scheduler) Stop() context.Context { return s.cron.Stop() }

// Tick runs one scheduled sync.
func (s *Scheduler) Tick() {
	ctx := context.Background()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	summary, err := s.runner.Run(ctx)
	switch {
	case errors.Is(err, ErrSyncInProgress):
		s.logger.Info("cron: sync already running elsewhere")
	case err != nil:
		s.logger.Error("cron: sync failed", zap.Error(err))
	default:
		s.logger.Info("cron: sync finished", zap.String("run_id", summary.RunID), zap.Int("issues", summary.IssuesSynced))
	}
}
