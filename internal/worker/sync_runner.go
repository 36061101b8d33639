package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/support-insights/internal/service"
)

var (
	// ErrSyncInProgress is returned when another holder owns the sync lock.
	ErrSyncInProgress = errors.New("sync already in progress")
	// ErrLeaseLost cancels a run whose lock could not be renewed.
	ErrLeaseLost = errors.New("sync lock lease lost")
)

// Syncer is the part of the sync service the runner drives.
type Syncer interface {
	Run(ctx context.Context) (*service.SyncSummary, error)
	Backfill(ctx context.Context, from time.Time) (*service.SyncSummary, error)
}

// SyncRunner makes sure at most one sync runs at a time. The lease is renewed
// every third of its TTL while a run is active; a run that loses its lease is
// cancelled.
type SyncRunner struct {
	syncer   Syncer
	locker   Locker
	fallback *LocalLocker
	ttl      time.Duration
	logger   *zap.Logger
}

// NewSyncRunner wraps syncer with a lease from locker. When locker errors the
// runner falls back to an in-process lock.
func NewSyncRunner(syncer Syncer, locker Locker, ttl time.Duration, logger *zap.Logger) *SyncRunner {
	if logger == nil {
		logger = zap.NewNop()
	}
	fallback := NewLocalLocker()
	if locker == nil {
		locker = fallback
	}
	return &SyncRunner{syncer: syncer, locker: locker, fallback: fallback, ttl: ttl, logger: logger}
}

// Run performs one incremental sync under the lock.
func (r *SyncRunner) Run(ctx context.Context) (*service.SyncSummary, error) {
	ctx, release, err := r.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()
	return r.syncer.Run(ctx)
}

// Backfill performs a backfill from the given instant under the lock.
func (r *SyncRunner) Backfill(ctx context.Context, from time.Time) (*service.SyncSummary, error) {
	ctx, release, err := r.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()
	return r.syncer.Backfill(ctx, from)
}

func (r *SyncRunner) acquire(ctx context.Context) (context.Context, func(), error) {
	locker := r.locker
	token, ok, err := locker.TryLock(ctx, SyncLockKey, r.ttl)
	if err != nil && locker != Locker(r.fallback) {
		r.logger.Warn("sync lock unavailable, using local lock", zap.Error(err))
		locker = r.fallback
		token, ok, err = locker.TryLock(ctx, SyncLockKey, r.ttl)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("acquire sync lock: %w", err)
	}
	if !ok {
		return nil, nil, ErrSyncInProgress
	}

	runCtx, cancel := context.WithCancelCause(ctx)
	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		r.keepAlive(runCtx, cancel, stop, locker, token)
	}()

	return runCtx, func() {
		close(stop)
		<-done
		cancel(nil)
		if err := locker.Unlock(context.WithoutCancel(ctx), SyncLockKey, token); err != nil {
			r.logger.Warn("release sync lock", zap.Error(err))
		}
	}, nil
}

// keepAlive renews the lease until stop closes. A lease that is gone, or that
// could not be renewed for a whole TTL, cancels the run.
func (r *SyncRunner) keepAlive(ctx context.Context, cancel context.CancelCauseFunc, stop <-chan struct{}, locker Locker, token string) {
	if r.ttl <= 0 {
		return
	}
	ticker := time.NewTicker(max(r.ttl/3, time.Millisecond))
	defer ticker.Stop()

	renewed := time.Now()
	for {
		select {
		case <-stop:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		ok, err := locker.Extend(ctx, SyncLockKey, token, r.ttl)
		switch {
		case err == nil && ok:
			renewed = time.Now()
			continue
		case err == nil:
			r.logger.Error("sync lock taken over, cancelling run")
			cancel(ErrLeaseLost)
			return
		}
		r.logger.Warn("renew sync lock", zap.Error(err))
		if time.Since(renewed) >= r.ttl {
			cancel(ErrLeaseLost)
			return
		}
	}
}
