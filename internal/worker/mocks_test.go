package worker_test

import (
	"context"
	"sync"
	"time"

	"github.com/spec-kit/support-insights/internal/service"
)

type mockSyncer struct {
	runFn      func(ctx context.Context) (*service.SyncSummary, error)
	backfillFn func(ctx context.Context, from time.Time) (*service.SyncSummary, error)

	runs      int
	backfills []time.Time
}

func (m *mockSyncer) Run(ctx context.Context) (*service.SyncSummary, error) {
	m.runs++
	if m.runFn != nil {
		return m.runFn(ctx)
	}
	return &service.SyncSummary{RunID: "sync-001", Mode: service.SyncModeIncremental}, nil
}

func (m *mockSyncer) Backfill(ctx context.Context, from time.Time) (*service.SyncSummary, error) {
	m.backfills = append(m.backfills, from)
	if m.backfillFn != nil {
		return m.backfillFn(ctx, from)
	}
	return &service.SyncSummary{RunID: "sync-002", Mode: service.SyncModeBackfill}, nil
}

type mockLocker struct {
	tryLockFn func(ctx context.Context, key string, ttl time.Duration) (string, bool, error)
	extendFn  func(ctx context.Context, key, token string, ttl time.Duration) (bool, error)

	mu       sync.Mutex
	keys     []string
	ttls     []time.Duration
	unlocked []string
	extended []string
}

func (m *mockLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	m.keys = append(m.keys, key)
	m.ttls = append(m.ttls, ttl)
	if m.tryLockFn != nil {
		return m.tryLockFn(ctx, key, ttl)
	}
	return "token-1", true, nil
}

func (m *mockLocker) Unlock(_ context.Context, _ string, token string) error {
	m.unlocked = append(m.unlocked, token)
	return nil
}

func (m *mockLocker) Extend(ctx context.Context, key, token string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	m.extended = append(m.extended, token)
	m.mu.Unlock()
	if m.extendFn != nil {
		return m.extendFn(ctx, key, token, ttl)
	}
	return true, nil
}

func (m *mockLocker) extendCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.extended)
}
