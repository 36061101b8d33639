package http_test

import (
	"context"

	"github.com/spec-kit/support-insights/internal/domain"
	"github.com/spec-kit/support-insights/internal/service"
)

type mockTrigger struct {
	runFn func(ctx context.Context) (*service.SyncSummary, error)
	calls int
}

func (m *mockTrigger) Run(ctx context.Context) (*service.SyncSummary, error) {
	m.calls++
	if m.runFn != nil {
		return m.runFn(ctx)
	}
	return &service.SyncSummary{RunID: "sync-001"}, nil
}

type mockRuns struct {
	runs   []domain.SyncRun
	err    error
	limits []int
}

func (m *mockRuns) RecentRuns(_ context.Context, limit int) ([]domain.SyncRun, error) {
	m.limits = append(m.limits, limit)
	return m.runs, m.err
}

type mockInsights struct {
	actNowFn   func(ctx context.Context, accountID string) (*service.ActNowView, error)
	messagesFn func(ctx context.Context, issueID string) ([]service.ThreadMessage, error)
	accounts   []string
}

func (m *mockInsights) ActNow(ctx context.Context, accountID string) (*service.ActNowView, error) {
	m.accounts = append(m.accounts, accountID)
	if m.actNowFn != nil {
		return m.actNowFn(ctx, accountID)
	}
	return &service.ActNowView{Queue: []service.ActionIssue{}, Aging: []service.ActionIssue{}}, nil
}

func (m *mockInsights) IssueMessages(ctx context.Context, issueID string) ([]service.ThreadMessage, error) {
	if m.messagesFn != nil {
		return m.messagesFn(ctx, issueID)
	}
	return []service.ThreadMessage{}, nil
}

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }
