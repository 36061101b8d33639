package repository_test

import (
	"context"

	"github.com/spec-kit/support-insights/internal/domain"
	"github.com/spec-kit/support-insights/internal/repository"
)

type mockIssueRepository struct {
	upserted []domain.Issue
	filters  []repository.IssueFilter
	byID     map[string]*domain.IssueWithRelations
}

func (m *mockIssueRepository) Upsert(_ context.Context, issue domain.Issue) error {
	m.upserted = append(m.upserted, issue)
	return nil
}

func (m *mockIssueRepository) GetByID(_ context.Context, id string) (*domain.IssueWithRelations, error) {
	return m.byID[id], nil
}

func (m *mockIssueRepository) List(_ context.Context, filter repository.IssueFilter) ([]domain.IssueWithRelations, error) {
	m.filters = append(m.filters, filter)
	return nil, nil
}

type mockSyncRunRepository struct {
	completed map[string]domain.RunStats
	failed    map[string]error
	last      *domain.SyncRun
}

func (m *mockSyncRunRepository) Create(context.Context) (*domain.SyncRun, error) {
	return &domain.SyncRun{ID: "run-1", Status: domain.SyncRunStatusRunning}, nil
}

func (m *mockSyncRunRepository) Complete(_ context.Context, id string, stats domain.RunStats) error {
	m.completed[id] = stats
	return nil
}

func (m *mockSyncRunRepository) Fail(_ context.Context, id string, cause error) error {
	m.failed[id] = cause
	return nil
}

func (m *mockSyncRunRepository) LastSuccessful(context.Context) (*domain.SyncRun, error) {
	return m.last, nil
}

func (m *mockSyncRunRepository) ListRecent(context.Context, int) ([]domain.SyncRun, error) {
	if m.last == nil {
		return []domain.SyncRun{}, nil
	}
	return []domain.SyncRun{*m.last}, nil
}
