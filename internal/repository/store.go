package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/support-insights/internal/domain"
)

// Store groups the repositories behind the sync engine and the read views.
type Store struct {
	Issues   IssueRepository
	Accounts AccountRepository
	Users    UserRepository
	Messages MessageRepository
	Runs     SyncRunRepository
}

// NewStore builds every repository over pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{
		Issues:   NewIssueRepository(pool),
		Accounts: NewAccountRepository(pool),
		Users:    NewUserRepository(pool),
		Messages: NewMessageRepository(pool),
		Runs:     NewSyncRunRepository(pool),
	}
}

func (s *Store) CreateRun(ctx context.Context) (*domain.SyncRun, error) {
	return s.Runs.Create(ctx)
}

func (s *Store) CompleteRun(ctx context.Context, id string, stats domain.RunStats) error {
	return s.Runs.Complete(ctx, id, stats)
}

func (s *Store) FailRun(ctx context.Context, id string, cause error) error {
	return s.Runs.Fail(ctx, id, cause)
}

func (s *Store) LastSuccessfulRun(ctx context.Context) (*domain.SyncRun, error) {
	return s.Runs.LastSuccessful(ctx)
}

func (s *Store) RecentRuns(ctx context.Context, limit int) ([]domain.SyncRun, error) {
	return s.Runs.ListRecent(ctx, limit)
}

func (s *Store) UpsertIssue(ctx context.Context, issue domain.Issue) error {
	return s.Issues.Upsert(ctx, issue)
}

func (s *Store) UpsertAccount(ctx context.Context, account domain.Account) error {
	return s.Accounts.Upsert(ctx, account)
}

func (s *Store) UpsertUser(ctx context.Context, user domain.User) error {
	return s.Users.Upsert(ctx, user)
}

func (s *Store) UpsertMessage(ctx context.Context, message domain.Message) error {
	return s.Messages.Upsert(ctx, message)
}

// ListOpenIssues returns every non-closed issue, scoped to accountID when set.
func (s *Store) ListOpenIssues(ctx context.Context, accountID string) ([]domain.IssueWithRelations, error) {
	filter := IssueFilter{ExcludeClosed: true}
	if accountID != "" {
		filter.AccountID = &accountID
	}
	return s.Issues.List(ctx, filter)
}

func (s *Store) GetIssue(ctx context.Context, id string) (*domain.IssueWithRelations, error) {
	return s.Issues.GetByID(ctx, id)
}

func (s *Store) ListMessages(ctx context.Context, issueID string) ([]domain.Message, error) {
	return s.Messages.ListByIssue(ctx, issueID)
}
