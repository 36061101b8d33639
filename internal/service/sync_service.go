package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/support-insights/internal/clock"
	"github.com/spec-kit/support-insights/internal/domain"
	"github.com/spec-kit/support-insights/internal/events"
	"github.com/spec-kit/support-insights/internal/helpdesk"
	"github.com/spec-kit/support-insights/internal/mapper"
	"github.com/spec-kit/support-insights/internal/observability"
)

const (
	// DefaultWindow is the maximum span of a single issue listing request.
	DefaultWindow = 30 * 24 * time.Hour

	SyncModeIncremental = "incremental"
	SyncModeBackfill    = "backfill"
)

// DefaultWatermark is where the first ever sync starts.
var DefaultWatermark = time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC)

// IssueSource is the read side of the upstream helpdesk.
type IssueSource interface {
	FetchIssues(ctx context.Context, start, end time.Time) ([]helpdesk.Issue, error)
	FetchMessages(ctx context.Context, issueID string) ([]helpdesk.Message, error)
	FetchAccount(ctx context.Context, accountID string) (*helpdesk.Account, error)
}

// SyncStore persists synced records and the run ledger.
type SyncStore interface {
	CreateRun(ctx context.Context) (*domain.SyncRun, error)
	CompleteRun(ctx context.Context, id string, stats domain.RunStats) error
	FailRun(ctx context.Context, id string, cause error) error
	LastSuccessfulRun(ctx context.Context) (*domain.SyncRun, error)
	UpsertIssue(ctx context.Context, issue domain.Issue) error
	UpsertAccount(ctx context.Context, account domain.Account) error
	UpsertUser(ctx context.Context, user domain.User) error
	UpsertMessage(ctx context.Context, message domain.Message) error
}

// Window is a half-open time range [Start, End).
type Window struct {
	Start time.Time
	End   time.Time
}

// BuildWindows splits [start, end) into contiguous windows of at most size.
// It returns nil when start is not before end.
func BuildWindows(start, end time.Time, size time.Duration) []Window {
	if size <= 0 {
		size = DefaultWindow
	}
	var windows []Window
	for cursor := start; cursor.Before(end); {
		next := cursor.Add(size)
		if next.After(end) {
			next = end
		}
		windows = append(windows, Window{Start: cursor, End: next})
		cursor = next
	}
	return windows
}

// Build30DayWindows is BuildWindows with the default 30 day span.
func Build30DayWindows(start, end time.Time) []Window {
	return BuildWindows(start, end, DefaultWindow)
}

// SyncSummary reports what a finished run wrote.
type SyncSummary struct {
	RunID          string    `json:"run_id"`
	Mode           string    `json:"mode"`
	Windows        int       `json:"windows"`
	IssuesSynced   int       `json:"issues_synced"`
	AccountsSynced int       `json:"accounts_synced"`
	MessagesSynced int       `json:"messages_synced"`
	Watermark      time.Time `json:"watermark"`
}

// SyncService pulls helpdesk data into the store.
type SyncService struct {
	source           IssueSource
	store            SyncStore
	mapper           *mapper.Mapper
	clock            clock.Clock
	dispatcher       events.Dispatcher
	metrics          *observability.Metrics
	logger           *zap.Logger
	defaultWatermark time.Time
	window           time.Duration
}

// SyncDependencies bundles collaborators for the sync service.
type SyncDependencies struct {
	Source           IssueSource
	Store            SyncStore
	Clock            clock.Clock
	Dispatcher       events.Dispatcher
	Metrics          *observability.Metrics
	Logger           *zap.Logger
	DefaultWatermark time.Time
	Window           time.Duration
}

// NewSyncService creates the service.
func NewSyncService(deps SyncDependencies) *SyncService {
	c := deps.Clock
	if c == nil {
		c = clock.Real()
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	watermark := deps.DefaultWatermark
	if watermark.IsZero() {
		watermark = DefaultWatermark
	}
	window := deps.Window
	if window <= 0 {
		window = DefaultWindow
	}
	return &SyncService{
		source:           deps.Source,
		store:            deps.Store,
		mapper:           mapper.New(c),
		clock:            c,
		dispatcher:       deps.Dispatcher,
		metrics:          deps.Metrics,
		logger:           logger,
		defaultWatermark: watermark,
		window:           window,
	}
}

// Run performs an incremental sync starting at the last completed watermark.
// Any failure marks the run failed and is returned unchanged.
func (s *SyncService) Run(ctx context.Context) (*SyncSummary, error) {
	return s.execute(ctx, SyncModeIncremental, func(ctx context.Context, summary *SyncSummary) error {
		last, err := s.store.LastSuccessfulRun(ctx)
		if err != nil {
			return fmt.Errorf("load last successful run: %w", err)
		}
		watermark := s.defaultWatermark
		if last != nil && last.LastIssueUpdatedAt != nil {
			watermark = *last.LastIssueUpdatedAt
		}
		return s.syncRange(ctx, watermark, summary, false)
	})
}

// Backfill re-syncs everything from the given instant. Accounts are fetched
// once per run and fetch failures for accounts or messages are logged and
// skipped.
func (s *SyncService) Backfill(ctx context.Context, from time.Time) (*SyncSummary, error) {
	if from.IsZero() {
		from = s.defaultWatermark
	}
	return s.execute(ctx, SyncModeBackfill, func(ctx context.Context, summary *SyncSummary) error {
		return s.syncRange(ctx, from, summary, true)
	})
}

func (s *SyncService) execute(ctx context.Context, mode string, body func(context.Context, *SyncSummary) error) (*SyncSummary, error) {
	started := s.clock.Now()
	run, err := s.store.CreateRun(ctx)
	if err != nil {
		return nil, fmt.Errorf("create sync run: %w", err)
	}

	summary := &SyncSummary{RunID: run.ID, Mode: mode}
	logger := s.logger.With(zap.String("run_id", run.ID), zap.String("mode", mode))
	logger.Info("sync started")

	err = body(ctx, summary)
	if err == nil {
		err = s.store.CompleteRun(ctx, run.ID, domain.RunStats{
			IssuesSynced:       summary.IssuesSynced,
			AccountsSynced:     summary.AccountsSynced,
			MessagesSynced:     summary.MessagesSynced,
			LastIssueUpdatedAt: summary.Watermark,
		})
		if err != nil {
			err = fmt.Errorf("complete sync run: %w", err)
		}
	}
	if err != nil {
		if failErr := s.store.FailRun(context.WithoutCancel(ctx), run.ID, err); failErr != nil {
			logger.Error("record failed sync run", zap.Error(failErr))
		}
		logger.Error("sync failed", zap.Error(err))
		s.metrics.RecordSync(mode, string(domain.SyncRunStatusFailed), s.clock.Now().Sub(started),
			summary.IssuesSynced, summary.AccountsSynced, summary.MessagesSynced)
		s.publish(ctx, events.EventSyncFailed, run.ID, events.SyncFailedPayload{Mode: mode, Error: err.Error()})
		return nil, err
	}

	logger.Info("sync completed",
		zap.Int("windows", summary.Windows),
		zap.Int("issues", summary.IssuesSynced),
		zap.Int("accounts", summary.AccountsSynced),
		zap.Int("messages", summary.MessagesSynced),
		zap.Time("watermark", summary.Watermark))
	s.metrics.RecordSync(mode, string(domain.SyncRunStatusCompleted), s.clock.Now().Sub(started),
		summary.IssuesSynced, summary.AccountsSynced, summary.MessagesSynced)
	s.publish(ctx, events.EventSyncCompleted, run.ID, events.SyncCompletedPayload{
		Mode:           mode,
		IssuesSynced:   summary.IssuesSynced,
		AccountsSynced: summary.AccountsSynced,
		MessagesSynced: summary.MessagesSynced,
		Watermark:      summary.Watermark,
	})
	return summary, nil
}

// syncRange walks every window from watermark to now. The summary watermark
// only moves forward.
func (s *SyncService) syncRange(ctx context.Context, watermark time.Time, summary *SyncSummary, tolerant bool) error {
	summary.Watermark = watermark
	windows := BuildWindows(watermark, s.clock.Now(), s.window)
	summary.Windows = len(windows)

	var seenAccounts map[string]struct{}
	if tolerant {
		seenAccounts = make(map[string]struct{})
	}

	for i, w := range windows {
		issues, err := s.source.FetchIssues(ctx, w.Start, w.End)
		if err != nil {
			return fmt.Errorf("fetch issues %s..%s: %w", w.Start.Format(time.RFC3339), w.End.Format(time.RFC3339), err)
		}
		s.logger.Debug("sync window",
			zap.Int("window", i+1),
			zap.Int("windows", len(windows)),
			zap.Int("issues", len(issues)))

		for _, raw := range issues {
			if err := s.syncIssue(ctx, raw, summary, seenAccounts); err != nil {
				return err
			}
			if updated := issueUpdatedAt(raw); updated.After(summary.Watermark) {
				summary.Watermark = updated
			}
		}
	}
	return nil
}

// seenAccounts is nil in strict mode; a non-nil set enables dedup and
// tolerance of account and message fetch failures.
func (s *SyncService) syncIssue(ctx context.Context, raw helpdesk.Issue, summary *SyncSummary, seenAccounts map[string]struct{}) error {
	tolerant := seenAccounts != nil

	if raw.Account != nil && raw.Account.ID != "" {
		if err := s.syncAccount(ctx, raw.Account.ID, summary, seenAccounts); err != nil {
			if !tolerant {
				return err
			}
			s.logger.Warn("account sync skipped", zap.String("account_id", raw.Account.ID), zap.Error(err))
		}
	}

	if assignee := s.mapper.MapAssignee(raw); assignee != nil {
		if err := s.store.UpsertUser(ctx, *assignee); err != nil {
			return fmt.Errorf("upsert user %s: %w", assignee.ID, err)
		}
	}

	if err := s.store.UpsertIssue(ctx, s.mapper.MapIssue(raw)); err != nil {
		return fmt.Errorf("upsert issue %s: %w", raw.ID, err)
	}
	summary.IssuesSynced++

	messages, err := s.source.FetchMessages(ctx, raw.ID)
	if err != nil {
		err = fmt.Errorf("fetch messages for issue %s: %w", raw.ID, err)
		if !tolerant {
			return err
		}
		s.logger.Warn("message sync skipped", zap.String("issue_id", raw.ID), zap.Error(err))
		return nil
	}
	for _, msg := range messages {
		if err := s.store.UpsertMessage(ctx, s.mapper.MapMessage(msg, raw.ID)); err != nil {
			err = fmt.Errorf("upsert message %s: %w", msg.ID, err)
			if !tolerant {
				return err
			}
			s.logger.Warn("message sync skipped", zap.String("issue_id", raw.ID), zap.Error(err))
			return nil
		}
		summary.MessagesSynced++
	}
	return nil
}

func (s *SyncService) syncAccount(ctx context.Context, accountID string, summary *SyncSummary, seen map[string]struct{}) error {
	if seen != nil {
		if _, ok := seen[accountID]; ok {
			return nil
		}
	}
	account, err := s.source.FetchAccount(ctx, accountID)
	if err != nil {
		return fmt.Errorf("fetch account %s: %w", accountID, err)
	}
	if account == nil {
		return fmt.Errorf("fetch account %s: %w", accountID, errEmptyAccount)
	}
	if err := s.store.UpsertAccount(ctx, s.mapper.MapAccount(*account)); err != nil {
		return fmt.Errorf("upsert account %s: %w", accountID, err)
	}
	if seen != nil {
		seen[accountID] = struct{}{}
	}
	summary.AccountsSynced++
	return nil
}

var errEmptyAccount = errors.New("empty account payload")

func (s *SyncService) publish(ctx context.Context, eventType events.EventType, runID string, payload any) {
	if s.dispatcher == nil {
		return
	}
	event := events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		RunID:     runID,
		Timestamp: s.clock.Now().UTC(),
		Payload:   payload,
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("sync event handler failed", zap.String("event_type", string(eventType)), zap.Error(err))
	}
}

// issueUpdatedAt is the latest activity of an issue, falling back to its
// creation time. Unparseable values yield the zero instant.
func issueUpdatedAt(raw helpdesk.Issue) time.Time {
	value := raw.CreatedAt
	if raw.LatestMessageTime != nil {
		value = *raw.LatestMessageTime
	}
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}
	return t
}
