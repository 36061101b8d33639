package service

import (
	"cmp"
	"context"
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"

	"github.com/spec-kit/support-insights/internal/clock"
	"github.com/spec-kit/support-insights/internal/domain"
	"github.com/spec-kit/support-insights/internal/sla"
	apperrors "github.com/spec-kit/support-insights/pkg/util"
)

const (
	// QueriesTag groups every cached read so a sync can drop them at once.
	QueriesTag = "queries"

	DefaultQueryTTL = 5 * time.Minute

	agingThreshold = 7 * 24 * time.Hour
	agingLimit     = 50
	topCategories  = 5
	unsetLabel     = "unset"
)

// InsightsReader loads persisted records for the read views.
type InsightsReader interface {
	ListOpenIssues(ctx context.Context, accountID string) ([]domain.IssueWithRelations, error)
	GetIssue(ctx context.Context, id string) (*domain.IssueWithRelations, error)
	ListMessages(ctx context.Context, issueID string) ([]domain.Message, error)
}

// QueryCache stores serialized read results under tags.
type QueryCache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration, tags ...string) error
	InvalidateTag(ctx context.Context, tag string) error
}

// ActionIssue is an open issue enriched with its resolution SLA.
type ActionIssue struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	State         string     `json:"state"`
	Priority      *string    `json:"priority"`
	Category      *string    `json:"category"`
	Handler       *string    `json:"handler"`
	AccountName   *string    `json:"account_name"`
	AssigneeName  *string    `json:"assignee_name"`
	Link          *string    `json:"link"`
	CreatedAt     time.Time  `json:"created_at"`
	SLAStatus     sla.Status `json:"sla_status"`
	HoursLeft     *float64   `json:"hours_left"`
	TimeRemaining string     `json:"time_remaining"`
}

// ActNowSummary holds the headline counters of the action view.
type ActNowSummary struct {
	WaitingOnUs    int `json:"waiting_on_us"`
	UrgentHighOpen int `json:"urgent_high_open"`
	Breached       int `json:"breached"`
	AtRisk         int `json:"at_risk"`
}

// LabelCount is a grouped count.
type LabelCount struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// ActNowView is everything the action view renders.
type ActNowView struct {
	Summary       ActNowSummary `json:"summary"`
	Queue         []ActionIssue `json:"queue"`
	Aging         []ActionIssue `json:"aging"`
	OpenByState   []LabelCount  `json:"open_by_state"`
	TopCategories []LabelCount  `json:"top_categories"`
	GeneratedAt   time.Time     `json:"generated_at"`
}

// ThreadMessage is a message with sanitized HTML.
type ThreadMessage struct {
	ID         string    `json:"id"`
	SenderType string    `json:"sender_type"`
	SenderName *string   `json:"sender_name"`
	BodyHTML   *string   `json:"body_html"`
	BodyText   *string   `json:"body_text"`
	CreatedAt  time.Time `json:"created_at"`
}

// InsightsService builds the read views.
type InsightsService struct {
	reader    InsightsReader
	cache     QueryCache
	policy    sla.Policy
	clock     clock.Clock
	sanitizer *bluemonday.Policy
	ttl       time.Duration
	logger    *zap.Logger
}

// InsightsDependencies bundles collaborators for the insights service.
type InsightsDependencies struct {
	Reader   InsightsReader
	Cache    QueryCache
	Clock    clock.Clock
	CacheTTL time.Duration
	Logger   *zap.Logger
}

// NewInsightsService creates the service. A nil cache disables caching.
func NewInsightsService(deps InsightsDependencies) *InsightsService {
	c := deps.Clock
	if c == nil {
		c = clock.Real()
	}
	ttl := deps.CacheTTL
	if ttl <= 0 {
		ttl = DefaultQueryTTL
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InsightsService{
		reader:    deps.Reader,
		cache:     deps.Cache,
		policy:    sla.NewPolicy(c),
		clock:     c,
		sanitizer: bluemonday.UGCPolicy(),
		ttl:       ttl,
		logger:    logger,
	}
}

// ActNow returns the action view, optionally scoped to one account. The open
// issue rows are cached; SLA fields are evaluated against the clock on every
// call.
func (s *InsightsService) ActNow(ctx context.Context, accountID string) (*ActNowView, error) {
	key := "act-now:" + accountID
	var open []domain.IssueWithRelations
	if !s.cacheGet(ctx, key, &open) {
		var err error
		open, err = s.reader.ListOpenIssues(ctx, accountID)
		if err != nil {
			return nil, fmt.Errorf("list open issues: %w", err)
		}
		if open == nil {
			open = []domain.IssueWithRelations{}
		}
		s.cacheSet(ctx, key, open)
	}
	return s.buildActNow(open), nil
}

// IssueMessages returns the thread of an issue with HTML run through a UGC
// sanitizer.
func (s *InsightsService) IssueMessages(ctx context.Context, issueID string) ([]ThreadMessage, error) {
	issue, err := s.reader.GetIssue(ctx, issueID)
	if err != nil {
		return nil, fmt.Errorf("get issue: %w", err)
	}
	if issue == nil {
		return nil, apperrors.NewNotFound("issue", map[string]any{"id": issueID})
	}

	messages, err := s.reader.ListMessages(ctx, issueID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}

	thread := make([]ThreadMessage, 0, len(messages))
	for _, m := range messages {
		var body *string
		if m.BodyHTML != nil {
			clean := s.sanitizer.Sanitize(*m.BodyHTML)
			body = &clean
		}
		thread = append(thread, ThreadMessage{
			ID:         m.ID,
			SenderType: string(m.SenderType),
			SenderName: m.SenderName,
			BodyHTML:   body,
			BodyText:   m.BodyText,
			CreatedAt:  m.CreatedAt,
		})
	}
	return thread, nil
}

// InvalidateQueries drops every cached read view.
func (s *InsightsService) InvalidateQueries(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.InvalidateTag(ctx, QueriesTag)
}

func (s *InsightsService) buildActNow(open []domain.IssueWithRelations) *ActNowView {
	now := s.clock.Now()
	view := &ActNowView{
		Queue:       []ActionIssue{},
		Aging:       []ActionIssue{},
		GeneratedAt: now.UTC(),
	}

	byState := map[string]int{}
	byCategory := map[string]int{}
	for _, issue := range open {
		if !issue.IsOpen() {
			continue
		}
		byState[string(issue.State)]++
		category := unsetLabel
		if issue.Category != nil {
			category = *issue.Category
		}
		byCategory[category]++

		waiting := isWaitingOnUs(issue.State)
		urgent := isUrgentOrHigh(issue.Priority)
		if waiting {
			view.Summary.WaitingOnUs++
		}
		if urgent {
			view.Summary.UrgentHighOpen++
		}

		switch {
		case waiting || urgent:
			enriched := s.enrich(issue)
			switch enriched.SLAStatus {
			case sla.StatusBreached:
				view.Summary.Breached++
			case sla.StatusAtRisk:
				view.Summary.AtRisk++
			}
			view.Queue = append(view.Queue, enriched)
		case issue.CreatedAt.Before(now.Add(-agingThreshold)):
			view.Aging = append(view.Aging, s.enrich(issue))
		}
	}

	slices.SortStableFunc(view.Queue, func(a, b ActionIssue) int {
		if c := cmp.Compare(priorityRank(a.Priority), priorityRank(b.Priority)); c != 0 {
			return c
		}
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	slices.SortStableFunc(view.Queue, func(a, b ActionIssue) int {
		return cmp.Compare(statusRank(a.SLAStatus), statusRank(b.SLAStatus))
	})

	slices.SortStableFunc(view.Aging, func(a, b ActionIssue) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	if len(view.Aging) > agingLimit {
		view.Aging = view.Aging[:agingLimit]
	}

	view.OpenByState = sortedCounts(byState, 0)
	view.TopCategories = sortedCounts(byCategory, topCategories)
	return view
}

func (s *InsightsService) enrich(issue domain.IssueWithRelations) ActionIssue {
	eval := s.policy.Evaluate(issue.Priority, sla.MetricResolution, issue.CreatedAt)
	var hoursLeft *float64
	if !math.IsInf(eval.HoursLeft, 1) {
		h := eval.HoursLeft
		hoursLeft = &h
	}
	return ActionIssue{
		ID:            issue.ID,
		Title:         issue.Title,
		State:         string(issue.State),
		Priority:      issue.Priority,
		Category:      issue.Category,
		Handler:       issue.Handler,
		AccountName:   issue.AccountName,
		AssigneeName:  issue.AssigneeName,
		Link:          issue.Link,
		CreatedAt:     issue.CreatedAt,
		SLAStatus:     eval.Status,
		HoursLeft:     hoursLeft,
		TimeRemaining: eval.RemainingText,
	}
}

// cache failures degrade to a direct read.
func (s *InsightsService) cacheGet(ctx context.Context, key string, dest any) bool {
	if s.cache == nil {
		return false
	}
	hit, err := s.cache.Get(ctx, key, dest)
	if err != nil {
		s.logger.Warn("query cache read failed", zap.String("key", key), zap.Error(err))
		return false
	}
	return hit
}

func (s *InsightsService) cacheSet(ctx context.Context, key string, value any) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, value, s.ttl, QueriesTag); err != nil {
		s.logger.Warn("query cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func isWaitingOnUs(state domain.IssueState) bool {
	return state == domain.IssueStateNew || state == domain.IssueStateWaitingOnYou
}

func isUrgentOrHigh(priority *string) bool {
	if priority == nil {
		return false
	}
	p := sla.Priority(*priority)
	return p == sla.PriorityUrgent || p == sla.PriorityHigh
}

// priorityRank orders known tiers first, unknown and missing priorities last.
func priorityRank(priority *string) int {
	if priority != nil {
		for i, tier := range sla.Tiers {
			if tier == sla.Priority(*priority) {
				return i
			}
		}
	}
	return len(sla.Tiers)
}

func statusRank(status sla.Status) int {
	switch status {
	case sla.StatusBreached:
		return 0
	case sla.StatusAtRisk:
		return 1
	default:
		return 2
	}
}

// sortedCounts orders by count descending then label. limit <= 0 keeps all.
func sortedCounts(counts map[string]int, limit int) []LabelCount {
	out := make([]LabelCount, 0, len(counts))
	for label, n := range counts {
		out = append(out, LabelCount{Label: label, Count: n})
	}
	slices.SortFunc(out, func(a, b LabelCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Label, b.Label)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
