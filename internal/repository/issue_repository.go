package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/support-insights/internal/domain"
)

// IssueFilter narrows issue listings.
type IssueFilter struct {
	AccountID     *string
	States        []domain.IssueState
	ExcludeClosed bool
	Priorities    []string
	Limit         int
}

// IssueRepository encapsulates issue persistence.
type IssueRepository interface {
	Upsert(ctx context.Context, issue domain.Issue) error
	GetByID(ctx context.Context, id string) (*domain.IssueWithRelations, error)
	List(ctx context.Context, filter IssueFilter) ([]domain.IssueWithRelations, error)
}

type issueRepository struct {
	pool *pgxpool.Pool
}

// NewIssueRepository instantiates repository.
func NewIssueRepository(pool *pgxpool.Pool) IssueRepository {
	return &issueRepository{pool: pool}
}

const issueSelect = `
        SELECT i.id, i.title, i.state, i.source, i.type, i.link, i.body_html, i.tags,
               i.account_id, i.assignee_id, i.created_at, i.closed_at, i.first_response_at,
               i.first_response_seconds, i.business_hours_first_response_seconds, i.resolution_time,
               i.number_of_touches, i.priority, i.category, i.handler, i.resolution_type,
               i.self_servable, i.synced_at, a.name, u.name
        FROM issues i
        LEFT JOIN accounts a ON a.id = i.account_id
        LEFT JOIN users u ON u.id = i.assignee_id`

func (r *issueRepository) Upsert(ctx context.Context, issue domain.Issue) error {
	const query = `
        INSERT INTO issues (id, title, state, source, type, link, body_html, tags, account_id, assignee_id,
            created_at, closed_at, first_response_at, first_response_seconds,
            business_hours_first_response_seconds, resolution_time, number_of_touches,
            priority, category, handler, resolution_type, self_servable, synced_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23)
        ON CONFLICT (id) DO UPDATE SET
            title=EXCLUDED.title, state=EXCLUDED.state, source=EXCLUDED.source, type=EXCLUDED.type,
            link=EXCLUDED.link, body_html=EXCLUDED.body_html, tags=EXCLUDED.tags,
            account_id=EXCLUDED.account_id, assignee_id=EXCLUDED.assignee_id,
            created_at=EXCLUDED.created_at, closed_at=EXCLUDED.closed_at,
            first_response_at=EXCLUDED.first_response_at,
            first_response_seconds=EXCLUDED.first_response_seconds,
            business_hours_first_response_seconds=EXCLUDED.business_hours_first_response_seconds,
            resolution_time=EXCLUDED.resolution_time, number_of_touches=EXCLUDED.number_of_touches,
            priority=EXCLUDED.priority, category=EXCLUDED.category, handler=EXCLUDED.handler,
            resolution_type=EXCLUDED.resolution_type, self_servable=EXCLUDED.self_servable,
            synced_at=EXCLUDED.synced_at`
	tags := issue.Tags
	if tags == nil {
		tags = []string{}
	}
	_, err := r.pool.Exec(ctx, query,
		issue.ID,
		issue.Title,
		issue.State,
		issue.Source,
		issue.Type,
		issue.Link,
		issue.BodyHTML,
		tags,
		issue.AccountID,
		issue.AssigneeID,
		issue.CreatedAt,
		issue.ClosedAt,
		issue.FirstResponseAt,
		issue.FirstResponseSeconds,
		issue.BusinessHoursFirstResponseSeconds,
		issue.ResolutionTime,
		issue.NumberOfTouches,
		issue.Priority,
		issue.Category,
		issue.Handler,
		issue.ResolutionType,
		issue.SelfServable,
		issue.SyncedAt,
	)
	return err
}

// GetByID returns nil without error when the issue does not exist.
func (r *issueRepository) GetByID(ctx context.Context, id string) (*domain.IssueWithRelations, error) {
	row := r.pool.QueryRow(ctx, issueSelect+` WHERE i.id=$1`, id)
	issue, err := scanIssue(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return issue, nil
}

func (r *issueRepository) List(ctx context.Context, filter IssueFilter) ([]domain.IssueWithRelations, error) {
	query, args := buildIssueQuery(filter)
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.IssueWithRelations
	for rows.Next() {
		issue, err := scanIssue(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *issue)
	}
	return result, rows.Err()
}

func buildIssueQuery(filter IssueFilter) (string, []any) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.AccountID != nil {
		args = append(args, *filter.AccountID)
		clauses = append(clauses, fmt.Sprintf("i.account_id=$%d", len(args)))
	}
	if filter.ExcludeClosed {
		args = append(args, domain.IssueStateClosed)
		clauses = append(clauses, fmt.Sprintf("i.state<>$%d", len(args)))
	}
	if len(filter.States) > 0 {
		placeholders := make([]string, len(filter.States))
		for i, state := range filter.States {
			args = append(args, state)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("i.state IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(filter.Priorities) > 0 {
		placeholders := make([]string, len(filter.Priorities))
		for i, pr := range filter.Priorities {
			args = append(args, pr)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("i.priority IN (%s)", strings.Join(placeholders, ",")))
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY i.created_at ASC, i.id ASC`, issueSelect, strings.Join(clauses, " AND "))
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}
	return query, args
}

func scanIssue(row pgx.Row) (*domain.IssueWithRelations, error) {
	var issue domain.IssueWithRelations
	if err := row.Scan(
		&issue.ID,
		&issue.Title,
		&issue.State,
		&issue.Source,
		&issue.Type,
		&issue.Link,
		&issue.BodyHTML,
		&issue.Tags,
		&issue.AccountID,
		&issue.AssigneeID,
		&issue.CreatedAt,
		&issue.ClosedAt,
		&issue.FirstResponseAt,
		&issue.FirstResponseSeconds,
		&issue.BusinessHoursFirstResponseSeconds,
		&issue.ResolutionTime,
		&issue.NumberOfTouches,
		&issue.Priority,
		&issue.Category,
		&issue.Handler,
		&issue.ResolutionType,
		&issue.SelfServable,
		&issue.SyncedAt,
		&issue.AccountName,
		&issue.AssigneeName,
	); err != nil {
		return nil, err
	}
	if issue.Tags == nil {
		issue.Tags = []string{}
	}
	return &issue, nil
}
