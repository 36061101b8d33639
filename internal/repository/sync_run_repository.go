package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/support-insights/internal/domain"
)

// SyncRunRepository stores the sync ledger.
type SyncRunRepository interface {
	Create(ctx context.Context) (*domain.SyncRun, error)
	Complete(ctx context.Context, id string, stats domain.RunStats) error
	Fail(ctx context.Context, id string, cause error) error
	LastSuccessful(ctx context.Context) (*domain.SyncRun, error)
	ListRecent(ctx context.Context, limit int) ([]domain.SyncRun, error)
}

type syncRunRepository struct {
	pool *pgxpool.Pool
}

// NewSyncRunRepository builds repository.
func NewSyncRunRepository(pool *pgxpool.Pool) SyncRunRepository {
	return &syncRunRepository{pool: pool}
}

const syncRunSelect = `
        SELECT id::text, started_at, ended_at, status, issues_synced, accounts_synced, messages_synced,
               last_issue_updated_at, errors
        FROM sync_runs`

func (r *syncRunRepository) Create(ctx context.Context) (*domain.SyncRun, error) {
	const query = `
        INSERT INTO sync_runs (id, started_at, status)
        VALUES ($1, NOW(), $2)
        RETURNING started_at`
	run := &domain.SyncRun{
		ID:     uuid.NewString(),
		Status: domain.SyncRunStatusRunning,
	}
	if err := r.pool.QueryRow(ctx, query, run.ID, run.Status).Scan(&run.StartedAt); err != nil {
		return nil, err
	}
	return run, nil
}

func (r *syncRunRepository) Complete(ctx context.Context, id string, stats domain.RunStats) error {
	const query = `
        UPDATE sync_runs SET ended_at=NOW(), status=$1, issues_synced=$2, accounts_synced=$3,
            messages_synced=$4, last_issue_updated_at=$5
        WHERE id=$6`
	cmd, err := r.pool.Exec(ctx, query,
		domain.SyncRunStatusCompleted,
		stats.IssuesSynced,
		stats.AccountsSynced,
		stats.MessagesSynced,
		stats.LastIssueUpdatedAt,
		id,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *syncRunRepository) Fail(ctx context.Context, id string, cause error) error {
	const query = `UPDATE sync_runs SET ended_at=NOW(), status=$1, errors=$2 WHERE id=$3`
	payload, err := EncodeRunErrors(cause)
	if err != nil {
		return err
	}
	cmd, err := r.pool.Exec(ctx, query, domain.SyncRunStatusFailed, payload, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// LastSuccessful returns nil without error before the first completed run.
func (r *syncRunRepository) LastSuccessful(ctx context.Context) (*domain.SyncRun, error) {
	query := syncRunSelect + ` WHERE status=$1 ORDER BY started_at DESC LIMIT 1`
	run, err := scanSyncRun(r.pool.QueryRow(ctx, query, domain.SyncRunStatusCompleted))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return run, err
}

func (r *syncRunRepository) ListRecent(ctx context.Context, limit int) ([]domain.SyncRun, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.pool.Query(ctx, syncRunSelect+` ORDER BY started_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.SyncRun{}
	for rows.Next() {
		run, err := scanSyncRun(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *run)
	}
	return result, rows.Err()
}

func scanSyncRun(row pgx.Row) (*domain.SyncRun, error) {
	var (
		run       domain.SyncRun
		rawErrors []byte
	)
	if err := row.Scan(
		&run.ID,
		&run.StartedAt,
		&run.EndedAt,
		&run.Status,
		&run.IssuesSynced,
		&run.AccountsSynced,
		&run.MessagesSynced,
		&run.LastIssueUpdatedAt,
		&rawErrors,
	); err != nil {
		return nil, err
	}
	decoded, err := DecodeRunErrors(rawErrors)
	if err != nil {
		return nil, err
	}
	run.Errors = decoded
	return &run, nil
}

// EncodeRunErrors renders the failure of a run as a JSON array of messages.
func EncodeRunErrors(cause error) ([]byte, error) {
	messages := []string{}
	if cause != nil {
		messages = append(messages, cause.Error())
	}
	return json.Marshal(messages)
}

// DecodeRunErrors reverses EncodeRunErrors. NULL decodes to nil.
func DecodeRunErrors(raw []byte) ([]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var messages []string
	if err := json.Unmarshal(raw, &messages); err != nil {
		return nil, fmt.Errorf("decode sync run errors: %w", err)
	}
	return messages, nil
}
