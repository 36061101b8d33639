package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/support-insights/internal/domain"
)

// MessageRepository handles thread messages.
type MessageRepository interface {
	Upsert(ctx context.Context, message domain.Message) error
	ListByIssue(ctx context.Context, issueID string) ([]domain.Message, error)
}

type messageRepository struct {
	pool *pgxpool.Pool
}

// NewMessageRepository builds repository.
func NewMessageRepository(pool *pgxpool.Pool) MessageRepository {
	return &messageRepository{pool: pool}
}

func (r *messageRepository) Upsert(ctx context.Context, message domain.Message) error {
	const query = `
        INSERT INTO messages (id, issue_id, sender_type, sender_name, body_html, body_text, created_at, synced_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        ON CONFLICT (id) DO UPDATE SET
            issue_id=EXCLUDED.issue_id, sender_type=EXCLUDED.sender_type, sender_name=EXCLUDED.sender_name,
            body_html=EXCLUDED.body_html, body_text=EXCLUDED.body_text, created_at=EXCLUDED.created_at,
            synced_at=EXCLUDED.synced_at`
	_, err := r.pool.Exec(ctx, query,
		message.ID,
		message.IssueID,
		message.SenderType,
		message.SenderName,
		message.BodyHTML,
		message.BodyText,
		message.CreatedAt,
		message.SyncedAt,
	)
	return err
}

func (r *messageRepository) ListByIssue(ctx context.Context, issueID string) ([]domain.Message, error) {
	const query = `
        SELECT id, issue_id, sender_type, sender_name, body_html, body_text, created_at, synced_at
        FROM messages WHERE issue_id=$1 ORDER BY created_at ASC, id ASC`
	rows, err := r.pool.Query(ctx, query, issueID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.Message{}
	for rows.Next() {
		var message domain.Message
		if err := rows.Scan(
			&message.ID,
			&message.IssueID,
			&message.SenderType,
			&message.SenderName,
			&message.BodyHTML,
			&message.BodyText,
			&message.CreatedAt,
			&message.SyncedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, message)
	}
	return result, rows.Err()
}
