package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/support-insights/internal/domain"
)

// AccountRepository manages customer accounts.
type AccountRepository interface {
	Upsert(ctx context.Context, account domain.Account) error
}

type accountRepository struct {
	pool *pgxpool.Pool
}

// NewAccountRepository builds repository.
func NewAccountRepository(pool *pgxpool.Pool) AccountRepository {
	return &accountRepository{pool: pool}
}

func (r *accountRepository) Upsert(ctx context.Context, account domain.Account) error {
	const query = `
        INSERT INTO accounts (id, name, domain, synced_at)
        VALUES ($1,$2,$3,$4)
        ON CONFLICT (id) DO UPDATE SET name=EXCLUDED.name, domain=EXCLUDED.domain, synced_at=EXCLUDED.synced_at`
	_, err := r.pool.Exec(ctx, query, account.ID, account.Name, account.Domain, account.SyncedAt)
	return err
}
