package bootstrap

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/spec-kit/support-insights/internal/cache"
	"github.com/spec-kit/support-insights/internal/clock"
	"github.com/spec-kit/support-insights/internal/config"
	"github.com/spec-kit/support-insights/internal/events"
	"github.com/spec-kit/support-insights/internal/helpdesk"
	"github.com/spec-kit/support-insights/internal/observability"
	"github.com/spec-kit/support-insights/internal/persistence"
	"github.com/spec-kit/support-insights/internal/repository"
	"github.com/spec-kit/support-insights/internal/service"
	"github.com/spec-kit/support-insights/internal/worker"
)

// Components is the wired application shared by the server and the CLI.
type Components struct {
	Postgres *persistence.Postgres
	Redis    *persistence.Redis
	Store    *repository.Store
	Metrics  *observability.Metrics
	Sync     *service.SyncService
	Insights *service.InsightsService
	Runner   *worker.SyncRunner
}

// Build connects storage, runs migrations when enabled and wires services.
func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Components, error) {
	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		return nil, err
	}
	if pg.PoolHandle() == nil {
		return nil, persistence.ErrPostgresNotConfigured
	}
	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
			pg.Close()
			return nil, err
		}
	}
	redis := persistence.NewRedis(cfg.Redis, logger)

	store := repository.NewStore(pg.PoolHandle())
	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()

	insights := service.NewInsightsService(service.InsightsDependencies{
		Reader:   store,
		Cache:    cache.NewQueryCache(redis.Client, ""),
		CacheTTL: cfg.Cache.QueryTTL(),
		Logger:   logger.Named("insights"),
	})
	worker.StartNotificationWorker(dispatcher, insights, logger.Named("notifications"), cfg.Notification)

	retry := helpdesk.DefaultRetryPolicy()
	if delays := cfg.Helpdesk.RetryDelays(); len(delays) > 0 {
		retry.Delays = delays
	}
	pageDelay := cfg.Helpdesk.PageDelay()
	client := helpdesk.NewClient(helpdesk.Options{
		BaseURL:    cfg.Helpdesk.BaseURL,
		Token:      cfg.Helpdesk.APIToken,
		HTTPClient: &http.Client{Timeout: cfg.Helpdesk.HTTPTimeout()},
		Retry:      &retry,
		PageDelay:  &pageDelay,
		Logger:     logger.Named("helpdesk"),
	})

	sync := service.NewSyncService(service.SyncDependencies{
		Source:           client,
		Store:            store,
		Clock:            clock.Real(),
		Dispatcher:       dispatcher,
		Metrics:          metrics,
		Logger:           logger.Named("sync"),
		DefaultWatermark: cfg.Sync.DefaultWatermark,
		Window:           cfg.Sync.Window(),
	})

	return &Components{
		Postgres: pg,
		Redis:    redis,
		Store:    store,
		Metrics:  metrics,
		Sync:     sync,
		Insights: insights,
		Runner:   worker.NewSyncRunner(sync, redis, cfg.Sync.LockTTL(), logger.Named("runner")),
	}, nil
}

// Close releases storage connections.
func (c *Components) Close() {
	c.Redis.Close()
	c.Postgres.Close()
}
