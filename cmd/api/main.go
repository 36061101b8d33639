package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/support-insights/internal/api/http"
	"github.com/spec-kit/support-insights/internal/api/http/handlers"
	"github.com/spec-kit/support-insights/internal/auth"
	"github.com/spec-kit/support-insights/internal/bootstrap"
	"github.com/spec-kit/support-insights/internal/config"
	"github.com/spec-kit/support-insights/internal/observability"
	"github.com/spec-kit/support-insights/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	components, err := bootstrap.Build(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to wire application", zap.Error(err))
	}
	defer components.Close()

	if cfg.Sync.Cron != "" {
		scheduler, err := worker.NewScheduler(cfg.Sync.Cron, components.Runner, cfg.Sync.LockTTL(), logger.Named("cron"))
		if err != nil {
			logger.Fatal("invalid SYNC_CRON", zap.Error(err))
		}
		scheduler.Start()
		defer func() { <-scheduler.Stop().Done() }()
		logger.Info("sync scheduled", zap.String("cron", cfg.Sync.Cron))
	}

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, components.Metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, map[string]handlers.Pinger{
			"postgres": components.Postgres,
			"redis":    components.Redis,
		}),
		Sync:       handlers.NewSyncHandler(components.Runner, components.Store, cfg.Helpdesk.APIToken != "", logger.Named("http")),
		Insights:   handlers.NewInsightsHandler(components.Insights),
		Metrics:    handlers.NewMetricsHandler(components.Metrics),
		CronSecret: auth.NewCronSecret(cfg.Sync.CronSecret),
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.ShutdownWithTimeout(10 * time.Second)
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
