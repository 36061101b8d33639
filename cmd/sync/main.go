package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/support-insights/internal/bootstrap"
	"github.com/spec-kit/support-insights/internal/config"
	"github.com/spec-kit/support-insights/internal/observability"
	"github.com/spec-kit/support-insights/internal/service"
)

func main() {
	backfill := flag.Bool("backfill", false, "re-sync every issue from -from instead of the last watermark")
	from := flag.String("from", "", "backfill start as RFC3339 (defaults to SYNC_DEFAULT_WATERMARK)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	if cfg.Helpdesk.APIToken == "" {
		logger.Fatal("HELPDESK_API_TOKEN not configured")
	}

	var start time.Time
	if *from != "" {
		start, err = time.Parse(time.RFC3339, *from)
		if err != nil {
			logger.Fatal("invalid -from", zap.Error(err))
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	components, err := bootstrap.Build(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to wire application", zap.Error(err))
	}
	defer components.Close()

	var summary *service.SyncSummary
	if *backfill {
		summary, err = components.Runner.Backfill(ctx, start)
	} else {
		summary, err = components.Runner.Run(ctx)
	}
	if err != nil {
		logger.Error("sync failed", zap.Error(err))
		components.Close()
		os.Exit(1)
	}

	logger.Info("sync finished",
		zap.String("run_id", summary.RunID),
		zap.String("mode", summary.Mode),
		zap.Int("issues", summary.IssuesSynced),
		zap.Int("accounts", summary.AccountsSynced),
		zap.Int("messages", summary.MessagesSynced),
		zap.Time("watermark", summary.Watermark))
}
