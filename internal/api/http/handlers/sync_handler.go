package handlers

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/support-insights/internal/api/dto"
	"github.com/spec-kit/support-insights/internal/domain"
	"github.com/spec-kit/support-insights/internal/service"
	"github.com/spec-kit/support-insights/internal/worker"
)

const maxRunsLimit = 100

// SyncTrigger starts one incremental sync.
type SyncTrigger interface {
	Run(ctx context.Context) (*service.SyncSummary, error)
}

// RunLister reads the sync ledger.
type RunLister interface {
	RecentRuns(ctx context.Context, limit int) ([]domain.SyncRun, error)
}

// SyncHandler exposes the sync trigger and the run ledger.
type SyncHandler struct {
	trigger         SyncTrigger
	runs            RunLister
	tokenConfigured bool
	logger          *zap.Logger
}

// NewSyncHandler constructs handler. tokenConfigured reports whether a
// helpdesk API token is available.
func NewSyncHandler(trigger SyncTrigger, runs RunLister, tokenConfigured bool, logger *zap.Logger) *SyncHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SyncHandler{trigger: trigger, runs: runs, tokenConfigured: tokenConfigured, logger: logger}
}

// Trigger POST /api/sync.
func (h *SyncHandler) Trigger(c *fiber.Ctx) error {
	if !h.tokenConfigured {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "HELPDESK_API_TOKEN not configured"})
	}

	// The run outlives the request deadline. It holds the renewed sync lock
	// until it finishes.
	summary, err := h.trigger.Run(context.WithoutCancel(c.UserContext()))
	switch {
	case errors.Is(err, worker.ErrSyncInProgress):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case err != nil:
		h.logger.Error("sync trigger failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	h.logger.Info("sync trigger finished", zap.String("run_id", summary.RunID))
	return c.JSON(fiber.Map{"ok": true})
}

// ListRuns GET /api/sync/runs.
func (h *SyncHandler) ListRuns(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 20)
	if limit <= 0 || limit > maxRunsLimit {
		limit = maxRunsLimit
	}
	runs, err := h.runs.RecentRuns(c.UserContext(), limit)
	if err != nil {
		return err
	}
	items := make([]dto.SyncRunResponse, 0, len(runs))
	for _, run := range runs {
		items = append(items, dto.NewSyncRunResponse(run))
	}
	return c.JSON(fiber.Map{"data": items})
}
