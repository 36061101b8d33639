package handlers

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-insights/internal/service"
	apperrors "github.com/spec-kit/support-insights/pkg/util"
)

// InsightsProvider builds the read views.
type InsightsProvider interface {
	ActNow(ctx context.Context, accountID string) (*service.ActNowView, error)
	IssueMessages(ctx context.Context, issueID string) ([]service.ThreadMessage, error)
}

// InsightsHandler serves dashboard reads.
type InsightsHandler struct {
	insights InsightsProvider
}

// NewInsightsHandler constructs handler.
func NewInsightsHandler(insights InsightsProvider) *InsightsHandler {
	return &InsightsHandler{insights: insights}
}

// ActNow GET /api/act-now.
func (h *InsightsHandler) ActNow(c *fiber.Ctx) error {
	view, err := h.insights.ActNow(c.UserContext(), strings.TrimSpace(c.Query("account")))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": view})
}

// IssueMessages GET /api/issues/:id/messages.
func (h *InsightsHandler) IssueMessages(c *fiber.Ctx) error {
	id := strings.TrimSpace(c.Params("id"))
	if id == "" {
		return apperrors.NewValidationError("issue id required", nil)
	}
	thread, err := h.insights.IssueMessages(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": thread})
}
