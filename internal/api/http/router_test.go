package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"time"

	"github.com/gofiber/fiber/v2"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/support-insights/internal/api/http"
	"github.com/spec-kit/support-insights/internal/api/http/handlers"
	"github.com/spec-kit/support-insights/internal/auth"
	"github.com/spec-kit/support-insights/internal/domain"
	"github.com/spec-kit/support-insights/internal/observability"
	"github.com/spec-kit/support-insights/internal/service"
	"github.com/spec-kit/support-insights/internal/worker"
	apperrors "github.com/spec-kit/support-insights/pkg/util"
)

type response struct {
	status int
	body   string
}

var _ = Describe("Routes", func() {
	var (
		trigger         *mockTrigger
		runs            *mockRuns
		insights        *mockInsights
		metrics         *observability.Metrics
		secret          string
		tokenConfigured bool
		redisErr        error
		app             *fiber.App
	)

	do := func(method, target, authorization string) response {
		req := httptest.NewRequest(method, target, nil)
		if authorization != "" {
			req.Header.Set("Authorization", authorization)
		}
		resp, err := app.Test(req)
		Expect(err).NotTo(HaveOccurred())
		body, err := io.ReadAll(resp.Body)
		Expect(err).NotTo(HaveOccurred())
		return response{status: resp.StatusCode, body: string(body)}
	}

	BeforeEach(func() {
		trigger = &mockTrigger{}
		runs = &mockRuns{}
		insights = &mockInsights{}
		metrics = observability.NewMetrics()
		secret = ""
		tokenConfigured = true
		redisErr = nil
	})

	JustBeforeEach(func() {
		app = fiber.New()
		httptransport.RegisterMiddlewares(app, zap.NewNop(), metrics, 5*time.Second)
		httptransport.RegisterRoutes(app, httptransport.RouteConfig{
			Health: handlers.NewHealthHandler("support-insights", "test", map[string]handlers.Pinger{
				"postgres": pingFunc(func(context.Context) error { return nil }),
				"redis":    pingFunc(func(context.Context) error { return redisErr }),
			}),
			Sync:       handlers.NewSyncHandler(trigger, runs, tokenConfigured, zap.NewNop()),
			Insights:   handlers.NewInsightsHandler(insights),
			Metrics:    handlers.NewMetricsHandler(metrics),
			CronSecret: auth.NewCronSecret(secret),
		})
	})

	Describe("POST /api/sync", func() {
		It("reports success", func() {
			res := do("POST", "/api/sync", "")

			Expect(res.status).To(Equal(fiber.StatusOK))
			Expect(res.body).To(MatchJSON(`{"ok":true}`))
			Expect(trigger.calls).To(Equal(1))
		})

		It("reports the failure message", func() {
			trigger.runFn = func(context.Context) (*service.SyncSummary, error) {
				return nil, errors.New("helpdesk api error: 500")
			}

			res := do("POST", "/api/sync", "")

			Expect(res.status).To(Equal(fiber.StatusInternalServerError))
			Expect(res.body).To(MatchJSON(`{"error":"helpdesk api error: 500"}`))
		})

		It("returns conflict while another sync runs", func() {
			trigger.runFn = func(context.Context) (*service.SyncSummary, error) {
				return nil, worker.ErrSyncInProgress
			}

			res := do("POST", "/api/sync", "")

			Expect(res.status).To(Equal(fiber.StatusConflict))
			Expect(res.body).To(MatchJSON(`{"error":"sync already in progress"}`))
		})

		It("does not cancel the run at the request deadline", func() {
			var hasDeadline bool
			trigger.runFn = func(ctx context.Context) (*service.SyncSummary, error) {
				_, hasDeadline = ctx.Deadline()
				return &service.SyncSummary{}, nil
			}

			do("POST", "/api/sync", "")

			Expect(hasDeadline).To(BeFalse())
		})

		Context("without a helpdesk token", func() {
			BeforeEach(func() { tokenConfigured = false })

			It("refuses to run", func() {
				res := do("POST", "/api/sync", "")

				Expect(res.status).To(Equal(fiber.StatusInternalServerError))
				Expect(res.body).To(MatchJSON(`{"error":"HELPDESK_API_TOKEN not configured"}`))
				Expect(trigger.calls).To(BeZero())
			})
		})

		Context("with a cron secret", func() {
			BeforeEach(func() { secret = "s3cret" })

			It("rejects a missing bearer", func() {
				res := do("POST", "/api/sync", "")

				Expect(res.status).To(Equal(fiber.StatusUnauthorized))
				Expect(res.body).To(MatchJSON(`{"error":"Unauthorized"}`))
				Expect(trigger.calls).To(BeZero())
			})

			It("runs with the right bearer", func() {
				res := do("POST", "/api/sync", "Bearer s3cret")

				Expect(res.status).To(Equal(fiber.StatusOK))
			})
		})
	})

	Describe("GET /api/sync/runs", func() {
		It("lists ledger entries", func() {
			ended := time.Date(2026, 2, 1, 10, 5, 0, 0, time.UTC)
			runs.runs = []domain.SyncRun{{
				ID:           "sync-001",
				Status:       domain.SyncRunStatusCompleted,
				StartedAt:    time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC),
				EndedAt:      &ended,
				IssuesSynced: 4,
			}}

			res := do("GET", "/api/sync/runs?limit=5", "")

			Expect(res.status).To(Equal(fiber.StatusOK))
			var payload struct {
				Data []map[string]any `json:"data"`
			}
			Expect(json.Unmarshal([]byte(res.body), &payload)).To(Succeed())
			Expect(payload.Data).To(HaveLen(1))
			Expect(payload.Data[0]).To(HaveKeyWithValue("status", "completed"))
			Expect(payload.Data[0]).To(HaveKeyWithValue("errors", BeEmpty()))
			Expect(runs.limits).To(Equal([]int{5}))
		})

		It("caps the limit", func() {
			do("GET", "/api/sync/runs?limit=5000", "")

			Expect(runs.limits).To(Equal([]int{100}))
		})

		It("maps store failures to an internal error", func() {
			runs.err = errors.New("db down")

			res := do("GET", "/api/sync/runs", "")

			Expect(res.status).To(Equal(fiber.StatusInternalServerError))
			Expect(res.body).To(MatchJSON(`{"error":{"code":"INTERNAL_ERROR","message":"internal server error"}}`))
		})
	})

	Describe("GET /api/act-now", func() {
		It("passes the account filter", func() {
			res := do("GET", "/api/act-now?account=account-001", "")

			Expect(res.status).To(Equal(fiber.StatusOK))
			Expect(insights.accounts).To(Equal([]string{"account-001"}))
			Expect(res.body).To(ContainSubstring(`"queue":[]`))
		})
	})

	Describe("GET /api/issues/:id/messages", func() {
		It("returns the thread", func() {
			insights.messagesFn = func(_ context.Context, id string) ([]service.ThreadMessage, error) {
				return []service.ThreadMessage{{ID: "msg-001", SenderType: "customer"}}, nil
			}

			res := do("GET", "/api/issues/issue-001/messages", "")

			Expect(res.status).To(Equal(fiber.StatusOK))
			Expect(res.body).To(ContainSubstring(`"id":"msg-001"`))
		})

		It("maps unknown issues to 404", func() {
			insights.messagesFn = func(_ context.Context, id string) ([]service.ThreadMessage, error) {
				return nil, apperrors.NewNotFound("issue", map[string]any{"id": id})
			}

			res := do("GET", "/api/issues/missing/messages", "")

			Expect(res.status).To(Equal(fiber.StatusNotFound))
			Expect(res.body).To(MatchJSON(`{"error":{"code":"NOT_FOUND","message":"issue not found","details":{"id":"missing"}}}`))
		})
	})

	Describe("health", func() {
		It("is live", func() {
			res := do("GET", "/health/live", "")

			Expect(res.status).To(Equal(fiber.StatusOK))
			Expect(res.body).To(ContainSubstring(`"status":"alive"`))
		})

		It("reports unavailable dependencies", func() {
			redisErr = errors.New("connection refused")

			res := do("GET", "/health/ready", "")

			Expect(res.status).To(Equal(fiber.StatusServiceUnavailable))
			Expect(res.body).To(ContainSubstring(`"redis":"connection refused"`))
			Expect(res.body).To(ContainSubstring(`"postgres":"ok"`))
		})
	})

	It("answers unknown routes with 404", func() {
		res := do("GET", "/nope", "")

		Expect(res.status).To(Equal(fiber.StatusNotFound))
		Expect(res.body).To(ContainSubstring(`"code":"HTTP_ERROR"`))
	})

	It("exposes request counters", func() {
		do("GET", "/health/live", "")

		res := do("GET", "/metrics", "")

		Expect(res.status).To(Equal(fiber.StatusOK))
		Expect(res.body).To(ContainSubstring(`/health/live|GET|200`))
	})
})
