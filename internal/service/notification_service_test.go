package service_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/spec-kit/support-insights/internal/config"
	"github.com/spec-kit/support-insights/internal/events"
	"github.com/spec-kit/support-insights/internal/service"
)

var _ = Describe("NotificationService", func() {
	var (
		ctx         context.Context
		dispatcher  events.Dispatcher
		invalidator *mockInvalidator
	)

	BeforeEach(func() {
		ctx = context.Background()
		dispatcher = events.NewInMemoryDispatcher()
		invalidator = &mockInvalidator{}
		service.NewNotificationService(dispatcher, invalidator, zap.NewNop(), config.NotificationConfig{
			WebhookURL: "https://hooks.example.com/sync",
		}).RegisterHandlers()
	})

	It("invalidates cached queries when a sync completes", func() {
		Expect(dispatcher.Publish(ctx, events.Event{Type: events.EventSyncCompleted, RunID: "sync-001"})).To(Succeed())

		Expect(invalidator.calls).To(Equal(1))
	})

	It("leaves the cache alone when a sync fails", func() {
		Expect(dispatcher.Publish(ctx, events.Event{Type: events.EventSyncFailed, RunID: "sync-001"})).To(Succeed())

		Expect(invalidator.calls).To(BeZero())
	})

	It("surfaces invalidation failures to the publisher", func() {
		invalidator.err = errors.New("redis down")

		err := dispatcher.Publish(ctx, events.Event{Type: events.EventSyncCompleted})

		Expect(err).To(MatchError(invalidator.err))
	})

	It("tolerates a missing dispatcher", func() {
		Expect(func() {
			service.NewNotificationService(nil, nil, nil, config.NotificationConfig{}).RegisterHandlers()
		}).NotTo(Panic())
	})
})
