package worker_test

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/spec-kit/support-insights/internal/service"
	"github.com/spec-kit/support-insights/internal/worker"
)

var _ = Describe("Scheduler", func() {
	It("rejects a malformed schedule", func() {
		runner := worker.NewSyncRunner(&mockSyncer{}, nil, time.Minute, nil)

		_, err := worker.NewScheduler("every tuesday", runner, time.Minute, zap.NewNop())

		Expect(err).To(HaveOccurred())
	})

	It("accepts descriptors and five-field specs", func() {
		runner := worker.NewSyncRunner(&mockSyncer{}, nil, time.Minute, nil)

		_, err := worker.NewScheduler("@hourly", runner, time.Minute, nil)
		Expect(err).NotTo(HaveOccurred())

		_, err = worker.NewScheduler("*/15 * * * *", runner, time.Minute, nil)
		Expect(err).NotTo(HaveOccurred())
	})

	It("runs one sync per tick with a deadline", func() {
		var deadlineSet bool
		syncer := &mockSyncer{runFn: func(ctx context.Context) (*service.SyncSummary, error) {
			_, deadlineSet = ctx.Deadline()
			return &service.SyncSummary{RunID: "sync-001"}, nil
		}}
		scheduler, err := worker.NewScheduler("@hourly", worker.NewSyncRunner(syncer, nil, time.Minute, nil), time.Minute, nil)
		Expect(err).NotTo(HaveOccurred())

		scheduler.Tick()

		Expect(syncer.runs).To(Equal(1))
		Expect(deadlineSet).To(BeTrue())
	})

	It("swallows sync failures", func() {
		syncer := &mockSyncer{runFn: func(context.Context) (*service.SyncSummary, error) {
			return nil, errors.New("boom")
		}}
		scheduler, err := worker.NewScheduler("@hourly", worker.NewSyncRunner(syncer, nil, time.Minute, nil), 0, nil)
		Expect(err).NotTo(HaveOccurred())

		Expect(scheduler.Tick).NotTo(Panic())
	})

	It("starts and stops cleanly", func() {
		scheduler, err := worker.NewScheduler("@hourly", worker.NewSyncRunner(&mockSyncer{}, nil, time.Minute, nil), time.Minute, nil)
		Expect(err).NotTo(HaveOccurred())

		scheduler.Start()
		Eventually(scheduler.Stop().Done()).Should(BeClosed())
	})
})
