package helpdesk_test

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/spec-kit/support-insights/internal/helpdesk"
)

var _ = Describe("Execute", func() {
	var (
		ctx    context.Context
		policy helpdesk.RetryPolicy
		waits  []time.Duration
		sleep  helpdesk.SleepFunc
	)

	BeforeEach(func() {
		ctx = context.Background()
		waits = nil
		policy = helpdesk.RetryPolicy{
			Delays:    []time.Duration{10 * time.Millisecond, 20 * time.Millisecond},
			Retryable: helpdesk.IsRetryableStatus,
		}
		sleep = func(_ context.Context, d time.Duration) error {
			waits = append(waits, d)
			return nil
		}
	})

	It("allows one attempt more than there are delays", func() {
		Expect(policy.MaxAttempts()).To(Equal(3))
		Expect(helpdesk.DefaultRetryPolicy().MaxAttempts()).To(Equal(4))
	})

	It("returns the first success without waiting", func() {
		calls := 0
		out, err := helpdesk.Execute(ctx, policy, sleep, nil, func(context.Context) (string, error) {
			calls++
			return "ok", nil
		})

		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(Equal("ok"))
		Expect(calls).To(Equal(1))
		Expect(waits).To(BeEmpty())
	})

	It("does not retry errors that carry no status", func() {
		calls := 0
		boom := errors.New("connection refused")
		_, err := helpdesk.Execute(ctx, policy, sleep, nil, func(context.Context) (int, error) {
			calls++
			return 0, boom
		})

		Expect(err).To(MatchError(boom))
		Expect(calls).To(Equal(1))
	})

	It("honours a custom retryable predicate", func() {
		policy.Retryable = func(status int) bool { return status == 418 }
		calls := 0
		_, err := helpdesk.Execute(ctx, policy, sleep, nil, func(context.Context) (int, error) {
			calls++
			return 0, &helpdesk.APIError{StatusCode: 500}
		})

		Expect(helpdesk.StatusCode(err)).To(Equal(500))
		Expect(calls).To(Equal(1))
	})

	It("reports each retry and waits the configured delays", func() {
		var attempts []int
		calls := 0
		out, err := helpdesk.Execute(ctx, policy, sleep,
			func(attempt int, _ error, _ time.Duration) { attempts = append(attempts, attempt) },
			func(context.Context) (int, error) {
				calls++
				if calls < 3 {
					return 0, &helpdesk.APIError{StatusCode: 503}
				}
				return 7, nil
			})

		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(Equal(7))
		Expect(attempts).To(Equal([]int{1, 2}))
		Expect(waits).To(Equal([]time.Duration{10 * time.Millisecond, 20 * time.Millisecond}))
	})

	It("stops waiting when the context is cancelled", func() {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := helpdesk.Execute(cctx, policy, helpdesk.Sleep, nil, func(context.Context) (int, error) {
			return 0, &helpdesk.APIError{StatusCode: 429}
		})

		Expect(errors.Is(err, context.Canceled)).To(BeTrue())
	})
})
