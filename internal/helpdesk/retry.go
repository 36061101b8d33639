package helpdesk

import (
	"context"
	"errors"
	"time"
)

// DefaultRetryDelays is the backoff sequence used when none is configured.
var DefaultRetryDelays = []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}

// RetryPolicy decides whether and when a failed call is attempted again.
type RetryPolicy struct {
	// Delays holds the wait before each retry; the number of retries equals len(Delays).
	Delays []time.Duration
	// Retryable reports whether a status code may be retried.
	Retryable func(status int) bool
}

// DefaultRetryPolicy retries 429 and 5xx after 1s, 2s and 4s.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{Delays: DefaultRetryDelays, Retryable: IsRetryableStatus}
}

// MaxAttempts is the total number of calls the policy allows.
func (p RetryPolicy) MaxAttempts() int {
	return len(p.Delays) + 1
}

func (p RetryPolicy) delay(retry int) time.Duration {
	if len(p.Delays) == 0 {
		return 0
	}
	if retry < len(p.Delays) {
		return p.Delays[retry]
	}
	return p.Delays[len(p.Delays)-1]
}

func (p RetryPolicy) shouldRetry(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	retryable := p.Retryable
	if retryable == nil {
		retryable = IsRetryableStatus
	}
	return retryable(apiErr.StatusCode)
}

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Sleep is the context-aware SleepFunc used in production.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Execute runs op until it succeeds, returns a non-retryable error, or the
// policy runs out of attempts. onRetry, when set, is called before each wait.
func Execute[T any](ctx context.Context, p RetryPolicy, sleep SleepFunc, onRetry func(attempt int, err error, wait time.Duration), op func(ctx context.Context) (T, error)) (T, error) {
	if sleep == nil {
		sleep = Sleep
	}

	var zero T
	var lastErr error
	for attempt := 0; attempt < p.MaxAttempts(); attempt++ {
		result, err := op(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if !p.shouldRetry(err) || attempt == p.MaxAttempts()-1 {
			return zero, err
		}

		wait := p.delay(attempt)
		if onRetry != nil {
			onRetry(attempt+1, err, wait)
		}
		if err := sleep(ctx, wait); err != nil {
			return zero, err
		}
	}
	return zero, lastErr
}
