// Package retry runs a fallible remote call with a bounded number of
// retries and a linearly shrinking backoff.
package retry

import (
	"context"
	"time"

	"github.com/rcliao/calassist/internal/log"
	"github.com/rcliao/calassist/internal/remote"
)

// Policy configures retry behavior.
type Policy struct {
	// MaxRetries is the number of attempts after the first one.
	MaxRetries int
	// BaseDelay is multiplied by the number of retries still available
	// to get the wait before the next attempt.
	BaseDelay time.Duration
	// Retryable decides whether a failure gets another attempt.
	// Nil means remote.IsRetryable.
	Retryable func(error) bool
	// Sleep waits for d or until ctx is done. Nil means a timer-based sleep.
	Sleep func(ctx context.Context, d time.Duration) error
	Logger *log.Logger
}

// Default returns 3 retries with delays of 3s, 2s and 1s.
func Default() Policy {
	return Policy{
		MaxRetries: 3,
		BaseDelay:  time.Second,
	}
}

// Delay returns the wait before retry number n (1-based).
func (p Policy) Delay(n int) time.Duration {
	remaining := p.MaxRetries - n + 1
	if remaining < 0 {
		remaining = 0
	}
	return p.BaseDelay * time.Duration(remaining)
}

// Do calls fn until it succeeds, fails with a non-retryable error, or the
// retry budget is spent. The last error is returned unchanged.
func Do[T any](ctx context.Context, p Policy, fn func(ctx context.Context, attempt int) (T, error)) (T, error) {
	retryable := p.Retryable
	if retryable == nil {
		retryable = remote.IsRetryable
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = timerSleep
	}
	logger := p.Logger
	if logger == nil {
		logger = log.Default()
	}
	maxRetries := p.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}

	var zero T
	var lastErr error
	for attempt := 1; attempt <= maxRetries+1; attempt++ {
		if attempt > 1 {
			d := p.Delay(attempt - 1)
			logger.Debug("retry backoff", "attempt", attempt, "delay", d.String())
			if err := sleep(ctx, d); err != nil {
				return zero, remote.Canceled(err)
			}
		}

		v, err := fn(ctx, attempt)
		if err == nil {
			return v, nil
		}
		lastErr = err

		if !retryable(err) {
			return zero, err
		}
		if attempt <= maxRetries {
			logger.Warn("attempt failed, will retry", "attempt", attempt, "kind", remote.KindOf(err).String(), "err", err.Error())
		}
	}
	return zero, lastErr
}

func timerSleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
