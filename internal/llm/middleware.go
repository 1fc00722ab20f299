package llm

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"
	"golang.org/x/time/rate"

	"reposcope/internal/metrics"
)

// WithRateLimit blocks each call until limiter admits it.
func WithRateLimit(next Completer, limiter *rate.Limiter) Completer {
	if limiter == nil {
		return next
	}
	return CompleterFunc(func(ctx context.Context, prompt string, opts Options) (string, error) {
		if err := limiter.Wait(ctx); err != nil {
			return "", err
		}
		return next.Complete(ctx, prompt, opts)
	})
}

// WithRetry retries transient failures with exponential backoff, making at
// most attempts calls. Non-temporary StatusErrors and context errors are not
// retried.
func WithRetry(next Completer, attempts uint) Completer {
	if attempts <= 1 {
		return next
	}
	return CompleterFunc(func(ctx context.Context, prompt string, opts Options) (string, error) {
		op := func() (string, error) {
			out, err := next.Complete(ctx, prompt, opts)
			if err == nil {
				return out, nil
			}
			if !retryable(err) {
				return "", backoff.Permanent(err)
			}
			return "", err
		}
		eb := backoff.NewExponentialBackOff()
		eb.InitialInterval = 250 * time.Millisecond
		return backoff.Retry(ctx, op,
			backoff.WithBackOff(eb),
			backoff.WithMaxTries(attempts),
			backoff.WithMaxElapsedTime(2*time.Minute),
		)
	})
}

func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Temporary()
	}
	return true
}

// WithMetrics records call counts and latency under provider.
func WithMetrics(next Completer, provider string) Completer {
	return CompleterFunc(func(ctx context.Context, prompt string, opts Options) (string, error) {
		start := time.Now()
		out, err := next.Complete(ctx, prompt, opts)
		metrics.RecordProviderCall(provider, time.Since(start), err)
		return out, err
	})
}

// WithTimeout bounds each call to d.
func WithTimeout(next Completer, d time.Duration) Completer {
	if d <= 0 {
		return next
	}
	return CompleterFunc(func(ctx context.Context, prompt string, opts Options) (string, error) {
		ctx, cancel := context.WithTimeout(ctx, d)
		defer cancel()
		return next.Complete(ctx, prompt, opts)
	})
}
