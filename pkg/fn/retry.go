package fn

import (
	"context"
	"time"
)

// RetryOpts configures retry behavior. Wait is the fixed delay between
// attempts; transient feed fetches use a handful of attempts a few seconds
// apart rather than exponential backoff.
type RetryOpts struct {
	MaxAttempts int
	Wait        time.Duration
}

// DefaultRetry matches the bounded fetch policy: three attempts, seconds apart.
var DefaultRetry = RetryOpts{
	MaxAttempts: 3,
	Wait:        3 * time.Second,
}

// Retry retries f up to MaxAttempts times with a fixed delay.
func Retry[T any](ctx context.Context, opts RetryOpts, f func(context.Context) Result[T]) Result[T] {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 1
	}
	var result Result[T]
	for attempt := 0; attempt < opts.MaxAttempts; attempt++ {
		result = f(ctx)
		if result.IsOk() {
			return result
		}
		if attempt == opts.MaxAttempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return Err[T](ctx.Err())
		case <-time.After(opts.Wait):
		}
	}
	return result
}

// RetryStage wraps a Stage with retry logic.
func RetryStage[In, Out any](opts RetryOpts, stage Stage[In, Out]) Stage[In, Out] {
	return func(ctx context.Context, in In) Result[Out] {
		return Retry(ctx, opts, func(ctx context.Context) Result[Out] {
			return stage(ctx, in)
		})
	}
}
