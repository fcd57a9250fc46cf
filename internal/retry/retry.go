package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const defaultBaseDelay = time.Second

// linearBackOff waits base * n before the n-th retry, matching the pipeline's
// linear (not exponential) delivery policy for simulated channels.
type linearBackOff struct {
	base    time.Duration
	attempt int
}

func (b *linearBackOff) NextBackOff() time.Duration {
	b.attempt++
	return b.base * time.Duration(b.attempt)
}

func (b *linearBackOff) Reset() {
	b.attempt = 0
}

// Do runs op up to maxAttempts times with linear backoff between attempts.
// It reports whether any attempt succeeded and never panics or returns the
// underlying error; callers that need the cause should capture it in op.
func Do(ctx context.Context, op func() error, maxAttempts int) bool {
	return DoWithDelay(ctx, op, maxAttempts, defaultBaseDelay)
}

func DoWithDelay(ctx context.Context, op func() error, maxAttempts int, base time.Duration) bool {
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	b := backoff.WithContext(
		backoff.WithMaxRetries(&linearBackOff{base: base}, uint64(maxAttempts-1)),
		ctx,
	)

	return backoff.Retry(op, b) == nil
}
