// Package retry is the single retry discipline for the whole tool:
// a fixed delay between attempts, a hard attempt bound, and context
// cancellation honored mid-wait. Login, confirmation approval,
// inventory fetch and offer submission all run through it with their
// own attempt/delay parameters.
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Permanent marks err as not worth retrying; Do surfaces it
// immediately. Credential rejections use this: repeating an identical
// login would fail identically.
func Permanent(err error) error {
	return backoff.Permanent(err)
}

// Do runs op until it succeeds, is marked permanent, the attempt bound
// is exhausted, or ctx is cancelled. attempts counts total executions,
// so attempts=3 means two retries after the first failure.
func Do(ctx context.Context, attempts int, delay time.Duration, op func() error) error {
	return backoff.Retry(op, policy(ctx, attempts, delay))
}

// DoValue is Do for operations that produce a value.
func DoValue[T any](ctx context.Context, attempts int, delay time.Duration, op func() (T, error)) (T, error) {
	return backoff.RetryWithData(op, policy(ctx, attempts, delay))
}

func policy(ctx context.Context, attempts int, delay time.Duration) backoff.BackOffContext {
	if attempts < 1 {
		attempts = 1
	}

	constant := backoff.NewConstantBackOff(delay)
	bounded := backoff.WithMaxRetries(constant, uint64(attempts-1))

	return backoff.WithContext(bounded, ctx)
}
