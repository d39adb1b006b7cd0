package helpers

import (
	"context"
	"time"

	"gateway-stream/src/logger"

	"github.com/cenkalti/backoff/v5"
)

// -----------------------------------------------------------------------------
// Retry Logic
// -----------------------------------------------------------------------------

// RetryWithBackoff runs fn until it succeeds, maxRetries attempts are spent or
// ctx is done. Delays grow exponentially from baseDelay. Wrap an error with
// backoff.Permanent to stop retrying immediately.
func RetryWithBackoff[T any](ctx context.Context, operation string, maxRetries int, baseDelay time.Duration, log *logger.Logger, fn func() (T, error)) (T, error) {
	if maxRetries < 1 {
		maxRetries = 1
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = baseDelay

	attempt := 0
	return backoff.Retry(ctx, func() (T, error) {
		attempt++
		return fn()
	},
		backoff.WithBackOff(policy),
		backoff.WithMaxTries(uint(maxRetries)),
		backoff.WithNotify(func(err error, delay time.Duration) {
			log.Warning("Attempt %d/%d failed for %s: %v. Retrying in %v", attempt, maxRetries, operation, err, delay)
		}),
	)
}
