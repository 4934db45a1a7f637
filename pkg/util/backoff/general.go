package backoff

import (
	"context"

	"github.com/cenkalti/backoff/v4"
	"github.com/pkg/errors"
)

// MaxRetries caps a single retried operation so transient exchange
// failures do not turn into runaway loops.
var MaxRetries uint64 = 10

// RetryGeneral runs op under exponential backoff until it succeeds, the
// retry cap is hit, or ctx is canceled.
func RetryGeneral(ctx context.Context, op backoff.Operation) error {
	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), MaxRetries),
		ctx)

	if err := backoff.Retry(op, policy); err != nil {
		return errors.Wrap(err, "failed to execute the operation")
	}

	return nil
}
