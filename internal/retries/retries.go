package retries

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// ManageRetries invokes fn up to maxAttempts times, sleeping for the fixed
// delay between attempts. fn indicates via its first return value whether a
// failure is worth retrying; a non-retryable error is returned to the caller
// as-is. When all attempts are exhausted, the last error is returned wrapped
// with a description of the process that failed.
//
// The delay is deliberately fixed rather than an exponential backoff: the
// attempt budget is small and bounded, and callers convert exhaustion into a
// terminal failure anyway.
func ManageRetries(
	ctx context.Context,
	log *zap.SugaredLogger,
	process string,
	maxAttempts int,
	delay time.Duration,
	fn func() (bool, error),
) error {
	var failedAttempts int
	for {
		retry, err := fn()
		if !retry {
			return err
		}
		failedAttempts++
		if failedAttempts == maxAttempts {
			return errors.Wrapf(
				err,
				"failed %d attempt(s) to %s",
				maxAttempts,
				process,
			)
		}
		log.Warnf(
			"failed %d attempt(s) to %s; will retry in %s: %s",
			failedAttempts,
			process,
			delay,
			err,
		)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
