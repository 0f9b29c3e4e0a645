package sos

import (
	"context"
	"time"
)

// BackoffFunc returns the wait after the given failed attempt (1-based).
type BackoffFunc func(attempt int) time.Duration

// ExponentialBackoff waits 2^attempt seconds: 2s after the first failure, 4s after the second.
func ExponentialBackoff(attempt int) time.Duration {
	return time.Duration(1<<attempt) * time.Second
}

// WithRetry calls op until it succeeds or maxAttempts is used up, sleeping backoff(attempt)
// between attempts. It returns the last result, the number of attempts made and the last error.
func WithRetry[T any](
	ctx context.Context,
	maxAttempts int,
	backoff BackoffFunc,
	sleep Sleeper,
	op func(ctx context.Context, attempt int) (T, error),
) (T, int, error) {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	if sleep == nil {
		sleep = realSleep
	}

	var result T
	var err error
	attempt := 0
	for attempt < maxAttempts {
		attempt++
		result, err = op(ctx, attempt)
		if err == nil {
			return result, attempt, nil
		}
		if attempt == maxAttempts {
			break
		}
		if sleepErr := sleep(ctx, backoff(attempt)); sleepErr != nil {
			return result, attempt, err
		}
	}
	return result, attempt, err
}
