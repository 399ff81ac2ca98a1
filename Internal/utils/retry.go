package utils

import (
	"context"
	"time"
)

// RetryConfig controls fixed-delay retries. MaxAttempts counts the first try.
type RetryConfig struct {
	MaxAttempts int
	Delay       time.Duration
	// AttemptTimeout bounds each call; zero means no per-attempt deadline.
	AttemptTimeout time.Duration
}

func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:    3,
		Delay:          2 * time.Second,
		AttemptTimeout: 15 * time.Second,
	}
}

// RetryWithDelay runs fn until it succeeds or the attempts are used up, sleeping
// cfg.Delay between attempts. It returns the number of attempts made and the last error.
func RetryWithDelay(ctx context.Context, cfg RetryConfig, fn func(ctx context.Context, attempt int) error) (int, error) {
	attempts := cfg.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			if err == nil {
				err = ctxErr
			}
			return attempt - 1, err
		}

		err = runAttempt(ctx, cfg.AttemptTimeout, attempt, fn)
		if err == nil {
			return attempt, nil
		}

		if attempt < attempts && cfg.Delay > 0 {
			select {
			case <-ctx.Done():
				return attempt, err
			case <-time.After(cfg.Delay):
			}
		}
	}
	return attempts, err
}

func runAttempt(ctx context.Context, timeout time.Duration, attempt int, fn func(ctx context.Context, attempt int) error) error {
	if timeout <= 0 {
		return fn(ctx, attempt)
	}
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return fn(attemptCtx, attempt)
}
