package compose

import (
	"context"
	"fmt"
	"time"
)

// Backoff returns the wait after the given failed attempt (1-based).
type Backoff func(attempt int) time.Duration

// Linear waits attempt × step.
func Linear(step time.Duration) Backoff {
	return func(attempt int) time.Duration {
		return time.Duration(attempt) * step
	}
}

// RetryPolicy bounds how often an operation is attempted and how long to
// wait in between.
type RetryPolicy struct {
	MaxAttempts int
	Backoff     Backoff
	// Sleep waits for d or until ctx is done. Tests replace it.
	Sleep func(ctx context.Context, d time.Duration) error
}

// DefaultRetryPolicy makes three attempts, waiting 1s then 2s.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		Backoff:     Linear(time.Second),
		Sleep:       sleepContext,
	}
}

func (p RetryPolicy) withDefaults() RetryPolicy {
	d := DefaultRetryPolicy()
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = d.MaxAttempts
	}
	if p.Backoff == nil {
		p.Backoff = d.Backoff
	}
	if p.Sleep == nil {
		p.Sleep = d.Sleep
	}
	return p
}

// Do calls fn until it succeeds or the attempts are exhausted, and returns
// the last error. onRetry, when set, is told about each failure that will
// be retried.
func (p RetryPolicy) Do(ctx context.Context, fn func(ctx context.Context, attempt int) error, onRetry func(attempt int, err error)) error {
	p = p.withDefaults()

	var err error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			if err == nil {
				err = ctxErr
			}
			return fmt.Errorf("%w (stopped before attempt %d)", err, attempt)
		}

		if err = fn(ctx, attempt); err == nil {
			return nil
		}
		if attempt == p.MaxAttempts {
			break
		}
		if onRetry != nil {
			onRetry(attempt, err)
		}
		if sleepErr := p.Sleep(ctx, p.Backoff(attempt)); sleepErr != nil {
			return fmt.Errorf("%w (retry interrupted: %v)", err, sleepErr)
		}
	}
	return fmt.Errorf("all %d attempts failed: %w", p.MaxAttempts, err)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
