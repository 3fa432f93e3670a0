package resilience

import (
	"context"
	"fmt"
	"time"
)

const maxAttemptDelay = 10 * time.Second

// TimeoutError reports that an operation exceeded its allotted time.
type TimeoutError struct {
	Label   string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s timed out after %s", e.Label, e.Timeout)
}

// WithTimeout races op against a timer. If the timer fires first the
// late result of op is discarded; cancellation of the underlying work
// is best-effort via the derived context. A timeout <= 0 runs op
// unbounded.
func WithTimeout(ctx context.Context, timeout time.Duration, label string, op func(context.Context) error) error {
	if timeout <= 0 {
		return op(ctx)
	}
	opCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	done := make(chan error, 1)
	go func() {
		done <- op(opCtx)
	}()
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case err := <-done:
		return err
	case <-timer.C:
		return &TimeoutError{Label: label, Timeout: timeout}
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Options controls one Do invocation. Attempts below 1 is treated as 1.
// A zero Timeout disables the per-attempt bound. BreakerKey is optional;
// when set, Do consults and updates the shared breaker for that key.
type Options struct {
	Attempts      int
	InitialDelay  time.Duration
	BackoffFactor float64
	Timeout       time.Duration
	BreakerKey    string
	Label         string
}

// Do invokes op up to opts.Attempts times, each attempt bounded by
// WithTimeout. If the breaker for opts.BreakerKey is open, Do fails
// immediately with ErrCircuitOpen without consuming an attempt. Success
// clears the breaker; every failed attempt counts against it. Between
// attempts Do sleeps for the current delay, then grows it by the
// backoff factor up to a 10s cap. The last error is returned after all
// attempts are exhausted.
func Do(ctx context.Context, breakers *Breakers, opts Options, op func(context.Context) error) error {
	if opts.BreakerKey != "" && breakers != nil && breakers.IsOpen(opts.BreakerKey) {
		return fmt.Errorf("%s: %w", opts.BreakerKey, ErrCircuitOpen)
	}
	attempts := opts.Attempts
	if attempts < 1 {
		attempts = 1
	}
	label := opts.Label
	if label == "" {
		label = opts.BreakerKey
	}
	delay := opts.InitialDelay
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		err := WithTimeout(ctx, opts.Timeout, label, op)
		if err == nil {
			if opts.BreakerKey != "" && breakers != nil {
				breakers.Reset(opts.BreakerKey)
			}
			return nil
		}
		lastErr = err
		if opts.BreakerKey != "" && breakers != nil {
			breakers.RecordFailure(opts.BreakerKey)
		}
		if attempt == attempts {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if opts.BackoffFactor > 0 {
			delay = time.Duration(float64(delay) * opts.BackoffFactor)
		}
		if delay > maxAttemptDelay {
			delay = maxAttemptDelay
		}
	}
	return lastErr
}
