// Package retry runs operations that may fail transiently, with a bounded
// number of attempts, a configurable delay policy between attempts, and an
// optional per-attempt timeout.
//
// The transition executor drives every side-effecting action through this
// package with a fixed delay between attempts. Exponential backoff is also
// available for callers that want it.
//
// Basic usage:
//
//	err := retry.Do(ctx, func(ctx context.Context) error {
//	    return announceInstruction()
//	})
//
// With custom options:
//
//	err := retry.Do(ctx, operation,
//	    retry.WithAttempts(4),
//	    retry.WithBackoff(retry.FixedBackoff{Interval: time.Second}),
//	    retry.WithTimeout(retry.Timeout(30*time.Second)),
//	)
package retry

import (
	"context"
	"errors"
	"time"

	"go.uber.org/atomic"
)

const (
	defaultAttempts = 4
	defaultDelay    = time.Second
)

// Runner executes operations with retry logic. It retries every failure the
// same way; wrap an error with Abort to stop early.
type Runner interface {
	Do(ctx context.Context, f func(ctx context.Context) error) error
}

// NewRunner creates a Runner. Without options it makes 4 attempts (initial
// call + 3 retries) with a fixed one-second delay and no per-attempt timeout.
func NewRunner(opts ...Option) Runner {
	intOpts := &options{
		attempts: Attempts(defaultAttempts),
		backoff:  FixedBackoff{Interval: defaultDelay},
	}

	for _, option := range opts {
		option(intOpts)
	}

	// At least the initial call always runs.
	if intOpts.attempts == 0 {
		intOpts.attempts = 1
	}

	return &runnerImpl{opts: intOpts}
}

// Do creates a Runner and executes f with retry logic in a single call.
func Do(ctx context.Context, f func(ctx context.Context) error, opts ...Option) error {
	return NewRunner(opts...).Do(ctx, f)
}

type runnerImpl struct {
	opts *options
}

func (r *runnerImpl) Do(ctx context.Context, f func(ctx context.Context) error) error {
	return do(ctx, r.opts, f)
}

// do is the core retry loop. It returns:
//   - nil once any attempt succeeds
//   - ctx.Err() if the caller's context is canceled
//   - the wrapped error immediately if the operation aborts via Abort
//   - the last error once all attempts are exhausted
func do(ctx context.Context, opts *options, operation func(ctx context.Context) error) error {
	var err error

	running := atomic.NewBool(true)
	defer running.Store(false)

	for attemptIndex := uint(0); Attempts(attemptIndex) < opts.attempts; attemptIndex++ {
		ctx := withAttempt(ctx, attemptIndex)

		err = callOnce(ctx, operation, opts.timeout, running)
		if err == nil {
			return nil
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}

		var retryErr Error
		if errors.As(err, &retryErr) && !retryErr.Temporary() {
			var p *permanentError
			if errors.As(err, &p) {
				return p.error
			}

			return err
		}

		if Attempts(attemptIndex+1) >= opts.attempts {
			break
		}

		delay := opts.backoff.Delay(attemptIndex)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()

			return ctx.Err()
		case <-timer.C:
			timer.Stop()
		}
	}

	return err
}

// callOnce runs a single attempt, racing the operation against the caller's
// context and the per-attempt timeout. The operation runs in its own
// goroutine so a hung call cannot block the retry loop; the running flag
// keeps abandoned goroutines from doing work after the loop has returned.
func callOnce(
	ctx context.Context,
	operation func(ctx context.Context) error,
	timeout Timeout,
	running *atomic.Bool,
) error {
	if timeout != 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, time.Duration(timeout))
		defer cancel()
	}

	errChan := make(chan error, 1)

	go func(ctx context.Context) {
		defer close(errChan)

		if !running.Load() {
			return
		}

		errChan <- operation(ctx)
	}(ctx)

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-errChan:
		return err
	}
}
