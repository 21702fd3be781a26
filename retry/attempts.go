package retry

import "context"

// Attempts is the maximum total number of attempts for an operation,
// including the initial call.
type Attempts uint

// ctxKey is the type for context keys used internally to avoid collisions.
type ctxKey string

const attemptKey ctxKey = "attempt"

// withAttempt records the zero-indexed attempt number in the context so the
// operation being retried can inspect it.
func withAttempt(ctx context.Context, attempt uint) context.Context {
	return context.WithValue(ctx, attemptKey, attempt)
}

// Attempt retrieves the current zero-indexed attempt number from the
// context. Returns 0 outside of a retry loop.
func Attempt(ctx context.Context) uint {
	i := ctx.Value(attemptKey)
	if i == nil {
		return 0
	}

	attemptNum, ok := i.(uint)
	if !ok {
		return 0
	}

	return attemptNum
}
