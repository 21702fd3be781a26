package retry

// Option configures a Runner. Options follow the functional options pattern.
type Option func(*options)

// options holds the internal configuration for retry behavior.
type options struct {
	attempts Attempts // Maximum total attempts (initial call included)
	backoff  Backoff  // Delay policy between attempts
	timeout  Timeout  // Timeout for each individual attempt
}

// WithAttempts configures the maximum total number of attempts, including
// the initial call. A value of 1 disables retries entirely.
func WithAttempts(a Attempts) Option {
	return func(o *options) {
		o.attempts = a
	}
}

// WithBackoff configures the delay policy applied between attempts.
//
// Example:
//
//	runner := retry.NewRunner(retry.WithBackoff(retry.FixedBackoff{Interval: time.Second}))
func WithBackoff(b Backoff) Option {
	return func(o *options) {
		o.backoff = b
	}
}

// WithTimeout configures a timeout for each individual attempt. An attempt
// that exceeds this duration is canceled, counted as a failure, and retried.
func WithTimeout(t Timeout) Option {
	return func(o *options) {
		o.timeout = t
	}
}
