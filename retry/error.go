package retry

// Error is an interface for errors that can indicate whether they are
// temporary (retryable) or permanent (non-retryable). If Temporary returns
// false the retry loop stops immediately.
//
// The transition executor deliberately never classifies failures itself —
// every action error is retried the same way — but embedding applications
// can return Abort(err) from their action handlers to opt out.
type Error interface {
	// Temporary reports whether the operation should be retried.
	Temporary() bool
	error
}

// permanentError wraps an error to mark it as non-retryable.
type permanentError struct {
	error
}

func (e *permanentError) Temporary() bool { return false }

func (e *permanentError) Unwrap() error {
	return e.error
}

// Abort wraps an error to mark it as permanent, causing the retry loop to
// stop without further attempts.
//
// Example:
//
//	if err := validateRouteRequest(req); err != nil {
//	    return retry.Abort(err) // retrying a malformed request won't help
//	}
func Abort(err error) Error {
	return &permanentError{err}
}
