package transition

import (
	"errors"
	"fmt"
)

// Predefined error types.
var (
	// ErrInvalidTransition indicates the requested phase pair is not legal.
	ErrInvalidTransition = errors.New("transition not permitted")

	// ErrPhaseMismatch indicates a context was built for a different phase
	// pair than the config it was validated against.
	ErrPhaseMismatch = errors.New("context phases do not match transition config")

	// ErrValidationFailed indicates a config's custom validator rejected
	// the context.
	ErrValidationFailed = errors.New("transition context validation failed")

	// ErrActionFailed indicates an action exhausted its retries.
	ErrActionFailed = errors.New("action execution failed")

	// ErrUnknownPhasePair is returned when overrides reference a phase pair
	// that is not legal.
	ErrUnknownPhasePair = errors.New("phase pair is not a legal transition")

	// ErrConfigNotLegal indicates a transition config was registered for a
	// pair missing from the legality table.
	ErrConfigNotLegal = errors.New("config registered for illegal phase pair")

	// ErrNilActionExecutor indicates the executor was constructed without
	// an action-executing capability.
	ErrNilActionExecutor = errors.New("action executor is required")
)

// ActionError wraps an action failure with the kind that caused it.
type ActionError struct {
	Kind Kind
	Err  error
}

func (e *ActionError) Error() string {
	return fmt.Sprintf("action %s: %v", e.Kind, e.Err)
}

// Unwrap exposes both the generic sentinel and the underlying cause, so
// errors.Is matches either.
func (e *ActionError) Unwrap() []error {
	return []error{ErrActionFailed, e.Err}
}

// WrapActionError wraps an error with the failing action's kind.
func WrapActionError(kind Kind, err error) error {
	if err == nil {
		return nil
	}

	return &ActionError{
		Kind: kind,
		Err:  err,
	}
}

// ValidationError wraps a context-validation failure with the phase pair it
// was detected on.
type ValidationError struct {
	From string
	To   string
	Err  error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("transition %s -> %s: %v", e.From, e.To, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}
