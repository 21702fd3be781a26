package transition

import (
	"errors"
	"fmt"

	"github.com/fareway-labs/tripcore/geo"
	"github.com/fareway-labs/tripcore/phase"
)

// Context is the immutable data snapshot needed to validate and execute one
// transition attempt. Optional fields stay nil when the caller did not
// supply them; absence is meaningful and is never replaced by a sentinel.
//
// A Context is built fresh for every attempt and must not be mutated or
// reused after being handed to the executor.
type Context struct {
	Current phase.Phase
	Target  phase.Phase

	Driver  *geo.Coordinate
	Pickup  *geo.Coordinate
	Dropoff *geo.Coordinate

	RouteActive       *bool
	NavigationRunning *bool
}

// ContextOption populates an optional Context field.
type ContextOption func(*Context)

// WithDriverLocation sets the last known driver coordinate.
func WithDriverLocation(c geo.Coordinate) ContextOption {
	return func(tc *Context) {
		tc.Driver = &c
	}
}

// WithPickupLocation sets the pickup coordinate.
func WithPickupLocation(c geo.Coordinate) ContextOption {
	return func(tc *Context) {
		tc.Pickup = &c
	}
}

// WithDropoffLocation sets the destination coordinate.
func WithDropoffLocation(c geo.Coordinate) ContextOption {
	return func(tc *Context) {
		tc.Dropoff = &c
	}
}

// WithRouteActive records whether a route is currently displayed.
func WithRouteActive(active bool) ContextOption {
	return func(tc *Context) {
		tc.RouteActive = &active
	}
}

// WithNavigationRunning records whether turn-by-turn navigation is running.
func WithNavigationRunning(running bool) ContextOption {
	return func(tc *Context) {
		tc.NavigationRunning = &running
	}
}

// NewContext builds a context for one transition attempt from the required
// phases and any subset of the optional fields.
func NewContext(current, target phase.Phase, opts ...ContextOption) *Context {
	tc := &Context{
		Current: current,
		Target:  target,
	}

	for _, opt := range opts {
		opt(tc)
	}

	return tc
}

// ValidateContext checks that a context may drive the given config. The
// phase pair is checked first and a mismatch is always invalid, independent
// of any custom validator. If the config carries a validator it runs next;
// its error is surfaced inside a ValidationError.
//
// A transition must pass this check before any action executes.
func ValidateContext(cfg *Config, tc *Context) error {
	if tc.Current != cfg.From || tc.Target != cfg.To {
		return &ValidationError{
			From: cfg.From.String(),
			To:   cfg.To.String(),
			Err: fmt.Errorf("%w: context is %s -> %s",
				ErrPhaseMismatch, tc.Current, tc.Target),
		}
	}

	if cfg.Validator == nil {
		return nil
	}

	if err := runValidator(cfg.Validator, tc); err != nil {
		return &ValidationError{
			From: cfg.From.String(),
			To:   cfg.To.String(),
			Err:  fmt.Errorf("%w: %v", ErrValidationFailed, err), //nolint:errorlint // keep sentinel matchable
		}
	}

	return nil
}

// runValidator invokes a custom validator, converting a panic into an
// ordinary validation error so a buggy predicate refuses the transition
// instead of crashing the executor.
func runValidator(validator func(*Context) error, tc *Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.New(fmt.Sprint("validator panicked: ", r))
		}
	}()

	return validator(tc)
}
