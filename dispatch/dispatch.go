// Package dispatch coordinates phase transitions across many concurrent
// trips. Transitions for one trip run strictly one at a time; transitions
// for different trips run concurrently on a shared worker pool.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/alitto/pond/v2"
	"go.uber.org/atomic"

	"github.com/fareway-labs/tripcore/phase"
	"github.com/fareway-labs/tripcore/transition"
)

const defaultWorkerCount = 10

// Predefined error types.
var (
	// ErrUnknownTrip indicates the trip was never started or already ended.
	ErrUnknownTrip = errors.New("unknown trip")

	// ErrTripExists indicates StartTrip was called twice for the same ID.
	ErrTripExists = errors.New("trip already started")

	// ErrCoordinatorClosed indicates the coordinator no longer accepts
	// requests.
	ErrCoordinatorClosed = errors.New("coordinator is closed")
)

// trip holds the coordinator's view of one trip. Its mutex serializes
// transition execution for the trip; the current phase only changes while
// it is held.
type trip struct {
	mu      sync.Mutex
	current phase.Phase
}

// Coordinator tracks the current phase of each active trip and drives
// requested transitions through an Executor. It owns the one mutation the
// executor deliberately leaves to its caller: the target phase is applied
// if and only if the attempt succeeded.
type Coordinator struct {
	executor *transition.Executor
	registry *transition.Registry
	pool     pond.Pool
	logger   *slog.Logger

	mu    sync.Mutex
	trips map[string]*trip

	inFlight atomic.Int64
	closed   atomic.Bool
}

// CoordinatorOption configures a Coordinator.
type CoordinatorOption func(*Coordinator)

// WithRegistry replaces the default transition registry.
func WithRegistry(r *transition.Registry) CoordinatorOption {
	return func(c *Coordinator) {
		c.registry = r
	}
}

// WithWorkers sets the worker pool size shared by all trips.
func WithWorkers(n int) CoordinatorOption {
	return func(c *Coordinator) {
		c.pool = pond.NewPool(n)
	}
}

// WithLogger sets the coordinator's logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) CoordinatorOption {
	return func(c *Coordinator) {
		c.logger = logger
	}
}

// NewCoordinator creates a coordinator executing transitions through the
// given executor.
func NewCoordinator(executor *transition.Executor, opts ...CoordinatorOption) (*Coordinator, error) {
	if executor == nil {
		return nil, transition.ErrNilActionExecutor
	}

	c := &Coordinator{
		executor: executor,
		registry: transition.Default(),
		logger:   slog.Default(),
		trips:    make(map[string]*trip),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.pool == nil {
		c.pool = pond.NewPool(defaultWorkerCount)
	}

	return c, nil
}

// StartTrip registers a trip at its initial phase.
func (c *Coordinator) StartTrip(tripID string, initial phase.Phase) error {
	if c.closed.Load() {
		return ErrCoordinatorClosed
	}

	if !initial.Valid() {
		return fmt.Errorf("%w: %q", phase.ErrUnknownPhase, initial)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.trips[tripID]; ok {
		return fmt.Errorf("%w: %s", ErrTripExists, tripID)
	}

	c.trips[tripID] = &trip{current: initial}

	c.logger.Info("Trip started", "trip_id", tripID, "phase", initial.String())

	return nil
}

// EndTrip removes a trip from the coordinator. Requests already queued for
// the trip still run; new ones are refused.
func (c *Coordinator) EndTrip(tripID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.trips[tripID]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTrip, tripID)
	}

	delete(c.trips, tripID)

	c.logger.Info("Trip ended", "trip_id", tripID)

	return nil
}

// Phase returns the trip's current phase.
func (c *Coordinator) Phase(tripID string) (phase.Phase, error) {
	c.mu.Lock()
	tr, ok := c.trips[tripID]
	c.mu.Unlock()

	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownTrip, tripID)
	}

	tr.mu.Lock()
	defer tr.mu.Unlock()

	return tr.current, nil
}

// InFlight returns the number of transitions currently queued or running.
func (c *Coordinator) InFlight() int64 {
	return c.inFlight.Load()
}

// Request queues a transition of the trip to the target phase and returns a
// channel that receives the single result. Obviously doomed requests —
// unknown trip, closed coordinator, a target not legal from the trip's
// current phase — are refused synchronously with an error instead.
//
// Legality is re-checked under the trip lock immediately before execution:
// a queued request whose precondition was invalidated by an earlier
// transition yields a failed result rather than executing stale actions.
func (c *Coordinator) Request(
	ctx context.Context,
	tripID string,
	target phase.Phase,
	opts ...transition.ContextOption,
) (<-chan transition.Result, error) {
	if c.closed.Load() {
		return nil, ErrCoordinatorClosed
	}

	c.mu.Lock()
	tr, ok := c.trips[tripID]
	c.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTrip, tripID)
	}

	tr.mu.Lock()
	current := tr.current
	tr.mu.Unlock()

	if !c.registry.IsValidTransition(current, target) {
		return nil, fmt.Errorf("%w: %s -> %s", transition.ErrInvalidTransition, current, target)
	}

	results := make(chan transition.Result, 1)

	c.inFlight.Inc()

	err := c.pool.Go(func() {
		defer c.inFlight.Dec()

		results <- c.run(ctx, tripID, tr, target, opts)
	})
	if err != nil {
		c.inFlight.Dec()

		return nil, fmt.Errorf("%w: %v", ErrCoordinatorClosed, err) //nolint:errorlint // keep sentinel matchable
	}

	return results, nil
}

// run executes one queued transition under the trip lock.
func (c *Coordinator) run(
	ctx context.Context,
	tripID string,
	tr *trip,
	target phase.Phase,
	opts []transition.ContextOption,
) transition.Result {
	tr.mu.Lock()
	defer tr.mu.Unlock()

	current := tr.current

	if !c.registry.IsValidTransition(current, target) {
		// An earlier queued transition moved the trip; this request's
		// precondition no longer holds.
		return transition.Result{
			From: current,
			To:   target,
			Err:  fmt.Errorf("%w: %s -> %s", transition.ErrInvalidTransition, current, target),
		}
	}

	cfg := c.registry.ConfigFor(current, target)
	if cfg == nil {
		// Legal pair with no registered side effects.
		c.logger.Debug("No transition config registered, applying phase directly",
			"trip_id", tripID, "from", current.String(), "to", target.String())

		cfg = &transition.Config{From: current, To: target}
	}

	tc := transition.NewContext(current, target, opts...)

	res := c.executor.Execute(ctx, cfg, tc)

	if res.Success {
		tr.current = target
	}

	c.logger.Info("Transition request finished",
		"trip_id", tripID,
		"from", current.String(),
		"to", target.String(),
		"success", res.Success,
		"attempt_id", res.AttemptID.String(),
	)

	return res
}

// Close stops accepting requests and waits for queued transitions to
// finish.
func (c *Coordinator) Close() {
	if !c.closed.CompareAndSwap(false, true) {
		return
	}

	c.pool.StopAndWait()
}
