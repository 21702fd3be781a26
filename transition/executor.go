package transition

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/fareway-labs/tripcore/retry"
)

// Executor defaults. The timeout is deliberately generous: route
// calculation against a congested routing service is the slowest action and
// regularly takes double-digit seconds.
const (
	DefaultActionTimeout = 30 * time.Second
	DefaultRetryAttempts = 3
	DefaultRetryDelay    = time.Second
)

// ActionExecutor is the externally supplied capability that performs the
// actual side effect for one action. The core is agnostic to how each kind
// is implemented; routing calls, camera animation, geofence registration,
// and text-to-speech all live behind this interface.
//
// The executor invokes it sequentially, one action at a time per
// transition; no other thread-safety is assumed.
type ActionExecutor interface {
	ExecuteAction(ctx context.Context, action Action, tc *Context) error
}

// ActionExecutorFunc adapts a function to the ActionExecutor interface.
type ActionExecutorFunc func(ctx context.Context, action Action, tc *Context) error

func (f ActionExecutorFunc) ExecuteAction(ctx context.Context, action Action, tc *Context) error {
	return f(ctx, action, tc)
}

// Callbacks are optional per-action lifecycle hooks. Nil fields are
// skipped. Rollback actions do not trigger callbacks; they are observable
// through logging and metrics only.
type Callbacks struct {
	OnActionStart    func(action Action)
	OnActionComplete func(action Action)
	OnActionError    func(action Action, err error)

	// OnProgress receives the completed fraction of the sorted action
	// list, in (0, 1].
	OnProgress func(fraction float64)
}

// Executor drives the ordered side effects of one phase transition per
// Execute call, with per-action timeout and bounded fixed-delay retry.
// An Executor is stateless between calls and safe for concurrent use; only
// the injected ActionExecutor is invoked sequentially within a call.
type Executor struct {
	runner        ActionExecutor
	actionTimeout time.Duration
	retryAttempts int
	retryDelay    time.Duration
	callbacks     Callbacks
	logger        Logger
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithActionTimeout sets the per-action timeout. Zero disables it.
func WithActionTimeout(d time.Duration) ExecutorOption {
	return func(e *Executor) {
		e.actionTimeout = d
	}
}

// WithRetryAttempts sets how many additional attempts follow a failed
// action before the transition stops.
func WithRetryAttempts(n int) ExecutorOption {
	return func(e *Executor) {
		e.retryAttempts = n
	}
}

// WithRetryDelay sets the fixed delay between attempts. The delay is not
// exponential: a navigation action either recovers quickly or the
// transition should fail fast and roll back.
func WithRetryDelay(d time.Duration) ExecutorOption {
	return func(e *Executor) {
		e.retryDelay = d
	}
}

// WithCallbacks installs per-action lifecycle hooks.
func WithCallbacks(cb Callbacks) ExecutorOption {
	return func(e *Executor) {
		e.callbacks = cb
	}
}

// WithLogger sets the execution logger. Defaults to a no-op.
func WithLogger(logger Logger) ExecutorOption {
	return func(e *Executor) {
		e.logger = logger
	}
}

// NewExecutor creates an Executor around the injected action-executing
// capability.
func NewExecutor(runner ActionExecutor, opts ...ExecutorOption) (*Executor, error) {
	if runner == nil {
		return nil, ErrNilActionExecutor
	}

	e := &Executor{
		runner:        runner,
		actionTimeout: DefaultActionTimeout,
		retryAttempts: DefaultRetryAttempts,
		retryDelay:    DefaultRetryDelay,
		logger:        nopLogger{},
	}

	for _, opt := range opts {
		opt(e)
	}

	return e, nil
}

// Execute runs one transition attempt: context validation, priority-sorted
// action execution with timeout and retry, and best-effort rollback on
// partial failure.
//
// Execute never returns an error for expected failure modes; it always
// produces a Result and callers must branch on Result.Success. The caller
// must apply the target phase only after a successful result. A canceled
// ctx fails the in-flight action without further retries.
//
// A nil config is a programmer error and panics before any side effect:
// callers resolve configs through Registry.ConfigFor and are expected to
// handle the legal-but-configless case themselves.
func (e *Executor) Execute(ctx context.Context, cfg *Config, tc *Context) Result {
	if cfg == nil {
		panic("transition: Execute called with nil config")
	}

	if tc == nil {
		panic("transition: Execute called with nil context")
	}

	attemptID := uuid.New()
	start := time.Now()

	ctx, span := startTransitionSpan(ctx, cfg, attemptID.String())
	defer span.End()

	e.logger.TransitionStarted(ctx, cfg.From, cfg.To, attemptID.String())

	res := Result{
		From:      cfg.From,
		To:        cfg.To,
		AttemptID: attemptID,
	}

	if err := ValidateContext(cfg, tc); err != nil {
		// Refused in full: no action ran, nothing to roll back.
		res.Err = err

		return e.finish(ctx, span, res, start)
	}

	sorted := SortByPriority(cfg.Actions)
	executed := make([]Action, 0, len(sorted))

	for i, action := range sorted {
		if e.callbacks.OnActionStart != nil {
			e.callbacks.OnActionStart(action)
		}

		err := e.runAction(ctx, action, tc)
		if err != nil {
			if e.callbacks.OnActionError != nil {
				e.callbacks.OnActionError(action, err)
			}

			res.Err = WrapActionError(action.Kind, err)
			res.ExecutedActions = executed
			res.RollbackRequired = e.rollback(ctx, cfg, tc, executed)

			return e.finish(ctx, span, res, start)
		}

		executed = append(executed, action)

		if e.callbacks.OnActionComplete != nil {
			e.callbacks.OnActionComplete(action)
		}

		if e.callbacks.OnProgress != nil {
			e.callbacks.OnProgress(float64(i+1) / float64(len(sorted)))
		}
	}

	res.Success = true
	res.ExecutedActions = executed

	return e.finish(ctx, span, res, start)
}

// runAction drives one action through the injected capability, racing each
// attempt against the per-action timeout and retrying failures with the
// fixed delay. Every failure is retried the same way regardless of cause.
func (e *Executor) runAction(ctx context.Context, action Action, tc *Context) error {
	actionCtx, span := startActionSpan(ctx, action, tc)
	defer span.End()

	e.logger.ActionStarted(actionCtx, action.Kind)

	start := time.Now()

	err := retry.Do(actionCtx, func(ctx context.Context) error {
		if retry.Attempt(ctx) > 0 {
			actionRetriesTotal.WithLabelValues(action.Kind.String()).Inc()
		}

		return e.runner.ExecuteAction(ctx, action, tc)
	},
		retry.WithAttempts(retry.Attempts(e.retryAttempts+1)),
		retry.WithBackoff(retry.FixedBackoff{Interval: e.retryDelay}),
		retry.WithTimeout(retry.Timeout(e.actionTimeout)),
	)

	duration := time.Since(start)

	outcome := outcomeSuccess

	if err != nil {
		outcome = outcomeError

		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "completed")
	}

	actionDuration.WithLabelValues(action.Kind.String(), outcome).Observe(duration.Seconds())
	e.logger.ActionCompleted(actionCtx, action.Kind, duration, err)

	return err
}

// rollback runs recovery after a partial failure and reports whether any
// recovery was attempted. The configured rollback list wins when present;
// otherwise, if at least one action had already succeeded, the generic
// emergency rollback runs. Rollback action failures are logged and
// swallowed, never escalated into the primary result.
func (e *Executor) rollback(ctx context.Context, cfg *Config, tc *Context, executed []Action) bool {
	var (
		actions []Action
		mode    string
	)

	switch {
	case len(cfg.Rollback) > 0:
		actions = SortByPriority(cfg.Rollback)
		mode = rollbackModeConfigured
	case len(executed) > 0:
		actions = emergencyRollbackActions()
		mode = rollbackModeEmergency
	default:
		return false
	}

	rbCtx, span := startRollbackSpan(ctx, cfg, mode)
	defer span.End()

	var firstErr error

	for _, action := range actions {
		if err := e.runAction(rbCtx, action, tc); err != nil && firstErr == nil {
			firstErr = WrapActionError(action.Kind, err)
		}
	}

	if firstErr != nil {
		span.RecordError(firstErr)
		span.SetStatus(codes.Error, firstErr.Error())
	} else {
		span.SetStatus(codes.Ok, "completed")
	}

	rollbacksTotal.WithLabelValues(cfg.From.String(), cfg.To.String(), mode).Inc()
	e.logger.RollbackExecuted(rbCtx, cfg.From, cfg.To, mode == rollbackModeEmergency, firstErr)

	return true
}

// emergencyRollbackActions is the minimal generic recovery used when a
// transition fails partway through with no configured rollback: silence
// stale guidance, then tell the driver recovery is underway.
func emergencyRollbackActions() []Action {
	return []Action{
		{Kind: ClearVoiceGuidance, Priority: Priority(1)},
		{Kind: AnnounceInstruction, Priority: Priority(2), Payload: AnnouncementPayload{
			Message: "Navigation update failed, restoring previous guidance",
		}},
	}
}

// finish stamps the result, records metrics, and closes out the root span.
func (e *Executor) finish(ctx context.Context, span trace.Span, res Result, start time.Time) Result {
	res.Elapsed = time.Since(start)

	outcome := outcomeSuccess

	if res.Success {
		span.SetStatus(codes.Ok, "completed")
	} else {
		outcome = outcomeError

		span.RecordError(res.Err)
		span.SetStatus(codes.Error, res.ErrorMessage())
	}

	executionsTotal.WithLabelValues(res.From.String(), res.To.String(), outcome).Inc()
	executionDuration.WithLabelValues(res.From.String(), res.To.String(), outcome).
		Observe(res.Elapsed.Seconds())

	e.logger.TransitionCompleted(ctx, &res)

	return res
}
