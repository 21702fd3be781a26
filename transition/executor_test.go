package transition_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/neilotoole/slogt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fareway-labs/tripcore/geo"
	"github.com/fareway-labs/tripcore/phase"
	"github.com/fareway-labs/tripcore/transition"
	"github.com/fareway-labs/tripcore/transition/transitiontest"
)

// fastOpts keeps retry delays out of the test clock.
func fastOpts(t *testing.T, extra ...transition.ExecutorOption) []transition.ExecutorOption {
	t.Helper()

	opts := []transition.ExecutorOption{
		transition.WithRetryDelay(time.Millisecond),
		transition.WithLogger(transition.NewSlogLogger(slogt.New(t))),
	}

	return append(opts, extra...)
}

// dropoffContext builds a context satisfying the pickup-to-dropoff
// validator.
func dropoffContext() *transition.Context {
	return transition.NewContext(phase.PickingUp, phase.EnRouteToDropoff,
		transition.WithDriverLocation(geo.Coordinate{Latitude: 37.7749, Longitude: -122.4194}),
		transition.WithDropoffLocation(geo.Coordinate{Latitude: 37.6213, Longitude: -122.3790}),
	)
}

func pickupToDropoffConfig(t *testing.T) *transition.Config {
	t.Helper()

	cfg := transition.Default().ConfigFor(phase.PickingUp, phase.EnRouteToDropoff)
	require.NotNil(t, cfg)

	return cfg
}

func TestNewExecutorRequiresActionExecutor(t *testing.T) {
	t.Parallel()

	_, err := transition.NewExecutor(nil)

	require.Error(t, err)
	assert.ErrorIs(t, err, transition.ErrNilActionExecutor)
}

func TestExecuteAllActionsSucceed(t *testing.T) {
	t.Parallel()

	rec := &transitiontest.RecordingExecutor{}
	exec, err := transition.NewExecutor(rec, fastOpts(t)...)
	require.NoError(t, err)

	res := exec.Execute(context.Background(), pickupToDropoffConfig(t), dropoffContext())

	assert.True(t, res.Success)
	assert.NoError(t, res.Err)
	assert.False(t, res.RollbackRequired)
	assert.Len(t, res.ExecutedActions, 7)
	assert.NotEqual(t, uuid.Nil, res.AttemptID)
	assert.Equal(t, phase.PickingUp, res.From)
	assert.Equal(t, phase.EnRouteToDropoff, res.To)
	assert.Empty(t, res.ErrorMessage())

	assert.Equal(t, []transition.Kind{
		transition.ClearRoute,
		transition.ClearVoiceGuidance,
		transition.UpdateGeofences,
		transition.CalculateRoute,
		transition.UpdateCamera,
		transition.RestartNavigation,
		transition.AnnounceInstruction,
	}, rec.Kinds())
}

func TestExecuteStopsAtFirstFailure(t *testing.T) {
	t.Parallel()

	routeErr := errors.New("routing service unavailable")
	scripted := transitiontest.NewScriptedExecutor(map[transition.Kind]*transitiontest.Script{
		transition.CalculateRoute: {Errs: []error{routeErr, routeErr}},
	})

	exec, err := transition.NewExecutor(scripted,
		fastOpts(t, transition.WithRetryAttempts(1))...)
	require.NoError(t, err)

	res := exec.Execute(context.Background(), pickupToDropoffConfig(t), dropoffContext())

	assert.False(t, res.Success)
	require.Error(t, res.Err)
	assert.ErrorIs(t, res.Err, routeErr)

	var actionErr *transition.ActionError

	require.ErrorAs(t, res.Err, &actionErr)
	assert.Equal(t, transition.CalculateRoute, actionErr.Kind)

	// Only the contiguous prefix before the failed action completed.
	require.Len(t, res.ExecutedActions, 3)
	assert.Equal(t, transition.ClearRoute, res.ExecutedActions[0].Kind)
	assert.Equal(t, transition.ClearVoiceGuidance, res.ExecutedActions[1].Kind)
	assert.Equal(t, transition.UpdateGeofences, res.ExecutedActions[2].Kind)

	// Later actions never ran.
	assert.Zero(t, scripted.CallCount(transition.RestartNavigation))

	// The config carries a rollback list, so recovery was attempted.
	assert.True(t, res.RollbackRequired)
}

func TestExecuteRetriesThenSucceeds(t *testing.T) {
	t.Parallel()

	scripted := transitiontest.NewScriptedExecutor(map[transition.Kind]*transitiontest.Script{
		transition.CalculateRoute: {Errs: []error{errors.New("transient"), errors.New("transient")}},
	})

	exec, err := transition.NewExecutor(scripted,
		fastOpts(t, transition.WithRetryAttempts(3))...)
	require.NoError(t, err)

	res := exec.Execute(context.Background(), pickupToDropoffConfig(t), dropoffContext())

	assert.True(t, res.Success)
	assert.Len(t, res.ExecutedActions, 7)
	assert.Equal(t, 3, scripted.CallCount(transition.CalculateRoute))
}

func TestExecuteActionTimeout(t *testing.T) {
	t.Parallel()

	scripted := transitiontest.NewScriptedExecutor(map[transition.Kind]*transitiontest.Script{
		transition.RestartNavigation: {Hang: true},
	})

	cfg := &transition.Config{
		From: phase.ArrivedAtPickup,
		To:   phase.EnRouteToPickup,
		Actions: []transition.Action{
			{Kind: transition.RestartNavigation, Priority: transition.Priority(1)},
		},
	}

	exec, err := transition.NewExecutor(scripted, fastOpts(t,
		transition.WithRetryAttempts(0),
		transition.WithActionTimeout(20*time.Millisecond),
	)...)
	require.NoError(t, err)

	res := exec.Execute(context.Background(), cfg,
		transition.NewContext(phase.ArrivedAtPickup, phase.EnRouteToPickup))

	assert.False(t, res.Success)
	require.Error(t, res.Err)
	assert.ErrorIs(t, res.Err, context.DeadlineExceeded)
	assert.Empty(t, res.ExecutedActions)

	// Nothing succeeded and no rollback is configured: nothing to undo.
	assert.False(t, res.RollbackRequired)
}

func TestExecuteEmergencyRollback(t *testing.T) {
	t.Parallel()

	boom := errors.New("camera animation failed")
	scripted := transitiontest.NewScriptedExecutor(map[transition.Kind]*transitiontest.Script{
		transition.UpdateCamera: {Errs: []error{boom}},
	})

	// No configured rollback; one action succeeds before the failure, so
	// the generic emergency recovery runs.
	cfg := &transition.Config{
		From: phase.EnRouteToDropoff,
		To:   phase.ArrivedAtDropoff,
		Actions: []transition.Action{
			{Kind: transition.UpdateGeofences, Priority: transition.Priority(1)},
			{Kind: transition.UpdateCamera, Priority: transition.Priority(2)},
		},
	}

	exec, err := transition.NewExecutor(scripted,
		fastOpts(t, transition.WithRetryAttempts(0))...)
	require.NoError(t, err)

	res := exec.Execute(context.Background(), cfg,
		transition.NewContext(phase.EnRouteToDropoff, phase.ArrivedAtDropoff))

	assert.False(t, res.Success)
	assert.True(t, res.RollbackRequired)
	require.Len(t, res.ExecutedActions, 1)

	kinds := scripted.Kinds()
	require.Len(t, kinds, 4)
	assert.Equal(t, transition.ClearVoiceGuidance, kinds[2])
	assert.Equal(t, transition.AnnounceInstruction, kinds[3])
}

func TestExecuteConfiguredRollbackRunsEvenWithNothingExecuted(t *testing.T) {
	t.Parallel()

	boom := errors.New("route teardown failed")
	scripted := transitiontest.NewScriptedExecutor(map[transition.Kind]*transitiontest.Script{
		transition.ClearRoute: {Errs: []error{boom}},
	})

	exec, err := transition.NewExecutor(scripted,
		fastOpts(t, transition.WithRetryAttempts(0))...)
	require.NoError(t, err)

	// ClearRoute is the first action of the pickup-to-dropoff config, so
	// the failure leaves zero executed actions; the configured rollback
	// still runs.
	res := exec.Execute(context.Background(), pickupToDropoffConfig(t), dropoffContext())

	assert.False(t, res.Success)
	assert.Empty(t, res.ExecutedActions)
	assert.True(t, res.RollbackRequired)
}

func TestExecuteRollbackFailureIsSwallowed(t *testing.T) {
	t.Parallel()

	primary := errors.New("camera animation failed")
	rollbackErr := errors.New("announcement failed")
	scripted := transitiontest.NewScriptedExecutor(map[transition.Kind]*transitiontest.Script{
		transition.UpdateCamera:        {Errs: []error{primary}},
		transition.AnnounceInstruction: {Errs: []error{rollbackErr}},
	})

	cfg := &transition.Config{
		From: phase.EnRouteToDropoff,
		To:   phase.ArrivedAtDropoff,
		Actions: []transition.Action{
			{Kind: transition.UpdateGeofences, Priority: transition.Priority(1)},
			{Kind: transition.UpdateCamera, Priority: transition.Priority(2)},
		},
	}

	exec, err := transition.NewExecutor(scripted,
		fastOpts(t, transition.WithRetryAttempts(0))...)
	require.NoError(t, err)

	res := exec.Execute(context.Background(), cfg,
		transition.NewContext(phase.EnRouteToDropoff, phase.ArrivedAtDropoff))

	// The result carries the primary failure only; the rollback failure is
	// logged and swallowed.
	assert.False(t, res.Success)
	assert.ErrorIs(t, res.Err, primary)
	assert.NotErrorIs(t, res.Err, rollbackErr)
	assert.True(t, res.RollbackRequired)
}

func TestExecuteValidationRefusal(t *testing.T) {
	t.Parallel()

	rec := &transitiontest.RecordingExecutor{}
	exec, err := transition.NewExecutor(rec, fastOpts(t)...)
	require.NoError(t, err)

	// Driver location only: the dropoff validator refuses before any
	// action runs.
	tc := transition.NewContext(phase.PickingUp, phase.EnRouteToDropoff,
		transition.WithDriverLocation(geo.Coordinate{Latitude: 37.7749, Longitude: -122.4194}),
	)

	res := exec.Execute(context.Background(), pickupToDropoffConfig(t), tc)

	assert.False(t, res.Success)
	assert.ErrorIs(t, res.Err, transition.ErrValidationFailed)
	assert.Empty(t, res.ExecutedActions)
	assert.False(t, res.RollbackRequired)
	assert.Empty(t, rec.Calls())
	assert.NotEmpty(t, res.ErrorMessage())
}

func TestExecutePhaseMismatchRefusal(t *testing.T) {
	t.Parallel()

	rec := &transitiontest.RecordingExecutor{}
	exec, err := transition.NewExecutor(rec, fastOpts(t)...)
	require.NoError(t, err)

	res := exec.Execute(context.Background(), pickupToDropoffConfig(t),
		transition.NewContext(phase.EnRouteToPickup, phase.ArrivedAtPickup))

	assert.False(t, res.Success)
	assert.ErrorIs(t, res.Err, transition.ErrPhaseMismatch)
	assert.Empty(t, rec.Calls())
}

func TestExecuteEmptyActionList(t *testing.T) {
	t.Parallel()

	rec := &transitiontest.RecordingExecutor{}
	exec, err := transition.NewExecutor(rec, fastOpts(t)...)
	require.NoError(t, err)

	// A legal pair with no registered side effects succeeds trivially.
	cfg := &transition.Config{From: phase.EnRouteToPickup, To: phase.Completed}

	res := exec.Execute(context.Background(), cfg,
		transition.NewContext(phase.EnRouteToPickup, phase.Completed))

	assert.True(t, res.Success)
	assert.Empty(t, res.ExecutedActions)
	assert.Empty(t, rec.Calls())
}

func TestExecuteCanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rec := &transitiontest.RecordingExecutor{}
	exec, err := transition.NewExecutor(rec,
		fastOpts(t, transition.WithRetryAttempts(3))...)
	require.NoError(t, err)

	res := exec.Execute(ctx, pickupToDropoffConfig(t), dropoffContext())

	assert.False(t, res.Success)
	assert.ErrorIs(t, res.Err, context.Canceled)
}

func TestExecuteCallbacks(t *testing.T) {
	t.Parallel()

	boom := errors.New("restart failed")
	scripted := transitiontest.NewScriptedExecutor(map[transition.Kind]*transitiontest.Script{
		transition.RestartNavigation: {Errs: []error{boom}},
	})

	var (
		started   []transition.Kind
		completed []transition.Kind
		failed    []transition.Kind
		progress  []float64
	)

	cb := transition.Callbacks{
		OnActionStart:    func(a transition.Action) { started = append(started, a.Kind) },
		OnActionComplete: func(a transition.Action) { completed = append(completed, a.Kind) },
		OnActionError:    func(a transition.Action, _ error) { failed = append(failed, a.Kind) },
		OnProgress:       func(f float64) { progress = append(progress, f) },
	}

	exec, err := transition.NewExecutor(scripted, fastOpts(t,
		transition.WithRetryAttempts(0),
		transition.WithCallbacks(cb),
	)...)
	require.NoError(t, err)

	res := exec.Execute(context.Background(), pickupToDropoffConfig(t), dropoffContext())

	assert.False(t, res.Success)

	// RestartNavigation is sixth in priority order: five completions, one
	// failure, and no callbacks for the rollback pass.
	assert.Len(t, started, 6)
	assert.Len(t, completed, 5)
	assert.Equal(t, []transition.Kind{transition.RestartNavigation}, failed)
	require.Len(t, progress, 5)
	assert.InDelta(t, 5.0/7.0, progress[4], 1e-9)
}

func TestExecuteProgressReachesOne(t *testing.T) {
	t.Parallel()

	var progress []float64

	exec, err := transition.NewExecutor(&transitiontest.RecordingExecutor{}, fastOpts(t,
		transition.WithCallbacks(transition.Callbacks{
			OnProgress: func(f float64) { progress = append(progress, f) },
		}),
	)...)
	require.NoError(t, err)

	res := exec.Execute(context.Background(), pickupToDropoffConfig(t), dropoffContext())

	assert.True(t, res.Success)
	require.Len(t, progress, 7)
	assert.InDelta(t, 1.0, progress[6], 1e-9)
}

func TestExecuteNilConfigPanics(t *testing.T) {
	t.Parallel()

	exec, err := transition.NewExecutor(&transitiontest.RecordingExecutor{})
	require.NoError(t, err)

	assert.Panics(t, func() {
		exec.Execute(context.Background(), nil, dropoffContext())
	})
}
