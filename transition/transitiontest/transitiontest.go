// Package transitiontest provides fake ActionExecutor implementations for
// testing code that drives phase transitions.
package transitiontest

import (
	"context"
	"sync"

	"github.com/fareway-labs/tripcore/transition"
)

// Call records one ExecuteAction invocation.
type Call struct {
	Action  transition.Action
	Context *transition.Context
}

// RecordingExecutor is an ActionExecutor that records every call in order
// and succeeds unconditionally. Safe for concurrent use.
type RecordingExecutor struct {
	mu    sync.Mutex
	calls []Call
}

func (r *RecordingExecutor) ExecuteAction(_ context.Context, action transition.Action, tc *transition.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.calls = append(r.calls, Call{Action: action, Context: tc})

	return nil
}

// Calls returns a copy of the recorded calls in invocation order.
func (r *RecordingExecutor) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Call, len(r.calls))
	copy(out, r.calls)

	return out
}

// Kinds returns just the action kinds in invocation order.
func (r *RecordingExecutor) Kinds() []transition.Kind {
	calls := r.Calls()

	kinds := make([]transition.Kind, len(calls))
	for i, c := range calls {
		kinds[i] = c.Action.Kind
	}

	return kinds
}

// Script controls how a ScriptedExecutor responds to one action kind.
type Script struct {
	// Errs is returned in order, one per call for this kind; calls past the
	// end of the slice succeed. A nil entry succeeds.
	Errs []error

	// Hang blocks every call for this kind until its context is done,
	// returning ctx.Err(). Used to exercise per-action timeouts.
	Hang bool
}

// ScriptedExecutor is an ActionExecutor whose behavior per action kind is
// scripted. Unscripted kinds succeed. It records calls like
// RecordingExecutor. Safe for concurrent use.
type ScriptedExecutor struct {
	RecordingExecutor

	mu      sync.Mutex
	scripts map[transition.Kind]*Script
	counts  map[transition.Kind]int
}

// NewScriptedExecutor creates an executor with the given per-kind scripts.
func NewScriptedExecutor(scripts map[transition.Kind]*Script) *ScriptedExecutor {
	return &ScriptedExecutor{
		scripts: scripts,
		counts:  make(map[transition.Kind]int),
	}
}

func (s *ScriptedExecutor) ExecuteAction(ctx context.Context, action transition.Action, tc *transition.Context) error {
	_ = s.RecordingExecutor.ExecuteAction(ctx, action, tc)

	s.mu.Lock()
	script := s.scripts[action.Kind]
	n := s.counts[action.Kind]
	s.counts[action.Kind] = n + 1
	s.mu.Unlock()

	if script == nil {
		return nil
	}

	if script.Hang {
		<-ctx.Done()

		return ctx.Err()
	}

	if n < len(script.Errs) {
		return script.Errs[n]
	}

	return nil
}

// CallCount returns how many times the kind has been invoked.
func (s *ScriptedExecutor) CallCount(kind transition.Kind) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.counts[kind]
}
