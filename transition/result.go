package transition

import (
	"time"

	"github.com/google/uuid"

	"github.com/fareway-labs/tripcore/phase"
)

// Result reports how one transition attempt ended. The executor always
// returns a Result for expected failure modes; callers branch on Success,
// never on a returned error.
type Result struct {
	Success bool

	From phase.Phase
	To   phase.Phase

	// ExecutedActions is the contiguous prefix of the priority-sorted
	// action list that completed. Execution halts at the first action that
	// cannot be completed, so no later action ever appears without every
	// earlier one.
	ExecutedActions []Action

	// Err is set when the attempt failed: a ValidationError before any
	// action ran, or an ActionError naming the action that exhausted its
	// retries.
	Err error

	// RollbackRequired reports that recovery actions were attempted after
	// a partial failure. It says nothing about whether they succeeded;
	// rollback failures are logged and swallowed.
	RollbackRequired bool

	// AttemptID correlates this attempt across logs, spans, and metrics.
	AttemptID uuid.UUID

	Elapsed time.Duration
}

// ErrorMessage returns the failure message, or "" on success. Suitable for
// surfacing to the driver UI alongside the registry's Description.
func (r Result) ErrorMessage() string {
	if r.Err == nil {
		return ""
	}

	return r.Err.Error()
}
