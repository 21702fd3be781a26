package transition

import (
	"context"
	"log/slog"
	"time"

	"github.com/fareway-labs/tripcore/phase"
)

// Logger provides logging hooks for transition execution.
type Logger interface {
	TransitionStarted(ctx context.Context, from, to phase.Phase, attemptID string)
	ActionStarted(ctx context.Context, kind Kind)
	ActionCompleted(ctx context.Context, kind Kind, duration time.Duration, err error)
	RollbackExecuted(ctx context.Context, from, to phase.Phase, emergency bool, err error)
	TransitionCompleted(ctx context.Context, res *Result)
}

// SlogLogger implements Logger using slog.
type SlogLogger struct {
	logger *slog.Logger
}

// NewDefaultLogger creates a logger backed by slog.Default().
func NewDefaultLogger() *SlogLogger {
	return &SlogLogger{logger: slog.Default()}
}

// NewSlogLogger creates a logger backed by the given slog.Logger.
func NewSlogLogger(logger *slog.Logger) *SlogLogger {
	return &SlogLogger{logger: logger}
}

func (l *SlogLogger) TransitionStarted(ctx context.Context, from, to phase.Phase, attemptID string) {
	l.logger.InfoContext(ctx, "Transition started",
		"from", from.String(),
		"to", to.String(),
		"attempt_id", attemptID,
	)
}

func (l *SlogLogger) ActionStarted(ctx context.Context, kind Kind) {
	l.logger.InfoContext(ctx, "Action started",
		"kind", kind.String(),
	)
}

func (l *SlogLogger) ActionCompleted(ctx context.Context, kind Kind, duration time.Duration, err error) {
	if err != nil {
		l.logger.ErrorContext(ctx, "Action completed with error",
			"kind", kind.String(),
			"duration_ms", duration.Milliseconds(),
			"error", err,
		)
	} else {
		l.logger.InfoContext(ctx, "Action completed",
			"kind", kind.String(),
			"duration_ms", duration.Milliseconds(),
		)
	}
}

func (l *SlogLogger) RollbackExecuted(ctx context.Context, from, to phase.Phase, emergency bool, err error) {
	fields := []any{
		"from", from.String(),
		"to", to.String(),
		"emergency", emergency,
	}

	// Rollback failures are logged here and nowhere else; they never reach
	// the transition result.
	if err != nil {
		l.logger.ErrorContext(ctx, "Rollback completed with error", append(fields, "error", err)...)
	} else {
		l.logger.InfoContext(ctx, "Rollback completed", fields...)
	}
}

func (l *SlogLogger) TransitionCompleted(ctx context.Context, res *Result) {
	fields := []any{
		"from", res.From.String(),
		"to", res.To.String(),
		"attempt_id", res.AttemptID.String(),
		"executed_actions", len(res.ExecutedActions),
		"rollback_required", res.RollbackRequired,
		"duration_ms", res.Elapsed.Milliseconds(),
	}

	if res.Success {
		l.logger.InfoContext(ctx, "Transition completed", fields...)
	} else {
		l.logger.ErrorContext(ctx, "Transition failed", append(fields, "error", res.Err)...)
	}
}

// nopLogger silences execution logging when no logger is configured.
type nopLogger struct{}

func (nopLogger) TransitionStarted(context.Context, phase.Phase, phase.Phase, string) {}
func (nopLogger) ActionStarted(context.Context, Kind)                                 {}
func (nopLogger) ActionCompleted(context.Context, Kind, time.Duration, error)         {}
func (nopLogger) RollbackExecuted(context.Context, phase.Phase, phase.Phase, bool, error) {
}
func (nopLogger) TransitionCompleted(context.Context, *Result) {}
