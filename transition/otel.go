package transition

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "transition"

// startTransitionSpan creates the root span for one transition execution.
// The caller is responsible for calling span.End().
//
//nolint:spancheck // Span lifecycle managed by caller (factory pattern)
func startTransitionSpan(ctx context.Context, cfg *Config, attemptID string) (context.Context, trace.Span) {
	tracer := otel.Tracer(tracerName)
	ctx, span := tracer.Start(ctx, "transition.execute")
	span.SetAttributes(
		attribute.String("from_phase", cfg.From.String()),
		attribute.String("to_phase", cfg.To.String()),
		attribute.String("attempt_id", attemptID),
		attribute.Int("action_count", len(cfg.Actions)),
	)

	return ctx, span
}

// startActionSpan creates a child span for one action, retries included.
// The caller is responsible for calling span.End().
//
//nolint:spancheck // Span lifecycle managed by caller (factory pattern)
func startActionSpan(ctx context.Context, action Action, tc *Context) (context.Context, trace.Span) {
	tracer := otel.Tracer(tracerName)
	ctx, span := tracer.Start(ctx, "action."+action.Kind.String())
	span.SetAttributes(
		attribute.String("kind", action.Kind.String()),
		attribute.String("from_phase", tc.Current.String()),
		attribute.String("to_phase", tc.Target.String()),
		attribute.Int("priority", action.effectivePriority()),
	)

	return ctx, span
}

// startRollbackSpan creates a child span for the recovery pass after a
// failed transition. The caller is responsible for calling span.End().
//
//nolint:spancheck // Span lifecycle managed by caller (factory pattern)
func startRollbackSpan(ctx context.Context, cfg *Config, mode string) (context.Context, trace.Span) {
	tracer := otel.Tracer(tracerName)
	ctx, span := tracer.Start(ctx, "transition.rollback")
	span.SetAttributes(
		attribute.String("from_phase", cfg.From.String()),
		attribute.String("to_phase", cfg.To.String()),
		attribute.String("mode", mode),
	)

	return ctx, span
}
