package transition

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metric outcome constants.
const (
	outcomeSuccess = "success"
	outcomeError   = "error"
)

// Rollback mode labels.
const (
	rollbackModeConfigured = "configured"
	rollbackModeEmergency  = "emergency"
)

// Metric definitions with appropriate labels.
var (
	// executionsTotal tracks transition attempts by phase pair and outcome.
	executionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "transition_executions_total",
		Help: "Total number of transition executions by from_phase, to_phase, and outcome (success or error)",
	}, []string{"from_phase", "to_phase", "outcome"})

	// executionDuration tracks end-to-end transition execution time.
	executionDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "transition_execution_duration_seconds",
		Help:    "Duration of transition execution by from_phase, to_phase, and outcome",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300},
	}, []string{"from_phase", "to_phase", "outcome"})

	// actionDuration tracks individual action execution time, retries
	// included.
	actionDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "transition_action_duration_seconds",
		Help:    "Duration of action execution by kind and outcome",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
	}, []string{"kind", "outcome"})

	// actionRetriesTotal counts retry attempts (not initial calls) by kind.
	actionRetriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "transition_action_retries_total",
		Help: "Total number of action retry attempts by kind",
	}, []string{"kind"})

	// rollbacksTotal counts rollback runs by phase pair and mode
	// (configured or emergency).
	rollbacksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "transition_rollbacks_total",
		Help: "Total number of rollback runs by from_phase, to_phase, and mode",
	}, []string{"from_phase", "to_phase", "mode"})
)
