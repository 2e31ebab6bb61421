// Package metrics holds the prometheus collectors of the ledger backend. They
// register with the default registry and are served on /metrics by cmd.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Pour metrics
	DrinksRecorded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kegledger_drinks_recorded_total",
			Help: "Total number of recorded pours",
		},
		[]string{"outcome"}, // "drink", "spilled"
	)

	DrinksCancelled = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "kegledger_drinks_cancelled_total",
			Help: "Total number of cancelled drinks",
		},
	)

	VolumePoured = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "kegledger_volume_poured_total",
			Help: "Total volume of recorded drinks",
		},
	)

	// Backend operation metrics
	OperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kegledger_operation_duration_seconds",
			Help:    "Duration of backend operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "status"},
	)

	// Stats metrics
	StatsBuildDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kegledger_stats_build_duration_seconds",
			Help:    "Duration of stats builds in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30},
		},
		[]string{"mode"}, // "drink", "rebuild"
	)

	StatsRowsWritten = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "kegledger_stats_rows_written_total",
			Help: "Total number of stats rows written",
		},
	)

	StatsQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "kegledger_stats_pending_rebuilds",
			Help: "Whether a deferred stats rebuild is waiting to run",
		},
	)

	// Cache metrics
	GenerationBumps = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "kegledger_generation_bumps_total",
			Help: "Total number of cache generation bumps",
		},
	)

	GenerationBumpErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "kegledger_generation_bump_errors_total",
			Help: "Total number of failed cache generation bumps",
		},
	)

	// Dispatch metrics
	EventsDispatched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kegledger_events_dispatched_total",
			Help: "Total number of events handed to collaborators",
		},
		[]string{"collaborator"},
	)

	DispatchFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kegledger_dispatch_failures_total",
			Help: "Total number of collaborator failures",
		},
		[]string{"collaborator"},
	)
)

// RecordOperation records the duration and outcome of a backend operation
func RecordOperation(operation string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	OperationDuration.WithLabelValues(operation, status).Observe(duration.Seconds())
}

// RecordStatsBuild records the duration of a stats build and the rows it wrote
func RecordStatsBuild(mode string, duration time.Duration, rows int) {
	StatsBuildDuration.WithLabelValues(mode).Observe(duration.Seconds())
	StatsRowsWritten.Add(float64(rows))
}

// RecordGenerationBump counts a generation bump attempt
func RecordGenerationBump(err error) {
	if err != nil {
		GenerationBumpErrors.Inc()
		return
	}
	GenerationBumps.Inc()
}

// RecordDispatch counts one collaborator delivery
func RecordDispatch(collaborator string, events int, err error) {
	if err != nil {
		DispatchFailures.WithLabelValues(collaborator).Inc()
		return
	}
	EventsDispatched.WithLabelValues(collaborator).Add(float64(events))
}
