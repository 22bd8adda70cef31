// Package metrics provides Prometheus instrumentation for the report
// generation path.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the report collectors. A nil *Metrics records nothing.
type Metrics struct {
	GenerationsTotal  *prometheus.CounterVec
	GeneratorDuration prometheus.Histogram
	CircuitOpened     prometheus.Counter
	PersistTotal      *prometheus.CounterVec
	PersistDuration   prometheus.Histogram
	ArchiveFailures   prometheus.Counter
}

// New creates and registers the report collectors on the default registry.
func New() *Metrics {
	return &Metrics{
		GenerationsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "wellfile_generations_total",
			Help: "Generation requests by outcome (success, rejected, failure, unavailable)",
		}, []string{"outcome"}),
		GeneratorDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "wellfile_generator_call_duration_seconds",
			Help:    "Duration of upstream form generator calls",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15},
		}),
		CircuitOpened: promauto.NewCounter(prometheus.CounterOpts{
			Name: "wellfile_generator_circuit_opened_total",
			Help: "Times the generator circuit breaker opened",
		}),
		PersistTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "wellfile_filing_persist_total",
			Help: "Persistence attempts behind the guard by outcome (persisted, failed)",
		}, []string{"outcome"}),
		PersistDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "wellfile_filing_persist_duration_seconds",
			Help:    "Duration of guarded persistence attempts",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 5},
		}),
		ArchiveFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "wellfile_filing_archive_failures_total",
			Help: "Best-effort payload archive attempts that failed",
		}),
	}
}

// IncrementGeneration counts one generation request outcome.
func (m *Metrics) IncrementGeneration(outcome string) {
	if m == nil {
		return
	}
	m.GenerationsTotal.WithLabelValues(outcome).Inc()
}

// ObserveGeneratorCall records the duration of one upstream call.
func (m *Metrics) ObserveGeneratorCall(start time.Time) {
	if m == nil {
		return
	}
	m.GeneratorDuration.Observe(time.Since(start).Seconds())
}

// IncrementCircuitOpened counts one breaker opening.
func (m *Metrics) IncrementCircuitOpened() {
	if m == nil {
		return
	}
	m.CircuitOpened.Inc()
}

// IncrementPersist counts one guarded persistence outcome.
func (m *Metrics) IncrementPersist(outcome string) {
	if m == nil {
		return
	}
	m.PersistTotal.WithLabelValues(outcome).Inc()
}

// ObservePersist records the duration of one guarded persistence attempt.
func (m *Metrics) ObservePersist(start time.Time) {
	if m == nil {
		return
	}
	m.PersistDuration.Observe(time.Since(start).Seconds())
}

// IncrementArchiveFailed counts one failed archive attempt.
func (m *Metrics) IncrementArchiveFailed() {
	if m == nil {
		return
	}
	m.ArchiveFailures.Inc()
}
