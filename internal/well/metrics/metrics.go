// Package metrics provides Prometheus instrumentation for well identity
// resolution.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the well resolver collectors. A nil *Metrics is valid and
// records nothing, so tests can pass a bare service.
type Metrics struct {
	WellsResolved   *prometheus.CounterVec
	ResolveDuration prometheus.Histogram
}

// New creates and registers the well resolver collectors on the default
// registry.
func New() *Metrics {
	return &Metrics{
		WellsResolved: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "wellfile_wells_resolved_total",
			Help: "Well identity resolutions, partitioned by whether a row was created",
		}, []string{"created"}),
		ResolveDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "wellfile_well_resolve_duration_seconds",
			Help:    "Duration of find-or-create well resolutions",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

// IncrementResolved counts one resolution outcome.
func (m *Metrics) IncrementResolved(created bool) {
	if m == nil {
		return
	}
	m.WellsResolved.WithLabelValues(strconv.FormatBool(created)).Inc()
}

// ObserveResolve records the duration of one resolution.
func (m *Metrics) ObserveResolve(start time.Time) {
	if m == nil {
		return
	}
	m.ResolveDuration.Observe(time.Since(start).Seconds())
}
