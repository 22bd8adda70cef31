// Package metrics provides Prometheus instrumentation for filing recording
// and listing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the filing collectors. A nil *Metrics records nothing.
type Metrics struct {
	FilingsRecorded *prometheus.CounterVec
	RecordDuration  prometheus.Histogram
	ListDuration    prometheus.Histogram
}

// New creates and registers the filing collectors on the default registry.
func New() *Metrics {
	return &Metrics{
		FilingsRecorded: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "wellfile_filings_recorded_total",
			Help: "Draft filings recorded, partitioned by form type",
		}, []string{"form_type"}),
		RecordDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "wellfile_filing_record_duration_seconds",
			Help:    "Duration of filing record operations",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		ListDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "wellfile_filing_list_duration_seconds",
			Help:    "Duration of aggregated filing listings",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

// IncrementRecorded counts one recorded filing.
func (m *Metrics) IncrementRecorded(formType string) {
	if m == nil {
		return
	}
	m.FilingsRecorded.WithLabelValues(formType).Inc()
}

// ObserveRecord records the duration of one record operation.
func (m *Metrics) ObserveRecord(start time.Time) {
	if m == nil {
		return
	}
	m.RecordDuration.Observe(time.Since(start).Seconds())
}

// ObserveList records the duration of one aggregated listing.
func (m *Metrics) ObserveList(start time.Time) {
	if m == nil {
		return
	}
	m.ListDuration.Observe(time.Since(start).Seconds())
}
