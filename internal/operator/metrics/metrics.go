// Package metrics provides Prometheus instrumentation for operator
// provisioning and authentication.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the operator collectors. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	OperatorsCreated prometheus.Counter
	AuthFailures     prometheus.Counter
	TokensIssued     prometheus.Counter
}

// New creates and registers the operator collectors on the default
// registry.
func New() *Metrics {
	return &Metrics{
		OperatorsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "wellfile_operators_created_total",
			Help: "Operators provisioned",
		}),
		AuthFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "wellfile_operator_auth_failures_total",
			Help: "Rejected operator credential checks",
		}),
		TokensIssued: promauto.NewCounter(prometheus.CounterOpts{
			Name: "wellfile_operator_tokens_issued_total",
			Help: "Access tokens issued to operators",
		}),
	}
}

// IncrementCreated records a provisioned operator.
func (m *Metrics) IncrementCreated() {
	if m == nil {
		return
	}
	m.OperatorsCreated.Inc()
}

// IncrementAuthFailed records a rejected credential check.
func (m *Metrics) IncrementAuthFailed() {
	if m == nil {
		return
	}
	m.AuthFailures.Inc()
}

// IncrementTokenIssued records an issued access token.
func (m *Metrics) IncrementTokenIssued() {
	if m == nil {
		return
	}
	m.TokensIssued.Inc()
}
