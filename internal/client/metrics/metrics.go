// Package metrics defines the Prometheus collectors of the session client.
// Collectors are registered on an injected registry rather than the global
// default one, so tests and several clients in one process stay isolated.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace = "iskr"
	subsystem = "client"
)

// OutcomeSuccess labels a successful gateway request. Failures are
// labelled with their error kind.
const OutcomeSuccess = "success"

// Metrics groups the client's collectors. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	// Transitions counts committed session transitions.
	// Label transition: the transition kind, e.g. "login_success".
	Transitions *prometheus.CounterVec

	// GatewayRequests counts identity API calls.
	// Labels operation ("login", "fetch_user", ...) and outcome
	// ("success" or the failure kind).
	GatewayRequests *prometheus.CounterVec

	// GatewayDuration measures identity API call latency by operation.
	GatewayDuration *prometheus.HistogramVec
}

// New creates and registers the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)

	return &Metrics{
		Transitions: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "session_transitions_total",
				Help:      "Total number of committed session transitions.",
			},
			[]string{"transition"},
		),
		GatewayRequests: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "gateway_requests_total",
				Help:      "Total number of identity API calls, labelled by operation and outcome.",
			},
			[]string{"operation", "outcome"},
		),
		GatewayDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "gateway_request_duration_seconds",
				Help:      "Duration of identity API calls.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

func (m *Metrics) ObserveTransition(transition string) {
	if m == nil {
		return
	}
	m.Transitions.WithLabelValues(transition).Inc()
}

func (m *Metrics) ObserveRequest(operation, outcome string, took time.Duration) {
	if m == nil {
		return
	}
	m.GatewayRequests.WithLabelValues(operation, outcome).Inc()
	m.GatewayDuration.WithLabelValues(operation).Observe(took.Seconds())
}
