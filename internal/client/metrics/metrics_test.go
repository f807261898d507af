package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestMetrics_CountsOnOwnRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveTransition("login_success")
	m.ObserveTransition("login_success")
	m.ObserveRequest("login", OutcomeSuccess, 20*time.Millisecond)
	m.ObserveRequest("login", "invalid_credentials", 10*time.Millisecond)

	require.Equal(t, 2.0, testutil.ToFloat64(m.Transitions.WithLabelValues("login_success")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.GatewayRequests.WithLabelValues("login", OutcomeSuccess)))
	require.Equal(t, 1.0, testutil.ToFloat64(m.GatewayRequests.WithLabelValues("login", "invalid_credentials")))
	require.Equal(t, 1, testutil.CollectAndCount(m.GatewayDuration))
}

func TestMetrics_TwoInstancesDoNotCollide(t *testing.T) {
	require.NotPanics(t, func() {
		New(prometheus.NewRegistry())
		New(prometheus.NewRegistry())
	})
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	require.NotPanics(t, func() {
		m.ObserveTransition("logout")
		m.ObserveRequest("logout", "transport", time.Second)
	})
}
