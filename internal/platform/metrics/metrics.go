// Package metrics holds the workflow-level Prometheus instruments shared by the
// lifecycle services.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Transitions     *prometheus.CounterVec
	GuardRejections *prometheus.CounterVec
	RequestLatency  *prometheus.HistogramVec
	PanelLatency    *prometheus.HistogramVec
}

// New registers the workflow metrics on reg. Pass prometheus.DefaultRegisterer
// in main and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Transitions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "sankalp_workflow_transitions_total",
			Help: "Committed lifecycle transitions by domain and target status",
		}, []string{"domain", "to"}),
		GuardRejections: f.NewCounterVec(prometheus.CounterOpts{
			Name: "sankalp_workflow_guard_rejections_total",
			Help: "Transitions refused by the role gate or the state guard",
		}, []string{"domain", "reason"}),
		RequestLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "sankalp_http_request_duration_seconds",
			Help:    "HTTP request latency by route pattern",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"method", "route"}),
		PanelLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "sankalp_dashboard_panel_duration_seconds",
			Help:    "Time to load one dashboard panel",
			Buckets: prometheus.DefBuckets,
		}, []string{"panel"}),
	}
}

// IncTransition records a committed transition. Safe on a nil receiver.
func (m *Metrics) IncTransition(domain, to string) {
	if m == nil {
		return
	}
	m.Transitions.WithLabelValues(domain, to).Inc()
}

// IncGuardRejection records a refused transition. Reason is "forbidden" or
// "invalid_state". Safe on a nil receiver.
func (m *Metrics) IncGuardRejection(domain, reason string) {
	if m == nil {
		return
	}
	m.GuardRejections.WithLabelValues(domain, reason).Inc()
}

func (m *Metrics) ObserveRequest(method, route string, start time.Time) {
	if m == nil {
		return
	}
	m.RequestLatency.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
}

func (m *Metrics) ObservePanelLatency(panel string, d time.Duration) {
	if m == nil {
		return
	}
	m.PanelLatency.WithLabelValues(panel).Observe(d.Seconds())
}
