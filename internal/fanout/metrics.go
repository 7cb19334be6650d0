package fanout

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeSubmitted = "submitted"
	outcomeDropped   = "dropped"
	outcomeDelivered = "delivered"
	outcomeFailed    = "failed"
	outcomeSkipped   = "skipped"
)

// Metrics counts fan-out task outcomes per channel.
type Metrics struct {
	Tasks  *prometheus.CounterVec
	Queued prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Tasks: f.NewCounterVec(prometheus.CounterOpts{
			Name: "sankalp_fanout_tasks_total",
			Help: "Fan-out tasks by channel and outcome (submitted, dropped, delivered, failed, skipped)",
		}, []string{"channel", "outcome"}),
		Queued: f.NewGauge(prometheus.GaugeOpts{
			Name: "sankalp_fanout_queue_depth",
			Help: "Fan-out tasks waiting for a worker",
		}),
	}
}

func (m *Metrics) count(ch Channel, outcome string) {
	if m == nil {
		return
	}
	m.Tasks.WithLabelValues(string(ch), outcome).Inc()
}

func (m *Metrics) setQueued(n int) {
	if m == nil {
		return
	}
	m.Queued.Set(float64(n))
}
