// Package metrics exposes Prometheus counters for analysis passes and
// broadcaster sweeps. A nil *Metrics is valid and records nothing.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "greenclass"

// Delivery outcomes.
const (
	OutcomeDM      = "dm"
	OutcomeWebhook = "webhook"
	OutcomeFailed  = "failed"
)

type Metrics struct {
	Sweeps          prometheus.Counter
	SweepUsers      prometheus.Gauge
	Deliveries      *prometheus.CounterVec
	Recommendations *prometheus.CounterVec
	PointsCredited  prometheus.Counter
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Sweeps: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sweeps_total",
			Help:      "Completed broadcaster sweeps.",
		}),
		SweepUsers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sweep_users",
			Help:      "Users visited by the most recent sweep.",
		}),
		Deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deliveries_total",
			Help:      "Reminder deliveries segmented by channel or failure.",
		}, []string{"outcome"}),
		Recommendations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recommendations_total",
			Help:      "Recommendations produced by analysis passes, by kind.",
		}, []string{"kind"}),
		PointsCredited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "points_credited_total",
			Help:      "Green points credited for empty classrooms.",
		}),
	}
	reg.MustRegister(m.Sweeps, m.SweepUsers, m.Deliveries, m.Recommendations, m.PointsCredited)
	return m
}

func (m *Metrics) ObserveSweep(users int) {
	if m == nil {
		return
	}
	m.Sweeps.Inc()
	m.SweepUsers.Set(float64(users))
}

func (m *Metrics) ObserveDelivery(outcome string) {
	if m == nil {
		return
	}
	m.Deliveries.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveRecommendation(kind string) {
	if m == nil {
		return
	}
	m.Recommendations.WithLabelValues(kind).Inc()
}

func (m *Metrics) ObserveCredit(points int) {
	if m == nil {
		return
	}
	m.PointsCredited.Add(float64(points))
}
