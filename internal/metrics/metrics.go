// Package metrics exposes Prometheus instrumentation for the optimistic
// edit pipeline. Everything hangs off a caller-owned registry so tests
// and embedders never fight over the global default.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the backline instrument set.
type Metrics struct {
	ActionsApplied *prometheus.CounterVec
	Settlements    *prometheus.CounterVec
	Conflicts      *prometheus.CounterVec
	PollRefreshes  *prometheus.CounterVec
	SettleDuration *prometheus.HistogramVec
}

// New creates the instrument set and registers it on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ActionsApplied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "backline_actions_applied_total",
			Help: "Optimistic edits applied, by resource and kind.",
		}, []string{"resource", "kind"}),
		Settlements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "backline_settlements_total",
			Help: "Settled edits, by resource and outcome.",
		}, []string{"resource", "outcome"}),
		Conflicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "backline_conflicts_total",
			Help: "Edits rejected by the coordinator, by conflict code.",
		}, []string{"code"}),
		PollRefreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "backline_poll_refreshes_total",
			Help: "Base list refreshes, by result.",
		}, []string{"status"}),
		SettleDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "backline_settle_duration_seconds",
			Help:    "Time from apply to settlement.",
			Buckets: prometheus.DefBuckets,
		}, []string{"resource", "outcome"}),
	}
	reg.MustRegister(
		m.ActionsApplied,
		m.Settlements,
		m.Conflicts,
		m.PollRefreshes,
		m.SettleDuration,
	)
	return m
}

// ObserveSettlement records one settlement and its apply-to-settle latency.
func (m *Metrics) ObserveSettlement(resource, outcome string, startedAt time.Time) {
	m.Settlements.WithLabelValues(resource, outcome).Inc()
	m.SettleDuration.WithLabelValues(resource, outcome).Observe(time.Since(startedAt).Seconds())
}
