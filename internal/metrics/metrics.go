// Package metrics exposes the pipeline's operational counters and
// gauges through a Prometheus registry: provider call volume, budget
// utilization, circuit states, cycle timing, and alert output.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles every collector the pipeline updates. Constructed
// once in main and passed by reference.
type Metrics struct {
	Registry *prometheus.Registry

	ProviderCalls     *prometheus.CounterVec
	ProviderFailures  *prometheus.CounterVec
	BudgetUtilization *prometheus.GaugeVec
	CircuitState      *prometheus.GaugeVec
	CycleDuration     prometheus.Histogram
	CyclesTotal       prometheus.Counter
	AlertsEmitted     *prometheus.CounterVec
	MatchesAnalyzed   prometheus.Counter
}

func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		Registry: reg,
		ProviderCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "earlybird_provider_calls_total",
			Help: "Outbound provider calls, by provider and component.",
		}, []string{"provider", "component"}),
		ProviderFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "earlybird_provider_failures_total",
			Help: "Failed provider calls, by provider.",
		}, []string{"provider"}),
		BudgetUtilization: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "earlybird_budget_utilization_pct",
			Help: "Monthly budget utilization percentage, by provider.",
		}, []string{"provider"}),
		CircuitState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "earlybird_circuit_state",
			Help: "Circuit state per provider: 0 closed, 1 half-open, 2 open.",
		}, []string{"provider"}),
		CycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "earlybird_cycle_duration_seconds",
			Help:    "Wall-clock duration of one scheduling cycle.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		}),
		CyclesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "earlybird_cycles_total",
			Help: "Completed scheduling cycles.",
		}),
		AlertsEmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "earlybird_alerts_emitted_total",
			Help: "Alerts emitted, by league and market.",
		}, []string{"league", "market"}),
		MatchesAnalyzed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "earlybird_matches_analyzed_total",
			Help: "Matches run through the full analysis pipeline.",
		}),
	}

	reg.MustRegister(
		m.ProviderCalls, m.ProviderFailures, m.BudgetUtilization,
		m.CircuitState, m.CycleDuration, m.CyclesTotal,
		m.AlertsEmitted, m.MatchesAnalyzed,
	)
	return m
}
