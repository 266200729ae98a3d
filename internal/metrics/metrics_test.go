package metrics

import (
	"testing"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gather(t *testing.T, m *Metrics, name string) *dto.MetricFamily {
	t.Helper()
	families, err := m.Registry.Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() == name {
			return f
		}
	}
	return nil
}

func TestProviderCallsCounter(t *testing.T) {
	m := New()
	m.ProviderCalls.WithLabelValues("brave", "search").Inc()
	m.ProviderCalls.WithLabelValues("brave", "search").Inc()
	m.ProviderCalls.WithLabelValues("deepseek", "pipeline.scoring").Inc()

	family := gather(t, m, "earlybird_provider_calls_total")
	require.NotNil(t, family)
	require.Len(t, family.Metric, 2)

	total := 0.0
	for _, metric := range family.Metric {
		total += metric.GetCounter().GetValue()
	}
	assert.Equal(t, 3.0, total)
}

func TestBudgetGaugeOverwrites(t *testing.T) {
	m := New()
	m.BudgetUtilization.WithLabelValues("brave").Set(40)
	m.BudgetUtilization.WithLabelValues("brave").Set(62.5)

	family := gather(t, m, "earlybird_budget_utilization_pct")
	require.NotNil(t, family)
	require.Len(t, family.Metric, 1)
	assert.Equal(t, 62.5, family.Metric[0].GetGauge().GetValue())
}

func TestCycleHistogramCounts(t *testing.T) {
	m := New()
	m.CycleDuration.Observe(3.2)
	m.CycleDuration.Observe(8.1)

	family := gather(t, m, "earlybird_cycle_duration_seconds")
	require.NotNil(t, family)
	assert.Equal(t, uint64(2), family.Metric[0].GetHistogram().GetSampleCount())
}
