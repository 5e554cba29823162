package detail

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vadiminshakov/helios/internal/domain"
	"github.com/vadiminshakov/helios/internal/services/generator"
)

func TestExpand_HistoryEndsAtCurrent(t *testing.T) {
	acct := domain.NewAccount(100000, 90000, 100000, 0, "USD", domain.AccountStatusActive)
	state := generator.Performance(time.UnixMilli(1_700_000_000_000), acct, domain.PeriodYTD)

	for _, m := range state.Metrics {
		d := Expand(m)
		require.Len(t, d.HistoricalData, len(historyFactors))
		assert.Equal(t, m.Current, d.HistoricalData[len(d.HistoricalData)-1].Value, m.Name)
		assert.Len(t, d.Smoothed, len(historyFactors)-smoothingPeriod+1)
		assert.NotEmpty(t, d.Description)
		assert.NotEmpty(t, d.RelatedMetrics)
		assert.GreaterOrEqual(t, len(d.ActionableInsights), 2)
		assert.LessOrEqual(t, len(d.ActionableInsights), 3)
	}
}

func TestExpand_ScenarioTotalReturn(t *testing.T) {
	m := domain.GeneratedMetric{
		Name:       "Total Return",
		Kind:       domain.MetricKindPerformance,
		Unit:       "%",
		Current:    24.1,
		Benchmark:  15.2,
		Percentile: 79.28,
		Trend:      domain.TrendUp,
	}

	d := Expand(m)
	assert.Equal(t, 24.1, d.HistoricalData[6].Value)
	assert.InDelta(t, 24.1*0.3, d.HistoricalData[0].Value, 1e-9)
	assert.Equal(t, "Now", d.HistoricalData[6].Label)
	assert.Contains(t, d.Interpretation, "24.10%")
	assert.Contains(t, d.Interpretation, "15.20%")
	assert.Contains(t, d.Interpretation, "ahead of")
	assert.Contains(t, d.ActionableInsights[0], "top quartile")
	assert.Contains(t, d.ActionableInsights[1], "improving")
}

func TestExpand_Fallbacks(t *testing.T) {
	sector := Expand(domain.GeneratedMetric{Name: "Technology", Kind: domain.MetricKindSectorExposure, Current: 33, Benchmark: 29.1, Percentile: 60})
	assert.Equal(t, kindFallback[domain.MetricKindSectorExposure].description, sector.Description)
	assert.Len(t, sector.ActionableInsights, 3)

	unknown := Expand(domain.GeneratedMetric{Name: "Mystery", Kind: domain.MetricKind("other")})
	assert.Equal(t, generic.description, unknown.Description)
	assert.Equal(t, 0.0, unknown.HistoricalData[6].Value)
	assert.Contains(t, unknown.ActionableInsights[0], "bottom quartile")
}

func TestExpand_RelatedIsCopy(t *testing.T) {
	d := Expand(domain.GeneratedMetric{Name: "Beta", Kind: domain.MetricKindRisk})
	d.RelatedMetrics[0].Correlation = 0

	again := Expand(domain.GeneratedMetric{Name: "Beta", Kind: domain.MetricKindRisk})
	assert.Equal(t, 0.79, again.RelatedMetrics[0].Correlation)
}
