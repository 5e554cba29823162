package generator

import (
	"time"

	"github.com/vadiminshakov/helios/internal/domain"
	"github.com/vadiminshakov/helios/internal/oscillator"
)

// activeWeightScale active weight (pp) at which the relative view saturates the percentile.
const activeWeightScale = 5.0

// TargetWeight is the portfolio weight, BenchmarkValue the index weight. Both columns sum to 100.
var sectorBaselines = []domain.MetricBaseline{
	{Name: "Technology", Unit: "%", TargetWeight: 28.5, BenchmarkValue: 29.1, VarianceAmplitude: 1.8, Phase: 0.3, HigherIsBetter: true},
	{Name: "Healthcare", Unit: "%", TargetWeight: 14.2, BenchmarkValue: 13.0, VarianceAmplitude: 0.9, Phase: 1.4, HigherIsBetter: true},
	{Name: "Financials", Unit: "%", TargetWeight: 12.8, BenchmarkValue: 13.4, VarianceAmplitude: 0.8, Phase: 2.2, HigherIsBetter: true},
	{Name: "Consumer Discretionary", Unit: "%", TargetWeight: 10.4, BenchmarkValue: 10.7, VarianceAmplitude: 0.7, Phase: 3.0, HigherIsBetter: true},
	{Name: "Industrials", Unit: "%", TargetWeight: 9.6, BenchmarkValue: 8.6, VarianceAmplitude: 0.6, Phase: 3.9, HigherIsBetter: true},
	{Name: "Energy", Unit: "%", TargetWeight: 5.1, BenchmarkValue: 4.2, VarianceAmplitude: 0.5, Phase: 4.8, HigherIsBetter: true},
	{Name: "Other", Unit: "%", TargetWeight: 19.4, BenchmarkValue: 21.0, VarianceAmplitude: 1.0, Phase: 5.6, HigherIsBetter: true},
}

// SectorExposure portfolio weight per sector, absolute or relative to the benchmark index.
func SectorExposure(now time.Time, acct domain.Account, view domain.ExposureView) domain.WidgetState {
	if !view.IsValid() {
		view = domain.DefaultExposureView
	}
	state := domain.WidgetState{
		Kind:        domain.MetricKindSectorExposure,
		GeneratedAt: now,
		View:        view,
	}

	if acct.IsEmpty() {
		state.Empty = true
		state.Metrics = emptyMetrics(domain.MetricKindSectorExposure, sectorBaselines)
		return state
	}

	weights := oscillatingWeights(sectorBaselines, now)
	previous := oscillatingWeights(sectorBaselines, now.Add(-trendLookback))

	state.Metrics = make([]domain.GeneratedMetric, 0, len(sectorBaselines))
	for i, b := range sectorBaselines {
		m := domain.GeneratedMetric{
			Name:     b.Name,
			Kind:     domain.MetricKindSectorExposure,
			Unit:     b.Unit,
			Trend:    trendOf(weights[i], previous[i]),
			Notional: notional(acct, weights[i]),
		}

		switch view {
		case domain.ExposureViewRelative:
			active := weights[i] - b.BenchmarkValue
			m.Current = round2(active)
			m.Benchmark = 0
			m.Percentile = scaledPercentile(active, activeWeightScale, true)
		default:
			benchmark := rowBenchmark(b, now, 1.0)
			m.Current = round2(weights[i])
			m.Benchmark = round2(benchmark)
			m.Percentile = percentile(weights[i]-benchmark, benchmark, true)
		}
		state.Metrics = append(state.Metrics, m)
	}
	return state
}

// oscillatingWeights perturbs every target weight and renormalises the row set to 100.
func oscillatingWeights(rows []domain.MetricBaseline, t time.Time) []float64 {
	weights := make([]float64, len(rows))
	total := 0.0
	for i, b := range rows {
		w := b.TargetWeight + oscillator.Composite(t, b.Phase)*b.VarianceAmplitude
		if w < 0 {
			w = 0
		}
		weights[i] = w
		total += w
	}

	if total <= 0 {
		for i, b := range rows {
			weights[i] = b.TargetWeight
		}
		return weights
	}

	for i := range weights {
		weights[i] = weights[i] / total * 100
	}
	return weights
}
