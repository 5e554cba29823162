package generator

import (
	"time"

	"github.com/vadiminshakov/helios/internal/domain"
)

var allocationBaselines = []domain.MetricBaseline{
	{Name: "Equities", Unit: "%", TargetWeight: 60, VarianceAmplitude: 2.5, Phase: 0.7, HigherIsBetter: true},
	{Name: "Fixed Income", Unit: "%", TargetWeight: 20, VarianceAmplitude: 1.2, Phase: 1.9, HigherIsBetter: true},
	{Name: "Crypto", Unit: "%", TargetWeight: 8, VarianceAmplitude: 1.0, Phase: 3.3, HigherIsBetter: true},
	{Name: "Commodities", Unit: "%", TargetWeight: 5, VarianceAmplitude: 0.5, Phase: 4.4, HigherIsBetter: true},
	{Name: "Cash", Unit: "%", TargetWeight: 7, VarianceAmplitude: 0.6, Phase: 5.5, HigherIsBetter: true},
}

// Allocation asset class weights drifting around their targets. Weights sum to 100.
func Allocation(now time.Time, acct domain.Account) domain.WidgetState {
	state := domain.WidgetState{
		Kind:        domain.MetricKindAllocation,
		GeneratedAt: now,
	}

	if acct.IsEmpty() {
		state.Empty = true
		state.Metrics = emptyMetrics(domain.MetricKindAllocation, allocationBaselines)
		return state
	}

	weights := oscillatingWeights(allocationBaselines, now)
	previous := oscillatingWeights(allocationBaselines, now.Add(-trendLookback))

	state.Metrics = make([]domain.GeneratedMetric, 0, len(allocationBaselines))
	for i, b := range allocationBaselines {
		state.Metrics = append(state.Metrics, domain.GeneratedMetric{
			Name:       b.Name,
			Kind:       domain.MetricKindAllocation,
			Unit:       b.Unit,
			Current:    round2(weights[i]),
			Benchmark:  b.TargetWeight,
			Percentile: percentile(weights[i]-b.TargetWeight, b.TargetWeight, true),
			Trend:      trendOf(weights[i], previous[i]),
			Notional:   notional(acct, weights[i]),
		})
	}
	return state
}
