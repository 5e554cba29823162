package generator

import (
	"time"

	"github.com/vadiminshakov/helios/internal/domain"
)

var performanceBaselines = []domain.MetricBaseline{
	{Name: "Total Return", Unit: "%", BaseValue: 22.4, BenchmarkValue: 15.2, VarianceAmplitude: 2.0, Phase: 0.0, HigherIsBetter: true},
	{Name: "Sharpe Ratio", BaseValue: 1.85, BenchmarkValue: 1.20, VarianceAmplitude: 0.15, Phase: 0.9, HigherIsBetter: true},
	{Name: "Win Rate", Unit: "%", BaseValue: 68.5, BenchmarkValue: 55.0, VarianceAmplitude: 3.0, Phase: 1.7, HigherIsBetter: true},
	{Name: "Max Drawdown", Unit: "%", BaseValue: -8.2, BenchmarkValue: -12.5, VarianceAmplitude: 0.9, Phase: 2.3, HigherIsBetter: true},
	{Name: "Alpha", Unit: "%", BaseValue: 7.2, BenchmarkValue: 0.0, VarianceAmplitude: 1.2, Phase: 3.1, HigherIsBetter: true},
	{Name: "Volatility", Unit: "%", BaseValue: 14.8, BenchmarkValue: 18.3, VarianceAmplitude: 1.1, Phase: 4.2, HigherIsBetter: false},
}

// Performance headline return and ratio metrics for the selected period.
func Performance(now time.Time, acct domain.Account, period domain.Period) domain.WidgetState {
	period = normalizePeriod(period)
	state := domain.WidgetState{
		Kind:        domain.MetricKindPerformance,
		GeneratedAt: now,
		Period:      period,
	}

	if acct.IsEmpty() {
		state.Empty = true
		state.Metrics = emptyMetrics(domain.MetricKindPerformance, performanceBaselines)
		return state
	}

	multiplier := period.Multiplier()
	state.Metrics = make([]domain.GeneratedMetric, 0, len(performanceBaselines))
	for _, b := range performanceBaselines {
		state.Metrics = append(state.Metrics, evaluate(domain.MetricKindPerformance, b, now, multiplier))
	}
	return state
}
