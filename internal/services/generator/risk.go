package generator

import (
	"time"

	"github.com/vadiminshakov/helios/internal/domain"
)

var riskBaselines = []domain.MetricBaseline{
	{Name: "Value at Risk (95%)", Unit: "%", BaseValue: -2.3, BenchmarkValue: -3.1, VarianceAmplitude: 0.25, Phase: 0.4, HigherIsBetter: true},
	{Name: "Beta", BaseValue: 0.85, BenchmarkValue: 1.0, VarianceAmplitude: 0.05, Phase: 1.3, HigherIsBetter: false},
	{Name: "Volatility", Unit: "%", BaseValue: 14.8, BenchmarkValue: 18.3, VarianceAmplitude: 1.1, Phase: 4.2, HigherIsBetter: false},
	{Name: "Max Drawdown", Unit: "%", BaseValue: -8.2, BenchmarkValue: -12.5, VarianceAmplitude: 0.9, Phase: 2.3, HigherIsBetter: true},
	{Name: "Sortino Ratio", BaseValue: 2.1, BenchmarkValue: 1.4, VarianceAmplitude: 0.18, Phase: 5.0, HigherIsBetter: true},
	{Name: "Correlation (S&P 500)", BaseValue: 0.72, BenchmarkValue: 1.0, VarianceAmplitude: 0.04, Phase: 2.8, HigherIsBetter: false},
}

// Risk trailing-year risk figures. Risk is not period dependent.
func Risk(now time.Time, acct domain.Account) domain.WidgetState {
	state := domain.WidgetState{
		Kind:        domain.MetricKindRisk,
		GeneratedAt: now,
	}

	if acct.IsEmpty() {
		state.Empty = true
		state.Metrics = emptyMetrics(domain.MetricKindRisk, riskBaselines)
		return state
	}

	state.Metrics = make([]domain.GeneratedMetric, 0, len(riskBaselines))
	for _, b := range riskBaselines {
		state.Metrics = append(state.Metrics, evaluate(domain.MetricKindRisk, b, now, 1.0))
	}
	return state
}
