package generator

import (
	"time"

	"github.com/vadiminshakov/helios/internal/domain"
)

// factor contributions to return, in percentage points.
var factorBaselines = []domain.MetricBaseline{
	{Name: "Market", Unit: "pp", BaseValue: 8.2, BenchmarkValue: 7.5, VarianceAmplitude: 0.8, Phase: 0.2, HigherIsBetter: true},
	{Name: "Size", Unit: "pp", BaseValue: 2.1, BenchmarkValue: 1.2, VarianceAmplitude: 0.4, Phase: 1.1, HigherIsBetter: true},
	{Name: "Value", Unit: "pp", BaseValue: -1.3, BenchmarkValue: -0.4, VarianceAmplitude: 0.3, Phase: 2.0, HigherIsBetter: true},
	{Name: "Momentum", Unit: "pp", BaseValue: 4.5, BenchmarkValue: 2.8, VarianceAmplitude: 0.6, Phase: 2.9, HigherIsBetter: true},
	{Name: "Quality", Unit: "pp", BaseValue: 3.2, BenchmarkValue: 1.9, VarianceAmplitude: 0.4, Phase: 3.7, HigherIsBetter: true},
	{Name: "Low Volatility", Unit: "pp", BaseValue: 1.4, BenchmarkValue: 0.9, VarianceAmplitude: 0.3, Phase: 4.6, HigherIsBetter: true},
}

// FactorAttribution decomposes the period return by style factor.
func FactorAttribution(now time.Time, acct domain.Account, period domain.Period) domain.WidgetState {
	period = normalizePeriod(period)
	state := domain.WidgetState{
		Kind:        domain.MetricKindFactorAttribution,
		GeneratedAt: now,
		Period:      period,
	}

	if acct.IsEmpty() {
		state.Empty = true
		state.Metrics = emptyMetrics(domain.MetricKindFactorAttribution, factorBaselines)
		return state
	}

	multiplier := period.Multiplier()
	state.Metrics = make([]domain.GeneratedMetric, 0, len(factorBaselines))
	for _, b := range factorBaselines {
		state.Metrics = append(state.Metrics, evaluate(domain.MetricKindFactorAttribution, b, now, multiplier))
	}
	return state
}
