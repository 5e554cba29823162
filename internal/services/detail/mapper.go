// Package detail expands a clicked metric into the explanatory modal content.
package detail

import (
	"fmt"
	"strings"

	"github.com/vadiminshakov/helios/internal/domain"
	"github.com/vadiminshakov/helios/pkg/indicators"
)

// smoothingPeriod SMA window applied to the historical series.
const smoothingPeriod = 3

// historyFactors fraction of the current value shown at each historical label.
// The last factor is 1 so the series ends at the clicked value.
var historyFactors = []float64{0.3, 0.45, 0.6, 0.7, 0.85, 0.92, 1.0}

var historyLabels = []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Now"}

type entry struct {
	description string
	calculation string
	related     []domain.RelatedMetric
}

var catalogue = map[string]entry{
	"Total Return": {
		description: "Cumulative gain or loss of the portfolio over the selected period, including dividends and fees.",
		calculation: "(Ending Value - Starting Value + Income) / Starting Value x 100",
		related:     []domain.RelatedMetric{{Name: "Alpha", Correlation: 0.82}, {Name: "Sharpe Ratio", Correlation: 0.67}, {Name: "Volatility", Correlation: -0.21}},
	},
	"Sharpe Ratio": {
		description: "Excess return earned per unit of total risk.",
		calculation: "(Portfolio Return - Risk-free Rate) / Standard Deviation of Returns",
		related:     []domain.RelatedMetric{{Name: "Sortino Ratio", Correlation: 0.91}, {Name: "Volatility", Correlation: -0.58}, {Name: "Total Return", Correlation: 0.67}},
	},
	"Win Rate": {
		description: "Share of closed positions that ended in profit.",
		calculation: "Profitable Positions / Total Closed Positions x 100",
		related:     []domain.RelatedMetric{{Name: "Total Return", Correlation: 0.54}, {Name: "Alpha", Correlation: 0.46}},
	},
	"Max Drawdown": {
		description: "Largest peak-to-trough decline of portfolio value.",
		calculation: "(Trough Value - Peak Value) / Peak Value x 100",
		related:     []domain.RelatedMetric{{Name: "Volatility", Correlation: -0.74}, {Name: "Value at Risk (95%)", Correlation: 0.69}, {Name: "Sortino Ratio", Correlation: 0.48}},
	},
	"Alpha": {
		description: "Return in excess of what the portfolio's market exposure explains.",
		calculation: "Portfolio Return - (Risk-free Rate + Beta x (Benchmark Return - Risk-free Rate))",
		related:     []domain.RelatedMetric{{Name: "Total Return", Correlation: 0.82}, {Name: "Beta", Correlation: -0.31}},
	},
	"Volatility": {
		description: "Annualised standard deviation of daily returns.",
		calculation: "StdDev(Daily Returns) x sqrt(252)",
		related:     []domain.RelatedMetric{{Name: "Beta", Correlation: 0.63}, {Name: "Max Drawdown", Correlation: -0.74}, {Name: "Sharpe Ratio", Correlation: -0.58}},
	},
	"Value at Risk (95%)": {
		description: "Loss that should not be exceeded on 95% of trading days.",
		calculation: "5th percentile of the historical one-day return distribution",
		related:     []domain.RelatedMetric{{Name: "Volatility", Correlation: -0.88}, {Name: "Max Drawdown", Correlation: 0.69}},
	},
	"Beta": {
		description: "Sensitivity of the portfolio to benchmark moves.",
		calculation: "Cov(Portfolio, Benchmark) / Var(Benchmark)",
		related:     []domain.RelatedMetric{{Name: "Correlation (S&P 500)", Correlation: 0.79}, {Name: "Volatility", Correlation: 0.63}},
	},
	"Sortino Ratio": {
		description: "Excess return earned per unit of downside risk.",
		calculation: "(Portfolio Return - Risk-free Rate) / Downside Deviation",
		related:     []domain.RelatedMetric{{Name: "Sharpe Ratio", Correlation: 0.91}, {Name: "Max Drawdown", Correlation: 0.48}},
	},
	"Correlation (S&P 500)": {
		description: "How closely daily portfolio returns track the S&P 500.",
		calculation: "Pearson correlation of daily returns over the trailing year",
		related:     []domain.RelatedMetric{{Name: "Beta", Correlation: 0.79}, {Name: "Alpha", Correlation: -0.35}},
	},
}

var kindFallback = map[domain.MetricKind]entry{
	domain.MetricKindFactorAttribution: {
		description: "Contribution of a style factor to the period return, in percentage points.",
		calculation: "Factor Exposure x Factor Return, from a cross-sectional regression",
		related:     []domain.RelatedMetric{{Name: "Market", Correlation: 0.44}, {Name: "Total Return", Correlation: 0.52}},
	},
	domain.MetricKindSectorExposure: {
		description: "Share of portfolio value invested in the sector.",
		calculation: "Sector Market Value / Total Portfolio Value x 100",
		related:     []domain.RelatedMetric{{Name: "Beta", Correlation: 0.37}, {Name: "Volatility", Correlation: 0.29}},
	},
	domain.MetricKindAllocation: {
		description: "Share of portfolio value held in the asset class.",
		calculation: "Asset Class Market Value / Total Portfolio Value x 100",
		related:     []domain.RelatedMetric{{Name: "Volatility", Correlation: 0.41}, {Name: "Total Return", Correlation: 0.33}},
	},
}

var generic = entry{
	description: "Portfolio analytics figure tracked against its benchmark.",
	calculation: "Derived from daily portfolio and benchmark valuations",
	related:     []domain.RelatedMetric{{Name: "Total Return", Correlation: 0.5}},
}

// Expand builds the detail view for one metric. The last historical point always equals metric.Current.
func Expand(metric domain.GeneratedMetric) domain.MetricDetail {
	e := lookup(metric)
	history := historicalSeries(metric.Current)

	return domain.MetricDetail{
		Name:               metric.Name,
		Kind:               metric.Kind,
		Unit:               metric.Unit,
		Current:            metric.Current,
		Benchmark:          metric.Benchmark,
		Percentile:         metric.Percentile,
		Trend:              metric.Trend,
		Description:        e.description,
		Calculation:        e.calculation,
		Interpretation:     interpretation(metric),
		HistoricalData:     history,
		Smoothed:           smooth(history),
		RelatedMetrics:     append([]domain.RelatedMetric(nil), e.related...),
		ActionableInsights: actionableInsights(metric),
	}
}

func lookup(metric domain.GeneratedMetric) entry {
	if e, ok := catalogue[metric.Name]; ok {
		return e
	}
	if e, ok := kindFallback[metric.Kind]; ok {
		return e
	}
	return generic
}

func interpretation(m domain.GeneratedMetric) string {
	standing := "in line with"
	switch {
	case m.Percentile >= 60:
		standing = "ahead of"
	case m.Percentile <= 40:
		standing = "behind"
	}

	return fmt.Sprintf("%s is %s against a benchmark of %s, %s peers at the %.0fth percentile.",
		m.Name, formatValue(m.Current, m.Unit), formatValue(m.Benchmark, m.Unit), standing, m.Percentile)
}

func formatValue(v float64, unit string) string {
	switch unit {
	case "":
		return fmt.Sprintf("%.2f", v)
	case "%":
		return fmt.Sprintf("%.2f%%", v)
	default:
		return fmt.Sprintf("%.2f %s", v, unit)
	}
}

func historicalSeries(current float64) []domain.HistoricalPoint {
	points := make([]domain.HistoricalPoint, len(historyFactors))
	for i, f := range historyFactors {
		value := current * f
		if i == len(historyFactors)-1 {
			value = current
		}
		points[i] = domain.HistoricalPoint{Label: historyLabels[i], Value: value}
	}
	return points
}

func smooth(points []domain.HistoricalPoint) []float64 {
	values := make([]float64, len(points))
	for i, p := range points {
		values[i] = p.Value
	}

	out, err := indicators.SMA(values, smoothingPeriod)
	if err != nil {
		return nil
	}
	return out
}

func actionableInsights(m domain.GeneratedMetric) []string {
	var out []string

	switch {
	case m.Percentile >= 75:
		out = append(out, fmt.Sprintf("%s ranks in the top quartile; keep the current positioning.", m.Name))
	case m.Percentile <= 25:
		out = append(out, fmt.Sprintf("%s ranks in the bottom quartile; review the holdings driving it.", m.Name))
	default:
		out = append(out, fmt.Sprintf("%s is close to the benchmark; no immediate action needed.", m.Name))
	}

	switch m.Trend {
	case domain.TrendUp:
		out = append(out, "Momentum is improving; consider letting winners run.")
	case domain.TrendDown:
		out = append(out, "Momentum is fading; set an alert on further deterioration.")
	default:
		out = append(out, "The figure is stable; revisit at the next rebalance.")
	}

	if m.Kind == domain.MetricKindSectorExposure || m.Kind == domain.MetricKindAllocation {
		if gap := m.Current - m.Benchmark; gap > 2 || gap < -2 {
			out = append(out, fmt.Sprintf("Weight deviates %.1f pp from target; rebalancing would close the gap.", gap))
		}
	}
	if strings.Contains(m.Name, "Drawdown") && m.Percentile <= 50 {
		out = append(out, "Tighten stop levels to contain further drawdown.")
	}

	if len(out) > 3 {
		out = out[:3]
	}
	return out
}
