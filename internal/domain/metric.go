package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// MetricKind identifies which widget family a metric or state belongs to.
type MetricKind string

const (
	MetricKindPerformance       MetricKind = "performance"
	MetricKindRisk              MetricKind = "risk"
	MetricKindFactorAttribution MetricKind = "factor_attribution"
	MetricKindSectorExposure    MetricKind = "sector_exposure"
	MetricKindAIInsights        MetricKind = "ai_insights"
	MetricKindAllocation        MetricKind = "allocation"
	MetricKindPortfolio         MetricKind = "portfolio"
)

// AllMetricKinds lists every widget kind in display order.
var AllMetricKinds = []MetricKind{
	MetricKindPortfolio,
	MetricKindPerformance,
	MetricKindRisk,
	MetricKindFactorAttribution,
	MetricKindSectorExposure,
	MetricKindAllocation,
	MetricKindAIInsights,
}

// String returns the string representation.
func (k MetricKind) String() string {
	return string(k)
}

// IsValid checks if the MetricKind value is known.
func (k MetricKind) IsValid() bool {
	for _, known := range AllMetricKinds {
		if k == known {
			return true
		}
	}
	return false
}

// ParseMetricKind parses a kind token, accepting dashes in place of underscores.
func ParseMetricKind(s string) (MetricKind, error) {
	k := MetricKind(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_"))
	if !k.IsValid() {
		return "", fmt.Errorf("unknown metric kind %q", s)
	}
	return k, nil
}

// Title returns a human-readable widget title.
func (k MetricKind) Title() string {
	switch k {
	case MetricKindPerformance:
		return "Performance"
	case MetricKindRisk:
		return "Risk Analytics"
	case MetricKindFactorAttribution:
		return "Factor Attribution"
	case MetricKindSectorExposure:
		return "Sector Exposure"
	case MetricKindAIInsights:
		return "AI Insights"
	case MetricKindAllocation:
		return "Allocation"
	case MetricKindPortfolio:
		return "Portfolio"
	default:
		return string(k)
	}
}

// Trend qualitative direction of a metric between ticks.
type Trend string

const (
	TrendUp     Trend = "up"
	TrendDown   Trend = "down"
	TrendStable Trend = "stable"
)

// MetricBaseline static per-metric table row used by generators.
type MetricBaseline struct {
	Name              string
	Unit              string
	BaseValue         float64
	BenchmarkValue    float64
	TargetWeight      float64
	VarianceAmplitude float64
	// Phase shifts the oscillator so rows do not move in lockstep.
	Phase          float64
	HigherIsBetter bool
}

// GeneratedMetric ephemeral output of a generator tick.
type GeneratedMetric struct {
	Name       string          `json:"metric"`
	Kind       MetricKind      `json:"kind"`
	Unit       string          `json:"unit,omitempty"`
	Current    float64         `json:"current"`
	Benchmark  float64         `json:"benchmark"`
	Percentile float64         `json:"percentile"`
	Trend      Trend           `json:"trend"`
	Notional   decimal.Decimal `json:"notional"`
}

// IsZero reports whether every numeric field is zero.
func (m GeneratedMetric) IsZero() bool {
	return m.Current == 0 && m.Benchmark == 0 && m.Percentile == 0 && m.Notional.IsZero()
}
