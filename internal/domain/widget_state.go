package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PortfolioSnapshot live balance panel of the trading dashboard.
type PortfolioSnapshot struct {
	Equity       decimal.Decimal `json:"equity"`
	DayChange    decimal.Decimal `json:"day_change"`
	DayChangePct float64         `json:"day_change_pct"`
	Available    decimal.Decimal `json:"available"`
	Currency     string          `json:"currency"`
}

// WidgetState complete set of values a widget displays after one tick.
type WidgetState struct {
	WidgetID    string             `json:"widget_id,omitempty"`
	Kind        MetricKind         `json:"kind"`
	GeneratedAt time.Time          `json:"ts"`
	Empty       bool               `json:"empty"`
	Period      Period             `json:"period,omitempty"`
	View        ExposureView       `json:"view,omitempty"`
	Metrics     []GeneratedMetric  `json:"metrics,omitempty"`
	Insights    []Insight          `json:"insights,omitempty"`
	Portfolio   *PortfolioSnapshot `json:"portfolio,omitempty"`
	// CallToAction is set instead of values when the investor has not finished onboarding.
	CallToAction string `json:"call_to_action,omitempty"`
}

// Metric finds a metric by name.
func (s WidgetState) Metric(name string) (GeneratedMetric, bool) {
	for _, m := range s.Metrics {
		if m.Name == name {
			return m, true
		}
	}
	return GeneratedMetric{}, false
}

// WidgetUpdateRecord bundles a published state with its feed index.
type WidgetUpdateRecord struct {
	Index uint64
	State WidgetState
}
