package domain

// HistoricalPoint one labelled value of a synthetic history series.
type HistoricalPoint struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// RelatedMetric metric shown next to the expanded one.
type RelatedMetric struct {
	Name        string  `json:"name"`
	Correlation float64 `json:"correlation"`
}

// MetricDetail expanded explanation shown in the metric modal.
type MetricDetail struct {
	Name               string            `json:"name"`
	Kind               MetricKind        `json:"kind"`
	Unit               string            `json:"unit,omitempty"`
	Current            float64           `json:"current"`
	Benchmark          float64           `json:"benchmark"`
	Percentile         float64           `json:"percentile"`
	Trend              Trend             `json:"trend"`
	Description        string            `json:"description"`
	Calculation        string            `json:"calculation"`
	Interpretation     string            `json:"interpretation"`
	HistoricalData     []HistoricalPoint `json:"historicalData"`
	Smoothed           []float64         `json:"smoothed,omitempty"`
	RelatedMetrics     []RelatedMetric   `json:"relatedMetrics"`
	ActionableInsights []string          `json:"actionableInsights"`
}
