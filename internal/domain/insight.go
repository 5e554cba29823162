package domain

// InsightImpact how strongly an insight is highlighted.
type InsightImpact string

const (
	InsightImpactHigh   InsightImpact = "high"
	InsightImpactMedium InsightImpact = "medium"
	InsightImpactLow    InsightImpact = "low"
)

// Insight single AI-insight card.
type Insight struct {
	ID         string        `json:"id"`
	Category   string        `json:"category"`
	Title      string        `json:"title"`
	Message    string        `json:"message"`
	Confidence float64       `json:"confidence"`
	Impact     InsightImpact `json:"impact"`
}
