package generator

import (
	"fmt"
	"time"

	"github.com/vadiminshakov/helios/internal/domain"
	"github.com/vadiminshakov/helios/internal/oscillator"
)

const (
	// InsightRotationWindow how long one insight page stays on screen.
	InsightRotationWindow = 20 * time.Second
	// EventRotationWindow how long one market event headline stays on screen.
	EventRotationWindow = 45 * time.Second
	// insightsPerPage number of insight cards shown at once.
	insightsPerPage = 3
)

type insightTemplate struct {
	id         string
	category   string
	title      string
	message    string // one %.1f verb filled with an oscillating figure
	figure     float64
	amplitude  float64
	confidence float64
	impact     domain.InsightImpact
}

var insightPool = []insightTemplate{
	{"rebalance-tech", "allocation", "Technology overweight", "Technology drifted %.1f pp above target; trimming restores the risk budget.", 2.4, 0.8, 86, domain.InsightImpactHigh},
	{"momentum-tilt", "factor", "Momentum is paying", "Momentum factor contributed %.1f pp this period, ahead of the benchmark tilt.", 4.5, 0.6, 78, domain.InsightImpactMedium},
	{"volatility-regime", "risk", "Volatility below benchmark", "Realised volatility runs %.1f%% below the index, leaving room to add exposure.", 3.5, 1.1, 81, domain.InsightImpactMedium},
	{"cash-drag", "allocation", "Cash drag", "Idle cash of %.1f%% costs about 0.3 pp of annual return.", 7.0, 0.6, 72, domain.InsightImpactLow},
	{"drawdown-guard", "risk", "Drawdown contained", "Max drawdown stays %.1f pp shallower than the benchmark.", 4.3, 0.9, 84, domain.InsightImpactHigh},
	{"healthcare-rotation", "sector", "Healthcare rotation", "Healthcare exposure is %.1f pp above index weight as defensives lead.", 1.2, 0.9, 69, domain.InsightImpactLow},
	{"crypto-correlation", "allocation", "Crypto diversifies", "Crypto sleeve correlation to equities fell to 0.%.0f over the last month.", 35, 6, 74, domain.InsightImpactMedium},
	{"alpha-persistence", "performance", "Alpha persists", "Alpha of %.1f%% has held for three consecutive months.", 7.2, 1.2, 88, domain.InsightImpactHigh},
}

var eventPool = []insightTemplate{
	{"event-fed", "event", "Fed holds rates", "Futures price a %.0f%% chance of a cut at the next meeting.", 62, 8, 90, domain.InsightImpactHigh},
	{"event-earnings", "event", "Mega-cap earnings beat", "Index heavyweights beat estimates by %.1f%% on average.", 4.8, 1.5, 83, domain.InsightImpactMedium},
	{"event-oil", "event", "Oil steadies", "Brent moved %.1f%% as supply talks continue.", 1.6, 1.2, 70, domain.InsightImpactLow},
	{"event-cpi", "event", "Inflation cools", "Core CPI printed %.1f%% year over year, below consensus.", 2.9, 0.2, 87, domain.InsightImpactHigh},
	{"event-btc", "event", "Bitcoin volatility spikes", "BTC implied volatility jumped %.0f points intraday.", 12, 4, 76, domain.InsightImpactMedium},
	{"event-yields", "event", "Yields drift lower", "10Y Treasury yield eased %.0f bp this week.", 9, 3, 79, domain.InsightImpactLow},
}

var welcomeInsights = []domain.Insight{
	{
		ID:       "welcome",
		Category: "onboarding",
		Title:    "Welcome to Helios",
		Message:  "Fund your account to unlock live portfolio analytics.",
		Impact:   domain.InsightImpactLow,
	},
	{
		ID:       "welcome-no-activity",
		Category: "onboarding",
		Title:    "No activity yet",
		Message:  "Insights appear here once your first deposit settles.",
		Impact:   domain.InsightImpactLow,
	},
}

// WelcomeInsights returns the fixed card set shown to unfunded accounts.
func WelcomeInsights() []domain.Insight {
	return append([]domain.Insight(nil), welcomeInsights...)
}

// AIInsights a rotating page of insight cards plus one market event headline.
func AIInsights(now time.Time, acct domain.Account) domain.WidgetState {
	state := domain.WidgetState{
		Kind:        domain.MetricKindAIInsights,
		GeneratedAt: now,
	}

	if acct.IsEmpty() {
		state.Empty = true
		state.Insights = WelcomeInsights()
		return state
	}

	start := RotationIndex(now, InsightRotationWindow, len(insightPool))
	state.Insights = make([]domain.Insight, 0, insightsPerPage+1)
	for i := 0; i < insightsPerPage; i++ {
		tpl := insightPool[(start+i)%len(insightPool)]
		state.Insights = append(state.Insights, renderInsight(tpl, now, float64(i)))
	}

	event := eventPool[RotationIndex(now, EventRotationWindow, len(eventPool))]
	state.Insights = append(state.Insights, renderInsight(event, now, float64(insightsPerPage)))

	return state
}

func renderInsight(tpl insightTemplate, now time.Time, phase float64) domain.Insight {
	sample := oscillator.Composite(now, phase+tpl.confidence/10)
	// confidence breathes between 94% and 100% of the template value
	unit := oscillator.Unit(now, phase+tpl.figure)
	figure := tpl.figure + sample*tpl.amplitude
	if figure < 0 {
		figure = 0
	}

	return domain.Insight{
		ID:         tpl.id,
		Category:   tpl.category,
		Title:      tpl.title,
		Message:    fmt.Sprintf(tpl.message, figure),
		Confidence: round2(oscillator.Clamp(tpl.confidence*(0.9+0.1*unit), 0, 100)),
		Impact:     tpl.impact,
	}
}
