package generator

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/vadiminshakov/helios/internal/domain"
	"github.com/vadiminshakov/helios/internal/oscillator"
)

const (
	// equitySwing maximum relative deviation of live equity from the booked balance.
	equitySwing = 0.004
	// dayChangeSwing maximum absolute day change, in percent.
	dayChangeSwing = 1.2
)

// Portfolio live equity panel of the trading dashboard.
func Portfolio(now time.Time, acct domain.Account) domain.WidgetState {
	state := domain.WidgetState{
		Kind:        domain.MetricKindPortfolio,
		GeneratedAt: now,
	}

	currency := acct.Currency
	if currency == "" {
		currency = domain.DefaultCurrency
	}

	if acct.IsEmpty() {
		state.Empty = true
		state.Portfolio = &domain.PortfolioSnapshot{
			Equity:    decimal.Zero,
			DayChange: decimal.Zero,
			Available: decimal.Zero,
			Currency:  currency,
		}
		return state
	}

	swing := oscillator.Composite(now, 0.5) * equitySwing
	equity := acct.Balance.Mul(decimal.NewFromFloat(1 + swing)).Round(2)

	changePct := round2(oscillator.Composite(now, 2.1) * dayChangeSwing)
	dayChange := equity.Mul(decimal.NewFromFloat(changePct)).Div(decimal.NewFromInt(100)).Round(2)

	available := acct.AvailableBalance
	if available.IsNegative() {
		available = decimal.Zero
	}

	state.Portfolio = &domain.PortfolioSnapshot{
		Equity:       equity,
		DayChange:    dayChange,
		DayChangePct: changePct,
		Available:    available,
		Currency:     currency,
	}
	return state
}
