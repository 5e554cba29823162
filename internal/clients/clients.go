// Package clients implements the account backends the session is synced from.
package clients

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/vadiminshakov/helios/internal/domain"
)

// Backend names accepted in configuration.
const (
	BackendSupabase = "supabase"
	BackendPostgres = "postgres"
	BackendStatic   = "static"
)

// AccountFetcher loads the current account snapshot from a backend.
type AccountFetcher interface {
	Name() string
	FetchAccount(ctx context.Context) (domain.Account, error)
}

// accountRow column layout shared by the REST and SQL backends.
// NULL money columns read as zero.
type accountRow struct {
	Balance          decimal.NullDecimal `json:"balance"`
	AvailableBalance decimal.NullDecimal `json:"available_balance"`
	TotalDeposits    decimal.NullDecimal `json:"total_deposits"`
	TotalWithdrawals decimal.NullDecimal `json:"total_withdrawals"`
	Currency         string              `json:"currency"`
	Status           string              `json:"status"`
}

func (r accountRow) toDomain() domain.Account {
	return domain.NewAccountFromDecimal(
		r.Balance.Decimal,
		r.AvailableBalance.Decimal,
		r.TotalDeposits.Decimal,
		r.TotalWithdrawals.Decimal,
		r.Currency,
		domain.AccountStatus(r.Status),
	)
}
