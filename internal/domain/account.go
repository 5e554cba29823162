// Package domain defines core data structures shared by the dashboard engine.
package domain

import (
	"math"

	"github.com/shopspring/decimal"
)

// AccountStatus lifecycle state of an investor account.
type AccountStatus string

const (
	AccountStatusPending AccountStatus = "pending"
	AccountStatusActive  AccountStatus = "active"
	AccountStatusFrozen  AccountStatus = "frozen"
)

// DefaultCurrency is used when the backend does not report one.
const DefaultCurrency = "USD"

// Account read-only snapshot of the investor account owned by the session.
type Account struct {
	Balance          decimal.Decimal `json:"balance"`
	AvailableBalance decimal.Decimal `json:"available_balance"`
	TotalDeposits    decimal.Decimal `json:"total_deposits"`
	TotalWithdrawals decimal.Decimal `json:"total_withdrawals"`
	Currency         string          `json:"currency"`
	Status           AccountStatus   `json:"status"`
}

// NewAccount creates an account from raw backend numbers.
// Non-finite or negative inputs collapse to zero.
func NewAccount(balance, available, deposits, withdrawals float64, currency string, status AccountStatus) Account {
	if currency == "" {
		currency = DefaultCurrency
	}
	if status == "" {
		status = AccountStatusActive
	}

	return Account{
		Balance:          SanitizeBalance(balance),
		AvailableBalance: SanitizeBalance(available),
		TotalDeposits:    SanitizeBalance(deposits),
		TotalWithdrawals: SanitizeBalance(withdrawals),
		Currency:         currency,
		Status:           status,
	}
}

// NewAccountFromDecimal creates an account from exact backend amounts. Negative inputs collapse to zero.
func NewAccountFromDecimal(balance, available, deposits, withdrawals decimal.Decimal, currency string, status AccountStatus) Account {
	if currency == "" {
		currency = DefaultCurrency
	}
	if status == "" {
		status = AccountStatusActive
	}

	return Account{
		Balance:          nonNegative(balance),
		AvailableBalance: nonNegative(available),
		TotalDeposits:    nonNegative(deposits),
		TotalWithdrawals: nonNegative(withdrawals),
		Currency:         currency,
		Status:           status,
	}
}

func nonNegative(v decimal.Decimal) decimal.Decimal {
	if v.IsNegative() {
		return decimal.Zero
	}
	return v
}

// SanitizeBalance converts a float balance to decimal, treating NaN, ±Inf and negatives as zero.
func SanitizeBalance(v float64) decimal.Decimal {
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromFloat(v)
}

// IsEmpty reports whether the account should be rendered with the empty (zero) variant.
func (a Account) IsEmpty() bool {
	return !a.Balance.IsPositive()
}

// BalanceFloat returns the balance as float64 for oscillator arithmetic; empty accounts yield 0.
func (a Account) BalanceFloat() float64 {
	if a.IsEmpty() {
		return 0
	}
	return a.Balance.InexactFloat64()
}

// Equal compares the monetary fields of two snapshots.
func (a Account) Equal(other Account) bool {
	return a.Balance.Equal(other.Balance) &&
		a.AvailableBalance.Equal(other.AvailableBalance) &&
		a.TotalDeposits.Equal(other.TotalDeposits) &&
		a.TotalWithdrawals.Equal(other.TotalWithdrawals) &&
		a.Currency == other.Currency &&
		a.Status == other.Status
}
