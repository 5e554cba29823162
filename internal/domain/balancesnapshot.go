package domain

import "time"

// BalanceSnapshot point-in-time copy of the account balance.
// Money is kept as strings so UI layers do not lose precision.
type BalanceSnapshot struct {
	Timestamp        time.Time `json:"ts"`
	Balance          string    `json:"balance"`
	AvailableBalance string    `json:"available_balance"`
	TotalDeposits    string    `json:"total_deposits"`
	TotalWithdrawals string    `json:"total_withdrawals"`
	Currency         string    `json:"currency"`
	Reason           string    `json:"reason,omitempty"`
}

// NewBalanceSnapshot creates a new BalanceSnapshot from an account.
func NewBalanceSnapshot(timestamp time.Time, acct Account, reason string) BalanceSnapshot {
	return BalanceSnapshot{
		Timestamp:        timestamp,
		Balance:          acct.Balance.String(),
		AvailableBalance: acct.AvailableBalance.String(),
		TotalDeposits:    acct.TotalDeposits.String(),
		TotalWithdrawals: acct.TotalWithdrawals.String(),
		Currency:         acct.Currency,
		Reason:           reason,
	}
}

// BalanceSnapshotRecord bundles a snapshot with the WAL index it originated from.
type BalanceSnapshotRecord struct {
	Index    uint64
	Snapshot BalanceSnapshot
}
