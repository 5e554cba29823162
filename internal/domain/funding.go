package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// FundingStatus payment status reported by a payment collaborator.
type FundingStatus string

const (
	FundingStatusSucceeded FundingStatus = "succeeded"
	FundingStatusFinished  FundingStatus = "finished"
	FundingStatusPending   FundingStatus = "pending"
	FundingStatusFailed    FundingStatus = "failed"
)

// FundingEvent "funding succeeded" notification from a card or crypto payment provider.
type FundingEvent struct {
	PaymentID  string          `json:"payment_id"`
	Provider   string          `json:"provider"`
	Amount     decimal.Decimal `json:"amount"`
	Currency   string          `json:"currency"`
	Status     FundingStatus   `json:"status"`
	ReceivedAt time.Time       `json:"received_at"`
}

// Settled reports whether the payment moved money into the account.
// Stripe reports "succeeded", NOWPayments reports "finished".
func (e FundingEvent) Settled() bool {
	switch FundingStatus(strings.ToLower(string(e.Status))) {
	case FundingStatusSucceeded, FundingStatusFinished:
		return true
	}
	return false
}

// Applicable reports whether the event should change the balance.
func (e FundingEvent) Applicable() bool {
	return e.PaymentID != "" && e.Settled() && e.Amount.IsPositive()
}
