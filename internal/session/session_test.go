package session

import (
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vadiminshakov/helios/internal/domain"
	"github.com/vadiminshakov/helios/internal/storage/sessionstate"
)

type memorySnapshots struct {
	mu        sync.Mutex
	snapshots []domain.BalanceSnapshot
}

func (m *memorySnapshots) Append(s domain.BalanceSnapshot) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshots = append(m.snapshots, s)
	return uint64(len(m.snapshots)), nil
}

func (m *memorySnapshots) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.snapshots)
}

type recorder struct {
	mu      sync.Mutex
	changes []Change
}

func (r *recorder) listen(c Change) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.changes = append(r.changes, c)
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.changes)
}

func (r *recorder) last() Change {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.changes[len(r.changes)-1]
}

func settled(id string, amount int64) domain.FundingEvent {
	return domain.FundingEvent{
		PaymentID: id,
		Provider:  "stripe",
		Amount:    decimal.NewFromInt(amount),
		Currency:  "USD",
		Status:    domain.FundingStatusSucceeded,
	}
}

func TestSession_RecordFunding(t *testing.T) {
	store := &memorySnapshots{}
	ts := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	s := New(domain.Account{Status: domain.AccountStatusPending}, true, zap.NewNop(),
		WithSnapshots(store), WithClock(func() time.Time { return ts }))

	rec := &recorder{}
	s.Subscribe(rec.listen)

	assert.Equal(t, FundingApplied, s.RecordFunding(settled("pi_1", 500)))

	acct := s.Account()
	assert.True(t, decimal.NewFromInt(500).Equal(acct.Balance))
	assert.True(t, decimal.NewFromInt(500).Equal(acct.AvailableBalance))
	assert.True(t, decimal.NewFromInt(500).Equal(acct.TotalDeposits))
	assert.Equal(t, domain.AccountStatusActive, acct.Status)
	assert.False(t, acct.IsEmpty())
	assert.Equal(t, 1, store.len())
	assert.Equal(t, ts, store.snapshots[0].Timestamp)

	require.Eventually(t, func() bool { return rec.count() == 1 }, time.Second, 5*time.Millisecond)
	change := rec.last()
	assert.True(t, change.BalanceChanged())
	assert.Equal(t, "funding", change.Reason)
	assert.True(t, change.Previous.IsEmpty())
}

func TestSession_RecordFunding_DuplicateAndIgnored(t *testing.T) {
	s := New(domain.NewAccount(100, 100, 100, 0, "USD", domain.AccountStatusActive), true, zap.NewNop())

	assert.Equal(t, FundingApplied, s.RecordFunding(settled("np_1", 50)))
	assert.Equal(t, FundingDuplicate, s.RecordFunding(settled("np_1", 50)))

	pending := settled("np_2", 50)
	pending.Status = domain.FundingStatusPending
	assert.Equal(t, FundingIgnored, s.RecordFunding(pending))

	assert.Equal(t, FundingIgnored, s.RecordFunding(settled("np_3", 0)))
	assert.Equal(t, FundingIgnored, s.RecordFunding(settled("", 10)))

	eur := settled("np_eur", 1000)
	eur.Currency = "EUR"
	assert.Equal(t, FundingIgnored, s.RecordFunding(eur))

	lower := settled("np_4", 25)
	lower.Currency = "usd"
	assert.Equal(t, FundingApplied, s.RecordFunding(lower))

	acct := s.Account()
	assert.True(t, decimal.NewFromInt(175).Equal(acct.Balance))
	assert.Equal(t, "USD", acct.Currency)

	eur.Currency = "USD"
	assert.Equal(t, FundingApplied, s.RecordFunding(eur), "ignored events are not remembered as applied")
}

func TestSession_PendingCreditsSurviveSync(t *testing.T) {
	backend := domain.NewAccount(100000, 90000, 100000, 0, "USD", domain.AccountStatusActive)
	s := New(domain.Account{}, true, zap.NewNop())
	s.Update(backend)

	require.Equal(t, FundingApplied, s.RecordFunding(settled("pi_1", 5000)))
	require.Equal(t, FundingApplied, s.RecordFunding(settled("pi_2", 300)))
	assert.Equal(t, "105300", s.Account().Balance.String())

	// backend has not seen either payment yet
	s.Update(backend)
	acct := s.Account()
	assert.Equal(t, "105300", acct.Balance.String())
	assert.Equal(t, "95300", acct.AvailableBalance.String())
	assert.Equal(t, "105300", acct.TotalDeposits.String())
	assert.Equal(t, FundingDuplicate, s.RecordFunding(settled("pi_1", 5000)))

	// backend catches up with pi_1 only
	s.Update(domain.NewAccount(105000, 95000, 105000, 0, "USD", domain.AccountStatusActive))
	assert.Equal(t, "105300", s.Account().Balance.String())

	// and then with pi_2
	s.Update(domain.NewAccount(105300, 95300, 105300, 0, "USD", domain.AccountStatusActive))
	assert.Equal(t, "105300", s.Account().Balance.String())

	s.Update(domain.NewAccount(105300, 95300, 105300, 0, "USD", domain.AccountStatusActive))
	assert.Equal(t, "105300", s.Account().Balance.String())
}

func TestSettleCredits(t *testing.T) {
	pending := []sessionstate.Credit{
		{PaymentID: "a", Amount: decimal.NewFromInt(10)},
		{PaymentID: "b", Amount: decimal.NewFromInt(20)},
	}

	assert.Len(t, settleCredits(pending, decimal.Zero), 2)
	assert.Len(t, settleCredits(pending, decimal.NewFromInt(-5)), 2)
	assert.Len(t, settleCredits(pending, decimal.NewFromInt(9)), 2)

	rest := settleCredits(pending, decimal.NewFromInt(25))
	require.Len(t, rest, 1)
	assert.Equal(t, "b", rest[0].PaymentID)

	assert.Empty(t, settleCredits(pending, decimal.NewFromInt(30)))
	assert.Len(t, pending, 2)
}

func TestSession_UpdateNotifiesOnlyOnChange(t *testing.T) {
	acct := domain.NewAccount(100, 100, 100, 0, "USD", domain.AccountStatusActive)
	s := New(acct, false, zap.NewNop())

	rec := &recorder{}
	unsubscribe := s.Subscribe(rec.listen)

	s.Update(acct)
	s.Update(domain.NewAccount(200, 150, 200, 0, "USD", domain.AccountStatusActive))

	require.Eventually(t, func() bool { return rec.count() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, "sync", rec.last().Reason)

	unsubscribe()
	s.Update(domain.NewAccount(300, 150, 300, 0, "USD", domain.AccountStatusActive))
	assert.Never(t, func() bool { return rec.count() > 1 }, 50*time.Millisecond, 5*time.Millisecond)
}

func TestSession_CompleteDocuments(t *testing.T) {
	s := New(domain.Account{}, false, zap.NewNop())
	assert.False(t, s.DocumentsCompleted())

	rec := &recorder{}
	s.Subscribe(rec.listen)

	s.CompleteDocuments()
	s.CompleteDocuments()

	assert.True(t, s.DocumentsCompleted())
	require.Eventually(t, func() bool { return rec.count() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, "documents", rec.last().Reason)
	assert.False(t, rec.last().BalanceChanged())
}

func TestSession_StateSurvivesRestart(t *testing.T) {
	store, err := sessionstate.NewStore(t.TempDir(), "u1")
	require.NoError(t, err)

	acct := domain.NewAccount(100, 100, 100, 0, "USD", domain.AccountStatusActive)
	ev := domain.FundingEvent{PaymentID: "pi_1", Amount: decimal.NewFromInt(50), Status: domain.FundingStatusSucceeded}

	first := New(acct, false, zap.NewNop(), WithState(store))
	first.CompleteDocuments()
	require.Equal(t, FundingApplied, first.RecordFunding(ev))

	second := New(acct, false, zap.NewNop(), WithState(store))
	assert.True(t, second.DocumentsCompleted())
	assert.Equal(t, FundingDuplicate, second.RecordFunding(ev))

	// the credit is still pending, so the next backend snapshot carries it
	second.Update(acct)
	assert.Equal(t, "150", second.Account().Balance.String())

	third := New(acct, false, zap.NewNop(), WithState(store))
	third.Update(domain.NewAccount(150, 150, 150, 0, "USD", domain.AccountStatusActive))
	assert.Equal(t, "150", third.Account().Balance.String())
}
