// Package session holds the investor account and onboarding state shared by every widget.
package session

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/bytedance/gopkg/util/gopool"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vadiminshakov/helios/internal/domain"
	"github.com/vadiminshakov/helios/internal/metrics"
	"github.com/vadiminshakov/helios/internal/storage/sessionstate"
)

// Change describes a session transition delivered to listeners.
type Change struct {
	Previous           domain.Account
	Current            domain.Account
	DocumentsCompleted bool
	// Reason is one of "sync", "funding", "documents".
	Reason string
}

// BalanceChanged reports whether the money fields moved.
func (c Change) BalanceChanged() bool {
	return !c.Previous.Equal(c.Current)
}

// Listener receives session changes asynchronously.
type Listener func(Change)

// SnapshotAppender persists balance history.
type SnapshotAppender interface {
	Append(snapshot domain.BalanceSnapshot) (uint64, error)
}

// StateStore persists onboarding progress and processed payment IDs.
type StateStore interface {
	Load() (*sessionstate.State, error)
	Save(state sessionstate.State) error
}

// FundingResult outcome of RecordFunding.
type FundingResult string

const (
	FundingApplied   FundingResult = FundingResult(metrics.FundingApplied)
	FundingDuplicate FundingResult = FundingResult(metrics.FundingDuplicate)
	FundingIgnored   FundingResult = FundingResult(metrics.FundingIgnored)
)

// Session explicit, injected replacement for a global auth/account context.
type Session struct {
	mu        sync.RWMutex
	account   domain.Account
	documents bool
	applied   map[string]struct{}

	// pending holds funding credits the backend has not reported yet, oldest first.
	pending         []sessionstate.Credit
	backendDeposits decimal.NullDecimal

	listenersMu sync.RWMutex
	listeners   map[uint64]Listener
	nextID      uint64

	pool      gopool.Pool
	snapshots SnapshotAppender
	state     StateStore
	persistMu sync.Mutex
	now       func() time.Time
	logger    *zap.Logger
}

// Option configures a Session.
type Option func(*Session)

// WithSnapshots persists a balance snapshot on every funding event.
func WithSnapshots(store SnapshotAppender) Option {
	return func(s *Session) {
		s.snapshots = store
	}
}

// WithState restores state on creation and saves it after onboarding and funding changes.
func WithState(store StateStore) Option {
	return func(s *Session) {
		s.state = store
	}
}

// WithClock overrides the time source used for snapshot timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		s.now = now
	}
}

// New creates a session for the initial account.
func New(initial domain.Account, documentsCompleted bool, logger *zap.Logger, opts ...Option) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Session{
		account:   initial,
		documents: documentsCompleted,
		applied:   make(map[string]struct{}),
		listeners: make(map[uint64]Listener),
		now:       time.Now,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.restore()

	s.pool = gopool.NewPool("session-listeners", 16, gopool.NewConfig())
	s.pool.SetPanicHandler(func(_ context.Context, r interface{}) {
		s.logger.Error("session listener panicked", zap.Any("panic", r))
	})

	metrics.AccountBalance.Set(initial.BalanceFloat())
	return s
}

// Account returns the current account snapshot.
func (s *Session) Account() domain.Account {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.account
}

// DocumentsCompleted reports whether onboarding documents were submitted.
func (s *Session) DocumentsCompleted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.documents
}

// Update replaces the account with a fresh backend snapshot.
// Growth of the backend's total deposits settles pending credits oldest first;
// the rest are added on top of the snapshot.
// Listeners are notified only when something changed.
func (s *Session) Update(acct domain.Account) {
	s.mu.Lock()
	prev := s.account
	before := len(s.pending)
	if s.backendDeposits.Valid {
		s.pending = settleCredits(s.pending, acct.TotalDeposits.Sub(s.backendDeposits.Decimal))
	}
	ledgerChanged := len(s.pending) != before ||
		!s.backendDeposits.Valid || !s.backendDeposits.Decimal.Equal(acct.TotalDeposits)
	s.backendDeposits = decimal.NewNullDecimal(acct.TotalDeposits)

	next := acct
	for _, c := range s.pending {
		next = credit(next, c.Amount)
	}
	s.account = next
	docs := s.documents
	s.mu.Unlock()

	if ledgerChanged {
		s.persist()
	}
	if prev.Equal(next) {
		return
	}

	metrics.AccountBalance.Set(next.BalanceFloat())
	s.notify(Change{Previous: prev, Current: next, DocumentsCompleted: docs, Reason: "sync"})
}

// CompleteDocuments marks onboarding as finished. Repeated calls are no-ops.
func (s *Session) CompleteDocuments() {
	s.mu.Lock()
	if s.documents {
		s.mu.Unlock()
		return
	}
	s.documents = true
	acct := s.account
	s.mu.Unlock()

	s.persist()

	s.notify(Change{Previous: acct, Current: acct, DocumentsCompleted: true, Reason: "documents"})
}

// RecordFunding applies a settled payment to the balance once per payment ID.
func (s *Session) RecordFunding(ev domain.FundingEvent) FundingResult {
	if !ev.Applicable() {
		s.logger.Debug("funding event ignored",
			zap.String("payment_id", ev.PaymentID),
			zap.String("status", string(ev.Status)),
			zap.String("amount", ev.Amount.String()))
		return FundingIgnored
	}

	s.mu.Lock()
	if _, ok := s.applied[ev.PaymentID]; ok {
		s.mu.Unlock()
		return FundingDuplicate
	}
	prev := s.account
	if ev.Currency != "" && prev.Currency != "" && !strings.EqualFold(ev.Currency, prev.Currency) {
		s.mu.Unlock()
		s.logger.Debug("funding event ignored: currency mismatch",
			zap.String("payment_id", ev.PaymentID),
			zap.String("currency", ev.Currency),
			zap.String("account_currency", prev.Currency))
		return FundingIgnored
	}
	s.applied[ev.PaymentID] = struct{}{}
	s.pending = append(s.pending, sessionstate.Credit{PaymentID: ev.PaymentID, Amount: ev.Amount})

	next := credit(prev, ev.Amount)
	s.account = next
	docs := s.documents
	s.mu.Unlock()

	s.logger.Info("funding applied",
		zap.String("payment_id", ev.PaymentID),
		zap.String("provider", ev.Provider),
		zap.String("amount", ev.Amount.String()),
		zap.String("balance", next.Balance.String()))

	metrics.AccountBalance.Set(next.BalanceFloat())
	s.persist()
	if s.snapshots != nil {
		if _, err := s.snapshots.Append(domain.NewBalanceSnapshot(s.now(), next, "funding")); err != nil {
			s.logger.Error("failed to persist balance snapshot", zap.Error(err))
		}
	}

	s.notify(Change{Previous: prev, Current: next, DocumentsCompleted: docs, Reason: "funding"})
	return FundingApplied
}

// Subscribe registers a listener. The returned function removes it.
func (s *Session) Subscribe(fn Listener) (unsubscribe func()) {
	s.listenersMu.Lock()
	s.nextID++
	id := s.nextID
	s.listeners[id] = fn
	s.listenersMu.Unlock()

	return func() {
		s.listenersMu.Lock()
		delete(s.listeners, id)
		s.listenersMu.Unlock()
	}
}

func (s *Session) restore() {
	if s.state == nil {
		return
	}
	st, err := s.state.Load()
	if err != nil {
		s.logger.Warn("failed to load session state", zap.Error(err))
		return
	}
	if st == nil {
		return
	}

	s.documents = s.documents || st.DocumentsCompleted
	for _, id := range st.PaymentIDs {
		s.applied[id] = struct{}{}
	}
	s.pending = append(s.pending, st.PendingCredits...)
	s.backendDeposits = st.BackendDeposits
	s.logger.Info("session state restored",
		zap.Bool("documents_completed", s.documents),
		zap.Int("payments", len(st.PaymentIDs)),
		zap.Int("pending_credits", len(st.PendingCredits)))
}

func (s *Session) persist() {
	if s.state == nil {
		return
	}

	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	s.mu.RLock()
	st := sessionstate.State{
		DocumentsCompleted: s.documents,
		PaymentIDs:         make([]string, 0, len(s.applied)),
		PendingCredits:     append([]sessionstate.Credit(nil), s.pending...),
		BackendDeposits:    s.backendDeposits,
		UpdatedAt:          s.now(),
	}
	for id := range s.applied {
		st.PaymentIDs = append(st.PaymentIDs, id)
	}
	s.mu.RUnlock()

	if err := s.state.Save(st); err != nil {
		s.logger.Error("failed to persist session state", zap.Error(err))
	}
}

func (s *Session) notify(change Change) {
	s.listenersMu.RLock()
	defer s.listenersMu.RUnlock()

	for _, fn := range s.listeners {
		fn := fn
		s.pool.Go(func() {
			fn(change)
		})
	}
}

func credit(acct domain.Account, amount decimal.Decimal) domain.Account {
	acct.Balance = acct.Balance.Add(amount)
	acct.AvailableBalance = acct.AvailableBalance.Add(amount)
	acct.TotalDeposits = acct.TotalDeposits.Add(amount)
	if acct.Currency == "" {
		acct.Currency = domain.DefaultCurrency
	}
	if acct.Status == "" || acct.Status == domain.AccountStatusPending {
		acct.Status = domain.AccountStatusActive
	}
	return acct
}

// settleCredits drops the oldest credits fully covered by the deposits the backend reported since the last sync.
func settleCredits(pending []sessionstate.Credit, reported decimal.Decimal) []sessionstate.Credit {
	i := 0
	for ; i < len(pending); i++ {
		if pending[i].Amount.GreaterThan(reported) {
			break
		}
		reported = reported.Sub(pending[i].Amount)
	}
	if i == 0 {
		return pending
	}
	return append([]sessionstate.Credit(nil), pending[i:]...)
}
