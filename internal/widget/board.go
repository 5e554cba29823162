package widget

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/vadiminshakov/helios/internal/domain"
	"github.com/vadiminshakov/helios/internal/scheduler"
	"github.com/vadiminshakov/helios/internal/services/generator"
	"github.com/vadiminshakov/helios/internal/session"
)

// CallToActionMessage is published for every widget while onboarding is incomplete.
const CallToActionMessage = "Complete your investor profile to unlock live portfolio analytics."

// ErrUnknownWidget is returned for kinds the board does not own.
var ErrUnknownWidget = errors.New("unknown widget")

// Session the part of the session a board reacts to.
type Session interface {
	AccountSource
	DocumentsCompleted() bool
	Subscribe(fn session.Listener) (unsubscribe func())
}

// BoardConfig refresh intervals and initial UI selections.
type BoardConfig struct {
	Intervals map[domain.MetricKind]time.Duration
	Period    domain.Period
	View      domain.ExposureView
}

// Board owns one widget per kind and mounts them once onboarding is complete.
type Board struct {
	session   Session
	publisher Publisher
	sched     *scheduler.Scheduler
	logger    *zap.Logger

	order   []domain.MetricKind
	widgets map[domain.MetricKind]*Widget

	mu      sync.Mutex
	mounted bool
	stopped bool
}

// NewBoard creates widgets for every kind that has an interval.
func NewBoard(cfg BoardConfig, sess Session, sched *scheduler.Scheduler, publisher Publisher, logger *zap.Logger) (*Board, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	b := &Board{
		session:   sess,
		publisher: publisher,
		sched:     sched,
		logger:    logger,
		widgets:   make(map[domain.MetricKind]*Widget),
	}

	opts := generator.Options{Period: cfg.Period, View: cfg.View}
	for _, kind := range domain.AllMetricKinds {
		interval, ok := cfg.Intervals[kind]
		if !ok {
			continue
		}
		w, err := New(kind, interval, opts, sched, sess, publisher, logger)
		if err != nil {
			return nil, errors.Wrapf(err, "create %s widget", kind)
		}
		b.order = append(b.order, kind)
		b.widgets[kind] = w
	}

	if len(b.order) == 0 {
		return nil, errors.New("board has no widgets configured")
	}
	return b, nil
}

// Run reacts to session changes until ctx is done, then unmounts every widget.
func (b *Board) Run(ctx context.Context) error {
	unsubscribe := b.session.Subscribe(b.onChange)
	defer unsubscribe()

	b.mu.Lock()
	b.stopped = false
	b.mu.Unlock()

	b.sync()
	b.logger.Info("dashboard board started", zap.Int("widgets", len(b.order)))

	<-ctx.Done()

	b.mu.Lock()
	b.stopped = true
	b.unmountAll()
	b.mu.Unlock()

	b.logger.Info("dashboard board stopped")
	return nil
}

// Widget returns the widget of a kind.
func (b *Board) Widget(kind domain.MetricKind) (*Widget, bool) {
	w, ok := b.widgets[kind]
	return w, ok
}

// Widgets returns widgets in display order.
func (b *Board) Widgets() []*Widget {
	out := make([]*Widget, 0, len(b.order))
	for _, kind := range b.order {
		out = append(out, b.widgets[kind])
	}
	return out
}

// Mounted reports whether live widgets are running.
func (b *Board) Mounted() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.mounted
}

// SetPeriod changes the period of one widget.
func (b *Board) SetPeriod(kind domain.MetricKind, p domain.Period) error {
	w, ok := b.widgets[kind]
	if !ok {
		return errors.Wrap(ErrUnknownWidget, kind.String())
	}
	return w.SetPeriod(p)
}

// SetView changes the exposure view of one widget.
func (b *Board) SetView(kind domain.MetricKind, v domain.ExposureView) error {
	w, ok := b.widgets[kind]
	if !ok {
		return errors.Wrap(ErrUnknownWidget, kind.String())
	}
	return w.SetView(v)
}

func (b *Board) sync() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.session.DocumentsCompleted() {
		b.mountAll()
		return
	}
	b.publishCallToAction()
}

func (b *Board) onChange(change session.Change) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.stopped {
		return
	}

	switch {
	case change.DocumentsCompleted && !b.mounted:
		b.mountAll()
	case b.mounted && change.BalanceChanged():
		b.logger.Info("balance changed, restarting widgets",
			zap.String("reason", change.Reason),
			zap.String("balance", change.Current.Balance.String()))
		for _, kind := range b.order {
			b.widgets[kind].Restart()
		}
	}
}

// mountAll must be called with mu held.
func (b *Board) mountAll() {
	if b.mounted {
		return
	}
	for _, kind := range b.order {
		b.widgets[kind].Mount()
	}
	b.mounted = true
}

// unmountAll must be called with mu held.
func (b *Board) unmountAll() {
	for _, kind := range b.order {
		b.widgets[kind].Unmount()
	}
	b.mounted = false
}

// publishCallToAction must be called with mu held.
func (b *Board) publishCallToAction() {
	if b.publisher == nil {
		return
	}
	now := b.sched.Now()
	for _, kind := range b.order {
		b.publisher.Publish(domain.WidgetState{
			WidgetID:     b.widgets[kind].ID,
			Kind:         kind,
			GeneratedAt:  now,
			Empty:        true,
			CallToAction: CallToActionMessage,
		})
	}
}
