// Package widget binds metric generators to refresh schedules and publishes every tick.
package widget

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/vadiminshakov/helios/internal/domain"
	"github.com/vadiminshakov/helios/internal/metrics"
	"github.com/vadiminshakov/helios/internal/scheduler"
	"github.com/vadiminshakov/helios/internal/services/generator"
)

// Publisher receives every state a widget produces.
type Publisher interface {
	Publish(state domain.WidgetState) uint64
}

// AccountSource provides the account snapshot read on each tick.
type AccountSource interface {
	Account() domain.Account
}

// Widget one refresh cycle: a generator re-run on a fixed interval while mounted.
type Widget struct {
	ID       string
	Kind     domain.MetricKind
	Interval time.Duration

	gen       generator.Func
	sched     *scheduler.Scheduler
	source    AccountSource
	publisher Publisher
	logger    *zap.Logger

	// lifecycle serializes Mount/Unmount/Restart; it is never taken inside tick.
	lifecycle sync.Mutex
	cancel    scheduler.CancelFunc

	mu       sync.RWMutex
	opts     generator.Options
	lastTick time.Time
	state    domain.WidgetState
	ticks    uint64
}

// New creates an unmounted widget.
func New(
	kind domain.MetricKind,
	interval time.Duration,
	opts generator.Options,
	sched *scheduler.Scheduler,
	source AccountSource,
	publisher Publisher,
	logger *zap.Logger,
) (*Widget, error) {
	gen, ok := generator.For(kind)
	if !ok {
		return nil, errors.Errorf("no generator for widget kind %q", kind)
	}
	if interval <= 0 {
		return nil, errors.Errorf("invalid refresh interval %s for widget %s", interval, kind)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	id := uuid.NewString()
	return &Widget{
		ID:        id,
		Kind:      kind,
		Interval:  interval,
		gen:       gen,
		sched:     sched,
		source:    source,
		publisher: publisher,
		logger:    logger.With(zap.String("widget", kind.String()), zap.String("widget_id", id)),
		opts:      opts,
	}, nil
}

// Mount runs the generator immediately and then every Interval. Mounting twice is a no-op.
func (w *Widget) Mount() {
	w.lifecycle.Lock()
	defer w.lifecycle.Unlock()

	if w.cancel != nil {
		return
	}
	w.cancel = w.sched.Schedule(w.Interval, w.tick)
	w.logger.Debug("widget mounted", zap.Duration("interval", w.Interval))
}

// Unmount stops the refresh cycle. No tick starts after Unmount returns.
func (w *Widget) Unmount() {
	w.lifecycle.Lock()
	defer w.lifecycle.Unlock()

	if w.cancel == nil {
		return
	}
	w.cancel()
	w.cancel = nil
	w.logger.Debug("widget unmounted")
}

// Restart cancels the running cycle and starts a new one with an immediate tick.
// An unmounted widget stays unmounted.
func (w *Widget) Restart() {
	w.lifecycle.Lock()
	defer w.lifecycle.Unlock()

	if w.cancel == nil {
		return
	}
	w.cancel()
	w.cancel = w.sched.Schedule(w.Interval, w.tick)
}

// Mounted reports whether the refresh cycle is running.
func (w *Widget) Mounted() bool {
	w.lifecycle.Lock()
	defer w.lifecycle.Unlock()
	return w.cancel != nil
}

// SetPeriod changes the reporting period and regenerates immediately.
func (w *Widget) SetPeriod(p domain.Period) error {
	if !p.IsValid() {
		return errors.Errorf("invalid period %q", p)
	}

	w.mu.Lock()
	w.opts.Period = p
	w.mu.Unlock()

	w.Restart()
	return nil
}

// SetView changes the exposure view and regenerates immediately.
func (w *Widget) SetView(v domain.ExposureView) error {
	if !v.IsValid() {
		return errors.Errorf("invalid exposure view %q", v)
	}

	w.mu.Lock()
	w.opts.View = v
	w.mu.Unlock()

	w.Restart()
	return nil
}

// Options returns the current UI selections.
func (w *Widget) Options() generator.Options {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.opts
}

// State returns the last produced state and whether one exists.
func (w *Widget) State() (domain.WidgetState, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.state, w.ticks > 0
}

// LastTick returns the time of the last refresh.
func (w *Widget) LastTick() time.Time {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.lastTick
}

// Ticks returns how many times the generator ran.
func (w *Widget) Ticks() uint64 {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.ticks
}

func (w *Widget) tick(now time.Time) {
	opts := w.Options()
	acct := w.source.Account()

	state := w.gen(now, acct, opts)
	state.WidgetID = w.ID

	w.mu.Lock()
	w.state = state
	w.lastTick = now
	w.ticks++
	w.mu.Unlock()

	if w.publisher != nil {
		w.publisher.Publish(state)
	}
	metrics.WidgetRefreshTotal.WithLabelValues(w.Kind.String()).Inc()
}
