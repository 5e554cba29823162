// Package scheduler runs callbacks immediately and then on a fixed interval, each schedule
// owning its own ticker goroutine.
package scheduler

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// MinInterval smallest interval a schedule accepts; shorter ones are raised to it.
const MinInterval = time.Millisecond

// CancelFunc stops a schedule. It is idempotent and returns only after the last
// invocation has finished. It must not be called from inside the scheduled callback.
type CancelFunc func()

// Scheduler creates periodic schedules on a clock.
type Scheduler struct {
	clock  Clock
	logger *zap.Logger
}

// New creates a scheduler. A nil clock means wall-clock time.
func New(clock Clock, logger *zap.Logger) *Scheduler {
	if clock == nil {
		clock = RealClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{clock: clock, logger: logger}
}

// Now returns the current time of the scheduler clock.
func (s *Scheduler) Now() time.Time {
	return s.clock.Now()
}

// Schedule runs fn once synchronously, then every interval on its own goroutine, until the
// returned CancelFunc is called. fn receives the tick time.
func (s *Scheduler) Schedule(interval time.Duration, fn func(now time.Time)) CancelFunc {
	if interval < MinInterval {
		interval = MinInterval
	}

	s.safeRun(fn, s.clock.Now())

	ticker := s.clock.NewTicker(interval)
	stop := make(chan struct{})
	done := make(chan struct{})

	go func() {
		defer close(done)
		defer ticker.Stop()

		for {
			select {
			case <-stop:
				return
			case t := <-ticker.C():
				// a tick racing with cancellation must not run fn
				select {
				case <-stop:
					return
				default:
				}
				s.safeRun(fn, t)
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(stop)
		})
		<-done
	}
}

func (s *Scheduler) safeRun(fn func(now time.Time), t time.Time) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("scheduled callback panicked", zap.Any("panic", r))
		}
	}()
	fn(t)
}
