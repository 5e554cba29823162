// Package schedulertest provides a manually advanced clock for driving schedules in tests.
package schedulertest

import (
	"sync"
	"time"

	"github.com/vadiminshakov/helios/internal/scheduler"
)

// Clock fake clock. Time only moves when Advance is called.
type Clock struct {
	mu      sync.Mutex
	now     time.Time
	tickers []*ticker
}

// NewClock creates a fake clock set to start.
func NewClock(start time.Time) *Clock {
	return &Clock{now: start}
}

// Now returns the fake current time.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// NewTicker registers a ticker firing every d of fake time.
func (c *Clock) NewTicker(d time.Duration) scheduler.Ticker {
	if d <= 0 {
		d = time.Millisecond
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	t := &ticker{
		c:       make(chan time.Time),
		period:  d,
		next:    c.now.Add(d),
		stopped: make(chan struct{}),
	}
	c.tickers = append(c.tickers, t)
	return t
}

// Tickers returns the number of live tickers.
func (c *Clock) Tickers() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for _, t := range c.tickers {
		if !t.isStopped() {
			n++
		}
	}
	return n
}

// Advance moves time forward by d, delivering every tick that falls due in order.
// Each tick is handed to the receiving goroutine before the next one is considered.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now.Add(d)
	c.mu.Unlock()

	for {
		c.mu.Lock()
		due := c.nextDue(target)
		if due == nil {
			c.now = target
			c.mu.Unlock()
			return
		}
		tick := due.next
		c.now = tick
		due.next = tick.Add(due.period)
		c.mu.Unlock()

		select {
		case due.c <- tick:
		case <-due.stopped:
		}
	}
}

// nextDue must be called with mu held.
func (c *Clock) nextDue(target time.Time) *ticker {
	live := c.tickers[:0]
	var due *ticker
	for _, t := range c.tickers {
		if t.isStopped() {
			continue
		}
		live = append(live, t)
		if t.next.After(target) {
			continue
		}
		if due == nil || t.next.Before(due.next) {
			due = t
		}
	}
	c.tickers = live
	return due
}

type ticker struct {
	c       chan time.Time
	period  time.Duration
	next    time.Time
	stopped chan struct{}
	once    sync.Once
}

func (t *ticker) C() <-chan time.Time {
	return t.c
}

func (t *ticker) Stop() {
	t.once.Do(func() {
		close(t.stopped)
	})
}

func (t *ticker) isStopped() bool {
	select {
	case <-t.stopped:
		return true
	default:
		return false
	}
}
