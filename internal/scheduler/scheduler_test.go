package scheduler_test

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vadiminshakov/helios/internal/scheduler"
	"github.com/vadiminshakov/helios/internal/scheduler/schedulertest"
)

func newScheduler() (*scheduler.Scheduler, *schedulertest.Clock) {
	clock := schedulertest.NewClock(time.Unix(1_700_000_000, 0))
	return scheduler.New(clock, zap.NewNop()), clock
}

func TestSchedule_RunsImmediately(t *testing.T) {
	s, _ := newScheduler()

	var calls atomic.Int32
	cancel := s.Schedule(15*time.Second, func(time.Time) { calls.Add(1) })
	defer cancel()

	// first invocation happens before Schedule returns
	assert.Equal(t, int32(1), calls.Load())
}

func TestSchedule_FourInvocationsIn45Seconds(t *testing.T) {
	s, clock := newScheduler()

	var calls atomic.Int32
	cancel := s.Schedule(15*time.Second, func(time.Time) { calls.Add(1) })
	defer cancel()

	clock.Advance(45 * time.Second)

	require.Eventually(t, func() bool { return calls.Load() == 4 }, time.Second, 5*time.Millisecond)
	assert.Never(t, func() bool { return calls.Load() > 4 }, 50*time.Millisecond, 5*time.Millisecond)
}

func TestSchedule_TickTimes(t *testing.T) {
	s, clock := newScheduler()
	start := clock.Now()

	ticks := make(chan time.Time, 8)
	cancel := s.Schedule(10*time.Second, func(now time.Time) { ticks <- now })
	defer cancel()

	clock.Advance(20 * time.Second)

	assert.Equal(t, start, <-ticks)
	assert.Equal(t, start.Add(10*time.Second), <-ticks)
	assert.Equal(t, start.Add(20*time.Second), <-ticks)
}

func TestSchedule_NoInvocationAfterCancel(t *testing.T) {
	s, clock := newScheduler()

	var calls atomic.Int32
	cancel := s.Schedule(10*time.Second, func(time.Time) { calls.Add(1) })

	clock.Advance(10 * time.Second)
	require.Eventually(t, func() bool { return calls.Load() == 2 }, time.Second, 5*time.Millisecond)

	cancel()
	assert.Equal(t, 0, clock.Tickers())

	clock.Advance(time.Minute)
	assert.Equal(t, int32(2), calls.Load())

	// idempotent
	cancel()
}

func TestSchedule_IndependentSchedules(t *testing.T) {
	s, clock := newScheduler()

	var fast, slow atomic.Int32
	cancelFast := s.Schedule(10*time.Second, func(time.Time) { fast.Add(1) })
	cancelSlow := s.Schedule(25*time.Second, func(time.Time) { slow.Add(1) })

	cancelFast()
	clock.Advance(50 * time.Second)

	require.Eventually(t, func() bool { return slow.Load() == 3 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(1), fast.Load())
	cancelSlow()
}

func TestSchedule_PanicDoesNotStopSchedule(t *testing.T) {
	s, clock := newScheduler()

	var calls atomic.Int32
	cancel := s.Schedule(10*time.Second, func(time.Time) {
		if calls.Add(1) == 2 {
			panic("boom")
		}
	})
	defer cancel()

	clock.Advance(30 * time.Second)
	require.Eventually(t, func() bool { return calls.Load() == 4 }, time.Second, 5*time.Millisecond)
}

func TestSchedule_PanicOnFirstRunIsRecovered(t *testing.T) {
	s, clock := newScheduler()

	var calls atomic.Int32
	var cancel scheduler.CancelFunc
	require.NotPanics(t, func() {
		cancel = s.Schedule(10*time.Second, func(time.Time) {
			if calls.Add(1) == 1 {
				panic("boom")
			}
		})
	})
	defer cancel()

	clock.Advance(10 * time.Second)
	require.Eventually(t, func() bool { return calls.Load() == 2 }, time.Second, 5*time.Millisecond)
}
