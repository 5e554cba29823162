// Package oscillator provides deterministic, time-keyed wave functions used to make
// dashboard figures look live. Every function takes the instant explicitly and never
// reads the clock, so the same instant always yields the same sample.
package oscillator

import (
	"math"
	"time"
)

const (
	// TickPeriod fast movement, visible between two refreshes.
	TickPeriod = 10 * time.Second
	// NewsPeriod medium swing.
	NewsPeriod = 60 * time.Second
	// TrendPeriod slow drift.
	TrendPeriod = 300 * time.Second
)

const (
	unitMin = 0.4
	unitMax = 1.0
)

// Wave returns sin(t/P + phase) in [-1, 1].
func Wave(t time.Time, period time.Duration, phase float64) float64 {
	return finite(math.Sin(argument(t, period) + phase))
}

// CosWave returns cos(t/P + phase) in [-1, 1].
func CosWave(t time.Time, period time.Duration, phase float64) float64 {
	return finite(math.Cos(argument(t, period) + phase))
}

// Scaled maps a sample with amplitude*sample + offset.
func Scaled(sample, amplitude, offset float64) float64 {
	return finite(amplitude*sample + offset)
}

// Composite averages the tick, news and trend waves so the period of the result is not
// visually obvious. The result stays in [-1, 1].
func Composite(t time.Time, phase float64) float64 {
	sum := Wave(t, TickPeriod, phase) +
		Wave(t, NewsPeriod, phase*1.7) +
		CosWave(t, TrendPeriod, phase*0.6)
	return Clamp(sum/3, -1, 1)
}

// Unit maps Composite into [0.4, 1.0].
func Unit(t time.Time, phase float64) float64 {
	c := Composite(t, phase)
	return Clamp(Scaled((c+1)/2, unitMax-unitMin, unitMin), unitMin, unitMax)
}

// Clamp bounds v to [lo, hi]; NaN collapses to lo.
func Clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// argument computes t/P in milliseconds. Non-positive periods fall back to 1ms.
// The millisecond count is reduced modulo a full turn of the period first, which keeps
// precision for large timestamps and makes the function total.
func argument(t time.Time, period time.Duration) float64 {
	periodMs := period.Milliseconds()
	if periodMs <= 0 {
		periodMs = 1
	}
	ms := float64(t.UnixMilli())
	turn := 2 * math.Pi * float64(periodMs)
	return math.Mod(ms, turn) / float64(periodMs)
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
