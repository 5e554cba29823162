// Package generator produces the displayed values of every dashboard widget as pure
// functions of an instant and an account snapshot.
//
// Numbers follow one rule: a static baseline row is scaled by the selected period and
// perturbed by a composite oscillator sample. Empty accounts always get a fixed zero
// variant so an unfunded investor never sees fabricated returns.
package generator

import (
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vadiminshakov/helios/internal/domain"
	"github.com/vadiminshakov/helios/internal/oscillator"
)

const (
	// trendLookback how far back the previous sample for trend detection is taken.
	trendLookback = 15 * time.Second
	// stableBand relative change under which a metric is reported as stable.
	stableBand = 0.005
	// benchmarkPhaseShift decorrelates the benchmark wave from the metric wave.
	benchmarkPhaseShift = math.Pi / 2
)

// Options UI selections some generators take into account.
type Options struct {
	Period domain.Period
	View   domain.ExposureView
}

// Func common signature of every generator.
type Func func(now time.Time, acct domain.Account, opts Options) domain.WidgetState

var registry = map[domain.MetricKind]Func{
	domain.MetricKindPerformance: func(now time.Time, acct domain.Account, opts Options) domain.WidgetState {
		return Performance(now, acct, opts.Period)
	},
	domain.MetricKindRisk: func(now time.Time, acct domain.Account, _ Options) domain.WidgetState {
		return Risk(now, acct)
	},
	domain.MetricKindFactorAttribution: func(now time.Time, acct domain.Account, opts Options) domain.WidgetState {
		return FactorAttribution(now, acct, opts.Period)
	},
	domain.MetricKindSectorExposure: func(now time.Time, acct domain.Account, opts Options) domain.WidgetState {
		return SectorExposure(now, acct, opts.View)
	},
	domain.MetricKindAIInsights: func(now time.Time, acct domain.Account, _ Options) domain.WidgetState {
		return AIInsights(now, acct)
	},
	domain.MetricKindAllocation: func(now time.Time, acct domain.Account, _ Options) domain.WidgetState {
		return Allocation(now, acct)
	},
	domain.MetricKindPortfolio: func(now time.Time, acct domain.Account, _ Options) domain.WidgetState {
		return Portfolio(now, acct)
	},
}

// For returns the generator of a widget kind.
func For(kind domain.MetricKind) (Func, bool) {
	fn, ok := registry[kind]
	return fn, ok
}

// RotationIndex selects floor(now/window) mod poolLength, a slowly advancing carousel.
func RotationIndex(now time.Time, window time.Duration, poolLength int) int {
	if poolLength <= 0 {
		return 0
	}
	windowMs := window.Milliseconds()
	if windowMs <= 0 {
		windowMs = 1
	}
	slot := now.UnixMilli() / windowMs
	idx := int(slot % int64(poolLength))
	if idx < 0 {
		idx += poolLength
	}
	return idx
}

func normalizePeriod(p domain.Period) domain.Period {
	if !p.IsValid() {
		return domain.DefaultPeriod
	}
	return p
}

func rowValue(b domain.MetricBaseline, t time.Time, multiplier float64) float64 {
	return b.BaseValue*multiplier + oscillator.Composite(t, b.Phase)*b.VarianceAmplitude
}

func rowBenchmark(b domain.MetricBaseline, t time.Time, multiplier float64) float64 {
	return b.BenchmarkValue*multiplier + oscillator.Composite(t, b.Phase+benchmarkPhaseShift)*b.VarianceAmplitude/2
}

// evaluate produces one metric for a baseline row at the instant.
func evaluate(kind domain.MetricKind, b domain.MetricBaseline, now time.Time, multiplier float64) domain.GeneratedMetric {
	current := rowValue(b, now, multiplier)
	previous := rowValue(b, now.Add(-trendLookback), multiplier)
	benchmark := rowBenchmark(b, now, multiplier)

	return domain.GeneratedMetric{
		Name:       b.Name,
		Kind:       kind,
		Unit:       b.Unit,
		Current:    round2(current),
		Benchmark:  round2(benchmark),
		Percentile: percentile(current-benchmark, benchmark, b.HigherIsBetter),
		Trend:      trendOf(current, previous),
		Notional:   decimal.Zero,
	}
}

// percentile maps the edge over the benchmark to [0, 100], 50 meaning "on benchmark".
func percentile(edge, benchmark float64, higherIsBetter bool) float64 {
	return scaledPercentile(edge, math.Max(math.Abs(benchmark), 1), higherIsBetter)
}

func scaledPercentile(edge, scale float64, higherIsBetter bool) float64 {
	if !higherIsBetter {
		edge = -edge
	}
	if scale <= 0 || math.IsNaN(scale) || math.IsInf(scale, 0) {
		scale = 1
	}
	return round2(oscillator.Clamp(50+50*edge/scale, 0, 100))
}

func trendOf(current, previous float64) domain.Trend {
	diff := current - previous
	band := stableBand * math.Max(math.Abs(current), 1)
	switch {
	case diff > band:
		return domain.TrendUp
	case diff < -band:
		return domain.TrendDown
	default:
		return domain.TrendStable
	}
}

// emptyMetrics fixed all-zero variant for an unfunded account.
func emptyMetrics(kind domain.MetricKind, rows []domain.MetricBaseline) []domain.GeneratedMetric {
	out := make([]domain.GeneratedMetric, 0, len(rows))
	for _, b := range rows {
		out = append(out, domain.GeneratedMetric{
			Name:     b.Name,
			Kind:     kind,
			Unit:     b.Unit,
			Trend:    domain.TrendStable,
			Notional: decimal.Zero,
		})
	}
	return out
}

// notional returns balance * weight / 100 rounded to cents.
func notional(acct domain.Account, weightPct float64) decimal.Decimal {
	if acct.IsEmpty() || weightPct <= 0 {
		return decimal.Zero
	}
	return acct.Balance.Mul(decimal.NewFromFloat(weightPct)).Div(decimal.NewFromInt(100)).Round(2)
}

func round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return math.Round(v*100) / 100
}
