package generator

import (
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vadiminshakov/helios/internal/domain"
)

var (
	funded = domain.NewAccount(100000, 90000, 100000, 0, "USD", domain.AccountStatusActive)
	epoch  = time.UnixMilli(1_700_000_000_000).UTC()
)

func TestGenerators_Deterministic(t *testing.T) {
	for _, kind := range domain.AllMetricKinds {
		t.Run(kind.String(), func(t *testing.T) {
			fn, ok := For(kind)
			require.True(t, ok)

			opts := Options{Period: domain.Period3M, View: domain.ExposureViewRelative}
			first := fn(epoch, funded, opts)
			second := fn(epoch, funded, opts)
			assert.Equal(t, first, second)
			assert.Equal(t, kind, first.Kind)
			assert.False(t, first.Empty)
		})
	}
}

func TestGenerators_EmptyAccount(t *testing.T) {
	empties := []domain.Account{
		{},
		domain.NewAccount(0, 0, 0, 0, "USD", domain.AccountStatusActive),
		domain.NewAccount(math.NaN(), 0, 0, 0, "USD", domain.AccountStatusActive),
		domain.NewAccount(-250, 0, 0, 0, "USD", domain.AccountStatusActive),
	}

	for _, kind := range domain.AllMetricKinds {
		fn, ok := For(kind)
		require.True(t, ok)

		for _, acct := range empties {
			// zero variant must not move with time
			a := fn(epoch, acct, Options{})
			b := fn(epoch.Add(37*time.Second), acct, Options{})

			assert.True(t, a.Empty, kind)
			for _, m := range a.Metrics {
				assert.True(t, m.IsZero(), "%s/%s", kind, m.Name)
				assert.Equal(t, domain.TrendStable, m.Trend)
			}
			assert.Equal(t, a.Metrics, b.Metrics)
			assert.Equal(t, a.Insights, b.Insights)

			if a.Portfolio != nil {
				assert.True(t, a.Portfolio.Equity.IsZero())
				assert.True(t, a.Portfolio.DayChange.IsZero())
				assert.Zero(t, a.Portfolio.DayChangePct)
			}
		}
	}
}

func TestGenerators_PercentileBounds(t *testing.T) {
	for step := 0; step < 500; step++ {
		now := epoch.Add(time.Duration(step) * 1370 * time.Millisecond)
		for _, kind := range domain.AllMetricKinds {
			fn, _ := For(kind)
			for _, view := range []domain.ExposureView{domain.ExposureViewAbsolute, domain.ExposureViewRelative} {
				state := fn(now, funded, Options{Period: domain.Period1M, View: view})
				for _, m := range state.Metrics {
					assert.GreaterOrEqual(t, m.Percentile, 0.0)
					assert.LessOrEqual(t, m.Percentile, 100.0)
				}
				for _, in := range state.Insights {
					assert.GreaterOrEqual(t, in.Confidence, 0.0)
					assert.LessOrEqual(t, in.Confidence, 100.0)
				}
			}
		}
	}
}

func TestPerformance_TotalReturnWithinBand(t *testing.T) {
	for step := 0; step < 300; step++ {
		now := epoch.Add(time.Duration(step) * 2 * time.Second)
		state := Performance(now, funded, domain.PeriodYTD)

		m, ok := state.Metric("Total Return")
		require.True(t, ok)
		assert.InDelta(t, 22.4, m.Current, 2.0+0.01)
		assert.Less(t, m.Current, 30.0)
	}
}

func TestPerformance_PeriodScaling(t *testing.T) {
	for step := 0; step < 100; step++ {
		now := epoch.Add(time.Duration(step) * 3 * time.Second)

		oneMonth, _ := Performance(now, funded, domain.Period1M).Metric("Total Return")
		threeMonths, _ := Performance(now, funded, domain.Period3M).Metric("Total Return")
		sixMonths, _ := Performance(now, funded, domain.Period6M).Metric("Total Return")
		year, _ := Performance(now, funded, domain.Period1Y).Metric("Total Return")
		ytd, _ := Performance(now, funded, domain.PeriodYTD).Metric("Total Return")

		assert.Less(t, oneMonth.Current, threeMonths.Current)
		assert.Less(t, threeMonths.Current, sixMonths.Current)
		assert.LessOrEqual(t, sixMonths.Current, year.Current)
		assert.Equal(t, year.Current, ytd.Current)

		// 1M keeps the oscillation but scales the baseline by 0.3
		assert.InDelta(t, 0.3*ytd.Current, oneMonth.Current, 0.7*2.0+0.02)
	}
}

func TestPerformance_UnknownPeriodFallsBackToDefault(t *testing.T) {
	state := Performance(epoch, funded, domain.Period("2W"))
	assert.Equal(t, domain.DefaultPeriod, state.Period)
	assert.Equal(t, Performance(epoch, funded, domain.DefaultPeriod).Metrics, state.Metrics)
}

func TestPercentile(t *testing.T) {
	assert.Equal(t, 50.0, percentile(0, 15, true))
	assert.Equal(t, 100.0, percentile(1000, 15, true))
	assert.Equal(t, 0.0, percentile(-1000, 15, true))
	assert.Equal(t, 0.0, percentile(1000, 15, false))

	// benchmark magnitude below 1 scales by 1
	assert.Equal(t, 75.0, percentile(0.5, 0, true))
	assert.Equal(t, 25.0, percentile(0.5, 0.2, false))
}

func TestTrendOf(t *testing.T) {
	assert.Equal(t, domain.TrendUp, trendOf(10.2, 10))
	assert.Equal(t, domain.TrendDown, trendOf(9.8, 10))
	assert.Equal(t, domain.TrendStable, trendOf(10.04, 10))
	assert.Equal(t, domain.TrendStable, trendOf(0.001, 0))
}

func TestRotationIndex(t *testing.T) {
	window := 20 * time.Second
	base := time.UnixMilli(0)

	assert.Equal(t, 0, RotationIndex(base, window, 8))
	assert.Equal(t, 0, RotationIndex(base.Add(19*time.Second), window, 8))
	assert.Equal(t, 1, RotationIndex(base.Add(20*time.Second), window, 8))
	assert.Equal(t, 0, RotationIndex(base.Add(160*time.Second), window, 8))
	assert.Equal(t, 0, RotationIndex(base, window, 0))
	assert.Equal(t, 0, RotationIndex(base, 0, 1))
}

func TestAIInsights_Carousel(t *testing.T) {
	base := time.UnixMilli(0)

	first := AIInsights(base, funded)
	require.Len(t, first.Insights, insightsPerPage+1)
	assert.Equal(t, insightPool[0].id, first.Insights[0].ID)
	assert.Equal(t, insightPool[1].id, first.Insights[1].ID)
	assert.Equal(t, insightPool[2].id, first.Insights[2].ID)
	assert.Equal(t, eventPool[0].id, first.Insights[3].ID)

	// same window, same page
	same := AIInsights(base.Add(InsightRotationWindow-time.Millisecond), funded)
	assert.Equal(t, first.Insights[0].ID, same.Insights[0].ID)

	next := AIInsights(base.Add(InsightRotationWindow), funded)
	assert.Equal(t, insightPool[1].id, next.Insights[0].ID)

	// page wraps around the pool
	last := AIInsights(base.Add(7*InsightRotationWindow), funded)
	assert.Equal(t, insightPool[7].id, last.Insights[0].ID)
	assert.Equal(t, insightPool[0].id, last.Insights[1].ID)
}

func TestAIInsights_EmptyAccountWelcome(t *testing.T) {
	state := AIInsights(epoch, domain.Account{})
	assert.True(t, state.Empty)
	assert.Equal(t, WelcomeInsights(), state.Insights)
	for _, in := range state.Insights {
		assert.Zero(t, in.Confidence)
	}
}

func TestAllocation_WeightsSumTo100(t *testing.T) {
	for step := 0; step < 50; step++ {
		state := Allocation(epoch.Add(time.Duration(step)*7*time.Second), funded)

		sum := 0.0
		notionalSum := decimal.Zero
		for _, m := range state.Metrics {
			sum += m.Current
			notionalSum = notionalSum.Add(m.Notional)
		}
		assert.InDelta(t, 100, sum, 0.05)
		assert.InDelta(t, 100000, notionalSum.InexactFloat64(), 1)
	}
}

func TestSectorExposure_Views(t *testing.T) {
	absolute := SectorExposure(epoch, funded, domain.ExposureViewAbsolute)
	relative := SectorExposure(epoch, funded, domain.ExposureViewRelative)
	require.Len(t, absolute.Metrics, len(sectorBaselines))
	require.Len(t, relative.Metrics, len(sectorBaselines))

	sum := 0.0
	for i, m := range absolute.Metrics {
		sum += m.Current
		r := relative.Metrics[i]
		assert.Zero(t, r.Benchmark)
		assert.InDelta(t, m.Current-sectorBaselines[i].BenchmarkValue, r.Current, 0.02)
		assert.True(t, m.Notional.Equal(r.Notional))
	}
	assert.InDelta(t, 100, sum, 0.05)

	fallback := SectorExposure(epoch, funded, domain.ExposureView("weird"))
	assert.Equal(t, domain.DefaultExposureView, fallback.View)
}

func TestPortfolio(t *testing.T) {
	state := Portfolio(epoch, funded)
	require.NotNil(t, state.Portfolio)

	equity := state.Portfolio.Equity.InexactFloat64()
	assert.InDelta(t, 100000, equity, 100000*equitySwing+0.01)
	assert.LessOrEqual(t, math.Abs(state.Portfolio.DayChangePct), dayChangeSwing)
	assert.True(t, state.Portfolio.Available.Equal(funded.AvailableBalance))
	assert.Equal(t, "USD", state.Portfolio.Currency)
}

func TestNotional(t *testing.T) {
	assert.True(t, decimal.RequireFromString("28500").Equal(notional(funded, 28.5)))
	assert.True(t, notional(domain.Account{}, 28.5).IsZero())
	assert.True(t, notional(funded, -1).IsZero())
}

func TestAIInsights_ConfidenceNearTemplate(t *testing.T) {
	templates := make(map[string]float64)
	for _, tpl := range append(append([]insightTemplate(nil), insightPool...), eventPool...) {
		templates[tpl.id] = tpl.confidence
	}

	for step := 0; step < 300; step++ {
		state := AIInsights(epoch.Add(time.Duration(step)*3*time.Second), funded)
		for _, in := range state.Insights {
			base, ok := templates[in.ID]
			require.True(t, ok, in.ID)
			assert.GreaterOrEqual(t, in.Confidence, base*0.94-0.01, in.ID)
			assert.LessOrEqual(t, in.Confidence, base+0.01, in.ID)
		}
	}
}
