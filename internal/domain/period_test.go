package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPeriod_Multiplier(t *testing.T) {
	tests := []struct {
		period   Period
		expected float64
	}{
		{Period1M, 0.3},
		{Period3M, 0.7},
		{Period6M, 0.85},
		{Period1Y, 1.0},
		{PeriodYTD, 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.period.String(), func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.period.Multiplier())
		})
	}
}

func TestPeriod_MultiplierOrdering(t *testing.T) {
	for i := 1; i < len(AllPeriods); i++ {
		assert.LessOrEqual(t, AllPeriods[i-1].Multiplier(), AllPeriods[i].Multiplier())
	}
}

func TestParsePeriod(t *testing.T) {
	p, err := ParsePeriod(" ytd ")
	require.NoError(t, err)
	assert.Equal(t, PeriodYTD, p)

	p, err = ParsePeriod("")
	require.NoError(t, err)
	assert.Equal(t, DefaultPeriod, p)

	_, err = ParsePeriod("2W")
	assert.Error(t, err)
}

func TestParseExposureView(t *testing.T) {
	v, err := ParseExposureView("Relative")
	require.NoError(t, err)
	assert.Equal(t, ExposureViewRelative, v)

	v, err = ParseExposureView("")
	require.NoError(t, err)
	assert.Equal(t, ExposureViewAbsolute, v)

	_, err = ParseExposureView("sideways")
	assert.Error(t, err)
}

func TestParseMetricKind(t *testing.T) {
	k, err := ParseMetricKind("factor-attribution")
	require.NoError(t, err)
	assert.Equal(t, MetricKindFactorAttribution, k)

	_, err = ParseMetricKind("orders")
	assert.Error(t, err)
}
