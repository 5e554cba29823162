// Package indicators provides series smoothing (SMA, EMA) over float and decimal series.
package indicators

import (
	"fmt"

	"github.com/cinar/indicator/v2/helper"
	"github.com/cinar/indicator/v2/trend"
	"github.com/shopspring/decimal"
)

// SMA calculates the Simple Moving Average for the given period.
// The result is shorter than the input by period-1 warmup points.
func SMA(values []float64, period int) ([]float64, error) {
	if period <= 0 {
		return nil, fmt.Errorf("invalid SMA period %d", period)
	}
	if len(values) < period {
		return nil, fmt.Errorf("not enough data points: need %d, got %d", period, len(values))
	}

	sma := trend.NewSmaWithPeriod[float64](period)
	inputChan := helper.SliceToChan(values)
	outputChan := sma.Compute(inputChan)

	return helper.ChanToSlice(outputChan), nil
}

// EMA calculates the Exponential Moving Average for the given period.
func EMA(values []float64, period int) ([]float64, error) {
	if period <= 0 {
		return nil, fmt.Errorf("invalid EMA period %d", period)
	}
	if len(values) < period {
		return nil, fmt.Errorf("not enough data points: need %d, got %d", period, len(values))
	}

	ema := trend.NewEmaWithPeriod[float64](period)
	inputChan := helper.SliceToChan(values)
	outputChan := ema.Compute(inputChan)

	return helper.ChanToSlice(outputChan), nil
}

// EMADecimal EMA over monetary values, rounded to cents.
func EMADecimal(values []decimal.Decimal, period int) ([]decimal.Decimal, error) {
	out, err := EMA(decimalsToFloat64(values), period)
	if err != nil {
		return nil, err
	}
	return float64ToDecimals(out), nil
}

// decimalsToFloat64 converts a slice of decimal.Decimal to []float64.
func decimalsToFloat64(decimals []decimal.Decimal) []float64 {
	result := make([]float64, len(decimals))
	for i, d := range decimals {
		result[i] = d.InexactFloat64()
	}
	return result
}

func float64ToDecimals(values []float64) []decimal.Decimal {
	result := make([]decimal.Decimal, len(values))
	for i, v := range values {
		result[i] = decimal.NewFromFloat(v).Round(2)
	}
	return result
}
