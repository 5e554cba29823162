package domain

import (
	"fmt"
	"strings"
)

// Period reporting window selected in the UI.
type Period string

const (
	Period1M  Period = "1M"
	Period3M  Period = "3M"
	Period6M  Period = "6M"
	Period1Y  Period = "1Y"
	PeriodYTD Period = "YTD"
)

// DefaultPeriod is used when no period was selected.
const DefaultPeriod = PeriodYTD

// AllPeriods lists every period token from shortest to longest.
var AllPeriods = []Period{Period1M, Period3M, Period6M, Period1Y, PeriodYTD}

// Multiplier scales baseline magnitudes for the period.
// Unknown periods behave like a full year.
func (p Period) Multiplier() float64 {
	switch p {
	case Period1M:
		return 0.3
	case Period3M:
		return 0.7
	case Period6M:
		return 0.85
	default:
		return 1.0
	}
}

// IsValid checks if the Period value is known.
func (p Period) IsValid() bool {
	switch p {
	case Period1M, Period3M, Period6M, Period1Y, PeriodYTD:
		return true
	}
	return false
}

// String returns the string representation.
func (p Period) String() string {
	return string(p)
}

// ParsePeriod parses a period token case-insensitively. Empty input yields DefaultPeriod.
func ParsePeriod(s string) (Period, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return DefaultPeriod, nil
	}
	p := Period(s)
	if !p.IsValid() {
		return "", fmt.Errorf("unknown period %q, expected one of 1M, 3M, 6M, 1Y, YTD", s)
	}
	return p, nil
}

// ExposureView selects how sector exposure is rendered.
type ExposureView string

const (
	// ExposureViewAbsolute portfolio weight per sector.
	ExposureViewAbsolute ExposureView = "absolute"
	// ExposureViewRelative active weight against the benchmark.
	ExposureViewRelative ExposureView = "relative"
)

// DefaultExposureView is used when no view was selected.
const DefaultExposureView = ExposureViewAbsolute

// IsValid checks if the ExposureView value is known.
func (v ExposureView) IsValid() bool {
	return v == ExposureViewAbsolute || v == ExposureViewRelative
}

// ParseExposureView parses a view token. Empty input yields DefaultExposureView.
func ParseExposureView(s string) (ExposureView, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return DefaultExposureView, nil
	}
	v := ExposureView(s)
	if !v.IsValid() {
		return "", fmt.Errorf("unknown exposure view %q, expected absolute or relative", s)
	}
	return v, nil
}
