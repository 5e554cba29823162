// Package metrics declares the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WidgetRefreshTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "helios_widget_refresh_total",
			Help: "Total number of widget refresh ticks",
		},
		[]string{"widget"},
	)

	FundingEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "helios_funding_events_total",
			Help: "Funding events received, by source and outcome",
		},
		[]string{"source", "result"},
	)

	AccountBalance = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "helios_account_balance",
			Help: "Current account balance held by the session",
		},
	)

	BackendSyncDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "helios_backend_sync_duration_seconds",
			Help: "Account backend sync duration",
		},
		[]string{"backend", "result"},
	)
)

// Funding event outcomes.
const (
	FundingApplied   = "applied"
	FundingDuplicate = "duplicate"
	FundingIgnored   = "ignored"
	FundingInvalid   = "invalid"
)
