// Package metrics holds the process-wide Prometheus collectors. Registered
// via promauto on the default registry; cmd/app exposes them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// LedgerEntries counts appended ledger entries by business kind.
	LedgerEntries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "buildpk_ledger_entries_total",
		Help: "Ledger entries appended, by entry kind.",
	}, []string{"kind"})

	// MarketTrades counts completed trades by market (plots, points).
	MarketTrades = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "buildpk_market_trades_total",
		Help: "Completed marketplace trades, by market.",
	}, []string{"market"})

	// HTTPRequestDuration observes request latency by method and status class.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "buildpk_http_request_duration_seconds",
		Help:    "HTTP request latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "status"})
)
