// Package metrics declares the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// ClicksTotal counts visits by outcome: recorded, bot, throttled, error.
	ClicksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "smartshort_clicks_total",
			Help: "Visits on short links by outcome",
		},
		[]string{"outcome"},
	)

	// CompletionsTotal counts ad-gate completions by outcome.
	CompletionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "smartshort_click_completions_total",
			Help: "Ad-view completion attempts by outcome",
		},
		[]string{"outcome"},
	)

	EarningsMinted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "smartshort_earnings_minted_total",
			Help: "Number of earnings minted",
		},
	)

	EarningsAmount = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "smartshort_earnings_amount_total",
			Help: "Sum of minted earning amounts",
		},
	)

	PayoutsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "smartshort_payouts_total",
			Help: "Payout transitions by status",
		},
		[]string{"status"},
	)

	WebhooksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "smartshort_webhooks_total",
			Help: "Processor webhooks by event",
		},
		[]string{"event"},
	)

	ReconciledLinks = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "smartshort_reconciled_links_total",
			Help: "Links whose counters were corrected by reconciliation",
		},
	)

	ResponseTime = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status_code"},
	)
)

func init() {
	prometheus.MustRegister(ClicksTotal)
	prometheus.MustRegister(CompletionsTotal)
	prometheus.MustRegister(EarningsMinted)
	prometheus.MustRegister(EarningsAmount)
	prometheus.MustRegister(PayoutsTotal)
	prometheus.MustRegister(WebhooksTotal)
	prometheus.MustRegister(ReconciledLinks)
	prometheus.MustRegister(ResponseTime)
}
