// Package metrics provides Prometheus metrics for the price tracker.
// Scrape these at /metrics when running in schedule mode.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ScansTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pricetracker_scans_total",
			Help: "Total number of completed scans",
		},
	)

	ScanDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pricetracker_scan_duration_seconds",
			Help:    "Time taken to process one full scan",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300},
		},
	)

	ItemOutcomesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pricetracker_item_outcomes_total",
			Help: "Per-item scan outcomes by category",
		},
		[]string{"outcome"},
	)

	NotificationsSentTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pricetracker_notifications_sent_total",
			Help: "Total number of deal notifications delivered",
		},
	)

	NotificationFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pricetracker_notification_failures_total",
			Help: "Total number of failed notification deliveries",
		},
	)

	PersistFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pricetracker_persist_failures_total",
			Help: "Total number of failed history persists",
		},
	)
)
