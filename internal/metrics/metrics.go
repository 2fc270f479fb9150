// Package metrics exposes the Prometheus collectors of the reminder engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "kanso"

var (
	// RemindersCreated counts persisted occurrences.
	// Labels: kind (single, batch)
	RemindersCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reminders",
			Name:      "created_total",
			Help:      "Total number of reminder occurrences persisted",
		},
		[]string{"kind"},
	)

	// ReminderBatchSize tracks how many occurrences each create request expanded to.
	ReminderBatchSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "reminders",
			Name:      "batch_size",
			Help:      "Number of occurrences produced per create request",
			Buckets:   []float64{1, 2, 5, 10, 30, 90, 366},
		},
	)

	// RemindersCleared counts rows removed by clear-all requests.
	RemindersCleared = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reminders",
			Name:      "cleared_total",
			Help:      "Total number of reminders removed by clear-all",
		},
	)

	// HabitUpserts counts habit log writes.
	HabitUpserts = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "habits",
			Name:      "upserts_total",
			Help:      "Total number of habit day upserts",
		},
	)

	// StreakComputeDuration tracks how long snapshot computation takes, storage read included.
	StreakComputeDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "habits",
			Name:      "streak_compute_duration_seconds",
			Help:      "Duration of streak snapshot computations in seconds",
			Buckets:   prometheus.DefBuckets,
		},
	)

	// NotificationsSent counts dispatcher deliveries.
	// Labels: result (success, error, unmarked)
	NotificationsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dispatcher",
			Name:      "notifications_total",
			Help:      "Total number of due-reminder notifications attempted",
		},
		[]string{"result"},
	)

	// HTTPRequestDuration tracks request latency.
	// Labels: method, route, status
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)
