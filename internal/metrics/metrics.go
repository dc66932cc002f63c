// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agrireport_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "agrireport_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "route"},
	)

	ReportsSubmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agrireport_reports_submitted_total",
			Help: "Reports submitted by farmers",
		},
		[]string{"type"},
	)

	ReportTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agrireport_report_transitions_total",
			Help: "Report status changes applied by administrators",
		},
		[]string{"status"},
	)

	NotificationsWritten = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agrireport_notifications_written_total",
			Help: "Notification rows written",
		},
		[]string{"audience"},
	)

	NotificationFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "agrireport_notification_failures_total",
			Help: "Notification writes that failed and were dropped",
		},
	)

	ReferenceCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agrireport_reference_cache_lookups_total",
			Help: "Reference data cache lookups",
		},
		[]string{"result"},
	)
)
