// Package metrics provides Prometheus metrics for the dashboard
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	UploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stockboard_uploads_total",
			Help: "Spreadsheet uploads by outcome code",
		},
		[]string{"status"},
	)

	AnalysesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stockboard_analyses_total",
			Help: "Analyze actions by outcome code",
		},
		[]string{"status"},
	)

	AnalysisDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "stockboard_analysis_duration_seconds",
			Help:    "Time taken to categorize, persist and render one upload",
			Buckets: prometheus.DefBuckets,
		},
	)

	RecordsCategorized = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stockboard_records_categorized_total",
			Help: "Records placed in each tab",
		},
		[]string{"tab"},
	)

	RecordsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "stockboard_records_dropped_total",
			Help: "Records that matched no tab",
		},
	)

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stockboard_http_requests_total",
			Help: "HTTP requests by route and status",
		},
		[]string{"method", "route", "status"},
	)
)
