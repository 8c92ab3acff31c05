// Package metrics holds the Prometheus collectors of the service.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Ingestion
	RowsIngested = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "peopleflow_rows_ingested_total",
			Help: "Rows read from data sources",
		},
		[]string{"source_type"},
	)

	InvalidRows = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "peopleflow_invalid_rows_total",
			Help: "Validation issues found in ingested rows",
		},
		[]string{"reason"}, // "timestamp", "negative_count", "total_mismatch"
	)

	FetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "peopleflow_fetch_duration_seconds",
			Help:    "Duration of source fetches",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"source_type", "result"},
	)

	// Aggregation
	AggregationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "peopleflow_aggregation_duration_seconds",
			Help:    "Duration of engine aggregations",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
		[]string{"granularity"},
	)

	BucketsProduced = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "peopleflow_buckets_produced_total",
			Help: "Output rows produced by aggregations",
		},
		[]string{"granularity"},
	)

	DuplicateRows = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "peopleflow_duplicate_rows_total",
			Help: "Rows sharing a day or hour bucket with an earlier row",
		},
	)

	// Runs
	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "peopleflow_runs_total",
			Help: "Pipeline runs by final status",
		},
		[]string{"status"},
	)

	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "peopleflow_stage_duration_seconds",
			Help:    "Duration of pipeline stages",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"stage"},
	)

	// HTTP
	APIRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "peopleflow_api_requests_total",
			Help: "HTTP requests by route and status",
		},
		[]string{"method", "route", "status"},
	)

	APIDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "peopleflow_api_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

// RecordFetch records one source fetch.
func RecordFetch(sourceType string, rows int, duration time.Duration, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	FetchDuration.WithLabelValues(sourceType, result).Observe(duration.Seconds())
	if err == nil {
		RowsIngested.WithLabelValues(sourceType).Add(float64(rows))
	}
}

// RecordAggregation records one engine call.
func RecordAggregation(granularity string, buckets int, duration time.Duration) {
	AggregationDuration.WithLabelValues(granularity).Observe(duration.Seconds())
	BucketsProduced.WithLabelValues(granularity).Add(float64(buckets))
}

// RecordInvalid adds n issues of one reason.
func RecordInvalid(reason string, n int) {
	if n > 0 {
		InvalidRows.WithLabelValues(reason).Add(float64(n))
	}
}

// RecordAPIRequest records a finished HTTP request.
func RecordAPIRequest(method, route string, status int, duration time.Duration) {
	APIRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	APIDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}
