// Fleetstats - Alliance Fleet Participation Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetstats

// Package metrics provides Prometheus instrumentation for ingestion runs,
// database access and the HTTP API.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Ingestion metrics, labeled by source ("internal-log" / "external-report").
	IngestRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fleetstats_ingest_runs_total",
			Help: "Total number of aggregation runs, by source and outcome",
		},
		[]string{"source", "outcome"}, // outcome: "completed", "skipped", "failed"
	)

	IngestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fleetstats_ingest_duration_seconds",
			Help:    "Duration of aggregation runs in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"source"},
	)

	RowsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fleetstats_ingest_rows_total",
			Help: "Rows or events handled during aggregation, by source and disposition",
		},
		[]string{"source", "disposition"}, // disposition: "processed", "skipped", "unresolved", "duplicate"
	)

	// Database metrics.
	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fleetstats_db_query_errors_total",
			Help: "Total number of database query errors",
		},
		[]string{"operation"},
	)

	// API endpoint metrics.
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fleetstats_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "path", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fleetstats_api_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

// ObserveAPIRequest records one completed API request.
func ObserveAPIRequest(method, path string, status int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	APIRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}
