// Railref - French Rail Network Reference Data Service
// Copyright 2026 A. Vaillant
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/availlant/railref

// Package metrics provides Prometheus instrumentation for the sync engine,
// the upstream clients, and the HTTP API.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Sync engine metrics

	SyncRecords = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "railref_sync_records_total",
			Help: "Total records persisted per entity type",
		},
		[]string{"entity"},
	)

	SyncRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "railref_sync_rejected_total",
			Help: "Records dropped per entity type (empty natural key or duplicate)",
		},
		[]string{"entity", "reason"}, // reason: "empty_key", "duplicate"
	)

	SyncDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "railref_sync_duration_seconds",
			Help:    "Duration of one entity type's sync",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300, 600},
		},
		[]string{"entity"},
	)

	SyncPartialFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "railref_sync_partial_failures_total",
			Help: "Entity syncs that completed short of full data",
		},
		[]string{"entity"},
	)

	SyncRuns = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "railref_sync_runs_total",
			Help: "Full synchronization runs started",
		},
	)

	// Upstream fetch metrics

	PageFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "railref_page_fetches_total",
			Help: "Upstream page fetches per provider and outcome",
		},
		[]string{"provider", "outcome"}, // outcome: "ok", "transient", "fatal"
	)

	PageFetchRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "railref_page_fetch_retries_total",
			Help: "Retry attempts for upstream page fetches",
		},
		[]string{"provider"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "railref_circuit_breaker_state",
			Help: "Circuit breaker state per provider (0=closed, 1=half-open, 2=open)",
		},
		[]string{"provider"},
	)

	// Database metrics

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "railref_db_query_errors_total",
			Help: "Database query errors",
		},
		[]string{"operation", "table"},
	)

	// HTTP API metrics

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "railref_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)

// ObserveEntitySync records the outcome of one entity type's sync.
func ObserveEntitySync(entity string, records int, partial bool, duration time.Duration) {
	SyncRecords.WithLabelValues(entity).Add(float64(records))
	SyncDuration.WithLabelValues(entity).Observe(duration.Seconds())
	if partial {
		SyncPartialFailures.WithLabelValues(entity).Inc()
	}
}
