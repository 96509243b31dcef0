// Basketwise - Personalized Grocery Recommendation Engine
// Copyright 2026 Basket Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/basketlabs/basketwise

// Package metrics defines Prometheus instrumentation for the
// recommendation pipeline. Collectors are registered with the default
// registry via promauto and exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "basketwise"

var (
	// RecommendationsTotal counts recommendation requests by outcome.
	// Outcomes: "ok", "empty", "error".
	RecommendationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "recommendations_total",
		Help:      "Recommendation requests by outcome.",
	}, []string{"outcome"})

	// RecommendationDuration tracks end-to-end latency of a single
	// customer recommendation, scoring through selection.
	RecommendationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "recommendation_duration_seconds",
		Help:      "End-to-end latency of a single recommendation.",
		Buckets:   prometheus.DefBuckets,
	})

	// CandidatesFiltered counts products excluded by each constraint.
	// Constraints: "recent_purchase", "discounted", "out_of_stock".
	CandidatesFiltered = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "candidates_filtered_total",
		Help:      "Products excluded from candidacy, by constraint.",
	}, []string{"constraint"})

	// ExposureFallbacks counts selections that had to widen from the
	// top-K pool to the full candidate set because every top candidate
	// was recently shown.
	ExposureFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "exposure_fallbacks_total",
		Help:      "Selections that expanded past the top-K pool.",
	})

	// LedgerWriteErrors counts failed exposure ledger writes. Writes are
	// non-fatal so this is the only surface where they show up.
	LedgerWriteErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "ledger_write_errors_total",
		Help:      "Failed exposure ledger writes.",
	})

	// BatchCustomersTotal counts customers processed in batch requests
	// by outcome. Outcomes: "ok", "skipped".
	BatchCustomersTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "batch_customers_total",
		Help:      "Customers processed in batch requests, by outcome.",
	}, []string{"outcome"})

	// HTTPRequestDuration tracks API handler latency by route and status.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "API handler latency by route and status code.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route", "status"})
)
