// Copyright (C) 2025 Presage AI
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package search

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Package-level tracer and meter for search operations.
var (
	tracer = otel.Tracer("presage.search")
	meter  = otel.Meter("presage.search")
)

// Metrics for candidate search operations.
var (
	searchLatency       metric.Float64Histogram
	searchTotal         metric.Int64Counter
	candidatesMatched   metric.Int64Histogram
	candidatesSkipped   metric.Int64Counter
	candidatesEvaluated metric.Int64Counter

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics initializes the metrics. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		searchLatency, err = meter.Float64Histogram(
			"search_duration_seconds",
			metric.WithDescription("Duration of candidate search operations"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		searchTotal, err = meter.Int64Counter(
			"search_total",
			metric.WithDescription("Total number of candidate searches"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		candidatesMatched, err = meter.Int64Histogram(
			"search_candidates_matched",
			metric.WithDescription("Candidates at or above cutoff per search"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		candidatesSkipped, err = meter.Int64Counter(
			"search_candidates_skipped_total",
			metric.WithDescription("Candidates dropped due to match failures"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		candidatesEvaluated, err = meter.Int64Counter(
			"search_candidates_evaluated_total",
			metric.WithDescription("Candidates run through the matcher"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

// startSearchSpan creates a span for one search invocation.
func startSearchSpan(ctx context.Context, candidates int, cutoff float64) (context.Context, trace.Span) {
	return tracer.Start(ctx, "Orchestrator.Search",
		trace.WithAttributes(
			attribute.Int("search.candidates", candidates),
			attribute.Float64("search.cutoff", cutoff),
		),
	)
}

// recordSearchMetrics records metrics for one search invocation.
func recordSearchMetrics(ctx context.Context, duration time.Duration, evaluated, matched, skipped int, partial bool) {
	if err := initMetrics(); err != nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.Bool("partial", partial),
	)

	searchLatency.Record(ctx, duration.Seconds(), attrs)
	searchTotal.Add(ctx, 1, attrs)
	candidatesMatched.Record(ctx, int64(matched))
	candidatesEvaluated.Add(ctx, int64(evaluated))
	if skipped > 0 {
		candidatesSkipped.Add(ctx, int64(skipped))
	}
}
