// Copyright (C) 2025 Presage AI
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package engine

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Package-level tracer and meter for the query pipeline.
var (
	tracer = otel.Tracer("presage.engine")
	meter  = otel.Meter("presage.engine")
)

// Metrics for prediction queries.
var (
	predictLatency      metric.Float64Histogram
	predictionsReturned metric.Int64Histogram

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics initializes the metrics. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		predictLatency, err = meter.Float64Histogram(
			"predict_duration_seconds",
			metric.WithDescription("End-to-end duration of prediction queries"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		predictionsReturned, err = meter.Int64Histogram(
			"predictions_returned",
			metric.WithDescription("Predictions returned per query"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

// startPredictSpan creates a span for one prediction query.
func startPredictSpan(ctx context.Context, queryID string, stateEvents int) (context.Context, trace.Span) {
	return tracer.Start(ctx, "Engine.Predict",
		trace.WithAttributes(
			attribute.String("query.id", queryID),
			attribute.Int("query.state_events", stateEvents),
		),
	)
}

// recordPredictMetrics records metrics for one prediction query.
func recordPredictMetrics(ctx context.Context, duration time.Duration, returned int) {
	if err := initMetrics(); err != nil {
		return
	}

	predictLatency.Record(ctx, duration.Seconds())
	predictionsReturned.Record(ctx, int64(returned))
}
