// Copyright (C) 2025 Presage AI
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package predict

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Package-level tracer and meter for prediction building.
var (
	tracer = otel.Tracer("presage.predict")
	meter  = otel.Meter("presage.predict")
)

// Metrics for prediction build operations.
var (
	buildLatency     metric.Float64Histogram
	predictionsBuilt metric.Int64Histogram
	storeMissesTotal metric.Int64Counter

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics initializes the metrics. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		buildLatency, err = meter.Float64Histogram(
			"predict_build_duration_seconds",
			metric.WithDescription("Duration of prediction build passes"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		predictionsBuilt, err = meter.Int64Histogram(
			"predict_predictions_built",
			metric.WithDescription("Predictions constructed per build pass"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		storeMissesTotal, err = meter.Int64Counter(
			"predict_store_misses_total",
			metric.WithDescription("Raw matches dropped because the pattern record was missing"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

// startBuildSpan creates a span for one build pass.
func startBuildSpan(ctx context.Context, rawMatches int) (context.Context, trace.Span) {
	return tracer.Start(ctx, "Builder.Build",
		trace.WithAttributes(
			attribute.Int("predict.raw_matches", rawMatches),
		),
	)
}

// recordBuildMetrics records metrics for one build pass.
func recordBuildMetrics(ctx context.Context, duration time.Duration, built, missed int) {
	if err := initMetrics(); err != nil {
		return
	}

	buildLatency.Record(ctx, duration.Seconds())
	predictionsBuilt.Record(ctx, int64(built))
	if missed > 0 {
		storeMissesTotal.Add(ctx, int64(missed))
	}
}
