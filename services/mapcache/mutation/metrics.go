// Copyright (C) 2026 Hexframe (dev@hexframe.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package mutation

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Package-level meter for mutation metrics.
var meter = otel.Meter("hexframe.mapcache.mutation")

// Metric instruments for structural edits.
var (
	mutationTotal      metric.Int64Counter
	rollbackTotal      metric.Int64Counter
	inconsistencyTotal metric.Int64Counter
	mutationDuration   metric.Float64Histogram
	subtreeSize        metric.Int64Histogram

	metricsOnce sync.Once
	metricsErr  error
)

// metricsEnabled controls whether metrics are recorded.
//
// Thread Safety: Uses atomic operations for safe concurrent access.
var metricsEnabled atomic.Bool

func init() {
	metricsEnabled.Store(true)
}

// SetMetricsEnabled controls whether metrics are recorded.
//
// Thread Safety: Safe for concurrent use.
func SetMetricsEnabled(enabled bool) {
	metricsEnabled.Store(enabled)
}

// initMetrics initializes all metric instruments.
// Safe to call multiple times; uses sync.Once internally.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		mutationTotal, err = meter.Int64Counter(
			"map_mutations_total",
			metric.WithDescription("Total structural edits by operation and outcome"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		rollbackTotal, err = meter.Int64Counter(
			"map_rollbacks_total",
			metric.WithDescription("Total optimistic patches rolled back after gateway rejection"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		inconsistencyTotal, err = meter.Int64Counter(
			"map_inconsistency_warnings_total",
			metric.WithDescription("Authoritative payload items the local cache never had"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		mutationDuration, err = meter.Float64Histogram(
			"map_mutation_duration_seconds",
			metric.WithDescription("End-to-end structural edit duration including the gateway call"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		subtreeSize, err = meter.Int64Histogram(
			"map_mutation_subtree_size",
			metric.WithDescription("Number of cached records touched per structural edit"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

func recordMutation(ctx context.Context, op, outcome string, start time.Time, touched int) {
	if !metricsEnabled.Load() || initMetrics() != nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("op", op),
		attribute.String("outcome", outcome),
	)
	mutationTotal.Add(ctx, 1, attrs)
	mutationDuration.Record(ctx, time.Since(start).Seconds(), attrs)
	subtreeSize.Record(ctx, int64(touched), attrs)
}

func recordRollback(ctx context.Context, op string) {
	if !metricsEnabled.Load() || initMetrics() != nil {
		return
	}
	rollbackTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("op", op)))
}

func recordInconsistency(ctx context.Context, op string) {
	if !metricsEnabled.Load() || initMetrics() != nil {
		return
	}
	inconsistencyTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("op", op)))
}
