// Copyright (C) 2026 Hexframe (dev@hexframe.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package mutation

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const tracerName = "hexframe.mapcache.mutation"

// Tracer provides OpenTelemetry tracing for structural edits.
//
// When disabled it hands out noop spans, so call sites stay unconditional.
type Tracer struct {
	tracer  trace.Tracer
	logger  *slog.Logger
	enabled bool
}

// NewTracer creates a mutation tracer. logger may be nil.
func NewTracer(logger *slog.Logger, enabled bool) *Tracer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracer{
		tracer:  otel.Tracer(tracerName),
		logger:  logger,
		enabled: enabled,
	}
}

// StartEdit opens a span for one structural edit. target may be empty for
// operations without a second coordinate.
func (t *Tracer) StartEdit(ctx context.Context, op, source, target string) (context.Context, trace.Span) {
	if !t.enabled {
		return ctx, noop.Span{}
	}
	attrs := []attribute.KeyValue{
		attribute.String("map.op", op),
		attribute.String("map.source", source),
	}
	if target != "" {
		attrs = append(attrs, attribute.String("map.target", target))
	}
	return t.tracer.Start(ctx, "mapcache."+op,
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// End closes the span, recording err when non-nil.
func (t *Tracer) End(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
