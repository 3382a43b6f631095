// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// StartSpan starts spanName on the global tracer named tracerName.
//
// # Description
//
// codemedic never holds tracer instances; every package names its tracer
// ("codemedic.llm", "codemedic.workflow") and goes through the global
// provider, which is a no-op until Init installs an exporter.
//
// # Outputs
//
//   - context.Context: ctx with the new span attached.
//   - trace.Span: The caller ends it.
//
// # Example
//
//	ctx, span := telemetry.StartSpan(ctx, "codemedic.llm", "OpenAIClient.Generate",
//	    trace.WithAttributes(attribute.String("llm.model", model)),
//	)
//	defer span.End()
func StartSpan(ctx context.Context, tracerName, spanName string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, spanName, opts...)
}

// RecordError attaches err as an exception event and marks the span failed.
// A nil span or nil err does nothing.
func RecordError(span trace.Span, err error, attrs ...attribute.KeyValue) {
	if span == nil || err == nil {
		return
	}
	span.RecordError(err, trace.WithAttributes(attrs...))
	span.SetStatus(codes.Error, err.Error())
}

// SetSpanOK marks the span successful. A nil span does nothing.
func SetSpanOK(span trace.Span) {
	if span != nil {
		span.SetStatus(codes.Ok, "")
	}
}

// EndSpan sets the status from err and ends the span.
func EndSpan(span trace.Span, err error) {
	if span == nil {
		return
	}
	if err != nil {
		RecordError(span, err)
	} else {
		SetSpanOK(span)
	}
	span.End()
}

// TraceAttrs returns "trace_id" and "span_id" pairs for a logger's With
// when ctx carries a valid span, and nil otherwise.
//
// Example:
//
//	log := logger.With(telemetry.TraceAttrs(ctx)...)
func TraceAttrs(ctx context.Context) []any {
	if ctx == nil {
		return nil
	}
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return nil
	}
	return []any{"trace_id", sc.TraceID().String(), "span_id", sc.SpanID().String()}
}
