// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package telemetry

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

// withRecorder installs a span recorder as the global tracer provider.
func withRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))

	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		_ = tp.Shutdown(context.Background())
	})
	return sr
}

func TestStartSpan(t *testing.T) {
	sr := withRecorder(t)

	ctx, span := StartSpan(context.Background(), "test.tracer", "TestOperation",
		trace.WithAttributes(attribute.String("kind", "fix")),
	)
	if !span.SpanContext().IsValid() {
		t.Error("expected valid span context")
	}
	if trace.SpanFromContext(ctx).SpanContext().SpanID() != span.SpanContext().SpanID() {
		t.Error("context should contain the created span")
	}
	span.End()

	ended := sr.Ended()
	if len(ended) != 1 {
		t.Fatalf("expected 1 ended span, got %d", len(ended))
	}
	if ended[0].Name() != "TestOperation" {
		t.Errorf("name = %q", ended[0].Name())
	}
}

func TestRecordError(t *testing.T) {
	sr := withRecorder(t)

	_, span := StartSpan(context.Background(), "test.tracer", "Failing")
	RecordError(span, errors.New("boom"), attribute.String("step", "judge"))
	span.End()

	got := sr.Ended()[0]
	if got.Status().Code != codes.Error {
		t.Errorf("status = %v, want Error", got.Status().Code)
	}
	if got.Status().Description != "boom" {
		t.Errorf("description = %q", got.Status().Description)
	}
	if len(got.Events()) != 1 {
		t.Errorf("expected 1 error event, got %d", len(got.Events()))
	}
}

func TestRecordError_NilIsNoop(t *testing.T) {
	RecordError(nil, errors.New("x"))

	sr := withRecorder(t)
	_, span := StartSpan(context.Background(), "test.tracer", "Fine")
	RecordError(span, nil)
	span.End()
	if sr.Ended()[0].Status().Code == codes.Error {
		t.Error("nil error should not set Error status")
	}
}

func TestSetSpanOK(t *testing.T) {
	sr := withRecorder(t)

	_, span := StartSpan(context.Background(), "test.tracer", "Judge")
	SetSpanOK(span)
	span.End()
	SetSpanOK(nil)

	if got := sr.Ended()[0]; got.Status().Code != codes.Ok {
		t.Errorf("status = %v, want Ok", got.Status().Code)
	}
}

func TestEndSpan(t *testing.T) {
	sr := withRecorder(t)

	_, ok := StartSpan(context.Background(), "test.tracer", "Write")
	EndSpan(ok, nil)
	_, failed := StartSpan(context.Background(), "test.tracer", "Generate")
	EndSpan(failed, errors.New("timeout"))
	EndSpan(nil, errors.New("ignored"))

	ended := sr.Ended()
	if len(ended) != 2 {
		t.Fatalf("expected 2 ended spans, got %d", len(ended))
	}
	if ended[0].Status().Code != codes.Ok {
		t.Errorf("first status = %v, want Ok", ended[0].Status().Code)
	}
	if ended[1].Status().Code != codes.Error || ended[1].Status().Description != "timeout" {
		t.Errorf("second status = %+v", ended[1].Status())
	}
}

func TestTraceAttrs(t *testing.T) {
	if attrs := TraceAttrs(context.Background()); attrs != nil {
		t.Errorf("expected nil attrs without a span, got %v", attrs)
	}
	//nolint:staticcheck // nil context is tolerated
	if attrs := TraceAttrs(nil); attrs != nil {
		t.Errorf("expected nil attrs for a nil context, got %v", attrs)
	}

	traceID := trace.TraceID{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09, 0x0a, 0x0b, 0x0c, 0x0d, 0x0e, 0x0f, 0x10}
	spanID := trace.SpanID{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08}
	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	}))

	attrs := TraceAttrs(ctx)
	if len(attrs) != 4 {
		t.Fatalf("expected 4 values, got %v", attrs)
	}
	if attrs[1] != traceID.String() || attrs[3] != spanID.String() {
		t.Errorf("attrs = %v", attrs)
	}
}
