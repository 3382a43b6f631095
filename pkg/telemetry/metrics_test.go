// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package telemetry

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestNewMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer mp.Shutdown(context.Background())

	m, err := NewMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatalf("NewMetrics() error = %v", err)
	}

	if m.GenerationsTotal == nil || m.VerdictsTotal == nil || m.ValidationFailuresTotal == nil {
		t.Error("counters should be registered")
	}
	if m.ModelCallDuration == nil || m.RunDuration == nil || m.ErrorsTotal == nil {
		t.Error("histograms and error counter should be registered")
	}
}

func TestMetrics_RecordsValues(t *testing.T) {
	ctx := context.Background()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer mp.Shutdown(ctx)

	m, err := NewMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatalf("NewMetrics() error = %v", err)
	}

	attrs := metric.WithAttributes(attribute.String("kind", "fix"))
	m.GenerationsTotal.Add(ctx, 1, attrs)
	m.GenerationsTotal.Add(ctx, 1, attrs)
	m.RecordError(ctx, "llm")

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		t.Fatalf("Collect() error = %v", err)
	}

	if got := sumOf(rm, "codemedic_generations_total"); got != 2 {
		t.Errorf("generations_total = %d, want 2", got)
	}
	if got := sumOf(rm, "codemedic_errors_total"); got != 1 {
		t.Errorf("errors_total = %d, want 1", got)
	}
}

func TestMetrics_RecordErrorNilReceiver(t *testing.T) {
	var m *Metrics
	m.RecordError(context.Background(), "llm")
}

func TestDefaultMetrics(t *testing.T) {
	if DefaultMetrics() == nil {
		t.Fatal("DefaultMetrics() returned nil")
	}
}

// sumOf totals all int64 sum data points for the named metric.
func sumOf(rm metricdata.ResourceMetrics, name string) int64 {
	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			if sum, ok := m.Data.(metricdata.Sum[int64]); ok {
				for _, dp := range sum.DataPoints {
					total += dp.Value
				}
			}
		}
	}
	return total
}
