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
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// Metrics contains the pre-defined instruments for a codemedic run.
//
// Description:
//
//	Counters and histograms for the generate/judge loop and the model
//	calls behind it. All metrics use the "codemedic_" prefix.
//
// Thread Safety: Safe for concurrent use after creation.
type Metrics struct {
	// GenerationsTotal counts generation attempts by kind and outcome
	// (valid, malformed, syntax_error).
	GenerationsTotal metric.Int64Counter

	// VerdictsTotal counts judge verdicts by kind and pass.
	VerdictsTotal metric.Int64Counter

	// ValidationFailuresTotal counts rejected payload fields by rule.
	ValidationFailuresTotal metric.Int64Counter

	// ModelCallDuration records model round-trip duration in seconds.
	ModelCallDuration metric.Float64Histogram

	// RunDuration records whole-run duration in seconds by kind and outcome.
	RunDuration metric.Float64Histogram

	// ErrorsTotal counts errors by component.
	ErrorsTotal metric.Int64Counter
}

// NewMetrics creates a new Metrics instance with all instruments registered.
//
// # Inputs
//
//   - meter: The OTel meter to use for registration.
//
// # Outputs
//
//   - *Metrics: The registered instruments.
//   - error: Non-nil if any registration fails.
//
// # Example
//
//	metrics, err := telemetry.NewMetrics(otel.Meter("codemedic.workflow"))
//	if err != nil {
//	    return fmt.Errorf("create metrics: %w", err)
//	}
//	metrics.GenerationsTotal.Add(ctx, 1, ...)
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	var err error

	m.GenerationsTotal, err = meter.Int64Counter(
		"codemedic_generations_total",
		metric.WithDescription("Total generation attempts"),
		metric.WithUnit("{attempt}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create generations_total: %w", err)
	}

	m.VerdictsTotal, err = meter.Int64Counter(
		"codemedic_verdicts_total",
		metric.WithDescription("Total judge verdicts"),
		metric.WithUnit("{verdict}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create verdicts_total: %w", err)
	}

	m.ValidationFailuresTotal, err = meter.Int64Counter(
		"codemedic_validation_failures_total",
		metric.WithDescription("Structured response fields rejected by validation"),
		metric.WithUnit("{field}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create validation_failures_total: %w", err)
	}

	m.ModelCallDuration, err = meter.Float64Histogram(
		"codemedic_model_call_duration_seconds",
		metric.WithDescription("Model call duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.25, 0.5, 1, 2, 5, 10, 20, 30, 60, 120),
	)
	if err != nil {
		return nil, fmt.Errorf("create model_call_duration: %w", err)
	}

	m.RunDuration, err = meter.Float64Histogram(
		"codemedic_run_duration_seconds",
		metric.WithDescription("Whole workflow run duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(1, 5, 10, 30, 60, 120, 300, 600),
	)
	if err != nil {
		return nil, fmt.Errorf("create run_duration: %w", err)
	}

	m.ErrorsTotal, err = meter.Int64Counter(
		"codemedic_errors_total",
		metric.WithDescription("Total errors by component"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create errors_total: %w", err)
	}

	return m, nil
}

// DefaultMetrics registers Metrics on the global meter provider, falling
// back to no-op instruments if registration fails.
func DefaultMetrics() *Metrics {
	m, err := NewMetrics(otel.Meter("codemedic"))
	if err != nil {
		m, _ = NewMetrics(noop.NewMeterProvider().Meter("codemedic"))
	}
	return m
}

// RecordError increments ErrorsTotal for a component. Nil receivers are
// ignored so callers may hold an optional *Metrics.
func (m *Metrics) RecordError(ctx context.Context, component string) {
	if m == nil {
		return
	}
	m.ErrorsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("component", component)))
}
