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
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Exporter names accepted by Config.
const (
	ExporterNone   = "none"
	ExporterStdout = "stdout"
	ExporterOTLP   = "otlp"
)

// Config selects where spans and metrics go.
type Config struct {
	// ServiceName and ServiceVersion are reported on the resource.
	ServiceName    string `yaml:"service_name" json:"service_name"`
	ServiceVersion string `yaml:"service_version" json:"service_version"`

	// TraceExporter is "otlp", "stdout" or "none".
	TraceExporter string `yaml:"trace_exporter" json:"trace_exporter"`

	// MetricExporter is "stdout" or "none".
	MetricExporter string `yaml:"metric_exporter" json:"metric_exporter"`

	// OTLPEndpoint is the gRPC collector address for the otlp exporter.
	OTLPEndpoint string `yaml:"otlp_endpoint" json:"otlp_endpoint"`

	// OTLPInsecure disables TLS towards the collector.
	OTLPInsecure bool `yaml:"otlp_insecure" json:"otlp_insecure"`

	// Writer receives stdout exporter output. Nil means os.Stderr so that
	// exported spans never mix with command output.
	Writer io.Writer `yaml:"-" json:"-"`
}

// DefaultConfig returns the CLI defaults: both exporters off, overridable
// through OTEL_TRACES_EXPORTER, OTEL_METRICS_EXPORTER and
// OTEL_EXPORTER_OTLP_ENDPOINT.
func DefaultConfig() Config {
	return Config{
		ServiceName:    "codemedic",
		ServiceVersion: "dev",
		TraceExporter:  envOr("OTEL_TRACES_EXPORTER", ExporterNone),
		MetricExporter: envOr("OTEL_METRICS_EXPORTER", ExporterNone),
		OTLPEndpoint:   envOr("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		OTLPInsecure:   true,
	}
}

// Validate rejects exporter names Init does not know. Empty means none.
func (c Config) Validate() error {
	switch c.traceExporter() {
	case ExporterNone, ExporterStdout, ExporterOTLP:
	default:
		return fmt.Errorf("%w: traces %q", ErrUnknownExporter, c.TraceExporter)
	}
	switch c.metricExporter() {
	case ExporterNone, ExporterStdout:
	default:
		return fmt.Errorf("%w: metrics %q", ErrUnknownExporter, c.MetricExporter)
	}
	return nil
}

func (c Config) traceExporter() string  { return normalizeExporter(c.TraceExporter) }
func (c Config) metricExporter() string { return normalizeExporter(c.MetricExporter) }

func normalizeExporter(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return ExporterNone
	}
	return name
}

// Init installs the global tracer and meter providers described by cfg.
//
// # Description
//
// The config is validated before anything is created, so an unknown
// exporter leaves the globals untouched. Disabled signals keep the OTel
// no-op providers. A CLI run therefore never dials a collector unless an
// exporter was asked for.
//
// # Outputs
//
//   - shutdown: Flushes and stops whatever was installed, in reverse order.
//     Non-nil whenever err is nil.
//   - err: ErrNilContext, ErrUnknownExporter (wrapped) or an exporter
//     construction failure.
//
// # Example
//
//	shutdown, err := telemetry.Init(ctx, telemetry.DefaultConfig())
//	if err != nil {
//	    return fmt.Errorf("init telemetry: %w", err)
//	}
//	defer shutdown(context.Background())
func Init(ctx context.Context, cfg Config) (shutdown func(context.Context) error, err error) {
	if ctx == nil {
		return nil, ErrNilContext
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var stack shutdownStack
	res := resource.NewWithAttributes("",
		attribute.String("service.name", cfg.ServiceName),
		attribute.String("service.version", cfg.ServiceVersion),
	)

	if cfg.traceExporter() != ExporterNone {
		exporter, err := cfg.newSpanExporter(ctx)
		if err != nil {
			return nil, fmt.Errorf("init tracer: %w", err)
		}
		tp := sdktrace.NewTracerProvider(
			sdktrace.WithBatcher(exporter),
			sdktrace.WithResource(res),
		)
		otel.SetTracerProvider(tp)
		stack.push(tp.Shutdown)
	}

	if cfg.metricExporter() != ExporterNone {
		exporter, err := stdoutmetric.New(
			stdoutmetric.WithWriter(cfg.writer()),
			stdoutmetric.WithPrettyPrint(),
		)
		if err != nil {
			_ = stack.shutdown(ctx)
			return nil, fmt.Errorf("init meter: %w", err)
		}
		mp := sdkmetric.NewMeterProvider(
			sdkmetric.WithResource(res),
			sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter)),
		)
		otel.SetMeterProvider(mp)
		stack.push(mp.Shutdown)
	}

	return stack.shutdown, nil
}

func (c Config) newSpanExporter(ctx context.Context) (sdktrace.SpanExporter, error) {
	if c.traceExporter() == ExporterStdout {
		return stdouttrace.New(stdouttrace.WithWriter(c.writer()), stdouttrace.WithPrettyPrint())
	}
	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(c.OTLPEndpoint)}
	if c.OTLPInsecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}
	return otlptracegrpc.New(ctx, opts...)
}

func (c Config) writer() io.Writer {
	if c.Writer != nil {
		return c.Writer
	}
	return os.Stderr
}

// shutdownStack runs provider shutdowns last-in first-out and joins errors.
type shutdownStack []func(context.Context) error

func (s *shutdownStack) push(fn func(context.Context) error) {
	*s = append(*s, fn)
}

func (s *shutdownStack) shutdown(ctx context.Context) error {
	var errs []error
	for i := len(*s) - 1; i >= 0; i-- {
		if err := (*s)[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	*s = nil
	return errors.Join(errs...)
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
