// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package telemetry wires OpenTelemetry into codemedic.
//
// Every model request and every generate/judge step runs inside a span,
// and the loop counts attempts, verdicts and rejected fields. Nothing is
// exported by default: Init keeps the OTel no-op providers unless an
// exporter is configured, so a normal run never dials a collector.
//
// Exporters, chosen in ~/.codemedic/config.yaml or through the standard
// OTEL_TRACES_EXPORTER / OTEL_METRICS_EXPORTER variables:
//
//	traces   otlp (gRPC, OTEL_EXPORTER_OTLP_ENDPOINT), stdout, none
//	metrics  stdout, none
//
// stdout exporters write to stderr so that --json output stays parseable.
//
//	shutdown, err := telemetry.Init(ctx, cfg)
//	if err != nil {
//	    return fmt.Errorf("init telemetry: %w", err)
//	}
//	defer shutdown(context.Background())
//
//	ctx, span := telemetry.StartSpan(ctx, "codemedic.workflow", "Runner.Run")
//	defer span.End()
package telemetry
