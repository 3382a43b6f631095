// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config loads codemedic's YAML configuration file.
package config

import (
	"time"
)

// CurrentConfigVersion is written to new config files.
const CurrentConfigVersion = "1"

// Defaults applied when a field is empty.
const (
	DefaultBackend        = "openai"
	DefaultLogLevel       = "info"
	DefaultLogDir         = "~/.codemedic/logs"
	DefaultTimeoutSeconds = 120
	DefaultWordWrap       = 80
)

type CodemedicConfig struct {
	// Meta tracks the file format version.
	Meta ConfigMeta `yaml:"meta"`

	// Backend selects the model provider.
	Backend BackendConfig `yaml:"backend"`

	Logging   LoggingConfig   `yaml:"logging"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Output    OutputConfig    `yaml:"output"`
}

type ConfigMeta struct {
	Version string `yaml:"version"`
}

type BackendConfig struct {
	// Type is "openai", "anthropic", "gemini" or "ollama".
	Type string `yaml:"type"`

	// Model overrides the backend's default model.
	Model string `yaml:"model,omitempty"`

	// BaseURL overrides the API endpoint. For ollama it is the server URL.
	BaseURL string `yaml:"base_url,omitempty"`

	// Temperature for generation requests. Nil uses the backend default.
	Temperature *float32 `yaml:"temperature,omitempty"`

	// TimeoutSeconds bounds each model request.
	TimeoutSeconds int `yaml:"timeout_seconds"`
}

// Timeout returns the request timeout, falling back to the default.
func (b BackendConfig) Timeout() time.Duration {
	if b.TimeoutSeconds <= 0 {
		return DefaultTimeoutSeconds * time.Second
	}
	return time.Duration(b.TimeoutSeconds) * time.Second
}

type LoggingConfig struct {
	// Level is debug, info, warn or error.
	Level string `yaml:"level"`

	// Dir receives JSON log files. Empty disables file logging.
	Dir string `yaml:"dir"`

	// JSON switches stderr logs (shown with --verbose) to JSON.
	JSON bool `yaml:"json"`
}

type TelemetryConfig struct {
	// TraceExporter is "none", "stdout" or "otlp".
	TraceExporter string `yaml:"trace_exporter"`

	// MetricExporter is "none" or "stdout".
	MetricExporter string `yaml:"metric_exporter"`

	OTLPEndpoint string `yaml:"otlp_endpoint,omitempty"`
}

type OutputConfig struct {
	// Personality is full, standard, minimal or machine. Empty auto-detects.
	Personality string `yaml:"personality,omitempty"`

	// WordWrap is the column width for rendered explanations.
	WordWrap int `yaml:"word_wrap"`

	// ShowDiff prints a diff preview after edit and fix.
	ShowDiff bool `yaml:"show_diff"`
}

// DefaultConfig returns the configuration written on first run.
func DefaultConfig() CodemedicConfig {
	return CodemedicConfig{
		Meta: ConfigMeta{Version: CurrentConfigVersion},
		Backend: BackendConfig{
			Type:           DefaultBackend,
			TimeoutSeconds: DefaultTimeoutSeconds,
		},
		Logging: LoggingConfig{
			Level: DefaultLogLevel,
			Dir:   DefaultLogDir,
		},
		Telemetry: TelemetryConfig{
			TraceExporter:  "none",
			MetricExporter: "none",
		},
		Output: OutputConfig{
			WordWrap: DefaultWordWrap,
			ShowDiff: true,
		},
	}
}
