// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

var (
	// Global is a singleton instance, populated by Load.
	Global CodemedicConfig

	// GlobalPath is the file Global was read from.
	GlobalPath string

	once    sync.Once
	loadErr error
)

// Load ensures the default config file is loaded into Global. Later calls
// return the first result.
func Load() error {
	once.Do(func() {
		var path string
		path, loadErr = DefaultPath()
		if loadErr != nil {
			return
		}
		Global, loadErr = LoadFrom(path)
		GlobalPath = path
	})
	return loadErr
}

// DefaultPath returns ~/.codemedic/config.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not find the user's home directory: %w", err)
	}
	return filepath.Join(home, ".codemedic", "config.yaml"), nil
}

// LoadFrom reads the config at path, creating it with defaults when it does
// not exist, then applies CODEMEDIC_* environment overrides.
//
// # Inputs
//
//   - path: Config file location.
//
// # Outputs
//
//   - CodemedicConfig: Loaded configuration with defaults filled in.
//   - error: Non-nil if the file cannot be created, read or parsed.
func LoadFrom(path string) (CodemedicConfig, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := createDefault(path); err != nil {
			return CodemedicConfig{}, err
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return CodemedicConfig{}, fmt.Errorf("failed to read the config file %s: %w", path, err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return CodemedicConfig{}, fmt.Errorf("failed to parse the config file %s: %w", path, err)
	}

	applyEnv(&cfg)
	fillDefaults(&cfg)
	return cfg, nil
}

func createDefault(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create the config directory %w", err)
	}
	data, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// applyEnv overlays environment variables onto cfg.
func applyEnv(cfg *CodemedicConfig) {
	overrides := []struct {
		env    string
		target *string
	}{
		{"CODEMEDIC_BACKEND", &cfg.Backend.Type},
		{"CODEMEDIC_MODEL", &cfg.Backend.Model},
		{"CODEMEDIC_BASE_URL", &cfg.Backend.BaseURL},
		{"CODEMEDIC_PERSONALITY", &cfg.Output.Personality},
		{"CODEMEDIC_LOG_DIR", &cfg.Logging.Dir},
		{"CODEMEDIC_LOG_LEVEL", &cfg.Logging.Level},
		{"OTEL_TRACES_EXPORTER", &cfg.Telemetry.TraceExporter},
		{"OTEL_METRICS_EXPORTER", &cfg.Telemetry.MetricExporter},
		{"OTEL_EXPORTER_OTLP_ENDPOINT", &cfg.Telemetry.OTLPEndpoint},
	}
	for _, o := range overrides {
		if v := strings.TrimSpace(os.Getenv(o.env)); v != "" {
			*o.target = v
		}
	}
}

// fillDefaults replaces empty values left by a sparse file.
func fillDefaults(cfg *CodemedicConfig) {
	cfg.Backend.Type = strings.ToLower(strings.TrimSpace(cfg.Backend.Type))
	if cfg.Backend.Type == "" {
		cfg.Backend.Type = DefaultBackend
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = DefaultLogLevel
	}
	if cfg.Output.WordWrap <= 0 {
		cfg.Output.WordWrap = DefaultWordWrap
	}
	if cfg.Meta.Version == "" {
		cfg.Meta.Version = CurrentConfigVersion
	}
}
