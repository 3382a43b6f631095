// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/AleutianAI/codemedic/cmd/codemedic/config"
	"github.com/AleutianAI/codemedic/pkg/logging"
	"github.com/AleutianAI/codemedic/pkg/telemetry"
	"github.com/AleutianAI/codemedic/pkg/ux"
	"github.com/AleutianAI/codemedic/services/llm"
)

// appEnv is the per-invocation environment: configuration, logger and
// telemetry, resolved from flags, env and the config file.
type appEnv struct {
	cfg        config.CodemedicConfig
	configPath string
	logger     *logging.Logger
	metrics    *telemetry.Metrics
	shutdown   func(context.Context) error
}

// setup loads configuration and starts logging and telemetry.
//
// # Outputs
//
//   - *appEnv: Always closed by the caller via close().
//   - error: Config load or telemetry init failure.
func (c *cli) setup(ctx context.Context) (*appEnv, error) {
	cfg, path, err := c.loadConfig()
	if err != nil {
		return nil, err
	}

	level := logging.ParseLevel(cfg.Logging.Level)
	if c.global.verbose {
		level = logging.LevelDebug
	}
	logger := logging.New(logging.Config{
		Level:   level,
		LogDir:  cfg.Logging.Dir,
		Service: "codemedic",
		JSON:    cfg.Logging.JSON,
		Quiet:   !c.global.verbose,
	})
	// The llm package logs through slog's default logger.
	slog.SetDefault(logger.Slog())

	tcfg := telemetry.DefaultConfig()
	tcfg.ServiceVersion = version
	if cfg.Telemetry.TraceExporter != "" {
		tcfg.TraceExporter = cfg.Telemetry.TraceExporter
	}
	if cfg.Telemetry.MetricExporter != "" {
		tcfg.MetricExporter = cfg.Telemetry.MetricExporter
	}
	if cfg.Telemetry.OTLPEndpoint != "" {
		tcfg.OTLPEndpoint = cfg.Telemetry.OTLPEndpoint
	}
	shutdown, err := telemetry.Init(ctx, tcfg)
	if err != nil {
		_ = logger.Close()
		return nil, fmt.Errorf("init telemetry: %w", err)
	}

	metrics, err := telemetry.NewMetrics(otel.Meter("codemedic"))
	if err != nil {
		logger.Warn("metrics disabled", "error", err)
		metrics = nil
	}

	p := ux.GetPersonality()
	p.WordWrap = cfg.Output.WordWrap
	p.ShowDiff = cfg.Output.ShowDiff
	ux.SetPersonality(p)

	logger.Debug("configuration loaded", "path", path, "backend", cfg.Backend.Type)
	return &appEnv{
		cfg:        cfg,
		configPath: path,
		logger:     logger,
		metrics:    metrics,
		shutdown:   shutdown,
	}, nil
}

func (c *cli) loadConfig() (config.CodemedicConfig, string, error) {
	var (
		cfg  config.CodemedicConfig
		path = c.global.configPath
		err  error
	)
	if path != "" {
		cfg, err = config.LoadFrom(path)
	} else {
		err = config.Load()
		cfg, path = config.Global, config.GlobalPath
	}
	if err != nil {
		return cfg, path, fmt.Errorf("load config: %w", err)
	}

	if c.global.backend != "" {
		cfg.Backend.Type = c.global.backend
	}
	if c.global.model != "" {
		cfg.Backend.Model = c.global.model
	}
	if c.global.personality == "" && cfg.Output.Personality != "" && !c.global.json {
		ux.InitPersonality(cfg.Output.Personality)
	}
	return cfg, path, nil
}

// backendConfig translates the config section for llm.NewClient.
func (e *appEnv) backendConfig() llm.BackendConfig {
	return llm.BackendConfig{
		Type:    e.cfg.Backend.Type,
		Model:   e.cfg.Backend.Model,
		BaseURL: e.cfg.Backend.BaseURL,
		Timeout: e.cfg.Backend.Timeout(),
	}
}

// modelName is the configured model or the backend default.
func (e *appEnv) modelName() string {
	if e.cfg.Backend.Model != "" {
		return e.cfg.Backend.Model
	}
	return llm.DefaultModel(e.cfg.Backend.Type)
}

func (e *appEnv) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := e.shutdown(ctx); err != nil {
		e.logger.Warn("telemetry shutdown failed", "error", err)
	}
	_ = e.logger.Close()
}
