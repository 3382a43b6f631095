// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.


package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/AleutianAI/codemedic/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// OllamaClient calls a local Ollama server's /api/generate endpoint.
type OllamaClient struct {
	api   restEndpoint
	model string
}

type ollamaRequest struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	System  string          `json:"system,omitempty"`
	Format  json.RawMessage `json:"format,omitempty"`
	Stream  bool            `json:"stream"`
	Options ollamaOptions   `json:"options"`
}

type ollamaOptions struct {
	Temperature float32  `json:"temperature"`
	TopK        int      `json:"top_k"`
	TopP        float32  `json:"top_p"`
	NumPredict  int      `json:"num_predict"`
	Stop        []string `json:"stop,omitempty"`
}

type ollamaReply struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// NewOllamaClient needs only a base URL; Ollama has no API key.
func NewOllamaClient(cfg BackendConfig) (*OllamaClient, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("%w: set OLLAMA_BASE_URL or backend.base_url", ErrMissingCredential)
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel(BackendOllama)
		slog.Warn("Ollama model not set, defaulting", "model", model)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		// Local models can be slow to load on first use.
		timeout = 5 * time.Minute
	}
	url := strings.TrimSuffix(cfg.BaseURL, "/") + "/api/generate"
	slog.Info("Initializing Ollama client", "url", url, "model", model)
	return &OllamaClient{api: newRESTEndpoint(url, timeout, nil), model: model}, nil
}

// Generate sends one non-streaming completion request. A schema is passed
// through as Ollama's "format" so the server constrains decoding.
func (o *OllamaClient) Generate(ctx context.Context, prompt string, params GenerationParams) (text string, err error) {
	ctx, span := telemetry.StartSpan(ctx, tracerName, "OllamaClient.Generate",
		trace.WithAttributes(attribute.String("llm.model", o.model)),
	)
	defer func() { telemetry.EndSpan(span, err) }()

	req := ollamaRequest{
		Model:   o.model,
		Prompt:  prompt,
		System:  params.System,
		Options: ollamaOptionsFor(params),
	}
	if params.Schema != nil {
		if req.Format, err = params.Schema.JSON(); err != nil {
			return "", fmt.Errorf("marshal schema %s: %w", params.Schema.Name, err)
		}
	}

	var reply ollamaReply
	if err = o.api.post(ctx, "ollama", req, &reply); err != nil {
		return "", o.explain(err)
	}
	slog.Debug("Received response from Ollama", "done", reply.Done, "bytes", len(reply.Response))
	return reply.Response, nil
}

// explain adds a pull hint when the server does not have the model.
func (o *OllamaClient) explain(err error) error {
	var se *StatusError
	if !errors.As(err, &se) || se.Status != http.StatusNotFound {
		return err
	}
	var body struct {
		Error string `json:"error"`
	}
	if json.Unmarshal([]byte(se.Body), &body) == nil &&
		strings.Contains(body.Error, "model") && strings.Contains(body.Error, "not found") {
		return fmt.Errorf("model %q is not available: run 'ollama pull %s'", o.model, o.model)
	}
	return err
}

// ollamaOptionsFor fills sampling options, defaulting what the caller left
// unset.
func ollamaOptionsFor(params GenerationParams) ollamaOptions {
	opts := ollamaOptions{Temperature: 0.2, TopK: 20, TopP: 0.9, NumPredict: 8192, Stop: params.Stop}
	if params.Temperature != nil {
		opts.Temperature = *params.Temperature
	}
	if params.TopK != nil {
		opts.TopK = *params.TopK
	}
	if params.TopP != nil {
		opts.TopP = *params.TopP
	}
	if params.MaxTokens != nil {
		opts.NumPredict = *params.MaxTokens
	}
	return opts
}
