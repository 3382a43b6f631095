// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package llm

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/AleutianAI/codemedic/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/genai"
)

// GeminiClient calls the Gemini API through google.golang.org/genai.
type GeminiClient struct {
	client *genai.Client
	model  string
}

func NewGeminiClient(ctx context.Context, cfg BackendConfig, apiKey string) (*GeminiClient, error) {
	model := cfg.Model
	if model == "" {
		model = DefaultModel(BackendGemini)
		slog.Warn("Gemini model not set, defaulting", "model", model)
	}

	clientConfig := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	if cfg.Timeout > 0 {
		clientConfig.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	slog.Info("Initializing Gemini client", "model", model)
	return &GeminiClient{client: client, model: model}, nil
}

// Generate implements the LLMClient interface
func (g *GeminiClient) Generate(ctx context.Context, prompt string, params GenerationParams) (string, error) {
	ctx, span := telemetry.StartSpan(ctx, tracerName, "GeminiClient.Generate",
		trace.WithAttributes(attribute.String("llm.model", g.model)),
	)
	defer span.End()

	config := &genai.GenerateContentConfig{
		Temperature:   params.Temperature,
		TopP:          params.TopP,
		StopSequences: params.Stop,
	}
	if params.TopK != nil {
		config.TopK = genai.Ptr(float32(*params.TopK))
	}
	if params.MaxTokens != nil {
		config.MaxOutputTokens = int32(*params.MaxTokens)
	}
	if params.System != "" {
		config.SystemInstruction = genai.NewContentFromText(params.System, genai.RoleUser)
	}
	if params.Schema != nil {
		raw, err := params.Schema.JSON()
		if err != nil {
			telemetry.RecordError(span, err)
			return "", fmt.Errorf("marshal schema %s: %w", params.Schema.Name, err)
		}
		config.ResponseMIMEType = "application/json"
		config.ResponseJsonSchema = raw
		span.SetAttributes(attribute.String("llm.schema", params.Schema.Name))
	}

	slog.Debug("Generating text via Gemini", "model", g.model)
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), config)
	if err != nil {
		telemetry.RecordError(span, err)
		slog.Error("Gemini API call failed", "error", err)
		return "", fmt.Errorf("Gemini API call failed: %w", err)
	}

	text := resp.Text()
	if text == "" {
		err := fmt.Errorf("Gemini returned no text")
		telemetry.RecordError(span, err)
		return "", err
	}
	return text, nil
}
