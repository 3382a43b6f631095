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
	"math"
	"net/http"

	"github.com/AleutianAI/codemedic/pkg/telemetry"
	"github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type OpenAIClient struct {
	client *openai.Client
	model  string
}

func NewOpenAIClient(cfg BackendConfig, apiKey string) *OpenAIClient {
	model := cfg.Model
	if model == "" {
		model = DefaultModel(BackendOpenAI)
		slog.Warn("OpenAI model not set, defaulting", "model", model)
	}

	config := openai.DefaultConfig(apiKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}
	if cfg.Timeout > 0 {
		config.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}

	slog.Info("Initializing OpenAI client", "model", model)
	return &OpenAIClient{
		client: openai.NewClientWithConfig(config),
		model:  model,
	}
}

// Generate implements the LLMClient interface
func (o *OpenAIClient) Generate(ctx context.Context, prompt string, params GenerationParams) (string, error) {
	ctx, span := telemetry.StartSpan(ctx, tracerName, "OpenAIClient.Generate",
		trace.WithAttributes(attribute.String("llm.model", o.model)),
	)
	defer span.End()

	slog.Debug("Generating text via OpenAI", "model", o.model)

	var messages []openai.ChatCompletionMessage
	if params.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: params.System})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: prompt})

	req := openai.ChatCompletionRequest{
		Model:    o.model,
		Messages: messages,
	}
	if params.Temperature != nil {
		req.Temperature = openAITemperature(*params.Temperature)
	}
	if params.MaxTokens != nil {
		req.MaxCompletionTokens = *params.MaxTokens
	}
	if params.TopP != nil {
		req.TopP = *params.TopP
	}
	if len(params.Stop) > 0 {
		req.Stop = params.Stop
	}
	if params.Schema != nil {
		definition := params.Schema.Definition
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:        params.Schema.Name,
				Description: params.Schema.Description,
				Schema:      &definition,
				Strict:      true,
			},
		}
		span.SetAttributes(attribute.String("llm.schema", params.Schema.Name))
	}

	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		telemetry.RecordError(span, err)
		slog.Error("OpenAI API call failed", "error", err)
		return "", fmt.Errorf("OpenAI API call failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		err := fmt.Errorf("OpenAI returned no choices")
		telemetry.RecordError(span, err)
		return "", err
	}
	choice := resp.Choices[0]
	if choice.Message.Refusal != "" {
		err := fmt.Errorf("OpenAI refused the request: %s", choice.Message.Refusal)
		telemetry.RecordError(span, err)
		return "", err
	}

	span.SetAttributes(
		attribute.String("llm.finish_reason", string(choice.FinishReason)),
		attribute.Int("llm.total_tokens", resp.Usage.TotalTokens),
	)
	slog.Debug("Received response from OpenAI", "finish_reason", choice.FinishReason)
	return choice.Message.Content, nil
}

// openAITemperature keeps an explicit 0 on the wire. go-openai drops a zero
// Temperature (omitempty) and the API then samples at 1.0.
func openAITemperature(t float32) float32 {
	if t == 0 {
		return math.SmallestNonzeroFloat32
	}
	return t
}
