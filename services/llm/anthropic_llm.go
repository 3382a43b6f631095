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
	"strings"
	"time"

	"github.com/AleutianAI/codemedic/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	anthropicAPIVersion = "2023-06-01"
	anthropicBaseURL    = "https://api.anthropic.com"
	anthropicMaxTokens  = 4096

	// System prompts longer than this are marked for prompt caching; the
	// judge and generator prompts repeat verbatim across attempts.
	anthropicCacheMinChars = 1024
)

// AnthropicClient talks to the Messages API over plain HTTP.
//
// The Messages API has no response-format switch, so a requested schema is
// appended to the system prompt and the caller validates what comes back.
type AnthropicClient struct {
	api   restEndpoint
	model string
}

type messagesRequest struct {
	Model         string          `json:"model"`
	System        []messagesBlock `json:"system,omitempty"`
	Messages      []messagesTurn  `json:"messages"`
	MaxTokens     int             `json:"max_tokens"`
	Temperature   *float32        `json:"temperature,omitempty"`
	TopP          *float32        `json:"top_p,omitempty"`
	TopK          *int            `json:"top_k,omitempty"`
	StopSequences []string        `json:"stop_sequences,omitempty"`
}

type messagesTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesBlock struct {
	Type         string            `json:"type"`
	Text         string            `json:"text"`
	CacheControl map[string]string `json:"cache_control,omitempty"`
}

type messagesReply struct {
	Content    []messagesBlock `json:"content"`
	StopReason string          `json:"stop_reason"`
	Error      *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func NewAnthropicClient(cfg BackendConfig, apiKey string) *AnthropicClient {
	model := cfg.Model
	if model == "" {
		model = DefaultModel(BackendAnthropic)
		slog.Info("Anthropic model not set, defaulting", "model", model)
	}
	base := anthropicBaseURL
	if cfg.BaseURL != "" {
		base = strings.TrimSuffix(cfg.BaseURL, "/")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	headers := map[string]string{
		"x-api-key":         apiKey,
		"anthropic-version": anthropicAPIVersion,
	}
	return &AnthropicClient{api: newRESTEndpoint(base+"/v1/messages", timeout, headers), model: model}
}

// Generate sends a single user turn and joins the text blocks of the reply.
func (a *AnthropicClient) Generate(ctx context.Context, prompt string, params GenerationParams) (text string, err error) {
	ctx, span := telemetry.StartSpan(ctx, tracerName, "AnthropicClient.Generate",
		trace.WithAttributes(attribute.String("llm.model", a.model)),
	)
	defer func() { telemetry.EndSpan(span, err) }()

	system, err := anthropicSystemPrompt(params)
	if err != nil {
		return "", err
	}
	req := messagesRequest{
		Model:         a.model,
		Messages:      []messagesTurn{{Role: "user", Content: prompt}},
		MaxTokens:     anthropicMaxTokens,
		Temperature:   params.Temperature,
		TopP:          params.TopP,
		TopK:          params.TopK,
		StopSequences: params.Stop,
	}
	if params.MaxTokens != nil {
		req.MaxTokens = *params.MaxTokens
	}
	if system != "" {
		block := messagesBlock{Type: "text", Text: system}
		if len(system) > anthropicCacheMinChars {
			block.CacheControl = map[string]string{"type": "ephemeral"}
		}
		req.System = []messagesBlock{block}
	}

	slog.Debug("Sending request to Anthropic", "model", a.model, "prompt_bytes", len(prompt))
	var reply messagesReply
	if err = a.api.post(ctx, "anthropic", req, &reply); err != nil {
		return "", err
	}
	if reply.Error != nil {
		return "", fmt.Errorf("anthropic error %s: %s", reply.Error.Type, reply.Error.Message)
	}

	var b strings.Builder
	for _, block := range reply.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("anthropic reply had no text (stop_reason %q)", reply.StopReason)
	}
	span.SetAttributes(attribute.String("llm.stop_reason", reply.StopReason))
	return b.String(), nil
}

// anthropicSystemPrompt merges the caller's system prompt with a JSON-only
// instruction carrying the schema.
func anthropicSystemPrompt(params GenerationParams) (string, error) {
	if params.Schema == nil {
		return params.System, nil
	}
	raw, err := params.Schema.JSON()
	if err != nil {
		return "", fmt.Errorf("marshal schema %s: %w", params.Schema.Name, err)
	}

	var b strings.Builder
	if params.System != "" {
		b.WriteString(params.System)
		b.WriteString("\n\n")
	}
	b.WriteString("Respond with a single JSON object and nothing else. It must validate against this JSON schema:\n")
	b.Write(raw)
	return b.String(), nil
}
