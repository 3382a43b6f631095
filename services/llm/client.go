// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package llm holds the model backends codemedic can talk to. Every backend
// implements LLMClient and honours GenerationParams.Schema as well as its
// API allows: native JSON-schema output for OpenAI, Gemini and Ollama, a
// system-prompt instruction for Anthropic.
package llm

import (
	"context"
	"encoding/json"

	"github.com/sashabaranov/go-openai/jsonschema"
)

const tracerName = "codemedic.llm"

type GenerationParams struct {
	Temperature *float32 `json:"temperature"`
	TopK        *int     `json:"top_k"`
	TopP        *float32 `json:"top_p"`
	MaxTokens   *int     `json:"max_tokens"`
	Stop        []string `json:"stop"`

	// System is sent as the system prompt when non-empty.
	System string `json:"system,omitempty"`

	// Schema constrains the response to a JSON object of this shape.
	Schema *ResponseSchema `json:"schema,omitempty"`
}

// ResponseSchema names a JSON schema for structured output.
type ResponseSchema struct {
	Name        string                `json:"name"`
	Description string                `json:"description,omitempty"`
	Definition  jsonschema.Definition `json:"definition"`
}

// JSON returns the schema definition as raw JSON.
func (s *ResponseSchema) JSON() (json.RawMessage, error) {
	return json.Marshal(s.Definition)
}

// LLMClient defines the standard interface for any LLM backend
type LLMClient interface {
	Generate(ctx context.Context, prompt string, params GenerationParams) (string, error)
}

// Float32 returns a pointer to v, for GenerationParams fields.
func Float32(v float32) *float32 { return &v }

// Int returns a pointer to v, for GenerationParams fields.
func Int(v int) *int { return &v }
