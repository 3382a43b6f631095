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
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sashabaranov/go-openai/jsonschema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Fixtures
// =============================================================================

func verdictSchema() *ResponseSchema {
	return &ResponseSchema{
		Name: "verdict",
		Definition: jsonschema.Definition{
			Type: jsonschema.Object,
			Properties: map[string]jsonschema.Definition{
				"pass":     {Type: jsonschema.Boolean},
				"feedback": {Type: jsonschema.String},
			},
			Required:             []string{"pass", "feedback"},
			AdditionalProperties: false,
		},
	}
}

// decodeBody reads a JSON request body into a generic map.
func decodeBody(t *testing.T, r *http.Request) map[string]any {
	t.Helper()
	raw, err := io.ReadAll(r.Body)
	require.NoError(t, err)
	var body map[string]any
	require.NoError(t, json.Unmarshal(raw, &body))
	return body
}

// =============================================================================
// OpenAI
// =============================================================================

func TestOpenAIClient_Generate_SendsSchema(t *testing.T) {
	var got map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		got = decodeBody(t, r)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"choices": [{"index": 0, "finish_reason": "stop",
				"message": {"role": "assistant", "content": "{\"pass\":true,\"feedback\":\"ok\"}"}}],
			"usage": {"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15}
		}`))
	}))
	defer server.Close()

	client := NewOpenAIClient(BackendConfig{Model: "gpt-test", BaseURL: server.URL + "/v1", Timeout: 5 * time.Second}, "sk-test")
	out, err := client.Generate(context.Background(), "judge this", GenerationParams{
		System:      "You are a strict reviewer.",
		Temperature: Float32(0.1),
		Schema:      verdictSchema(),
	})
	require.NoError(t, err)
	assert.Equal(t, `{"pass":true,"feedback":"ok"}`, out)

	assert.Equal(t, "gpt-test", got["model"])
	messages := got["messages"].([]any)
	require.Len(t, messages, 2)
	assert.Equal(t, "system", messages[0].(map[string]any)["role"])
	assert.Equal(t, "judge this", messages[1].(map[string]any)["content"])

	format := got["response_format"].(map[string]any)
	assert.Equal(t, "json_schema", format["type"])
	schema := format["json_schema"].(map[string]any)
	assert.Equal(t, "verdict", schema["name"])
	assert.Equal(t, true, schema["strict"])
}

func TestOpenAIClient_Generate_SendsZeroTemperature(t *testing.T) {
	var got map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = decodeBody(t, r)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"chatcmpl-1","object":"chat.completion",
			"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"ok"}}]}`))
	}))
	defer server.Close()

	client := NewOpenAIClient(BackendConfig{BaseURL: server.URL + "/v1"}, "sk-test")
	_, err := client.Generate(context.Background(), "p", GenerationParams{Temperature: Float32(0)})
	require.NoError(t, err)

	require.Contains(t, got, "temperature")
	temp, ok := got["temperature"].(float64)
	require.True(t, ok)
	assert.InDelta(t, 0, temp, 1e-9)
}

func TestOpenAIClient_Generate_OmitsUnsetTemperature(t *testing.T) {
	var got map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = decodeBody(t, r)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"chatcmpl-1","object":"chat.completion",
			"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"ok"}}]}`))
	}))
	defer server.Close()

	client := NewOpenAIClient(BackendConfig{BaseURL: server.URL + "/v1"}, "sk-test")
	_, err := client.Generate(context.Background(), "p", GenerationParams{})
	require.NoError(t, err)
	assert.NotContains(t, got, "temperature")
}

func TestOpenAIClient_Generate_NoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": "x", "choices": []}`))
	}))
	defer server.Close()

	client := NewOpenAIClient(BackendConfig{BaseURL: server.URL + "/v1"}, "sk-test")
	_, err := client.Generate(context.Background(), "hi", GenerationParams{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no choices")
}

func TestOpenAIClient_Generate_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error": {"message": "bad key", "type": "invalid_request_error"}}`))
	}))
	defer server.Close()

	client := NewOpenAIClient(BackendConfig{BaseURL: server.URL + "/v1"}, "sk-test")
	_, err := client.Generate(context.Background(), "hi", GenerationParams{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OpenAI API call failed")
}

// =============================================================================
// Anthropic
// =============================================================================

func TestAnthropicClient_Generate(t *testing.T) {
	var got map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "sk-ant", r.Header.Get("x-api-key"))
		assert.Equal(t, anthropicAPIVersion, r.Header.Get("anthropic-version"))
		got = decodeBody(t, r)

		_, _ = w.Write([]byte(`{
			"id": "msg_1", "type": "message", "role": "assistant", "stop_reason": "end_turn",
			"content": [{"type": "text", "text": "{\"pass\":false,"}, {"type": "text", "text": "\"feedback\":\"no\"}"}]
		}`))
	}))
	defer server.Close()

	client := NewAnthropicClient(BackendConfig{BaseURL: server.URL + "/"}, "sk-ant")
	out, err := client.Generate(context.Background(), "judge this", GenerationParams{
		System:    "Be strict.",
		MaxTokens: Int(1024),
		Schema:    verdictSchema(),
	})
	require.NoError(t, err)
	assert.Equal(t, `{"pass":false,"feedback":"no"}`, out)

	assert.Equal(t, DefaultModel(BackendAnthropic), got["model"])
	assert.EqualValues(t, 1024, got["max_tokens"])
	system := got["system"].([]any)
	require.Len(t, system, 1)
	text := system[0].(map[string]any)["text"].(string)
	assert.True(t, strings.HasPrefix(text, "Be strict."))
	assert.Contains(t, text, `"feedback"`)
}

func TestAnthropicClient_Generate_StatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"rate_limit_error","message":"slow down"}}`))
	}))
	defer server.Close()

	client := NewAnthropicClient(BackendConfig{BaseURL: server.URL}, "sk-ant")
	_, err := client.Generate(context.Background(), "hi", GenerationParams{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 429")
}

func TestAnthropicClient_Generate_EmptyContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":"msg_1","type":"message","content":[]}`))
	}))
	defer server.Close()

	client := NewAnthropicClient(BackendConfig{BaseURL: server.URL}, "sk-ant")
	_, err := client.Generate(context.Background(), "hi", GenerationParams{})
	require.Error(t, err)
}

func TestAnthropicSystemPrompt_NoSchema(t *testing.T) {
	prompt, err := anthropicSystemPrompt(GenerationParams{System: "plain"})
	require.NoError(t, err)
	assert.Equal(t, "plain", prompt)
}

// =============================================================================
// Ollama
// =============================================================================

func TestOllamaClient_Generate_SendsFormat(t *testing.T) {
	var got map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		got = decodeBody(t, r)
		_, _ = w.Write([]byte(`{"model":"llama3","response":"{\"pass\":true,\"feedback\":\"fine\"}","done":true}`))
	}))
	defer server.Close()

	client, err := NewOllamaClient(BackendConfig{BaseURL: server.URL + "/", Model: "llama3"})
	require.NoError(t, err)

	out, err := client.Generate(context.Background(), "judge", GenerationParams{
		System: "reviewer",
		TopK:   Int(5),
		Stop:   []string{"END"},
		Schema: verdictSchema(),
	})
	require.NoError(t, err)
	assert.Equal(t, `{"pass":true,"feedback":"fine"}`, out)

	assert.Equal(t, "llama3", got["model"])
	assert.Equal(t, "reviewer", got["system"])
	assert.Equal(t, false, got["stream"])
	format := got["format"].(map[string]any)
	assert.Equal(t, "object", format["type"])
	options := got["options"].(map[string]any)
	assert.EqualValues(t, 5, options["top_k"])
	assert.EqualValues(t, 8192, options["num_predict"])
}

func TestOllamaClient_Generate_ModelNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"model \"llama9\" not found, try pulling it first"}`))
	}))
	defer server.Close()

	client, err := NewOllamaClient(BackendConfig{BaseURL: server.URL, Model: "llama9"})
	require.NoError(t, err)
	_, err = client.Generate(context.Background(), "x", GenerationParams{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ollama pull llama9")
}

func TestOllamaClient_Generate_ContextCanceled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	client, err := NewOllamaClient(BackendConfig{BaseURL: server.URL})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = client.Generate(ctx, "x", GenerationParams{})
	require.ErrorIs(t, err, context.Canceled)
}

func TestOllamaOptionsFor(t *testing.T) {
	defaults := ollamaOptionsFor(GenerationParams{})
	assert.Equal(t, ollamaOptions{Temperature: 0.2, TopK: 20, TopP: 0.9, NumPredict: 8192}, defaults)

	set := ollamaOptionsFor(GenerationParams{Temperature: Float32(0), MaxTokens: Int(64), Stop: []string{"END"}})
	assert.Equal(t, float32(0), set.Temperature)
	assert.Equal(t, 64, set.NumPredict)
	assert.Equal(t, []string{"END"}, set.Stop)
}

func TestOllamaClient_Generate_OtherStatusIsStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"out of memory"}`))
	}))
	defer server.Close()

	client, err := NewOllamaClient(BackendConfig{BaseURL: server.URL})
	require.NoError(t, err)
	_, err = client.Generate(context.Background(), "x", GenerationParams{})

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "ollama", se.Backend)
	assert.Equal(t, http.StatusInternalServerError, se.Status)
	assert.Contains(t, se.Body, "out of memory")
}

// =============================================================================
// Gemini
// =============================================================================

func TestGeminiClient_Generate(t *testing.T) {
	var got map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "models/gemini-test:generateContent"), r.URL.Path)
		got = decodeBody(t, r)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"{\"pass\":true,\"feedback\":\"ok\"}"}]}}]}`))
	}))
	defer server.Close()

	client, err := NewGeminiClient(context.Background(), BackendConfig{BaseURL: server.URL + "/", Model: "gemini-test"}, "g-key")
	require.NoError(t, err)

	out, err := client.Generate(context.Background(), "judge", GenerationParams{Schema: verdictSchema()})
	require.NoError(t, err)
	assert.Equal(t, `{"pass":true,"feedback":"ok"}`, out)

	generationConfig, ok := got["generationConfig"].(map[string]any)
	require.True(t, ok, "generationConfig missing: %v", got)
	assert.Equal(t, "application/json", generationConfig["responseMimeType"])
	assert.NotNil(t, generationConfig["responseJsonSchema"])
}
