// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package llm

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

// Backend names.
const (
	BackendOpenAI    = "openai"
	BackendAnthropic = "anthropic"
	BackendGemini    = "gemini"
	BackendOllama    = "ollama"
)

// ErrUnknownBackend is returned for a backend name NewClient does not know.
var ErrUnknownBackend = errors.New("unknown backend")

// BackendConfig selects and configures one backend.
type BackendConfig struct {
	// Type is one of the Backend* names.
	Type string

	// Model overrides the backend's default model.
	Model string

	// BaseURL overrides the API endpoint. Required for Ollama.
	BaseURL string

	// Timeout bounds each HTTP request. Zero uses the backend default.
	Timeout time.Duration
}

// backendSpec describes the static facts about a backend.
type backendSpec struct {
	defaultModel string
	credentials  []string
}

var backends = map[string]backendSpec{
	BackendOpenAI:    {defaultModel: "gpt-4o-mini", credentials: []string{"OPENAI_API_KEY"}},
	BackendAnthropic: {defaultModel: "claude-3-5-sonnet-20240620", credentials: []string{"ANTHROPIC_API_KEY"}},
	BackendGemini:    {defaultModel: "gemini-2.5-flash", credentials: []string{"GEMINI_API_KEY", "GOOGLE_API_KEY"}},
	BackendOllama:    {defaultModel: "gpt-oss"},
}

// Backends lists the supported backend names in display order.
func Backends() []string {
	return []string{BackendOpenAI, BackendAnthropic, BackendGemini, BackendOllama}
}

// DefaultModel returns the model used when none is configured.
func DefaultModel(backend string) string {
	return backends[backend].defaultModel
}

// CredentialEnv returns the environment variables holding a backend's API
// key, in lookup order. Ollama has none.
func CredentialEnv(backend string) []string {
	return backends[backend].credentials
}

// NewClient builds the LLMClient for cfg.Type.
//
// # Description
//
// Resolves the backend's credential into a memguard enclave, reveals it only
// for the duration of client construction, and returns the client. Ollama
// takes OLLAMA_BASE_URL when cfg.BaseURL is empty.
//
// # Outputs
//
//   - LLMClient: The configured client.
//   - error: ErrUnknownBackend or ErrMissingCredential (wrapped), or a
//     construction error.
//
// # Example
//
//	client, err := llm.NewClient(ctx, llm.BackendConfig{Type: llm.BackendOpenAI})
func NewClient(ctx context.Context, cfg BackendConfig) (LLMClient, error) {
	backend := strings.ToLower(strings.TrimSpace(cfg.Type))
	spec, ok := backends[backend]
	if !ok {
		return nil, fmt.Errorf("%w: %q (want one of %s)", ErrUnknownBackend, cfg.Type, strings.Join(Backends(), ", "))
	}

	if backend == BackendOllama {
		if cfg.BaseURL == "" {
			cfg.BaseURL = os.Getenv("OLLAMA_BASE_URL")
		}
		return NewOllamaClient(cfg)
	}

	cred, err := LoadCredential(spec.credentials...)
	if err != nil {
		return nil, fmt.Errorf("%s backend: %w", backend, err)
	}
	apiKey, err := cred.Reveal()
	if err != nil {
		return nil, err
	}

	switch backend {
	case BackendOpenAI:
		return NewOpenAIClient(cfg, apiKey), nil
	case BackendAnthropic:
		return NewAnthropicClient(cfg, apiKey), nil
	default:
		return NewGeminiClient(ctx, cfg, apiKey)
	}
}

// CredentialStatus reports, per backend, whether its credential (or, for
// Ollama, its base URL) is available. Values are never returned.
func CredentialStatus() map[string]bool {
	status := make(map[string]bool, len(backends))
	for name, spec := range backends {
		if name == BackendOllama {
			status[name] = os.Getenv("OLLAMA_BASE_URL") != ""
			continue
		}
		status[name] = CredentialPresent(spec.credentials...)
	}
	return status
}
