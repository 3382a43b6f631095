// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/codemedic/pkg/ux"
	"github.com/AleutianAI/codemedic/services/llm"
)

// =============================================================================
// Fakes
// =============================================================================

// fakeClient answers generation requests with gen and judge requests
// with verdict.
type fakeClient struct {
	mu          sync.Mutex
	gen         string
	verdict     string
	err         error
	generations int
	judgements  int
}

func (f *fakeClient) Generate(_ context.Context, _ string, params llm.GenerationParams) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	if params.Schema != nil && params.Schema.Name == "verdict" {
		f.judgements++
		return f.verdict, nil
	}
	f.generations++
	return f.gen, nil
}

// fakePrompter returns canned answers and records what it was asked.
type fakePrompter struct {
	input    string
	text     string
	selected string
	confirm  bool
	err      error

	asked []string
}

func (p *fakePrompter) Input(title, _ string, validate func(string) error) (string, error) {
	p.asked = append(p.asked, "input:"+title)
	if p.err != nil {
		return "", p.err
	}
	if validate != nil {
		if err := validate(p.input); err != nil {
			return "", err
		}
	}
	return p.input, nil
}

func (p *fakePrompter) Text(title, _ string, _ bool) (string, error) {
	p.asked = append(p.asked, "text:"+title)
	return p.text, p.err
}

func (p *fakePrompter) Select(title string, _ []ux.PromptOption) (string, error) {
	p.asked = append(p.asked, "select:"+title)
	return p.selected, p.err
}

func (p *fakePrompter) Confirm(title string, _ bool) (bool, error) {
	p.asked = append(p.asked, "confirm:"+title)
	return p.confirm, p.err
}

// =============================================================================
// Helpers
// =============================================================================

const pySource = "def add(a, b):\n    return a + b\n"

// isolateEnv clears every variable that config loading or credential
// lookup would otherwise pick up from the developer's shell.
func isolateEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"CODEMEDIC_BACKEND", "CODEMEDIC_MODEL", "CODEMEDIC_BASE_URL",
		"CODEMEDIC_PERSONALITY", "CODEMEDIC_LOG_DIR", "CODEMEDIC_LOG_LEVEL",
		"OTEL_TRACES_EXPORTER", "OTEL_METRICS_EXPORTER", "OTEL_EXPORTER_OTLP_ENDPOINT",
		"OPENAI_API_KEY", "ANTHROPIC_API_KEY", "GEMINI_API_KEY", "GOOGLE_API_KEY",
		"OLLAMA_BASE_URL",
	} {
		t.Setenv(name, "")
	}
}

// writeConfig writes a config file that logs into a temp dir and keeps
// telemetry off.
func writeConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := "backend:\n  type: openai\n  timeout_seconds: 5\n" +
		"logging:\n  level: info\n  dir: " + filepath.Join(dir, "logs") + "\n" +
		"telemetry:\n  trace_exporter: none\n  metric_exporter: none\n" +
		"output:\n  word_wrap: 80\n  show_diff: true\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func writeSource(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// newTestCLI builds a non-interactive cli that uses client for every backend.
func newTestCLI(client llm.LLMClient, prompter ux.Prompter, interactive bool) *cli {
	return &cli{
		prompter: prompter,
		newClient: func(context.Context, llm.BackendConfig) (llm.LLMClient, error) {
			if client == nil {
				return nil, errors.New("no client")
			}
			return client, nil
		},
		interactive: func() bool { return interactive },
	}
}

// execute runs the command tree and returns cobra's stdout, the ux output
// and the command error.
func execute(t *testing.T, c *cli, args ...string) (string, string, error) {
	t.Helper()
	prev := ux.GetPersonality()
	var out, errOut, uxOut bytes.Buffer
	ux.SetOutput(&uxOut, &uxOut)
	t.Cleanup(func() {
		ux.SetOutput(nil, nil)
		ux.SetPersonality(prev)
	})

	root := newRootCmd(c)
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), uxOut.String() + errOut.String(), err
}
