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
	"encoding/json"
	"io"
	"time"
)

// Exit codes for CLI commands.
const (
	CLIExitSuccess  = 0 // Operation completed successfully
	CLIExitFindings = 1 // Finished, but the judge never accepted the result
	CLIExitError    = 2 // Operation failed
)

// CommandResult wraps command output with metadata for --json.
type CommandResult struct {
	APIVersion string    `json:"api_version"`
	Command    string    `json:"command"`
	Timestamp  time.Time `json:"timestamp"`
	DurationMs int64     `json:"duration_ms"`
	Success    bool      `json:"success"`
	Data       any       `json:"data,omitempty"`
	Error      string    `json:"error,omitempty"`
}

// newCommandResult fills the envelope. err may be nil.
func newCommandResult(command string, start time.Time, data any, err error) CommandResult {
	result := CommandResult{
		APIVersion: "1.0",
		Command:    command,
		Timestamp:  time.Now(),
		DurationMs: time.Since(start).Milliseconds(),
		Success:    err == nil,
		Data:       data,
	}
	if err != nil {
		result.Error = err.Error()
	}
	return result
}

// OutputJSON writes structured data as JSON.
//
// # Inputs
//
//   - w: Destination, normally the command's stdout.
//   - data: The data to encode. Must be JSON-serializable.
//   - compact: If true, output without indentation.
//
// # Outputs
//
//   - error: Non-nil if encoding fails.
func OutputJSON(w io.Writer, data any, compact bool) error {
	encoder := json.NewEncoder(w)
	if !compact {
		encoder.SetIndent("", "  ")
	}
	return encoder.Encode(data)
}

// WorkflowResult is the --json payload of explain, edit and fix.
type WorkflowResult struct {
	SessionID  string   `json:"session_id"`
	Kind       string   `json:"kind"`
	File       string   `json:"file"`
	Language   string   `json:"language"`
	Backend    string   `json:"backend"`
	Passed     bool     `json:"passed"`
	Attempts   int      `json:"attempts"`
	JudgeCalls int      `json:"judge_calls"`
	Feedback   []string `json:"feedback"`
	Summary    string   `json:"summary,omitempty"`
	OutputPath string   `json:"output_path,omitempty"`
	Written    bool     `json:"written"`
	Message    string   `json:"message,omitempty"`
	Content    string   `json:"content,omitempty"`
}

// InfoResult is the --json payload of info.
type InfoResult struct {
	Version       string            `json:"version"`
	Backend       string            `json:"backend"`
	Model         string            `json:"model"`
	BaseURL       string            `json:"base_url,omitempty"`
	Credentials   map[string]string `json:"credentials"`
	ConfigPath    string            `json:"config_path"`
	LogDir        string            `json:"log_dir"`
	MaxIterations int               `json:"max_iterations"`
	Commands      []CommandInfo     `json:"commands"`
}

// CommandInfo describes one subcommand in info output.
type CommandInfo struct {
	Name    string `json:"name"`
	Alias   string `json:"alias"`
	Summary string `json:"summary"`
}
