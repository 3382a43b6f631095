// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/codemedic/pkg/ux"
)

func TestRootCmd_AliasesResolve(t *testing.T) {
	root := newRootCmd(newTestCLI(nil, nil, false))

	cases := map[string]string{
		"x": "explain", "explain": "explain",
		"e": "edit", "edit": "edit",
		"f": "fix", "fix": "fix",
		"i": "info", "info": "info",
	}
	for arg, want := range cases {
		t.Run(arg, func(t *testing.T) {
			cmd, _, err := root.Find([]string{arg})
			require.NoError(t, err)
			assert.Equal(t, want, cmd.Name())
		})
	}
}

func TestRootCmd_WorkflowFlags(t *testing.T) {
	root := newRootCmd(newTestCLI(nil, nil, false))
	for _, name := range []string{"explain", "edit", "fix"} {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err)
		for _, flag := range []string{"language", "description", "no-write", "yes"} {
			assert.NotNil(t, cmd.Flags().Lookup(flag), "%s --%s", name, flag)
		}
	}
	for _, flag := range []string{"backend", "model", "personality", "config", "verbose", "json"} {
		assert.NotNil(t, root.PersistentFlags().Lookup(flag), flag)
	}
}

func TestRootCmd_RejectsExtraArgs(t *testing.T) {
	isolateEnv(t)
	_, _, err := execute(t, newTestCLI(nil, nil, false), "fix", "a.py", "b.py")
	require.Error(t, err)
}

func TestCommandTable_Summaries(t *testing.T) {
	for _, ci := range commandTable {
		assert.NotEmpty(t, summaryOf(ci.Name), ci.Name)
	}
	assert.Empty(t, summaryOf("nope"))
}

// =============================================================================
// Exit Codes
// =============================================================================

func TestExitCode(t *testing.T) {
	prev := ux.GetPersonality()
	ux.SetPersonalityLevel(ux.PersonalityMachine)
	t.Cleanup(func() {
		ux.SetOutput(nil, nil)
		ux.SetPersonality(prev)
	})

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, CLIExitSuccess},
		{"findings", &CommandError{Command: "fix", ExitCode: CLIExitFindings, Reported: true}, CLIExitFindings},
		{"wrapped command error", fmt.Errorf("run: %w", &CommandError{ExitCode: CLIExitError}), CLIExitError},
		{"usage", usageErrorf("missing file argument"), CLIExitError},
		{"plain", errors.New("boom"), CLIExitError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			ux.SetOutput(&buf, &buf)
			assert.Equal(t, tt.want, exitCode(tt.err))
		})
	}
}

func TestExitCode_UsagePrintsMessage(t *testing.T) {
	prev := ux.GetPersonality()
	ux.SetPersonalityLevel(ux.PersonalityMachine)
	var buf bytes.Buffer
	ux.SetOutput(&buf, &buf)
	t.Cleanup(func() {
		ux.SetOutput(nil, nil)
		ux.SetPersonality(prev)
	})

	exitCode(usageErrorf("fix needs --description"))
	assert.Contains(t, buf.String(), "ERROR: fix needs --description")
}

func TestExitCode_ReportedErrorIsSilent(t *testing.T) {
	prev := ux.GetPersonality()
	ux.SetPersonalityLevel(ux.PersonalityMachine)
	var buf bytes.Buffer
	ux.SetOutput(&buf, &buf)
	t.Cleanup(func() {
		ux.SetOutput(nil, nil)
		ux.SetPersonality(prev)
	})

	code := exitCode(&CommandError{Command: "edit", ExitCode: CLIExitError, Reported: true, Wrapped: errors.New("hidden")})
	assert.Equal(t, CLIExitError, code)
	assert.NotContains(t, buf.String(), "hidden")
}

func TestCommandError_Unwrap(t *testing.T) {
	inner := errors.New("inner")
	err := &CommandError{Command: "fix", ExitCode: 2, Wrapped: inner}
	assert.ErrorIs(t, err, inner)
	assert.Contains(t, err.Error(), "fix (exit 2)")
}
