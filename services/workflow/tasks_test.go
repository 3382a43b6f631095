// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskFor(t *testing.T) {
	tests := []struct {
		kind    Kind
		suffix  string
		output  string
		syntax  bool
		summary string
	}{
		{KindExplain, "explained", "foo_explained.md", false, `{"explanation": "e", "summary": "s"}`},
		{KindEdit, "edited", "foo_edited.py", true, `{"code": "c", "summary": "s"}`},
		{KindFix, "fixed", "foo_fixed.py", true, `{"code": "c", "explanation": "s"}`},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			task, err := TaskFor(tt.kind)
			require.NoError(t, err)
			assert.Equal(t, tt.suffix, task.Suffix)
			assert.Equal(t, tt.output, task.OutputPath("foo.py"))
			assert.Equal(t, tt.syntax, task.CheckSyntax())
			assert.NotEmpty(t, task.System)
			assert.NotNil(t, task.Schema)

			content, summary, err := task.Decode(tt.summary)
			require.NoError(t, err)
			assert.NotEmpty(t, content)
			assert.Equal(t, "s", summary)
		})
	}

	_, err := TaskFor(Kind("nope"))
	assert.ErrorIs(t, err, ErrInvalidSession)
}

func TestTask_DecodeRejectsOtherShapes(t *testing.T) {
	task, err := TaskFor(KindFix)
	require.NoError(t, err)

	content, summary, err := task.Decode(`{"code": "c", "summary": "s"}`)
	require.Error(t, err)
	assert.Empty(t, content)
	assert.Empty(t, summary)
}

func TestTask_GeneratePrompt(t *testing.T) {
	task, err := TaskFor(KindEdit)
	require.NoError(t, err)
	s, err := NewSession(KindEdit, "calc.py", "python", "def add(a, b):\n    return a+b\n", "support three arguments")
	require.NoError(t, err)

	first, err := task.GeneratePrompt(s)
	require.NoError(t, err)
	assert.Contains(t, first, "Feature: support three arguments")
	assert.Contains(t, first, "File: calc.py")
	assert.Contains(t, first, "Language: python")
	assert.Contains(t, first, "return a+b")
	assert.NotContains(t, first, "previous attempts")
	assert.NotContains(t, first, "<no value>")

	s.setContent("def add(a, b, c):\n    return a+b\n", "added c")
	s.reject("c is never used", "keep the docstring")

	retry, err := task.GeneratePrompt(s)
	require.NoError(t, err)
	assert.Contains(t, retry, "1. c is never used")
	assert.Contains(t, retry, "2. keep the docstring")
	assert.Contains(t, retry, "BEGIN PREVIOUS ATTEMPT")
	assert.Contains(t, retry, "def add(a, b, c):")
}

func TestTask_JudgePrompt(t *testing.T) {
	task, err := TaskFor(KindFix)
	require.NoError(t, err)
	s, err := NewSession(KindFix, "calc.py", "python", "x = 1/0\n", "ZeroDivisionError")
	require.NoError(t, err)

	prompt, err := task.JudgePrompt(s, "x = 1\n")
	require.NoError(t, err)
	assert.Contains(t, prompt, "Problem: ZeroDivisionError")
	assert.Contains(t, prompt, "x = 1/0")
	assert.Contains(t, prompt, "--- BEGIN CANDIDATE ---\nx = 1\n")
}
