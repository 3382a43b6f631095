// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package workflow

import (
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/prompts"

	"github.com/AleutianAI/codemedic/services/llm"
)

// Task holds everything that differs between explain, edit and fix: the
// prompts, the response schema, and where the result is written.
type Task struct {
	Kind Kind

	// Suffix is inserted before the output extension, e.g. "fixed".
	Suffix string

	// Extension replaces the input file's extension when non-empty.
	Extension string

	// System is the generator's system prompt.
	System string

	// JudgeSystem is the judge's system prompt.
	JudgeSystem string

	// Schema constrains the generator's response.
	Schema *llm.ResponseSchema

	generate prompts.PromptTemplate
	judge    prompts.PromptTemplate
	decode   func(raw string) (content, summary string, err error)
}

// CheckSyntax reports whether generated content is source code that the
// syntax gate should parse.
func (t *Task) CheckSyntax() bool {
	return t.Kind != KindExplain
}

// OutputPath derives where the result for filePath is written.
func (t *Task) OutputPath(filePath string) string {
	return DeriveOutputPath(filePath, t.Suffix, t.Extension)
}

// GeneratePrompt renders the generation request for the session's current
// attempt, including every prior feedback line.
func (t *Task) GeneratePrompt(s *Session) (string, error) {
	out, err := t.generate.Format(map[string]any{
		"language":    s.Language,
		"file":        s.FilePath,
		"source":      s.Source,
		"description": s.Description,
		"feedback":    renderFeedback(s.Feedback),
		"previous":    renderPrevious(s),
	})
	if err != nil {
		return "", fmt.Errorf("render %s prompt: %w", t.Kind, err)
	}
	return out, nil
}

// JudgePrompt renders the judge request for candidate.
func (t *Task) JudgePrompt(s *Session, candidate string) (string, error) {
	out, err := t.judge.Format(map[string]any{
		"language":    s.Language,
		"file":        s.FilePath,
		"source":      s.Source,
		"description": s.Description,
		"candidate":   candidate,
	})
	if err != nil {
		return "", fmt.Errorf("render %s judge prompt: %w", t.Kind, err)
	}
	return out, nil
}

// Decode parses and validates a generator response. On error the returned
// strings are empty and the error is a *PayloadError.
func (t *Task) Decode(raw string) (content, summary string, err error) {
	return t.decode(raw)
}

// TaskFor returns the task definition for kind.
func TaskFor(kind Kind) (*Task, error) {
	switch kind {
	case KindExplain:
		return explainTask, nil
	case KindEdit:
		return editTask, nil
	case KindFix:
		return fixTask, nil
	default:
		return nil, fmt.Errorf("%w: unknown kind %q", ErrInvalidSession, kind)
	}
}

// =============================================================================
// Prompt Text
// =============================================================================

const judgeSystem = `You are a meticulous senior code reviewer. You judge whether a candidate
result fully satisfies a task. Be strict but fair: fail only for concrete
problems, and describe each one so that it can be fixed. Respond with a JSON
object {"pass": bool, "feedback": string} and nothing else.`

const sourceBlock = `File: {{.file}}
Language: {{.language}}

--- BEGIN SOURCE ---
{{.source}}
--- END SOURCE ---
`

const retryBlock = `{{.previous}}{{.feedback}}`

var explainTask = &Task{
	Kind:      KindExplain,
	Suffix:    "explained",
	Extension: ".md",
	System: `You are an expert programmer who explains code clearly to other developers.
Respond with a JSON object {"explanation": string, "summary": string}. The
explanation is GitHub-flavoured markdown.`,
	JudgeSystem: judgeSystem,
	Schema:      explanationSchema,
	generate: prompts.NewPromptTemplate(`Explain the following {{.language}} file: what it does, how it is
structured, and anything surprising or risky.
{{.description}}

`+sourceBlock+retryBlock, []string{"file", "language", "source", "description", "feedback", "previous"}),
	judge: prompts.NewPromptTemplate(`Judge this explanation of a {{.language}} file. It passes only if it is
accurate, covers the file's main behaviour, and invents nothing.
{{.description}}

`+sourceBlock+`
--- BEGIN EXPLANATION ---
{{.candidate}}
--- END EXPLANATION ---
`, []string{"file", "language", "source", "description", "candidate"}),
	decode: func(raw string) (string, string, error) {
		var p ExplanationPayload
		if err := decodePayload(explanationSchema.Name, raw, &p); err != nil {
			return "", "", err
		}
		return p.Explanation, p.Summary, nil
	},
}

var editTask = &Task{
	Kind:   KindEdit,
	Suffix: "edited",
	System: `You are an expert programmer who modifies existing code precisely.
Return the COMPLETE updated file, not a diff or a fragment, with no markdown
fences. Keep unrelated code unchanged. Respond with a JSON object
{"code": string, "summary": string}.`,
	JudgeSystem: judgeSystem,
	Schema:      editSchema,
	generate: prompts.NewPromptTemplate(`Add the following feature to this {{.language}} file.

Feature: {{.description}}

`+sourceBlock+retryBlock, []string{"file", "language", "source", "description", "feedback", "previous"}),
	judge: prompts.NewPromptTemplate(`Judge whether the candidate correctly implements the requested feature
without breaking existing behaviour.

Feature: {{.description}}

`+sourceBlock+`
--- BEGIN CANDIDATE ---
{{.candidate}}
--- END CANDIDATE ---
`, []string{"file", "language", "source", "description", "candidate"}),
	decode: func(raw string) (string, string, error) {
		var p EditPayload
		if err := decodePayload(editSchema.Name, raw, &p); err != nil {
			return "", "", err
		}
		return p.Code, p.Summary, nil
	},
}

var fixTask = &Task{
	Kind:   KindFix,
	Suffix: "fixed",
	System: `You are an expert debugger. Find the root cause of the reported problem and
fix it with the smallest correct change. Return the COMPLETE fixed file with
no markdown fences. Respond with a JSON object {"code": string,
"explanation": string}.`,
	JudgeSystem: judgeSystem,
	Schema:      fixSchema,
	generate: prompts.NewPromptTemplate(`Fix the following problem in this {{.language}} file.

Problem: {{.description}}

`+sourceBlock+retryBlock, []string{"file", "language", "source", "description", "feedback", "previous"}),
	judge: prompts.NewPromptTemplate(`Judge whether the candidate fixes the reported problem at its root cause
and introduces no new bugs.

Problem: {{.description}}

`+sourceBlock+`
--- BEGIN CANDIDATE ---
{{.candidate}}
--- END CANDIDATE ---
`, []string{"file", "language", "source", "description", "candidate"}),
	decode: func(raw string) (string, string, error) {
		var p FixPayload
		if err := decodePayload(fixSchema.Name, raw, &p); err != nil {
			return "", "", err
		}
		return p.Code, p.Explanation, nil
	},
}

// renderFeedback lists prior feedback, oldest first, or "" on the first
// attempt.
func renderFeedback(feedback []string) string {
	if len(feedback) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("\nYour previous attempts were rejected. Address every point below:\n")
	for i, f := range feedback {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, f)
	}
	return sb.String()
}

// renderPrevious shows the last valid candidate so the model can revise it
// instead of starting over.
func renderPrevious(s *Session) string {
	if !s.HasContent() {
		return ""
	}
	return "\n--- BEGIN PREVIOUS ATTEMPT ---\n" + s.Content + "\n--- END PREVIOUS ATTEMPT ---\n"
}
