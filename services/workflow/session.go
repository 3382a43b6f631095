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
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// MaxIterations is the retry cap N. A run makes at most N+1 attempts.
const MaxIterations = 3

var (
	// ErrNoValidResponse is returned when no structurally valid artifact was
	// produced within the attempt budget. Nothing is written.
	ErrNoValidResponse = errors.New("no valid response from model")

	// ErrInvalidSession is returned when a session is missing required input.
	ErrInvalidSession = errors.New("invalid session")
)

// Kind selects the task a session performs.
type Kind string

const (
	KindExplain Kind = "explain"
	KindEdit    Kind = "edit"
	KindFix     Kind = "fix"
)

// ParseKind maps a command name or alias to a Kind.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "explain", "x":
		return KindExplain, nil
	case "edit", "e":
		return KindEdit, nil
	case "fix", "f":
		return KindFix, nil
	default:
		return "", fmt.Errorf("%w: unknown kind %q", ErrInvalidSession, s)
	}
}

// State is a position in the generate/judge/write state machine.
type State string

const (
	StateGenerating State = "generating"
	StateJudging    State = "judging"
	StateWriting    State = "writing"
	StateDone       State = "done"
)

// Session is the explicit context of one command invocation.
//
// # Description
//
// Created at the start of a command, mutated only by Runner steps, and
// discarded at exit. Content is replaced only by payloads that passed
// validation; Feedback only grows.
type Session struct {
	// ID correlates logs and spans for this run.
	ID string `json:"id"`

	Kind     Kind   `json:"kind" validate:"oneof=explain edit fix"`
	FilePath string `json:"file_path" validate:"required"`
	Language string `json:"language" validate:"required"`
	Source   string `json:"-" validate:"required"`

	// Description is the requested feature (edit), the observed error
	// (fix), or an optional focus (explain).
	Description string `json:"description,omitempty" validate:"required_unless=Kind explain"`

	// Feedback accumulates judge and validation feedback, oldest first.
	Feedback []string `json:"feedback"`

	// Content is the latest structurally valid artifact.
	Content string `json:"-"`

	// Summary is the generator's short note about Content.
	Summary string `json:"summary,omitempty"`

	// Iteration is the retry counter. It starts at 0 and increases by one
	// for every rejected attempt.
	Iteration     int `json:"iteration"`
	MaxIterations int `json:"max_iterations" validate:"gte=0"`

	State  State `json:"state"`
	Passed bool  `json:"passed"`

	// Attempts and JudgeCalls count model requests made so far.
	Attempts   int `json:"attempts"`
	JudgeCalls int `json:"judge_calls"`

	hasContent bool
}

// NewSession builds a session in the Generating state.
//
// # Inputs
//
//   - kind: Task to perform.
//   - filePath: Path of the input file (used to derive the output path).
//   - language: Source language name, e.g. "python".
//   - source: File content.
//   - description: Feature, error description, or focus. Required for
//     edit and fix.
//
// # Outputs
//
//   - *Session: The new session.
//   - error: ErrInvalidSession (wrapped) when required input is missing.
func NewSession(kind Kind, filePath, language, source, description string) (*Session, error) {
	s := &Session{
		ID:            uuid.NewString(),
		Kind:          kind,
		FilePath:      filePath,
		Language:      strings.ToLower(strings.TrimSpace(language)),
		Source:        source,
		Description:   strings.TrimSpace(description),
		Feedback:      []string{},
		MaxIterations: MaxIterations,
		State:         StateGenerating,
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks the session's input fields.
func (s *Session) Validate() error {
	if s == nil {
		return fmt.Errorf("%w: nil session", ErrInvalidSession)
	}
	if err := payloadValidator.Struct(s); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidSession, describeValidation(err))
	}
	return nil
}

// Attempt returns the 1-based number of the current generation attempt.
func (s *Session) Attempt() int {
	return s.Iteration + 1
}

// MaxAttempts returns N+1.
func (s *Session) MaxAttempts() int {
	return s.MaxIterations + 1
}

// HasContent reports whether a structurally valid artifact exists.
func (s *Session) HasContent() bool {
	return s.hasContent
}

// LastFeedback returns the most recent feedback line, or "".
func (s *Session) LastFeedback() string {
	if len(s.Feedback) == 0 {
		return ""
	}
	return s.Feedback[len(s.Feedback)-1]
}

// setContent replaces the artifact with a validated one.
func (s *Session) setContent(content, summary string) {
	s.Content = content
	s.Summary = summary
	s.hasContent = true
}

// reject records feedback for a failed attempt and advances the counter.
// It returns the next state: Generating while attempts remain, otherwise
// Writing.
func (s *Session) reject(feedback ...string) State {
	s.Feedback = append(s.Feedback, feedback...)
	s.Passed = false
	s.Iteration++
	if s.Iteration > s.MaxIterations {
		return StateWriting
	}
	return StateGenerating
}
