// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package ux

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

// ErrPromptAborted is returned when the user cancels a prompt (Ctrl+C / Esc).
var ErrPromptAborted = errors.New("prompt aborted by user")

// PromptOption is a single choice in a select prompt.
type PromptOption struct {
	// Label is the text shown in the list.
	Label string

	// Description is an optional muted hint appended to the label.
	Description string

	// Value is returned when the option is chosen.
	Value string

	// Recommended preselects the option and marks it in the list.
	Recommended bool
}

// Prompter collects user input for the command flows.
//
// The interface exists so that commands can be driven by a scripted
// implementation in tests; HuhPrompter is the terminal implementation.
type Prompter interface {
	// Input asks for a single line. validate may be nil.
	Input(title, placeholder string, validate func(string) error) (string, error)

	// Text asks for free-form multi-line text. When required is true an
	// empty answer is rejected in place.
	Text(title, placeholder string, required bool) (string, error)

	// Select asks the user to pick one option and returns its Value.
	Select(title string, options []PromptOption) (string, error)

	// Confirm asks a yes/no question.
	Confirm(title string, defaultYes bool) (bool, error)
}

// HuhPrompter renders prompts with charmbracelet/huh.
type HuhPrompter struct {
	theme      *huh.Theme
	accessible bool
}

// NewHuhPrompter creates a prompter using the codemedic theme.
//
// Accessible mode (plain line-based prompts, no TUI) is enabled when the
// ACCESSIBLE environment variable is set, matching huh's convention.
func NewHuhPrompter() *HuhPrompter {
	return &HuhPrompter{
		theme:      medicTheme(),
		accessible: os.Getenv("ACCESSIBLE") != "",
	}
}

// Input implements Prompter.
func (p *HuhPrompter) Input(title, placeholder string, validate func(string) error) (string, error) {
	var value string
	field := huh.NewInput().
		Title(title).
		Placeholder(placeholder).
		Value(&value)
	if validate != nil {
		field = field.Validate(validate)
	}
	if err := p.run(field); err != nil {
		return "", err
	}
	return strings.TrimSpace(value), nil
}

// Text implements Prompter.
func (p *HuhPrompter) Text(title, placeholder string, required bool) (string, error) {
	var value string
	field := huh.NewText().
		Title(title).
		Placeholder(placeholder).
		CharLimit(8000).
		Value(&value)
	if required {
		field = field.Validate(requireNonEmpty)
	}
	if err := p.run(field); err != nil {
		return "", err
	}
	return strings.TrimSpace(value), nil
}

// Select implements Prompter.
func (p *HuhPrompter) Select(title string, options []PromptOption) (string, error) {
	if len(options) == 0 {
		return "", fmt.Errorf("select %q: no options", title)
	}

	var value string
	huhOptions := make([]huh.Option[string], 0, len(options))
	for _, opt := range options {
		huhOptions = append(huhOptions, huh.NewOption(optionLabel(opt), opt.Value).Selected(opt.Recommended))
	}

	field := huh.NewSelect[string]().
		Title(title).
		Options(huhOptions...).
		Value(&value)
	if err := p.run(field); err != nil {
		return "", err
	}
	return value, nil
}

// Confirm implements Prompter.
func (p *HuhPrompter) Confirm(title string, defaultYes bool) (bool, error) {
	value := defaultYes
	field := huh.NewConfirm().
		Title(title).
		Affirmative("Yes").
		Negative("No").
		Value(&value)
	if err := p.run(field); err != nil {
		return false, err
	}
	return value, nil
}

func (p *HuhPrompter) run(field huh.Field) error {
	form := huh.NewForm(huh.NewGroup(field)).
		WithTheme(p.theme).
		WithAccessible(p.accessible)
	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return ErrPromptAborted
		}
		return fmt.Errorf("prompt: %w", err)
	}
	return nil
}

// optionLabel builds the visible label for a select option.
func optionLabel(opt PromptOption) string {
	label := opt.Label
	if opt.Recommended {
		label += " (recommended)"
	}
	if opt.Description != "" {
		label += "  " + Styles.Muted.Render(truncate(opt.Description, 48))
	}
	return label
}

func requireNonEmpty(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New("a value is required")
	}
	return nil
}

// medicTheme returns the huh theme matching the codemedic palette.
func medicTheme() *huh.Theme {
	t := huh.ThemeBase()

	t.Focused.Base = t.Focused.Base.BorderForeground(ColorSage)
	t.Focused.Title = t.Focused.Title.Foreground(ColorMintBright).Bold(true)
	t.Focused.Description = t.Focused.Description.Foreground(ColorSlate)
	t.Focused.SelectSelector = t.Focused.SelectSelector.Foreground(ColorMint)
	t.Focused.SelectedOption = t.Focused.SelectedOption.Foreground(ColorMintBright)
	t.Focused.ErrorIndicator = t.Focused.ErrorIndicator.Foreground(ColorError)
	t.Focused.ErrorMessage = t.Focused.ErrorMessage.Foreground(ColorError)
	t.Focused.FocusedButton = t.Focused.FocusedButton.Background(ColorMint).Foreground(lipgloss.Color("#0B1A12"))

	t.Blurred = t.Focused
	t.Blurred.Base = t.Blurred.Base.BorderStyle(lipgloss.HiddenBorder())

	return t
}

// truncate shortens s to maxLen characters, ending with "..." when cut.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return "..."
	}
	return s[:maxLen-3] + "..."
}
