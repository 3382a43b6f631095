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
	"strings"
	"testing"
)

// =============================================================================
// truncate Tests
// =============================================================================

func TestTruncate_ShortString(t *testing.T) {
	result := truncate("hello", 10)
	if result != "hello" {
		t.Errorf("expected 'hello', got %q", result)
	}
}

func TestTruncate_ExactLength(t *testing.T) {
	result := truncate("hello", 5)
	if result != "hello" {
		t.Errorf("expected 'hello', got %q", result)
	}
}

func TestTruncate_LongString(t *testing.T) {
	result := truncate("hello world this is a long string", 10)
	if result != "hello w..." {
		t.Errorf("expected 'hello w...', got %q", result)
	}
}

func TestTruncate_VeryShortMaxLen(t *testing.T) {
	result := truncate("hello", 3)
	if result != "..." {
		t.Errorf("expected '...', got %q", result)
	}
}

func TestTruncate_MinimumMaxLen(t *testing.T) {
	result := truncate("hello", 4)
	if result != "h..." {
		t.Errorf("expected 'h...', got %q", result)
	}
}

// =============================================================================
// optionLabel Tests
// =============================================================================

func TestOptionLabel_Plain(t *testing.T) {
	got := optionLabel(PromptOption{Label: "python", Value: "python"})
	if got != "python" {
		t.Errorf("expected 'python', got %q", got)
	}
}

func TestOptionLabel_Recommended(t *testing.T) {
	got := optionLabel(PromptOption{Label: "go", Value: "go", Recommended: true})
	if !strings.HasPrefix(got, "go (recommended)") {
		t.Errorf("expected recommended marker, got %q", got)
	}
}

func TestOptionLabel_DescriptionIsTruncated(t *testing.T) {
	desc := strings.Repeat("x", 100)
	got := optionLabel(PromptOption{Label: "rust", Description: desc})
	if strings.Contains(got, desc) {
		t.Error("long description should be truncated")
	}
	if !strings.Contains(got, "...") {
		t.Errorf("expected ellipsis, got %q", got)
	}
}

// =============================================================================
// Validation and Theme Tests
// =============================================================================

func TestRequireNonEmpty(t *testing.T) {
	if err := requireNonEmpty("   \n\t"); err == nil {
		t.Error("whitespace should be rejected")
	}
	if err := requireNonEmpty("add type hints"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestMedicTheme_NotNil(t *testing.T) {
	theme := medicTheme()
	if theme == nil {
		t.Fatal("medicTheme() returned nil")
	}
	if theme.Focused.Title.GetForeground() != ColorMintBright {
		t.Error("focused title should use the mint highlight color")
	}
}

func TestNewHuhPrompter_Accessible(t *testing.T) {
	t.Setenv("ACCESSIBLE", "1")
	p := NewHuhPrompter()
	if !p.accessible {
		t.Error("ACCESSIBLE should enable accessible mode")
	}
	if p.theme == nil {
		t.Error("theme should be set")
	}
}

func TestHuhPrompter_SelectWithoutOptions(t *testing.T) {
	p := NewHuhPrompter()
	if _, err := p.Select("Language", nil); err == nil {
		t.Error("expected error for empty options")
	}
}

// HuhPrompter must satisfy Prompter.
var _ Prompter = (*HuhPrompter)(nil)
