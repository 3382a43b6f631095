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
	"bytes"
	"strings"
	"testing"
)

// captureOutput redirects ux output for the duration of f at the given level.
func captureOutput(t *testing.T, level PersonalityLevel, f func()) (string, string) {
	t.Helper()
	prev := GetPersonality()
	SetPersonalityLevel(level)

	var out, errOut bytes.Buffer
	SetOutput(&out, &errOut)
	t.Cleanup(func() {
		SetOutput(nil, nil)
		SetPersonality(prev)
	})

	f()
	return out.String(), errOut.String()
}

// =============================================================================
// Print Helper Tests
// =============================================================================

func TestSuccess_MachineMode(t *testing.T) {
	out, _ := captureOutput(t, PersonalityMachine, func() {
		Success("wrote foo_fixed.py")
	})
	if out != "OK: wrote foo_fixed.py\n" {
		t.Errorf("got %q", out)
	}
}

func TestSuccess_FullMode(t *testing.T) {
	out, _ := captureOutput(t, PersonalityFull, func() {
		Success("done")
	})
	if !strings.Contains(out, "done") || !strings.Contains(out, "✓") {
		t.Errorf("got %q", out)
	}
}

func TestWarning_MachineModeGoesToStderr(t *testing.T) {
	out, errOut := captureOutput(t, PersonalityMachine, func() {
		Warning("judge never passed")
	})
	if out != "" {
		t.Errorf("stdout = %q, want empty", out)
	}
	if errOut != "WARN: judge never passed\n" {
		t.Errorf("stderr = %q", errOut)
	}
}

func TestWarning_HumanModeStaysOnStdout(t *testing.T) {
	out, errOut := captureOutput(t, PersonalityMinimal, func() {
		Warning("judge never passed")
	})
	if errOut != "" {
		t.Errorf("stderr = %q, want empty", errOut)
	}
	if !strings.Contains(out, "⚠") || !strings.Contains(out, "judge never passed") {
		t.Errorf("stdout = %q", out)
	}
}

func TestWarningBox(t *testing.T) {
	out, errOut := captureOutput(t, PersonalityMachine, func() {
		WarningBox("Possible credentials in foo.py", "line 1: AWS access key ID")
	})
	if out != "" || errOut != "WARN Possible credentials in foo.py: line 1: AWS access key ID\n" {
		t.Errorf("stdout = %q, stderr = %q", out, errOut)
	}

	out, _ = captureOutput(t, PersonalityFull, func() {
		WarningBox("Heads up", "body text")
	})
	if !strings.Contains(out, "Heads up") || !strings.Contains(out, "body text") || !strings.Contains(out, "╭") {
		t.Errorf("got %q", out)
	}
}

func TestError_AlwaysStderr(t *testing.T) {
	for _, level := range []PersonalityLevel{PersonalityFull, PersonalityMinimal, PersonalityMachine} {
		out, errOut := captureOutput(t, level, func() {
			Error("boom")
		})
		if out != "" {
			t.Errorf("%s: stdout = %q, want empty", level, out)
		}
		if !strings.Contains(errOut, "boom") {
			t.Errorf("%s: stderr = %q", level, errOut)
		}
	}
}

func TestTitleAndMuted_SilentInMachineMode(t *testing.T) {
	out, _ := captureOutput(t, PersonalityMachine, func() {
		Title("codemedic")
		Muted("secondary")
	})
	if out != "" {
		t.Errorf("got %q, want empty", out)
	}
}

func TestInfo_MachineModeIsPlain(t *testing.T) {
	out, _ := captureOutput(t, PersonalityMachine, func() {
		Info("plain line")
	})
	if out != "plain line\n" {
		t.Errorf("got %q", out)
	}
}

func TestBox_MachineMode(t *testing.T) {
	out, _ := captureOutput(t, PersonalityMachine, func() {
		Box("Backend", "openai")
	})
	if out != "Backend: openai\n" {
		t.Errorf("got %q", out)
	}
}

func TestBox_FullModeContainsTitleAndContent(t *testing.T) {
	out, _ := captureOutput(t, PersonalityFull, func() {
		Box("Backend", "openai")
	})
	if !strings.Contains(out, "Backend") || !strings.Contains(out, "openai") {
		t.Errorf("got %q", out)
	}
}

func TestKeyValue_MachineMode(t *testing.T) {
	out, _ := captureOutput(t, PersonalityMachine, func() {
		KeyValue("model", "gpt-4o-mini")
	})
	if out != "model=gpt-4o-mini\n" {
		t.Errorf("got %q", out)
	}
}

func TestAttempt(t *testing.T) {
	out, _ := captureOutput(t, PersonalityMachine, func() {
		Attempt(2, 4, "judging")
	})
	if out != "ATTEMPT: 2/4 judging\n" {
		t.Errorf("got %q", out)
	}

	out, _ = captureOutput(t, PersonalityStandard, func() {
		Attempt(1, 4, "generating")
	})
	if !strings.Contains(out, "attempt 1/4") || !strings.Contains(out, "generating") {
		t.Errorf("got %q", out)
	}
}

func TestPlain_IgnoresPersonality(t *testing.T) {
	out, _ := captureOutput(t, PersonalityMachine, func() {
		Plain("raw")
	})
	if out != "raw\n" {
		t.Errorf("got %q", out)
	}
}
