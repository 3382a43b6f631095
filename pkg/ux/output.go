// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.


// Package ux renders codemedic's terminal output: status lines, panels,
// diffs, markdown, prompts and the progress spinner. Every helper checks
// the active Personality, and machine mode swaps decoration for stable
// "TAG: text" lines a script can grep.
package ux

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

var (
	outputMu sync.Mutex
	outputW  io.Writer
	errorW   io.Writer
)

// SetOutput redirects ux output. nil restores os.Stdout or os.Stderr.
func SetOutput(stdout, stderr io.Writer) {
	outputMu.Lock()
	defer outputMu.Unlock()
	outputW, errorW = stdout, stderr
}

func stdout() io.Writer { return writerOr(&outputW, os.Stdout) }
func stderr() io.Writer { return writerOr(&errorW, os.Stderr) }

func writerOr(w *io.Writer, fallback io.Writer) io.Writer {
	outputMu.Lock()
	defer outputMu.Unlock()
	if *w != nil {
		return *w
	}
	return fallback
}

func machine() bool { return GetPersonality().Level == PersonalityMachine }

// status is one kind of single-line status message.
type status struct {
	icon  string
	style lipgloss.Style
	tag   string

	// Errors always go to stderr; warnings only in machine mode, so a
	// human sees them inline with the rest of the run.
	stderrAlways  bool
	stderrMachine bool
}

var (
	statusOK   = status{icon: "✓", style: Styles.Success, tag: "OK"}
	statusWarn = status{icon: "⚠", style: Styles.Warning, tag: "WARN", stderrMachine: true}
	statusErr  = status{icon: "✗", style: Styles.Error, tag: "ERROR", stderrAlways: true, stderrMachine: true}
)

func (s status) print(text string) {
	level := GetPersonality().Level
	w := stdout()
	if s.stderrAlways || (level == PersonalityMachine && s.stderrMachine) {
		w = stderr()
	}
	switch level {
	case PersonalityMachine:
		fmt.Fprintf(w, "%s: %s\n", s.tag, text)
	case PersonalityMinimal:
		fmt.Fprintf(w, "%s %s\n", s.style.Render(s.icon), text)
	default:
		fmt.Fprintf(w, "%s %s\n", s.style.Render(s.icon), s.style.Render(text))
	}
}

// Success prints a completed step.
func Success(text string) { statusOK.print(text) }

// Warning prints a recoverable problem.
func Warning(text string) { statusWarn.print(text) }

// Error prints a failure to stderr.
func Error(text string) { statusErr.print(text) }

// Title prints a heading. Silent in machine mode.
func Title(text string) {
	if !machine() {
		fmt.Fprintln(stdout(), Styles.Title.Render(text))
	}
}

// Muted prints secondary text. Silent in machine mode.
func Muted(text string) {
	if !machine() {
		fmt.Fprintln(stdout(), Styles.Muted.Render(text))
	}
}

// Info prints a note behind a gutter bar, or bare in machine mode.
func Info(text string) {
	if machine() {
		fmt.Fprintln(stdout(), text)
		return
	}
	fmt.Fprintln(stdout(), Styles.Muted.Render("│")+" "+text)
}

// Plain prints text as is at every level.
func Plain(text string) {
	fmt.Fprintln(stdout(), text)
}

// Box prints a titled panel, or "title: content" in machine mode.
func Box(title, content string) {
	if machine() {
		fmt.Fprintf(stdout(), "%s: %s\n", title, content)
		return
	}
	fmt.Fprintln(stdout(), panel(title, content, ColorSage, Styles.Title))
}

// WarningBox prints a warning panel. In machine mode the line goes to
// stderr as "WARN title: content".
func WarningBox(title, content string) {
	if machine() {
		fmt.Fprintf(stderr(), "WARN %s: %s\n", title, content)
		return
	}
	fmt.Fprintln(stdout(), panel(title, content, ColorWarning, Styles.Warning.Bold(true)))
}

// KeyValue prints an aligned "key value" row, or "key=value".
func KeyValue(key, value string) {
	if machine() {
		fmt.Fprintf(stdout(), "%s=%s\n", key, value)
		return
	}
	fmt.Fprintf(stdout(), "  %s %s\n", Styles.Muted.Render(fmt.Sprintf("%-14s", key)), value)
}

// Attempt prints loop progress such as "attempt 2/4 → judging".
func Attempt(current, total int, step string) {
	if machine() {
		fmt.Fprintf(stdout(), "ATTEMPT: %d/%d %s\n", current, total, step)
		return
	}
	counter := Styles.Muted.Render(fmt.Sprintf("attempt %d/%d", current, total))
	fmt.Fprintf(stdout(), "%s → %s\n", counter, step)
}
