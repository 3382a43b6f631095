// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package ux

import (
	"os"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"
)

// PersonalityLevel selects how much decoration codemedic prints.
type PersonalityLevel string

const (
	// PersonalityFull renders markdown, boxes, diffs and the spinner.
	PersonalityFull PersonalityLevel = "full"

	// PersonalityStandard is full without the markdown theme flourishes.
	PersonalityStandard PersonalityLevel = "standard"

	// PersonalityMinimal keeps icons and plain lines.
	PersonalityMinimal PersonalityLevel = "minimal"

	// PersonalityMachine prints undecorated, prefix-tagged lines
	// (OK:, WARN:, ERROR:, ATTEMPT:, FEEDBACK:) for scripts.
	PersonalityMachine PersonalityLevel = "machine"
)

// Personality is the process-wide output style.
type Personality struct {
	Level PersonalityLevel

	// ShowDiff enables the colored diff preview after edit/fix.
	ShowDiff bool

	// WordWrap is the column width used for rendered markdown.
	WordWrap int
}

// Animated reports whether spinners redraw in place.
func (p Personality) Animated() bool {
	return p.Level != PersonalityMachine
}

// DefaultPersonality is the style used before InitPersonality runs.
func DefaultPersonality() Personality {
	return Personality{Level: PersonalityFull, ShowDiff: true, WordWrap: 80}
}

var (
	personalityMu      sync.RWMutex
	currentPersonality = DefaultPersonality()
)

// GetPersonality returns a copy of the current style.
func GetPersonality() Personality {
	personalityMu.RLock()
	defer personalityMu.RUnlock()
	return currentPersonality
}

// SetPersonality replaces the current style.
func SetPersonality(p Personality) {
	personalityMu.Lock()
	defer personalityMu.Unlock()
	currentPersonality = p
}

// SetPersonalityLevel changes only the level.
func SetPersonalityLevel(level PersonalityLevel) {
	personalityMu.Lock()
	defer personalityMu.Unlock()
	currentPersonality.Level = level
}

var levelAliases = map[string]PersonalityLevel{
	"full": PersonalityFull, "f": PersonalityFull,
	"standard": PersonalityStandard, "std": PersonalityStandard, "s": PersonalityStandard,
	"minimal": PersonalityMinimal, "min": PersonalityMinimal, "m": PersonalityMinimal,
	"machine": PersonalityMachine, "quiet": PersonalityMachine, "q": PersonalityMachine,
}

// ParsePersonalityLevel maps a level name or alias to a level. Unknown
// names yield PersonalityStandard and false.
func ParsePersonalityLevel(s string) (PersonalityLevel, bool) {
	level, ok := levelAliases[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return PersonalityStandard, false
	}
	return level, true
}

// resolveLevel picks the level from, in order: the --personality flag,
// CODEMEDIC_PERSONALITY, a non-terminal stdout (machine), NO_COLOR
// (minimal), and finally full.
func resolveLevel(explicit, fromEnv string, stdoutTTY, noColor bool) PersonalityLevel {
	for _, s := range []string{explicit, fromEnv} {
		if strings.TrimSpace(s) != "" {
			level, _ := ParsePersonalityLevel(s)
			return level
		}
	}
	switch {
	case !stdoutTTY:
		return PersonalityMachine
	case noColor:
		return PersonalityMinimal
	default:
		return PersonalityFull
	}
}

// InitPersonality sets the level from the flag value, the environment and
// the terminal. Other Personality fields are left alone.
func InitPersonality(explicit string) {
	SetPersonalityLevel(resolveLevel(
		explicit,
		os.Getenv("CODEMEDIC_PERSONALITY"),
		isTerminal(os.Stdout),
		os.Getenv("NO_COLOR") != "",
	))
}

func isTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// IsInteractive reports whether prompts can be shown: both ends are
// terminals and the output is not in machine mode.
func IsInteractive() bool {
	return GetPersonality().Level != PersonalityMachine && isTerminal(os.Stdout) && isTerminal(os.Stdin)
}
