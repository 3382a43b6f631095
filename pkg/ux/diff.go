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
	"fmt"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/sourcegraph/go-diff/diff"
)

// DiffStats summarises a unified diff.
type DiffStats struct {
	Added   int
	Changed int
	Deleted int
}

// Empty reports whether the diff has no line changes.
func (s DiffStats) Empty() bool {
	return s.Added == 0 && s.Changed == 0 && s.Deleted == 0
}

// String renders "+a ~c -d".
func (s DiffStats) String() string {
	return fmt.Sprintf("+%d ~%d -%d", s.Added, s.Changed, s.Deleted)
}

// UnifiedDiff returns a unified diff of before → after with three lines of
// context. Identical inputs produce "".
func UnifiedDiff(fromName, toName, before, after string) (string, error) {
	if before == after {
		return "", nil
	}
	out, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(before),
		B:        difflib.SplitLines(after),
		FromFile: fromName,
		ToFile:   toName,
		Context:  3,
	})
	if err != nil {
		return "", fmt.Errorf("build diff: %w", err)
	}
	return out, nil
}

// ParseDiff parses a single-file unified diff. An empty input yields a nil
// FileDiff and no error.
func ParseDiff(unified string) (*diff.FileDiff, error) {
	if strings.TrimSpace(unified) == "" {
		return nil, nil
	}
	fd, err := diff.ParseFileDiff([]byte(unified))
	if err != nil {
		return nil, fmt.Errorf("parse diff: %w", err)
	}
	return fd, nil
}

// StatsOf returns the line statistics of a parsed diff. A nil diff is empty.
func StatsOf(fd *diff.FileDiff) DiffStats {
	if fd == nil {
		return DiffStats{}
	}
	st := fd.Stat()
	return DiffStats{
		Added:   int(st.Added),
		Changed: int(st.Changed),
		Deleted: int(st.Deleted),
	}
}

// RenderDiff colors a parsed diff hunk by hunk.
//
// Machine personality prints the hunks without styling so the output can
// be piped into patch tools.
func RenderDiff(fd *diff.FileDiff) string {
	if fd == nil {
		return ""
	}
	plain := GetPersonality().Level == PersonalityMachine

	var b strings.Builder
	header := fmt.Sprintf("--- %s\n+++ %s", fd.OrigName, fd.NewName)
	if plain {
		b.WriteString(header + "\n")
	} else {
		b.WriteString(Styles.Bold.Render(header) + "\n")
	}

	for _, h := range fd.Hunks {
		hunkHeader := fmt.Sprintf("@@ -%d,%d +%d,%d @@", h.OrigStartLine, h.OrigLines, h.NewStartLine, h.NewLines)
		if h.Section != "" {
			hunkHeader += " " + h.Section
		}
		if plain {
			b.WriteString(hunkHeader + "\n")
		} else {
			b.WriteString(Styles.DiffHunk.Render(hunkHeader) + "\n")
		}

		for _, line := range bytes.Split(bytes.TrimSuffix(h.Body, []byte("\n")), []byte("\n")) {
			text := string(line)
			switch {
			case plain:
				b.WriteString(text)
			case strings.HasPrefix(text, "+"):
				b.WriteString(Styles.DiffAdded.Render(text))
			case strings.HasPrefix(text, "-"):
				b.WriteString(Styles.DiffRemoved.Render(text))
			default:
				b.WriteString(Styles.Muted.Render(text))
			}
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// PrintDiff renders the before → after diff with a stats line.
//
// # Outputs
//
//   - DiffStats: statistics of the printed diff
//   - error: non-nil if the diff could not be built or parsed
func PrintDiff(fromName, toName, before, after string) (DiffStats, error) {
	unified, err := UnifiedDiff(fromName, toName, before, after)
	if err != nil {
		return DiffStats{}, err
	}
	fd, err := ParseDiff(unified)
	if err != nil {
		return DiffStats{}, err
	}
	stats := StatsOf(fd)
	if stats.Empty() {
		Muted("no changes")
		return stats, nil
	}

	fmt.Fprint(stdout(), RenderDiff(fd))
	Muted(stats.String())
	return stats, nil
}
