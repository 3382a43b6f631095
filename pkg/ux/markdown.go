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
	"fmt"

	"github.com/charmbracelet/glamour"
)

// RenderMarkdown renders markdown for the terminal.
//
// Machine personality returns the source unchanged. Any renderer failure
// also falls back to the source, since the raw markdown is still readable.
func RenderMarkdown(md string) string {
	p := GetPersonality()
	if p.Level == PersonalityMachine {
		return md
	}

	wrap := p.WordWrap
	if wrap <= 0 {
		wrap = 80
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(wrap),
	)
	if err != nil {
		return md
	}
	out, err := renderer.Render(md)
	if err != nil {
		return md
	}
	return out
}

// PrintMarkdown renders markdown and writes it to stdout.
func PrintMarkdown(md string) {
	fmt.Fprint(stdout(), RenderMarkdown(md))
}
