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

import "github.com/charmbracelet/lipgloss"

// Palette.
var (
	ColorMintBright = lipgloss.Color("#3DDC97")
	ColorMint       = lipgloss.Color("#2BB673")
	ColorSage       = lipgloss.Color("#5E8C6A")
	ColorSlate      = lipgloss.Color("#4A5A63")
	ColorWarning    = lipgloss.Color("#F4D03F")
	ColorError      = lipgloss.Color("#FF6B6B")
	ColorHunk       = lipgloss.Color("#7FB3D5")
)

// Styles holds the shared text styles. Diff lines reuse the status colors.
var Styles = struct {
	Title, Bold, Muted, Highlight    lipgloss.Style
	Success, Warning, Error          lipgloss.Style
	DiffAdded, DiffRemoved, DiffHunk lipgloss.Style
}{
	Title:     lipgloss.NewStyle().Bold(true).Foreground(ColorMintBright),
	Bold:      lipgloss.NewStyle().Bold(true),
	Muted:     lipgloss.NewStyle().Foreground(ColorSlate),
	Highlight: lipgloss.NewStyle().Bold(true).Foreground(ColorMintBright),

	Success: lipgloss.NewStyle().Foreground(ColorMintBright),
	Warning: lipgloss.NewStyle().Foreground(ColorWarning),
	Error:   lipgloss.NewStyle().Foreground(ColorError),

	DiffAdded:   lipgloss.NewStyle().Foreground(ColorMintBright),
	DiffRemoved: lipgloss.NewStyle().Foreground(ColorError),
	DiffHunk:    lipgloss.NewStyle().Foreground(ColorHunk),
}

const panelWidth = 64

// panel draws a rounded border in the given color around a title and body.
func panel(title, body string, border lipgloss.Color, heading lipgloss.Style) string {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Padding(0, 1).
		Width(panelWidth).
		Render(heading.Render(title) + "\n" + body)
}
