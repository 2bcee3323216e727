// Copyright (c) 2025-2026 Lumen Learning Labs
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/charmbracelet/lipgloss"
)

// =============================================================================
// STYLES
// =============================================================================

// Styles holds the lipgloss styles for the chat view.
type Styles struct {
	Header     lipgloss.Style
	UserLabel  lipgloss.Style
	TutorLabel lipgloss.Style
	Body       lipgloss.Style
	Partial    lipgloss.Style

	BannerWarn lipgloss.Style
	BannerStop lipgloss.Style
	ErrorLine  lipgloss.Style
	StatusBar  lipgloss.Style
	StatusKey  lipgloss.Style
	Selection  lipgloss.Style
}

// DefaultStyles returns the default chat styling.
func DefaultStyles() Styles {
	return Styles{
		Header: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12")).
			Padding(0, 1),
		UserLabel: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("10")),
		TutorLabel: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("14")),
		Body: lipgloss.NewStyle().
			Foreground(lipgloss.Color("15")),
		Partial: lipgloss.NewStyle().
			Foreground(lipgloss.Color("7")),
		BannerWarn: lipgloss.NewStyle().
			Foreground(lipgloss.Color("11")).
			Padding(0, 1),
		BannerStop: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("9")).
			Padding(0, 1),
		ErrorLine: lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")),
		StatusBar: lipgloss.NewStyle().
			Foreground(lipgloss.Color("8")).
			Padding(0, 1),
		StatusKey: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("7")),
		Selection: lipgloss.NewStyle().
			Italic(true).
			Foreground(lipgloss.Color("13")),
	}
}
