// Package ui holds shared rendering helpers and styles for the shell.
package ui

import (
	"unicode"

	"github.com/charmbracelet/lipgloss"
)

var (
	Primary   = lipgloss.Color("#F59E0B")
	Secondary = lipgloss.Color("#3B82F6")
	Subtle    = lipgloss.Color("#6B7280")
	Danger    = lipgloss.Color("#EF4444")
	Surface   = lipgloss.Color("#1F2937")
	Text      = lipgloss.Color("#F9FAFB")
)

var (
	Header = lipgloss.NewStyle().Bold(true).Foreground(Primary)
	Muted  = lipgloss.NewStyle().Foreground(Subtle)
	Error  = lipgloss.NewStyle().Foreground(Danger)

	Badge = lipgloss.NewStyle().
		Bold(true).
		Padding(0, 1).
		Foreground(Text).
		Background(Surface)
	BadgeActive = Badge.
			Background(Primary).
			Foreground(lipgloss.Color("#111827"))

	Sidebar = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderRight(true).
		BorderForeground(Subtle)

	Modal = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Secondary).
		Padding(1, 2)
)

// BadgeText returns the single-cell label drawn inside an icon badge.
func BadgeText(name string) string {
	for _, r := range name {
		return string(unicode.ToUpper(r))
	}
	return "?"
}
