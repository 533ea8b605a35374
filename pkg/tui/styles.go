package tui

import "github.com/charmbracelet/lipgloss"

var (
	colorAccent = lipgloss.Color("#4285F4")
	colorUser   = lipgloss.Color("#34A853")
	colorWarn   = lipgloss.Color("#FBBC05")
	colorDim    = lipgloss.Color("#808080")

	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFFFFF")).Background(colorAccent).Padding(0, 1)
	userStyle    = lipgloss.NewStyle().Bold(true).Foreground(colorUser)
	botStyle     = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	dimStyle     = lipgloss.NewStyle().Foreground(colorDim)
	warnStyle    = lipgloss.NewStyle().Foreground(colorWarn)
	confirmStyle = lipgloss.NewStyle().Bold(true).Foreground(colorWarn).Border(lipgloss.RoundedBorder()).BorderForeground(colorWarn).Padding(0, 1)
)
