package cmd

import "github.com/charmbracelet/lipgloss"

var (
	headerColor    = lipgloss.Color("#F780FF") // Bright pink
	actionColor    = lipgloss.Color("#8BE9FD") // Cyan
	paragraphColor = lipgloss.Color("#E9E9F4") // Light purple/white
	mutedColor     = lipgloss.Color("#6272A4") // Muted purple
	errorColor     = lipgloss.Color("#FF5555") // Red
	successColor   = lipgloss.Color("#50FA7B") // Green
	warnColor      = lipgloss.Color("#FFB86C") // Orange
)

var (
	headerStyle = lipgloss.NewStyle().
			Foreground(headerColor).
			Bold(true)

	actionStyle = lipgloss.NewStyle().
			Foreground(actionColor).
			Italic(true)

	paragraphStyle = lipgloss.NewStyle().
			Foreground(paragraphColor).
			Width(80)

	mutedStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Italic(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(errorColor).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(successColor)

	noticeStyle = lipgloss.NewStyle().
			Foreground(warnColor)
)
