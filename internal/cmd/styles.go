package cmd

import "github.com/charmbracelet/lipgloss"

// Shared lipgloss styles for human-readable command output.
var (
	styleHeader = lipgloss.NewStyle().Bold(true)

	styleAgentID = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")) // blue

	styleActive = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")) // green

	styleInactive = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")) // gray

	stylePending = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")) // orange

	styleFailed = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // red
)
