package tui

import "github.com/charmbracelet/lipgloss"

// courseup palette: cool blues for chrome, green/red reserved for outcomes.
var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("81"))
	sectionStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("75")).MarginTop(1)

	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("78"))
	runningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("81"))
	failureStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true)
	skippedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	pendingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	summaryStyle = lipgloss.NewStyle().Faint(true).MarginTop(1)
)
