package tui

import "github.com/charmbracelet/lipgloss"

// Blue accent for the brand, cursor, and spinner; amber for documents
// still waiting on an index.
var (
	brandStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39"))

	taglineStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("246"))

	okStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("77"))

	errStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("160"))

	pendingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("178"))

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	questionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("81"))

	answerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("253"))

	footerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243")).
			Background(lipgloss.Color("237")).
			Padding(0, 1)

	cursorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39"))

	rowStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("253"))
)
