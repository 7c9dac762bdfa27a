// Package styles contains Lip Gloss style definitions for the panel.
package styles

import "github.com/charmbracelet/lipgloss"

var (
	// Header renders the branch line.
	Header = lipgloss.NewStyle().Bold(true)

	// Dim renders secondary detail like ahead/behind counts.
	Dim = lipgloss.NewStyle().Faint(true)

	// Error renders blocking and transient errors.
	Error = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))

	// Conflict renders conflicted paths and in-progress warnings.
	Conflict = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))

	// Cursor highlights the selected row.
	Cursor = lipgloss.NewStyle().Reverse(true)
)
