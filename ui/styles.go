package ui

import "github.com/charmbracelet/lipgloss"

// styles collects the monitor's lipgloss styles.
type styles struct {
	header lipgloss.Style
	footer lipgloss.Style
}

func defaultStyles() styles {
	return styles{
		header: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("62")),
		footer: lipgloss.NewStyle().
			Faint(true),
	}
}
