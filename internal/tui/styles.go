package tui

import "github.com/charmbracelet/lipgloss"

// Styles for the TUI
type Styles struct {
	Title    lipgloss.Style
	Accent   lipgloss.Style
	Dim      lipgloss.Style
	Error    lipgloss.Style
	Success  lipgloss.Style
	Selected lipgloss.Style
	Files    lipgloss.Style
	Header   lipgloss.Style
	Code     lipgloss.Style
}

func NewStyles() *Styles {
	return &Styles{
		Title:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63")),
		Accent:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")), // Blue
		Dim:      lipgloss.NewStyle().Foreground(lipgloss.Color("8")),             // Gray
		Error:    lipgloss.NewStyle().Foreground(lipgloss.Color("9")),             // Red
		Success:  lipgloss.NewStyle().Foreground(lipgloss.Color("10")),            // Green
		Selected: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("26")),
		Files:    lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1),
		Header:   lipgloss.NewStyle().Foreground(lipgloss.Color("244")).Underline(true),
		Code:     lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
	}
}
