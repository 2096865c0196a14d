package tui

import (
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
)

// Styles holds the styles of the browser.
type Styles struct {
	Title    lipgloss.Style
	Muted    lipgloss.Style
	Error    lipgloss.Style
	Prompt   lipgloss.Style
	Sorted   lipgloss.Style
	StatCard lipgloss.Style
	StatName lipgloss.Style
	Help     lipgloss.Style
	Table    table.Styles
}

// DefaultStyles returns the default browser styles.
func DefaultStyles() Styles {
	t := table.DefaultStyles()
	t.Header = t.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	t.Selected = t.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57"))

	return Styles{
		Title:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205")),
		Muted:  lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		Error:  lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		Prompt: lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
		Sorted: lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true),
		StatCard: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1).
			MarginRight(1),
		StatName: lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		Help:     lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		Table:    t,
	}
}
