package output

import "github.com/charmbracelet/lipgloss"

// Styles holds the lipgloss styles used by the renderer.
type Styles struct {
	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Key      lipgloss.Style
	Muted    lipgloss.Style
	Success  lipgloss.Style
	Warning  lipgloss.Style
	Error    lipgloss.Style
	Card     lipgloss.Style
	CardName lipgloss.Style
	CardText lipgloss.Style
	Positive lipgloss.Style
	Negative lipgloss.Style
}

// NewStyles builds the styles for a lipgloss renderer. Colors are dropped
// when the renderer's profile has none.
func NewStyles(lr *lipgloss.Renderer) *Styles {
	return &Styles{
		Title:    lr.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		Subtitle: lr.NewStyle().Bold(true),
		Key:      lr.NewStyle().Foreground(lipgloss.Color("8")),
		Muted:    lr.NewStyle().Foreground(lipgloss.Color("8")),
		Success:  lr.NewStyle().Foreground(lipgloss.Color("10")),
		Warning:  lr.NewStyle().Foreground(lipgloss.Color("11")),
		Error:    lr.NewStyle().Foreground(lipgloss.Color("9")),
		Card: lr.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("8")).
			Padding(0, 1).
			MarginRight(1),
		CardName: lr.NewStyle().Foreground(lipgloss.Color("8")),
		CardText: lr.NewStyle().Bold(true),
		Positive: lr.NewStyle().Foreground(lipgloss.Color("10")),
		Negative: lr.NewStyle().Foreground(lipgloss.Color("9")),
	}
}
