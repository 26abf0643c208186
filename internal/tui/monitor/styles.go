package monitor

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/marcus/tock/internal/status"
)

var (
	// Base colors
	primaryColor = lipgloss.Color("212")
	mutedColor   = lipgloss.Color("241")
	successColor = lipgloss.Color("42")
	warningColor = lipgloss.Color("214")
	errorColor   = lipgloss.Color("196")

	// Panel styles
	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)

	panelTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Background(lipgloss.Color("237")).
			Foreground(lipgloss.Color("255")).
			Padding(0, 1)

	// Text styles
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(primaryColor)
	subtleStyle    = lipgloss.NewStyle().Foreground(mutedColor)
	helpStyle      = lipgloss.NewStyle().Foreground(mutedColor)
	timestampStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	spinnerStyle   = lipgloss.NewStyle().Foreground(warningColor)

	positiveStyle = lipgloss.NewStyle().Foreground(successColor)
	negativeStyle = lipgloss.NewStyle().Foreground(errorColor)
)

// formatMessage renders a status message in its kind's color
func formatMessage(m status.Message) string {
	switch m.Kind {
	case status.Positive:
		return positiveStyle.Render(m.Text)
	case status.Negative:
		return negativeStyle.Render(m.Text)
	default:
		return subtleStyle.Render(m.Text)
	}
}
