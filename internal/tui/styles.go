package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	primaryColor   = lipgloss.Color("#F97316") // orange
	secondaryColor = lipgloss.Color("#10B981") // green
	warningColor   = lipgloss.Color("#F59E0B") // amber
	errorColor     = lipgloss.Color("#EF4444") // red
	mutedColor     = lipgloss.Color("#6B7280") // gray
	textColor      = lipgloss.Color("#F9FAFB") // near-white
)

var (
	boldText  = lipgloss.NewStyle().Bold(true).Foreground(textColor)
	boldTheme = lipgloss.NewStyle().Bold(true).Foreground(primaryColor)
	dimText   = lipgloss.NewStyle().Foreground(mutedColor)
)

var (
	headerStyle = boldText.
			Background(primaryColor).
			Padding(0, 1).
			MarginBottom(1)

	navStyle         = dimText.MarginBottom(1)
	navActiveStyle   = boldTheme
	navInactiveStyle = dimText

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(mutedColor).
			Padding(1, 2)
	cardTitleStyle = boldTheme.MarginBottom(1)

	metricLabelStyle = dimText.Width(18)
	metricValueStyle = boldText

	tableHeaderStyle = boldTheme.
				BorderBottom(true).
				BorderForeground(mutedColor).
				Padding(0, 1)
	tableRowStyle      = lipgloss.NewStyle().Padding(0, 1)
	tableSelectedStyle = boldText.Background(primaryColor).Padding(0, 1)

	statusStyle  = dimText.MarginTop(1)
	errorStyle   = lipgloss.NewStyle().Foreground(errorColor)
	successStyle = lipgloss.NewStyle().Foreground(secondaryColor)
	warningStyle = lipgloss.NewStyle().Foreground(warningColor)

	helpKeyStyle  = boldTheme
	helpDescStyle = dimText

	progressFullStyle  = lipgloss.NewStyle().Foreground(secondaryColor)
	progressEmptyStyle = dimText
)

// RenderMetric renders a labeled metric line with a fixed-width label column.
func RenderMetric(label, value string) string {
	return metricLabelStyle.Render(label) + metricValueStyle.Render(value)
}

// RenderProgressBar renders a bar of width cells, filled to percent [0,1].
func RenderProgressBar(percent float64, width int) string {
	filled := int(percent * float64(width))
	switch {
	case filled > width:
		filled = width
	case filled < 0:
		filled = 0
	}
	return progressFullStyle.Render(strings.Repeat("█", filled)) +
		progressEmptyStyle.Render(strings.Repeat("░", width-filled))
}

// RenderKeyHelp renders one key binding with its description.
func RenderKeyHelp(key, desc string) string {
	return helpKeyStyle.Render(key) + " " + helpDescStyle.Render(desc)
}
