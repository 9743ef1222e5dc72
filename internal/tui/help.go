package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// HelpModel is the help screen model
type HelpModel struct{}

// NewHelpModel creates a new help model
func NewHelpModel() HelpModel {
	return HelpModel{}
}

// Init initializes the help screen
func (m HelpModel) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m HelpModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	return m, nil
}

// View renders the help screen
func (m HelpModel) View() string {
	var sections []string

	title := cardTitleStyle.Render("Keyboard Shortcuts")
	sections = append(sections, title)

	navSection := m.renderSection("Navigation", []keyHelp{
		{"1", "Dashboard"},
		{"2", "Ride list"},
		{"3", "Power profile"},
		{"4", "Training program"},
		{"5", "Zones"},
		{"6 or s", "Sync screen"},
		{"?", "Help (this screen)"},
		{"q", "Quit"},
		{"esc", "Back / close help"},
	})
	sections = append(sections, navSection)

	programSection := m.renderSection("Program", []keyHelp{
		{"j / k", "Scroll"},
		{"c", "Complete current week and plan the next"},
		{"p", "Re-plan current week"},
		{"r", "Refresh"},
	})
	sections = append(sections, programSection)

	listSection := m.renderSection("Lists", []keyHelp{
		{"j / down", "Move cursor down"},
		{"k / up", "Move cursor up"},
		{"r", "Refresh"},
	})
	sections = append(sections, listSection)

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

type keyHelp struct {
	key  string
	desc string
}

func (m HelpModel) renderSection(title string, keys []keyHelp) string {
	var lines []string
	lines = append(lines, "")
	lines = append(lines, metricValueStyle.Render(title))

	for _, k := range keys {
		lines = append(lines, "  "+RenderKeyHelp(padKey(k.key), k.desc))
	}

	return strings.Join(lines, "\n")
}

func padKey(key string) string {
	for len(key) < 10 {
		key += " "
	}
	return key
}
