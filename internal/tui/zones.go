package tui

import (
	"fmt"
	"math"

	"cyclecoach/internal/service"
	"cyclecoach/internal/zones"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ZonesModel is the training zones screen model
type ZonesModel struct {
	query   *service.QueryService
	zones   []zones.Zone
	cpBands []zones.CPBand
	loaded  bool
}

// NewZonesModel creates a new zones model
func NewZonesModel(q *service.QueryService) ZonesModel {
	return ZonesModel{query: q}
}

// Init initializes the zones screen
func (m ZonesModel) Init() tea.Cmd {
	return func() tea.Msg {
		z, cp := m.query.Zones()
		return zonesLoadedMsg{zones: z, cpBands: cp}
	}
}

type zonesLoadedMsg struct {
	zones   []zones.Zone
	cpBands []zones.CPBand
}

// Update handles messages
func (m ZonesModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(zonesLoadedMsg); ok {
		m.zones = msg.zones
		m.cpBands = msg.cpBands
		m.loaded = true
	}
	return m, nil
}

// View renders the zones tables
func (m ZonesModel) View() string {
	if !m.loaded {
		return "\n  Loading zones..."
	}

	return lipgloss.JoinVertical(lipgloss.Left, m.renderPowerZones(), m.renderCPBands())
}

func (m ZonesModel) renderPowerZones() string {
	title := cardTitleStyle.Render("Power Zones")

	header := tableHeaderStyle.Render(fmt.Sprintf("%-3s  %-20s  %-12s  %s",
		"Z", "Name", "Watts", "Description"))
	rows := []string{header}

	for _, z := range m.zones {
		wattRange := fmt.Sprintf("%.0f+", z.MinWatts)
		if !math.IsInf(z.MaxWatts, 1) {
			wattRange = fmt.Sprintf("%.0f-%.0f", z.MinWatts, z.MaxWatts)
		}
		rows = append(rows, tableRowStyle.Render(fmt.Sprintf("%-3d  %-20s  %-12s  %s",
			z.Number, z.Name, wattRange, z.Description)))
	}

	table := lipgloss.JoinVertical(lipgloss.Left, rows...)
	return cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, title, table))
}

func (m ZonesModel) renderCPBands() string {
	title := cardTitleStyle.Render("Critical Power Bands")

	header := tableHeaderStyle.Render(fmt.Sprintf("%-6s  %-10s  %-14s  %s",
		"Band", "Duration", "Watts", "Use"))
	rows := []string{header}

	for _, b := range m.cpBands {
		rows = append(rows, tableRowStyle.Render(fmt.Sprintf("%-6s  %7.0fmin  %5.0f-%.0fW  %s",
			b.Key, b.DurationMinutes, b.MinWatts, b.MaxWatts, b.Description)))
	}

	table := lipgloss.JoinVertical(lipgloss.Left, rows...)
	return cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, title, table))
}
