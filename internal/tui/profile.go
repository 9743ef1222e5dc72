package tui

import (
	"fmt"
	"strings"

	"cyclecoach/internal/powerprofile"
	"cyclecoach/internal/service"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ProfileModel is the power profile screen model
type ProfileModel struct {
	query    *service.QueryService
	analysis *powerprofile.Analysis
	loading  bool
	err      error
}

// NewProfileModel creates a new power profile model
func NewProfileModel(q *service.QueryService) ProfileModel {
	return ProfileModel{query: q, loading: true}
}

// Init initializes the profile screen
func (m ProfileModel) Init() tea.Cmd {
	return m.loadProfile
}

type profileLoadedMsg struct {
	analysis *powerprofile.Analysis
	err      error
}

func (m ProfileModel) loadProfile() tea.Msg {
	analysis, err := m.query.PowerProfile()
	if err != nil {
		return profileLoadedMsg{err: err}
	}
	return profileLoadedMsg{analysis: &analysis}
}

// Update handles messages
func (m ProfileModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case profileLoadedMsg:
		m.loading = false
		m.err = msg.err
		m.analysis = msg.analysis
	case tea.KeyMsg:
		switch msg.String() {
		case "r":
			m.loading = true
			return m, m.loadProfile
		}
	}
	return m, nil
}

// View renders the power profile
func (m ProfileModel) View() string {
	if m.loading {
		return "\n  Loading power profile..."
	}
	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("\n  Error: %v", m.err))
	}

	a := m.analysis
	if a == nil || len(a.PowerCurveWatts) == 0 {
		return "\n  No power records yet. Sync rides with power data first."
	}

	var sections []string
	sections = append(sections, m.renderCurve())
	sections = append(sections, m.renderClassification())
	sections = append(sections, statusStyle.Render("Press 'r' to refresh"))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m ProfileModel) renderCurve() string {
	title := cardTitleStyle.Render("Power Curve (All-Time Bests)")

	header := tableHeaderStyle.Render(fmt.Sprintf("%-8s  %7s  %7s  %10s",
		"Duration", "Watts", "W/kg", "vs Ref"))
	rows := []string{header}

	for _, d := range powerprofile.Durations {
		watts, ok := m.analysis.PowerCurveWatts[d]
		if !ok || watts <= 0 {
			continue
		}

		pctCell := "-"
		if pct, ok := m.analysis.Percentiles[d]; ok {
			bar := RenderProgressBar(pct/100, 10)
			pctCell = fmt.Sprintf("%s %3.0f%%", bar, pct)
		}

		rows = append(rows, tableRowStyle.Render(fmt.Sprintf("%-8s  %6.0fW  %7.2f  %s",
			d, watts, m.analysis.PowerCurveWKg[d], pctCell)))
	}

	table := lipgloss.JoinVertical(lipgloss.Left, rows...)
	return cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, title, table))
}

func (m ProfileModel) renderClassification() string {
	title := cardTitleStyle.Render("Rider Classification")

	lines := []string{
		RenderMetric("Rider type", m.analysis.RiderType),
	}
	if len(m.analysis.Strengths) > 0 {
		lines = append(lines, RenderMetric("Strengths", successStyle.Render(strings.Join(m.analysis.Strengths, ", "))))
	}
	if len(m.analysis.Weaknesses) > 0 {
		lines = append(lines, RenderMetric("Weaknesses", warningStyle.Render(strings.Join(m.analysis.Weaknesses, ", "))))
	}
	if m.analysis.Recommendations != "" {
		lines = append(lines, "", statusStyle.Render(m.analysis.Recommendations))
	}

	content := lipgloss.JoinVertical(lipgloss.Left, lines...)
	return cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, title, content))
}
