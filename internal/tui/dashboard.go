package tui

import (
	"fmt"

	"cyclecoach/internal/service"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/guptarohit/asciigraph"
)

// DashboardModel is the dashboard screen model
type DashboardModel struct {
	query   *service.QueryService
	data    *service.Dashboard
	loading bool
	err     error
	width   int
	height  int
}

// NewDashboardModel creates a new dashboard model
func NewDashboardModel(q *service.QueryService, width, height int) DashboardModel {
	return DashboardModel{
		query:   q,
		loading: true,
		width:   width,
		height:  height,
	}
}

// Init initializes the dashboard
func (m DashboardModel) Init() tea.Cmd {
	return m.loadData
}

func (m DashboardModel) loadData() tea.Msg {
	data, err := m.query.Dashboard()
	return dashboardMsg{data: data, err: err}
}

type dashboardMsg struct {
	data *service.Dashboard
	err  error
}

// Update handles messages
func (m DashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case dashboardMsg:
		m.loading = false
		m.err = msg.err
		m.data = msg.data
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case tea.KeyMsg:
		switch msg.String() {
		case "r":
			m.loading = true
			return m, m.loadData
		}
	}
	return m, nil
}

// View renders the dashboard
func (m DashboardModel) View() string {
	if m.loading {
		return "\n  Loading dashboard..."
	}

	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("\n  Error: %v", m.err))
	}

	if m.data == nil {
		return "\n  No data yet. Press 's' to sync with Strava."
	}

	var sections []string

	topRow := lipgloss.JoinHorizontal(lipgloss.Top, m.renderFitnessCard(), "  ", m.renderWeekCard())
	sections = append(sections, topRow)

	if len(m.data.CTLHistory) > 2 {
		sections = append(sections, m.renderChart())
	}

	sections = append(sections, m.renderRecentRides())

	help := statusStyle.Render("Press 'r' to refresh, 's' to sync, '4' for your program")
	sections = append(sections, help)

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m DashboardModel) renderFitnessCard() string {
	title := cardTitleStyle.Render("Current Fitness")

	f := m.data.Fitness
	lines := []string{
		RenderMetric("Fitness (CTL)", fmt.Sprintf("%.1f", f.CTL)),
		RenderMetric("Fatigue (ATL)", fmt.Sprintf("%.1f", f.ATL)),
		RenderMetric("Form (TSB)", fmt.Sprintf("%.1f", f.TSB)),
		"",
		statusStyle.Render(m.data.Form),
	}
	if m.data.Profile != nil {
		lines = append(lines,
			RenderMetric("FTP", fmt.Sprintf("%.0f W", m.data.Profile.FTP)),
			RenderMetric("Rider type", m.data.Profile.RiderType),
		)
	}

	content := lipgloss.JoinVertical(lipgloss.Left, lines...)
	return cardStyle.Width(38).Render(lipgloss.JoinVertical(lipgloss.Left, title, content))
}

func (m DashboardModel) renderWeekCard() string {
	title := cardTitleStyle.Render("This Week")

	w := m.data.CurrentWeek
	if w == nil {
		empty := statusStyle.Render("No active program.\nPress '4' to create one.")
		return cardStyle.Width(36).Render(lipgloss.JoinVertical(lipgloss.Left, title, empty))
	}

	recovery := ""
	if w.IsRecovery {
		recovery = successStyle.Render(" (recovery)")
	}

	lines := []string{
		RenderMetric("Week", fmt.Sprintf("%d - %s%s", w.WeekNumber, w.Phase, recovery)),
		RenderMetric("Target TSS", fmt.Sprintf("%.0f", w.TargetTSS)),
		RenderMetric("Sessions", fmt.Sprintf("%d", w.TargetSessions)),
		RenderMetric("Hours", fmt.Sprintf("%.1f", w.TargetHours)),
	}
	if m.data.RecoverySoon {
		lines = append(lines, "", warningStyle.Render("Recovery week recommended"))
	}

	content := lipgloss.JoinVertical(lipgloss.Left, lines...)
	return cardStyle.Width(36).Render(lipgloss.JoinVertical(lipgloss.Left, title, content))
}

func (m DashboardModel) renderChart() string {
	title := cardTitleStyle.Render("Fitness (CTL) - Last 6 Weeks")

	graph := asciigraph.Plot(m.data.CTLHistory,
		asciigraph.Height(8),
		asciigraph.Width(60),
		asciigraph.Precision(1),
	)

	return cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, title, graph))
}

func (m DashboardModel) renderRecentRides() string {
	title := cardTitleStyle.Render("Recent Rides")

	if len(m.data.RecentRides) == 0 {
		return cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, title, "No rides yet"))
	}

	header := tableHeaderStyle.Render(fmt.Sprintf("%-13s  %-22s  %6s  %5s  %5s  %5s",
		"When", "Name", "Time", "NP", "IF", "TSS"))

	rows := []string{header}
	for i, a := range m.data.RecentRides {
		if i >= 5 {
			break
		}

		np, intensity, tss := "-", "-", "-"
		if a.NormalizedPower != nil {
			np = fmt.Sprintf("%.0f", *a.NormalizedPower)
		}
		if a.IntensityFactor != nil {
			intensity = fmt.Sprintf("%.2f", *a.IntensityFactor)
		}
		if a.TSS != nil {
			tss = fmt.Sprintf("%.0f", *a.TSS)
		}

		row := tableRowStyle.Render(fmt.Sprintf("%-13s  %-22s  %6s  %5s  %5s  %5s",
			humanize.Time(a.StartDate),
			truncateName(a.Name, 22),
			formatDuration(a.DurationSeconds),
			np, intensity, tss,
		))
		rows = append(rows, row)
	}

	table := lipgloss.JoinVertical(lipgloss.Left, rows...)
	return cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, title, table))
}

func formatDuration(seconds int) string {
	h := seconds / 3600
	m := (seconds % 3600) / 60
	if h > 0 {
		return fmt.Sprintf("%dh%02dm", h, m)
	}
	return fmt.Sprintf("%dm", m)
}

func truncateName(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
