package tui

import (
	"fmt"

	"cyclecoach/internal/service"
	"cyclecoach/internal/store"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

// RidesModel is the ride list screen model
type RidesModel struct {
	query    *service.QueryService
	rides    []*store.Activity
	cursor   int
	pageSize int
	loading  bool
	err      error
}

// NewRidesModel creates a new rides model
func NewRidesModel(q *service.QueryService) RidesModel {
	return RidesModel{
		query:    q,
		pageSize: 15,
		loading:  true,
	}
}

// Init initializes the rides screen
func (m RidesModel) Init() tea.Cmd {
	return m.loadRides
}

type ridesLoadedMsg struct {
	rides []*store.Activity
	err   error
}

func (m RidesModel) loadRides() tea.Msg {
	rides, err := m.query.Rides(100)
	return ridesLoadedMsg{rides: rides, err: err}
}

// Update handles messages
func (m RidesModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case ridesLoadedMsg:
		m.loading = false
		m.err = msg.err
		m.rides = msg.rides

	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.rides)-1 {
				m.cursor++
			}
		case "r":
			m.loading = true
			m.cursor = 0
			return m, m.loadRides
		}
	}
	return m, nil
}

// View renders the rides list
func (m RidesModel) View() string {
	if m.loading {
		return "\n  Loading rides..."
	}
	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("\n  Error: %v", m.err))
	}
	if len(m.rides) == 0 {
		return "\n  No rides stored. Press 's' to sync with Strava."
	}

	header := tableHeaderStyle.Render(fmt.Sprintf("%-13s  %-24s  %7s  %6s  %5s  %5s  %5s",
		"When", "Name", "Dist", "Time", "NP", "IF", "TSS"))
	rows := []string{header}

	// Window around the cursor
	start := 0
	if m.cursor >= m.pageSize {
		start = m.cursor - m.pageSize + 1
	}
	end := start + m.pageSize
	if end > len(m.rides) {
		end = len(m.rides)
	}

	for i := start; i < end; i++ {
		a := m.rides[i]

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

		line := fmt.Sprintf("%-13s  %-24s  %6.1fk  %6s  %5s  %5s  %5s",
			humanize.Time(a.StartDate),
			truncateName(a.Name, 24),
			a.Distance/1000,
			formatDuration(a.DurationSeconds),
			np, intensity, tss,
		)

		if i == m.cursor {
			rows = append(rows, tableSelectedStyle.Render(line))
		} else {
			rows = append(rows, tableRowStyle.Render(line))
		}
	}

	table := lipgloss.JoinVertical(lipgloss.Left, rows...)
	footer := statusStyle.Render(fmt.Sprintf("%d rides  |  j/k to move, r to refresh", len(m.rides)))

	return lipgloss.JoinVertical(lipgloss.Left,
		cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, cardTitleStyle.Render("Rides"), table)),
		footer)
}
