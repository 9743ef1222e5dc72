package tui

import (
	"context"
	"fmt"
	"strings"

	"cyclecoach/internal/service"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// SyncModel is the sync screen model
type SyncModel struct {
	syncService *service.SyncService
	syncing     bool
	result      *service.SyncResult
	err         error
	done        bool
}

// NewSyncModel creates a new sync model
func NewSyncModel(ss *service.SyncService) SyncModel {
	return SyncModel{syncService: ss}
}

// Init initializes the sync screen
func (m SyncModel) Init() tea.Cmd {
	return nil
}

// SyncDoneMsg is sent when sync finishes
type SyncDoneMsg struct {
	Result *service.SyncResult
	Err    error
}

// Update handles messages
func (m SyncModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case SyncDoneMsg:
		m.syncing = false
		m.done = true
		m.result = msg.Result
		m.err = msg.Err
		return m, func() tea.Msg { return SyncCompleteMsg{} }

	case tea.KeyMsg:
		if m.syncing {
			break
		}
		switch msg.String() {
		case "enter", "s":
			m.syncing = true
			m.done = false
			m.err = nil
			m.result = nil
			return m, m.runSync
		}
	}
	return m, nil
}

func (m SyncModel) runSync() tea.Msg {
	// Progress channel stays nil: real-time updates would need a reader
	// goroutine and the channel blocks once its buffer fills.
	result, syncErr := m.syncService.SyncAll(context.Background(), nil)
	return SyncDoneMsg{Result: result, Err: syncErr}
}

// View renders the sync screen
func (m SyncModel) View() string {
	title := cardTitleStyle.Render("Strava Sync")

	var body string
	switch {
	case m.err != nil:
		body = errorStyle.Render(fmt.Sprintf("\n  Error: %v", m.err)) +
			"\n" + statusStyle.Render("  Press 's' or Enter to retry")
	case m.done:
		body = successStyle.Render("\n  Sync complete!") +
			m.renderSummary() +
			"\n" + statusStyle.Render("  Press '1' to go to dashboard")
	case m.syncing:
		body = "\n  Syncing with Strava...\n" +
			statusStyle.Render("  This may take a moment...")
	default:
		body = m.renderStartPrompt()
	}

	return lipgloss.JoinVertical(lipgloss.Left, title, body)
}

func (m SyncModel) renderStartPrompt() string {
	short, daily := m.syncService.RateLimitStatus()

	var b strings.Builder
	b.WriteString("\n  This will sync your Strava rides:\n\n")
	b.WriteString("  1. Fetch new rides from Strava\n")
	b.WriteString("  2. Download 1 Hz power streams\n")
	b.WriteString("  3. Compute NP, IF, TSS, and zone time\n")
	b.WriteString("  4. Update fitness and power records\n\n")
	b.WriteString(statusStyle.Render(fmt.Sprintf(
		"  API limits: %d (15min), %d (daily) remaining", short, daily)))
	b.WriteString("\n")
	b.WriteString(statusStyle.Render("  Press 's' or Enter to start sync"))
	return b.String()
}

func (m SyncModel) renderSummary() string {
	if m.result == nil {
		return ""
	}
	r := m.result

	var lines []string
	if r.RidesStored > 0 {
		lines = append(lines, successStyle.Render(fmt.Sprintf("  %d rides synced", r.RidesStored)))
	} else {
		lines = append(lines, statusStyle.Render("  No new rides"))
	}
	if r.StreamsFetched > 0 {
		lines = append(lines, successStyle.Render(fmt.Sprintf("  %d power streams downloaded", r.StreamsFetched)))
	}
	if r.MetricsComputed > 0 {
		lines = append(lines, successStyle.Render(fmt.Sprintf("  %d rides analyzed", r.MetricsComputed)))
	}
	if r.RecordsUpdated > 0 {
		lines = append(lines, successStyle.Render(fmt.Sprintf("  %d power records improved", r.RecordsUpdated)))
	}
	lines = append(lines, statusStyle.Render(fmt.Sprintf(
		"  Fitness: CTL %.1f, ATL %.1f, TSB %.1f", r.Fitness.CTL, r.Fitness.ATL, r.Fitness.TSB)))
	if len(r.Errors) > 0 {
		lines = append(lines, warningStyle.Render(fmt.Sprintf("  %d errors occurred", len(r.Errors))))
	}

	return "\n" + strings.Join(lines, "\n")
}
