package tui

import (
	"fmt"
	"strings"

	"cyclecoach/internal/plan"
	"cyclecoach/internal/service"
	"cyclecoach/internal/store"
	"cyclecoach/internal/zones"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ProgramModel is the training program screen model
type ProgramModel struct {
	query    *service.QueryService
	programs *service.ProgramService

	program  *store.Program
	macro    *plan.MacroPlan
	weeks    []*store.WeekPlan
	current  *store.WeekPlan
	workouts []store.PlannedWorkout
	ftp      float64

	viewport viewport.Model
	ready    bool
	loading  bool
	err      error
	status   string
	width    int
	height   int
}

// NewProgramModel creates a new program model
func NewProgramModel(q *service.QueryService, p *service.ProgramService, width, height int) ProgramModel {
	m := ProgramModel{
		query:    q,
		programs: p,
		loading:  true,
		width:    width,
		height:   height,
	}

	if width > 0 && height > 0 {
		m.viewport = viewport.New(width, height-6)
		m.ready = true
	}

	return m
}

// Init initializes the program screen
func (m ProgramModel) Init() tea.Cmd {
	return m.loadProgram
}

type programLoadedMsg struct {
	program  *store.Program
	macro    *plan.MacroPlan
	weeks    []*store.WeekPlan
	current  *store.WeekPlan
	workouts []store.PlannedWorkout
	ftp      float64
	err      error
}

type programActionMsg struct {
	status string
	err    error
}

func (m ProgramModel) loadProgram() tea.Msg {
	d, err := m.query.Dashboard()
	if err != nil {
		return programLoadedMsg{err: err}
	}
	if d.Program == nil {
		return programLoadedMsg{}
	}

	weeks, err := m.query.ProgramWeeks(d.Program.ID)
	if err != nil {
		return programLoadedMsg{err: err}
	}

	ftp := 0.0
	if d.Profile != nil {
		ftp = d.Profile.FTP
	}

	return programLoadedMsg{
		program:  d.Program,
		macro:    d.Macro,
		weeks:    weeks,
		current:  d.CurrentWeek,
		workouts: d.Workouts,
		ftp:      ftp,
	}
}

// Update handles messages
func (m ProgramModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case programLoadedMsg:
		m.loading = false
		m.err = msg.err
		m.program = msg.program
		m.macro = msg.macro
		m.weeks = msg.weeks
		m.current = msg.current
		m.workouts = msg.workouts
		m.ftp = msg.ftp
		if m.ready {
			m.viewport.SetContent(m.renderContent())
		}

	case programActionMsg:
		m.status = msg.status
		if msg.err != nil {
			m.err = msg.err
		}
		m.loading = true
		return m, m.loadProgram

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-6)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - 6
		}
		if m.program != nil {
			m.viewport.SetContent(m.renderContent())
		}

	case tea.KeyMsg:
		switch msg.String() {
		case "r":
			m.loading = true
			m.status = ""
			return m, m.loadProgram
		case "c":
			if m.program != nil && m.current != nil {
				return m, m.completeWeek(m.program.ID, m.current.WeekNumber)
			}
		case "p":
			if m.program != nil && m.current != nil {
				return m, m.replanWeek(m.program.ID, m.current.WeekNumber)
			}
		}
	}

	if m.ready {
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m ProgramModel) completeWeek(programID string, weekNumber int) tea.Cmd {
	return func() tea.Msg {
		if err := m.programs.CompleteWeek(programID, weekNumber); err != nil {
			return programActionMsg{err: err}
		}
		// Plan the next week against the fresh actuals
		if _, err := m.programs.PlanWeek(programID, weekNumber+1); err != nil {
			return programActionMsg{err: err}
		}
		return programActionMsg{status: fmt.Sprintf("Week %d completed, week %d planned", weekNumber, weekNumber+1)}
	}
}

func (m ProgramModel) replanWeek(programID string, weekNumber int) tea.Cmd {
	return func() tea.Msg {
		if _, err := m.programs.PlanWeek(programID, weekNumber); err != nil {
			return programActionMsg{err: err}
		}
		return programActionMsg{status: fmt.Sprintf("Week %d re-planned", weekNumber)}
	}
}

// View renders the program screen
func (m ProgramModel) View() string {
	if m.loading {
		return "\n  Loading program..."
	}
	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("\n  Error: %v", m.err))
	}
	if m.program == nil {
		return "\n  No active program.\n  Create one with: cyclecoach -new-program -goal ftp_target -target-date 2026-12-01"
	}
	if !m.ready {
		return "\n  Initializing..."
	}

	footer := statusStyle.Render("j/k scroll  |  c complete week  |  p re-plan week  |  r refresh")
	if m.status != "" {
		footer = successStyle.Render(m.status) + "\n" + footer
	}
	return lipgloss.JoinVertical(lipgloss.Left, m.viewport.View(), footer)
}

func (m ProgramModel) renderContent() string {
	var sections []string
	sections = append(sections, m.renderOverview())
	sections = append(sections, m.renderWeekTable())
	if m.current != nil {
		sections = append(sections, m.renderCurrentWeek())
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m ProgramModel) renderOverview() string {
	title := cardTitleStyle.Render(fmt.Sprintf("Program: %s", m.program.GoalDescription))

	lines := []string{
		RenderMetric("Goal", m.program.GoalType),
		RenderMetric("Target date", m.program.TargetDate),
		RenderMetric("Length", fmt.Sprintf("%d weeks", m.program.TotalWeeks)),
		RenderMetric("Model", m.macro.PeriodizationModel),
	}

	for _, p := range m.macro.Phases {
		lines = append(lines, RenderMetric(
			p.Name,
			fmt.Sprintf("weeks %d-%d, TSS %d-%d", p.Weeks[0], p.Weeks[1], p.WeeklyTSSRange[0], p.WeeklyTSSRange[1])))
	}

	if m.macro.Rationale != "" {
		lines = append(lines, "", statusStyle.Render(m.macro.Rationale))
	}

	content := lipgloss.JoinVertical(lipgloss.Left, lines...)
	return cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, title, content))
}

func (m ProgramModel) renderWeekTable() string {
	title := cardTitleStyle.Render("Weeks")

	header := tableHeaderStyle.Render(fmt.Sprintf("%-4s  %-8s  %8s  %8s  %-9s  %s",
		"Wk", "Phase", "Target", "Actual", "Status", ""))
	rows := []string{header}

	for _, w := range m.weeks {
		actual := "-"
		if w.ActualTSS != nil {
			actual = fmt.Sprintf("%.0f", *w.ActualTSS)
		}
		tag := ""
		if w.IsRecovery {
			tag = successStyle.Render("recovery")
		}

		line := fmt.Sprintf("%-4d  %-8s  %8.0f  %8s  %-9s  %s",
			w.WeekNumber, w.Phase, w.TargetTSS, actual, w.Status, tag)
		if m.current != nil && w.WeekNumber == m.current.WeekNumber {
			rows = append(rows, tableSelectedStyle.Render(line))
		} else {
			rows = append(rows, tableRowStyle.Render(line))
		}
	}

	table := lipgloss.JoinVertical(lipgloss.Left, rows...)
	return cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, title, table))
}

func (m ProgramModel) renderCurrentWeek() string {
	title := cardTitleStyle.Render(fmt.Sprintf("Week %d Sessions", m.current.WeekNumber))

	var lines []string
	if m.current.AdaptationNotes != "" {
		lines = append(lines, warningStyle.Render(m.current.AdaptationNotes), "")
	}

	for _, wo := range m.workouts {
		window := ""
		if m.ftp > 0 {
			w := zones.ForWorkoutType(wo.WorkoutType, m.ftp)
			window = fmt.Sprintf("  (%.0f-%.0fW)", w.MinWatts, w.MaxWatts)
		}
		lines = append(lines, metricValueStyle.Render(fmt.Sprintf(
			"Day %d: %s - %.0f TSS, %d min%s",
			wo.DayIndex+1, wo.WorkoutType, wo.TargetTSS, wo.TargetDurationMin, window)))

		for _, stepLine := range strings.Split(strings.TrimSpace(wo.StepsText), "\n") {
			if stepLine != "" {
				lines = append(lines, statusStyle.Render("  "+stepLine))
			}
		}
		lines = append(lines, "")
	}

	if m.current.Instructions != "" {
		lines = append(lines, statusStyle.Render(m.current.Instructions))
	}

	content := lipgloss.JoinVertical(lipgloss.Left, lines...)
	return cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, title, content))
}
