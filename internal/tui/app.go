// Package tui is the terminal interface: dashboard, ride list, power
// profile, training program, zones, and sync screens.
package tui

import (
	"cyclecoach/internal/service"
	"cyclecoach/internal/store"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Screen identifiers
type Screen int

const (
	ScreenDashboard Screen = iota
	ScreenRides
	ScreenProfile
	ScreenProgram
	ScreenZones
	ScreenSync
	ScreenHelp
)

// App is the root Bubble Tea model
type App struct {
	screen     Screen
	prevScreen Screen

	// Screen models
	dashboard  DashboardModel
	rides      RidesModel
	profile    ProfileModel
	program    ProgramModel
	zones      ZonesModel
	syncScreen SyncModel
	help       HelpModel

	// Services
	db          *store.DB
	query       *service.QueryService
	syncService *service.SyncService
	programs    *service.ProgramService

	// Window dimensions
	width  int
	height int
}

// NewApp creates the app with all its dependencies.
func NewApp(db *store.DB, query *service.QueryService, syncService *service.SyncService, programs *service.ProgramService) *App {
	return &App{
		screen:      ScreenDashboard,
		db:          db,
		query:       query,
		syncService: syncService,
		programs:    programs,
		dashboard:   NewDashboardModel(query, 0, 0),
		rides:       NewRidesModel(query),
		profile:     NewProfileModel(query),
		program:     NewProgramModel(query, programs, 0, 0),
		zones:       NewZonesModel(query),
		syncScreen:  NewSyncModel(syncService),
		help:        NewHelpModel(),
	}
}

// Init initializes the app
func (a *App) Init() tea.Cmd {
	return a.dashboard.Init()
}

// Update handles messages
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		// Global keybindings (unless a sync is running)
		if a.screen != ScreenSync || !a.syncScreen.syncing {
			switch msg.String() {
			case "q", "ctrl+c":
				return a, tea.Quit
			case "1":
				a.screen = ScreenDashboard
				a.dashboard = NewDashboardModel(a.query, a.width, a.height)
				return a, a.dashboard.Init()
			case "2":
				a.screen = ScreenRides
				return a, a.rides.Init()
			case "3":
				a.screen = ScreenProfile
				return a, a.profile.Init()
			case "4":
				a.screen = ScreenProgram
				a.program = NewProgramModel(a.query, a.programs, a.width, a.height)
				return a, a.program.Init()
			case "5":
				a.screen = ScreenZones
				return a, a.zones.Init()
			case "6", "s":
				if a.screen != ScreenSync {
					a.screen = ScreenSync
					return a, a.syncScreen.Init()
				}
				// Let 's' fall through to the sync screen when already there
			case "?":
				a.prevScreen = a.screen
				a.screen = ScreenHelp
				return a, nil
			case "esc":
				if a.screen == ScreenHelp {
					a.screen = a.prevScreen
					return a, nil
				}
			}
		}

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height

	case SyncCompleteMsg:
		// Refresh dashboard after sync
		a.screen = ScreenDashboard
		a.dashboard = NewDashboardModel(a.query, a.width, a.height)
		return a, a.dashboard.Init()
	}

	// Delegate to current screen
	var cmd tea.Cmd
	switch a.screen {
	case ScreenDashboard:
		a.dashboard, cmd = delegate(a.dashboard, msg)
	case ScreenRides:
		a.rides, cmd = delegate(a.rides, msg)
	case ScreenProfile:
		a.profile, cmd = delegate(a.profile, msg)
	case ScreenProgram:
		a.program, cmd = delegate(a.program, msg)
	case ScreenZones:
		a.zones, cmd = delegate(a.zones, msg)
	case ScreenSync:
		a.syncScreen, cmd = delegate(a.syncScreen, msg)
	case ScreenHelp:
		a.help, cmd = delegate(a.help, msg)
	}

	return a, cmd
}

// delegate forwards a message to a screen model, preserving its concrete type.
func delegate[M tea.Model](m M, msg tea.Msg) (M, tea.Cmd) {
	next, cmd := m.Update(msg)
	return next.(M), cmd
}

// View renders the app
func (a *App) View() string {
	header := headerStyle.Render("CycleCoach")
	nav := a.renderNav()

	var content string
	switch a.screen {
	case ScreenDashboard:
		content = a.dashboard.View()
	case ScreenRides:
		content = a.rides.View()
	case ScreenProfile:
		content = a.profile.View()
	case ScreenProgram:
		content = a.program.View()
	case ScreenZones:
		content = a.zones.View()
	case ScreenSync:
		content = a.syncScreen.View()
	case ScreenHelp:
		content = a.help.View()
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, nav, content)
}

func (a *App) renderNav() string {
	items := []struct {
		key    string
		label  string
		screen Screen
	}{
		{"1", "Dashboard", ScreenDashboard},
		{"2", "Rides", ScreenRides},
		{"3", "Power Profile", ScreenProfile},
		{"4", "Program", ScreenProgram},
		{"5", "Zones", ScreenZones},
		{"6", "Sync", ScreenSync},
		{"?", "Help", ScreenHelp},
	}

	var nav string
	for i, item := range items {
		if i > 0 {
			nav += "  "
		}

		label := "[" + item.key + "] " + item.label
		if a.screen == item.screen {
			nav += navActiveStyle.Render(label)
		} else {
			nav += navInactiveStyle.Render(label)
		}
	}

	nav += "  " + navInactiveStyle.Render("[q] Quit")

	return navStyle.Render(nav)
}

// SyncCompleteMsg is sent when sync finishes
type SyncCompleteMsg struct{}
