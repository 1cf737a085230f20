// Package dashboard is the single-screen TUI: current usage, month-end
// forecast and the recent history chart.
package dashboard

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/bizzkoot/copilot-tracker/internal/models"
	"github.com/bizzkoot/copilot-tracker/internal/services"
	"github.com/bizzkoot/copilot-tracker/internal/ui/components"
)

// keyMap defines the dashboard key bindings.
type keyMap struct {
	Refresh       key.Binding
	Login         key.Binding
	Logout        key.Binding
	CyclePeriod   key.Binding
	Notifications key.Binding
	Quit          key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		Login: key.NewBinding(
			key.WithKeys("l"),
			key.WithHelp("l", "login"),
		),
		Logout: key.NewBinding(
			key.WithKeys("L"),
			key.WithHelp("L", "logout"),
		),
		CyclePeriod: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "forecast window"),
		),
		Notifications: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "notifications"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

type (
	// fetchDoneMsg reports the outcome of a manual refresh or login.
	fetchDoneMsg struct {
		err error
	}
)

// Model is the root Bubble Tea model.
type Model struct {
	manager *services.Manager
	keys    keyMap

	width  int
	height int

	usageBar components.UsageBar
	spinner  components.LoadingSpinner

	payload       *models.UsagePayload
	settings      models.Settings
	authenticated bool
	fetching      bool
	statusLine    string
	lastError     error

	events chan services.ServiceEvent
}

// New creates the dashboard model backed by the service manager.
func New(manager *services.Manager) Model {
	settings := manager.Settings()

	m := Model{
		manager:       manager,
		keys:          defaultKeyMap(),
		usageBar:      components.NewUsageBar(40),
		spinner:       components.NewSpinner("Fetching usage..."),
		settings:      settings,
		authenticated: settings.IsAuthenticated,
		payload:       manager.GetCachedPayload(),
	}
	if m.payload != nil {
		m.usageBar.SetUsage(m.payload.Summary.Used, m.payload.Summary.Limit)
	}

	m.events, _ = manager.Subscribe()
	return m
}

// Init starts the spinner and the event wait loop.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Init(), m.waitCmd(m.events))
}

func (m Model) waitCmd(events chan services.ServiceEvent) tea.Cmd {
	return services.WaitForEvent(events)
}

// Update routes messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		barWidth := msg.Width - 30
		if barWidth < 20 {
			barWidth = 20
		}
		if barWidth > 60 {
			barWidth = 60
		}
		m.usageBar.SetWidth(barWidth)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case services.UsageUpdatedEvent:
		m.usageBar.SetUsage(msg.Summary.Used, msg.Summary.Limit)
		m.statusLine = "Updated " + time.Unix(msg.Summary.Timestamp, 0).Format("15:04:05")
		m.lastError = nil
		return m, m.waitCmd(m.events)

	case services.UsageDataEvent:
		payload := msg.Payload
		m.payload = &payload
		return m, m.waitCmd(m.events)

	case services.AuthStateChangedEvent:
		m.authenticated = msg.State == models.AuthStateAuthenticated
		if !m.authenticated {
			m.payload = nil
		}
		return m, m.waitCmd(m.events)

	case services.SettingsChangedEvent:
		m.settings = msg.Settings
		return m, m.waitCmd(m.events)

	case services.ErrorEvent:
		m.lastError = msg.Error
		return m, m.waitCmd(m.events)

	case fetchDoneMsg:
		m.fetching = false
		if msg.err != nil {
			m.lastError = msg.err
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.spinner, cmd = m.spinner.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Refresh):
		if m.fetching || !m.authenticated {
			return m, nil
		}
		m.fetching = true
		m.spinner.SetLabel("Fetching usage...")
		return m, tea.Batch(m.spinner.Init(), m.refreshCmd())

	case key.Matches(msg, m.keys.Login):
		if m.fetching {
			return m, nil
		}
		m.fetching = true
		m.spinner.SetLabel("Waiting for browser login...")
		return m, tea.Batch(m.spinner.Init(), m.loginCmd())

	case key.Matches(msg, m.keys.Logout):
		return m, m.logoutCmd()

	case key.Matches(msg, m.keys.CyclePeriod):
		return m, m.cyclePeriodCmd()

	case key.Matches(msg, m.keys.Notifications):
		return m, m.toggleNotificationsCmd()
	}

	return m, nil
}

func (m Model) refreshCmd() tea.Cmd {
	manager := m.manager
	return func() tea.Msg {
		_, err := manager.TriggerRefresh(context.Background())
		return fetchDoneMsg{err: err}
	}
}

func (m Model) loginCmd() tea.Cmd {
	manager := m.manager
	return func() tea.Msg {
		_, err := manager.TriggerLogin(context.Background())
		return fetchDoneMsg{err: err}
	}
}

func (m Model) logoutCmd() tea.Cmd {
	manager := m.manager
	return func() tea.Msg {
		_, err := manager.Logout()
		return fetchDoneMsg{err: err}
	}
}

// cyclePeriodCmd advances the forecast window 7 → 14 → 21 → 7.
func (m Model) cyclePeriodCmd() tea.Cmd {
	manager := m.manager
	settings := m.settings
	return func() tea.Msg {
		switch settings.PredictionPeriod {
		case 7:
			settings.PredictionPeriod = 14
		case 14:
			settings.PredictionPeriod = 21
		default:
			settings.PredictionPeriod = 7
		}
		return fetchDoneMsg{err: manager.UpdateSettings(settings)}
	}
}

func (m Model) toggleNotificationsCmd() tea.Cmd {
	manager := m.manager
	settings := m.settings
	return func() tea.Msg {
		settings.ShowNotifications = !settings.ShowNotifications
		return fetchDoneMsg{err: manager.UpdateSettings(settings)}
	}
}
