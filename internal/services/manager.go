// Package services wires the store, extraction, polling, forecasting and
// archive together and routes their events to the TUI.
package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gen2brain/beeep"

	"github.com/bizzkoot/copilot-tracker/internal/archive"
	"github.com/bizzkoot/copilot-tracker/internal/config"
	"github.com/bizzkoot/copilot-tracker/internal/extract"
	"github.com/bizzkoot/copilot-tracker/internal/forecast"
	"github.com/bizzkoot/copilot-tracker/internal/logger"
	"github.com/bizzkoot/copilot-tracker/internal/models"
	"github.com/bizzkoot/copilot-tracker/internal/poller"
	"github.com/bizzkoot/copilot-tracker/internal/store"
)

type (
	// UsageUpdatedEvent is emitted after every successful fetch.
	UsageUpdatedEvent struct {
		Summary models.UsageSummary
	}

	// UsageDataEvent carries the full payload: summary, history and the
	// month-end prediction.
	UsageDataEvent struct {
		Payload models.UsagePayload
	}

	// AuthStateChangedEvent is emitted when authentication flips.
	AuthStateChangedEvent struct {
		State      models.AuthState
		CustomerID *uint64
	}

	// SettingsChangedEvent is emitted when settings change, whether via
	// UpdateSettings or an external file edit.
	SettingsChangedEvent struct {
		Settings models.Settings
	}

	// ErrorEvent is emitted when any service fails.
	ErrorEvent struct {
		Service string
		Error   error
	}
)

// ServiceEvent is the interface implemented by all service events.
type ServiceEvent interface {
	isServiceEvent()
}

func (UsageUpdatedEvent) isServiceEvent()     {}
func (UsageDataEvent) isServiceEvent()        {}
func (AuthStateChangedEvent) isServiceEvent() {}
func (SettingsChangedEvent) isServiceEvent()  {}
func (ErrorEvent) isServiceEvent()            {}

// Manager orchestrates the services and event routing.
type Manager struct {
	mu           sync.RWMutex
	cfg          *config.Config
	store        *store.Store
	orchestrator *extract.Orchestrator
	poller       *poller.Poller
	snapshots    *archive.Archive

	eventChan   chan ServiceEvent
	stopChan    chan struct{}
	subscribers []chan<- ServiceEvent

	notifyMu        sync.Mutex
	lastPercentage  float32
	hasPrevious     bool
	overageNotified bool
	wasAuth         bool
}

// NewManager creates the manager and starts event routing. The polling
// loop is not started until Start is called.
func NewManager(cfg *config.Config) (*Manager, error) {
	m := &Manager{
		cfg:       cfg,
		eventChan: make(chan ServiceEvent, 100),
		stopChan:  make(chan struct{}),
	}

	var err error
	m.store, err = store.New(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize store: %w", err)
	}

	m.snapshots, err = archive.Open(cfg.ArchivePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize snapshot archive: %w", err)
	}

	m.orchestrator = extract.New(cfg, m.store)
	m.poller = poller.New(m.pollTick)
	m.wasAuth = m.store.IsAuthenticated()

	go m.routeEvents()

	return m, nil
}

// Start begins background polling at the persisted interval.
func (m *Manager) Start() {
	m.poller.Restart(m.effectiveInterval())
}

// effectiveInterval resolves the polling cadence: the persisted setting
// wins over the config default, and both are clamped to the floor.
func (m *Manager) effectiveInterval() time.Duration {
	interval := m.cfg.RefreshInterval
	if s := m.store.Settings().RefreshInterval; s > 0 {
		interval = time.Duration(s) * time.Second
	}
	if interval < config.MinRefreshInterval {
		interval = config.MinRefreshInterval
	}
	return interval
}

// pollTick runs once per poll interval. Unauthenticated ticks are skipped;
// a failed fetch is logged and the loop continues.
func (m *Manager) pollTick() {
	if !m.store.IsAuthenticated() {
		logger.Debug("skipping poll, not authenticated")
		return
	}

	if _, err := m.refresh(context.Background(), false); err != nil {
		logger.Warn("scheduled fetch failed, keeping cached data", "error", err)
	}
}

// routeEvents forwards store events to subscribers and reacts to external
// settings edits.
func (m *Manager) routeEvents() {
	for {
		select {
		case event := <-m.store.Events():
			switch event.Type {
			case store.EventSettingsReloaded:
				m.broadcast(SettingsChangedEvent{Settings: m.store.Settings()})
				m.poller.Restart(m.effectiveInterval())
			case store.EventError:
				m.broadcast(ErrorEvent{Service: "store", Error: event.Error})
			}

		case <-m.stopChan:
			return
		}
	}
}

// TriggerLogin opens a visible browser window on the billing page so the
// user can sign in; extraction runs once the page is ready.
func (m *Manager) TriggerLogin(ctx context.Context) (*models.UsageSummary, error) {
	return m.refresh(ctx, true)
}

// TriggerRefresh runs one extraction attempt now, outside the schedule.
func (m *Manager) TriggerRefresh(ctx context.Context) (*models.UsageSummary, error) {
	return m.refresh(ctx, false)
}

// Logout clears the stored identity and all cached data. Polling keeps
// running and no-ops until the next login.
func (m *Manager) Logout() (models.Settings, error) {
	defaults, err := m.store.ResetAll()
	if err != nil {
		return defaults, err
	}

	m.notifyMu.Lock()
	m.hasPrevious = false
	m.overageNotified = false
	m.wasAuth = false
	m.notifyMu.Unlock()

	m.broadcast(AuthStateChangedEvent{State: models.AuthStateUnauthenticated})
	m.broadcast(SettingsChangedEvent{Settings: defaults})
	return defaults, nil
}

// UpdateSettings persists user-editable settings. The polling interval is
// clamped to the floor and an invalid prediction window is rejected.
func (m *Manager) UpdateSettings(newSettings models.Settings) error {
	switch newSettings.PredictionPeriod {
	case 7, 14, 21:
	default:
		return fmt.Errorf("invalid prediction period %d: must be 7, 14 or 21 days", newSettings.PredictionPeriod)
	}

	minSeconds := uint32(config.MinRefreshInterval / time.Second)
	if newSettings.RefreshInterval < minSeconds {
		newSettings.RefreshInterval = minSeconds
	}

	err := m.store.Update(func(settings *models.Settings) {
		settings.RefreshInterval = newSettings.RefreshInterval
		settings.PredictionPeriod = newSettings.PredictionPeriod
		settings.LaunchAtLogin = newSettings.LaunchAtLogin
		settings.ShowNotifications = newSettings.ShowNotifications
	})
	if err != nil {
		return err
	}

	m.poller.Restart(m.effectiveInterval())
	m.broadcast(SettingsChangedEvent{Settings: m.store.Settings()})
	return nil
}

// GetCachedUsage returns the last known summary without touching the page.
func (m *Manager) GetCachedUsage() models.UsageSummary {
	used, limit := m.store.Usage()
	return models.NewUsageSummary(used, limit, m.store.LastFetchTimestamp())
}

// GetCachedHistory returns the last known history, newest first.
func (m *Manager) GetCachedHistory() []models.UsageHistoryEntry {
	return m.store.UsageHistory()
}

// GetCachedPayload bundles the cached summary and history with a freshly
// computed prediction. Returns nil when nothing has ever been fetched.
func (m *Manager) GetCachedPayload() *models.UsagePayload {
	if m.store.LastFetchTimestamp() == 0 {
		return nil
	}

	summary := m.GetCachedUsage()
	history := m.store.UsageHistory()
	settings := m.store.Settings()

	return &models.UsagePayload{
		Summary: summary,
		History: history,
		Prediction: forecast.Predict(history, summary.Used, summary.Limit,
			int(settings.PredictionPeriod), m.cfg.OverageRate, time.Now()),
	}
}

// Settings returns the current settings.
func (m *Manager) Settings() models.Settings {
	return m.store.Settings()
}

// DailySeries returns the archived per-day usage peaks for the chart.
func (m *Manager) DailySeries(days int) ([]archive.DailyUsage, error) {
	return m.snapshots.GetDailySeries(days)
}

// refresh runs one extraction attempt and publishes the outcome. A busy
// orchestrator is not an error worth surfacing; the cached data stands.
func (m *Manager) refresh(ctx context.Context, interactive bool) (*models.UsageSummary, error) {
	fetch := m.orchestrator.Fetch
	if interactive {
		fetch = m.orchestrator.FetchInteractive
	}

	result, err := fetch(ctx)
	if errors.Is(err, extract.ErrBusy) {
		logger.Debug("fetch skipped, attempt already in flight")
		summary := m.GetCachedUsage()
		return &summary, nil
	}
	if err != nil {
		m.broadcast(ErrorEvent{Service: "extract", Error: err})
		return nil, err
	}

	summary := m.GetCachedUsage()
	logger.Info("usage fetched",
		"used", summary.Used,
		"limit", summary.Limit,
		"historyRows", len(result.HistoryRows))

	if err := m.snapshots.RecordSnapshot(summary); err != nil {
		logger.Warn("failed to archive snapshot", "error", err)
	}

	m.broadcast(UsageUpdatedEvent{Summary: summary})
	if payload := m.GetCachedPayload(); payload != nil {
		m.broadcast(UsageDataEvent{Payload: *payload})
		m.checkNotifications(summary, payload.Prediction)
	}
	m.publishAuthState()

	return &summary, nil
}

// publishAuthState broadcasts a transition when the stored auth flips.
func (m *Manager) publishAuthState() {
	authenticated := m.store.IsAuthenticated()

	m.notifyMu.Lock()
	changed := authenticated != m.wasAuth
	m.wasAuth = authenticated
	m.notifyMu.Unlock()

	if !changed {
		return
	}

	state := models.AuthStateUnauthenticated
	if authenticated {
		state = models.AuthStateAuthenticated
	}
	m.broadcast(AuthStateChangedEvent{State: state, CustomerID: m.store.CustomerID()})
}

// checkNotifications fires desktop notifications on threshold crossings
// (80% and 95% of the limit) and when the forecast first predicts an
// overage. Edge-triggered so a user is not nagged every poll.
func (m *Manager) checkNotifications(summary models.UsageSummary, prediction *models.Prediction) {
	if !m.store.Settings().ShowNotifications {
		return
	}

	m.notifyMu.Lock()
	defer m.notifyMu.Unlock()

	prev := m.lastPercentage
	had := m.hasPrevious
	m.lastPercentage = summary.Percentage
	m.hasPrevious = true

	if had {
		for _, threshold := range []float32{80, 95} {
			if summary.Percentage >= threshold && prev < threshold {
				title := fmt.Sprintf("Copilot usage at %.0f%%", summary.Percentage)
				body := fmt.Sprintf("%d of %d premium requests used.", summary.Used, summary.Limit)
				if err := beeep.Notify(title, body, ""); err != nil {
					logger.Debug("notification failed", "error", err)
				}
			}
		}
	}

	if prediction == nil {
		return
	}
	if prediction.PredictedBilledAmount > 0 {
		if !m.overageNotified {
			m.overageNotified = true
			title := "Copilot overage forecast"
			body := fmt.Sprintf("On pace for %d requests this month (~$%.2f over the included quota).",
				prediction.PredictedMonthlyRequests, prediction.PredictedBilledAmount)
			if err := beeep.Notify(title, body, ""); err != nil {
				logger.Debug("notification failed", "error", err)
			}
		}
	} else {
		m.overageNotified = false
	}
}

// broadcast sends an event to the main channel and all subscribers.
// Slow consumers are skipped, never blocked on.
func (m *Manager) broadcast(event ServiceEvent) {
	select {
	case m.eventChan <- event:
	default:
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, sub := range m.subscribers {
		select {
		case sub <- event:
		default:
		}
	}
}

// Subscribe creates a channel for receiving service events and a tea.Cmd
// that waits for the first one.
func (m *Manager) Subscribe() (chan ServiceEvent, tea.Cmd) {
	ch := make(chan ServiceEvent, 50)

	m.mu.Lock()
	m.subscribers = append(m.subscribers, ch)
	m.mu.Unlock()

	return ch, WaitForEvent(ch)
}

// WaitForEvent returns a tea.Cmd for the next event on a channel.
func WaitForEvent(ch <-chan ServiceEvent) tea.Cmd {
	return func() tea.Msg {
		return <-ch
	}
}

// Unsubscribe removes a subscriber channel.
func (m *Manager) Unsubscribe(ch chan ServiceEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, sub := range m.subscribers {
		if sub == ch {
			m.subscribers = append(m.subscribers[:i], m.subscribers[i+1:]...)
			close(ch)
			break
		}
	}
}

// Stop shuts everything down: polling first so no new attempts start,
// then routing, then the stores.
func (m *Manager) Stop() {
	m.poller.Stop()
	close(m.stopChan)

	if err := m.store.Close(); err != nil {
		logger.Error("failed to close store", "error", err)
	}
	if err := m.snapshots.Close(); err != nil {
		logger.Error("failed to close snapshot archive", "error", err)
	}
}
