// Package store persists settings and the usage history as JSON files,
// with file watching for external edits.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bizzkoot/copilot-tracker/internal/logger"
	"github.com/bizzkoot/copilot-tracker/internal/models"
)

const (
	settingsFilename = "settings.json"
	historyFilename  = "history.json"
)

// Event represents a store event.
type Event struct {
	Type  EventType
	Error error
}

// EventType defines the type of store event.
type EventType int

const (
	// EventSettingsReloaded indicates settings were reloaded after an
	// external file change.
	EventSettingsReloaded EventType = iota
	// EventError indicates a watcher or reload error.
	EventError
)

// Store owns the persisted settings and usage history. All mutation goes
// through Update or SetUsageHistory; readers get copies of committed state.
type Store struct {
	mu           sync.RWMutex
	settings     models.Settings
	history      []models.UsageHistoryEntry
	settingsPath string
	historyPath  string

	watcher   *watcher
	eventChan chan Event
}

// New loads (or initializes) the store in dir and starts watching the
// settings file for external changes. A missing or corrupt settings file
// falls back to defaults; a missing history file yields an empty history.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	s := &Store{
		settings:     models.DefaultSettings(),
		settingsPath: filepath.Join(dir, settingsFilename),
		historyPath:  filepath.Join(dir, historyFilename),
		eventChan:    make(chan Event, 16),
	}

	s.loadSettings()
	s.loadHistory()

	w, err := newWatcher(s.settingsPath, s.handleSettingsFileChange, s.reportWatchError)
	if err != nil {
		return nil, fmt.Errorf("failed to start settings watcher: %w", err)
	}
	s.watcher = w

	return s, nil
}

// Events returns the channel carrying settings-reload notifications.
func (s *Store) Events() <-chan Event {
	return s.eventChan
}

// loadSettings reads the settings file, keeping defaults when it is
// missing or unreadable.
func (s *Store) loadSettings() {
	data, err := os.ReadFile(s.settingsPath)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("failed to read settings file, using defaults", "path", s.settingsPath, "error", err)
		}
		return
	}

	settings := models.DefaultSettings()
	if err := json.Unmarshal(data, &settings); err != nil {
		logger.Warn("failed to parse settings file, using defaults", "path", s.settingsPath, "error", err)
		return
	}

	// Old files may predate a field; re-derive rather than trusting it.
	settings.IsAuthenticated = settings.CustomerID != nil

	s.settings = settings
}

// loadHistory reads the history file; absence is not an error.
func (s *Store) loadHistory() {
	data, err := os.ReadFile(s.historyPath)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("failed to read history file", "path", s.historyPath, "error", err)
		}
		return
	}

	var entries []models.UsageHistoryEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		logger.Warn("failed to parse history file", "path", s.historyPath, "error", err)
		return
	}

	s.history = entries
}

// Update applies mut to the in-memory settings and persists them before
// releasing the lock. This is the single settings write path.
func (s *Store) Update(mut func(*models.Settings)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	mut(&s.settings)

	if err := s.saveSettingsLocked(); err != nil {
		return err
	}
	return nil
}

// SetCustomerID records the billing customer id and marks the store
// authenticated.
func (s *Store) SetCustomerID(id uint64) error {
	return s.Update(func(settings *models.Settings) {
		settings.CustomerID = &id
		settings.IsAuthenticated = true
	})
}

// ClearAuth removes the customer id (logout).
func (s *Store) ClearAuth() error {
	return s.Update(func(settings *models.Settings) {
		settings.CustomerID = nil
		settings.IsAuthenticated = false
	})
}

// SetUsage records the latest observed counters and fetch time.
func (s *Store) SetUsage(used, limit uint32) error {
	return s.Update(func(settings *models.Settings) {
		settings.LastUsage = used
		settings.UsageLimit = limit
		settings.LastFetchTimestamp = time.Now().Unix()
	})
}

// SetLaunchAtLogin persists the autostart preference.
func (s *Store) SetLaunchAtLogin(enabled bool) error {
	return s.Update(func(settings *models.Settings) {
		settings.LaunchAtLogin = enabled
	})
}

// SetShowNotifications persists the notification preference.
func (s *Store) SetShowNotifications(enabled bool) error {
	return s.Update(func(settings *models.Settings) {
		settings.ShowNotifications = enabled
	})
}

// SetRefreshInterval persists the polling cadence in seconds.
func (s *Store) SetRefreshInterval(seconds uint32) error {
	return s.Update(func(settings *models.Settings) {
		settings.RefreshInterval = seconds
	})
}

// SetPredictionPeriod persists the forecast window in days.
func (s *Store) SetPredictionPeriod(days uint32) error {
	return s.Update(func(settings *models.Settings) {
		settings.PredictionPeriod = days
	})
}

// Settings returns a copy of the current settings.
func (s *Store) Settings() models.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneSettings(s.settings)
}

// Usage returns the last observed counters.
func (s *Store) Usage() (used, limit uint32) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings.LastUsage, s.settings.UsageLimit
}

// CustomerID returns the stored customer id, if any.
func (s *Store) CustomerID() *uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.settings.CustomerID == nil {
		return nil
	}
	id := *s.settings.CustomerID
	return &id
}

// IsAuthenticated reports whether a customer id is stored.
func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings.IsAuthenticated
}

// LastFetchTimestamp returns the unix time of the last successful fetch.
func (s *Store) LastFetchTimestamp() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings.LastFetchTimestamp
}

// SetUsageHistory replaces the usage history. The disk write happens
// after the lock is released so readers are never blocked on I/O; a
// failed write is logged, not returned, because in-memory state stays
// authoritative for the rest of the process lifetime.
func (s *Store) SetUsageHistory(entries []models.UsageHistoryEntry) {
	copied := make([]models.UsageHistoryEntry, len(entries))
	copy(copied, entries)

	s.mu.Lock()
	s.history = copied
	s.mu.Unlock()

	if err := writeJSONAtomic(s.historyPath, copied); err != nil {
		logger.Error("failed to write history file", "path", s.historyPath, "error", err)
	}
}

// UsageHistory returns a copy of the usage history, newest first.
func (s *Store) UsageHistory() []models.UsageHistoryEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]models.UsageHistoryEntry, len(s.history))
	copy(entries, s.history)
	return entries
}

// ResetAll restores default settings, clears the history and deletes the
// history file. Used by logout/reset flows.
func (s *Store) ResetAll() (models.Settings, error) {
	s.mu.Lock()
	s.settings = models.DefaultSettings()
	s.history = nil
	err := s.saveSettingsLocked()
	defaults := cloneSettings(s.settings)
	s.mu.Unlock()

	if removeErr := os.Remove(s.historyPath); removeErr != nil && !os.IsNotExist(removeErr) {
		logger.Error("failed to remove history file", "path", s.historyPath, "error", removeErr)
	}

	return defaults, err
}

// handleSettingsFileChange reloads settings after a file change. The
// watcher also fires for this process's own saves, so a reload event only
// goes out when the file content actually differs from the in-memory
// state. Otherwise every save would loop back as a spurious reload.
func (s *Store) handleSettingsFileChange() {
	s.mu.Lock()
	previous := s.settings
	s.loadSettings()
	changed := !settingsEqual(previous, s.settings)
	s.mu.Unlock()

	if changed {
		s.sendEvent(Event{Type: EventSettingsReloaded})
	}
}

// settingsEqual compares two settings values field by field; CustomerID
// compares by pointed-to value.
func settingsEqual(a, b models.Settings) bool {
	if (a.CustomerID == nil) != (b.CustomerID == nil) {
		return false
	}
	if a.CustomerID != nil && *a.CustomerID != *b.CustomerID {
		return false
	}
	return a.UsageLimit == b.UsageLimit &&
		a.LastUsage == b.LastUsage &&
		a.LastFetchTimestamp == b.LastFetchTimestamp &&
		a.RefreshInterval == b.RefreshInterval &&
		a.PredictionPeriod == b.PredictionPeriod &&
		a.LaunchAtLogin == b.LaunchAtLogin &&
		a.ShowNotifications == b.ShowNotifications &&
		a.IsAuthenticated == b.IsAuthenticated
}

func (s *Store) reportWatchError(err error) {
	s.sendEvent(Event{Type: EventError, Error: err})
}

// saveSettingsLocked persists settings; the caller must hold the lock.
func (s *Store) saveSettingsLocked() error {
	if err := writeJSONAtomic(s.settingsPath, s.settings); err != nil {
		return fmt.Errorf("failed to write settings file: %w", err)
	}
	return nil
}

// writeJSONAtomic serializes v and renames a temp file over path so a
// crash never leaves a torn document behind.
func writeJSONAtomic(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal: %w", err)
	}

	tmpFile := path + ".tmp"
	if err := os.WriteFile(tmpFile, data, 0o600); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}

	if err := os.Rename(tmpFile, path); err != nil {
		if removeErr := os.Remove(tmpFile); removeErr != nil {
			logger.Error("failed to remove temp file", "error", removeErr)
		}
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	return nil
}

func cloneSettings(settings models.Settings) models.Settings {
	cloned := settings
	if settings.CustomerID != nil {
		id := *settings.CustomerID
		cloned.CustomerID = &id
	}
	return cloned
}

// sendEvent sends an event to the event channel non-blocking.
func (s *Store) sendEvent(event Event) {
	select {
	case s.eventChan <- event:
	default:
	}
}

// Close stops the settings watcher.
func (s *Store) Close() error {
	if s.watcher != nil {
		return s.watcher.Close()
	}
	return nil
}
