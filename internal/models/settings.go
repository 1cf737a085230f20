package models

// Settings is the persisted application configuration. Missing fields in
// older settings files fall back to their zero value or to the defaults
// applied by the store on load, so no schema version is needed.
type Settings struct {
	// CustomerID is the GitHub billing customer id, set after login.
	CustomerID *uint64 `json:"customerId,omitempty"`
	// UsageLimit is the monthly premium request entitlement.
	UsageLimit uint32 `json:"usageLimit"`
	// LastUsage is the most recently observed usage count.
	LastUsage uint32 `json:"lastUsage"`
	// LastFetchTimestamp is the unix time of the last successful fetch.
	LastFetchTimestamp int64 `json:"lastFetchTimestamp"`
	// RefreshInterval is the polling cadence in seconds (>= 10).
	RefreshInterval uint32 `json:"refreshInterval"`
	// PredictionPeriod is the forecast window in days (7, 14 or 21).
	PredictionPeriod uint32 `json:"predictionPeriod"`
	LaunchAtLogin    bool   `json:"launchAtLogin"`
	ShowNotifications bool  `json:"showNotifications"`
	// IsAuthenticated mirrors CustomerID != nil; both are written
	// together by the store's setters.
	IsAuthenticated bool `json:"isAuthenticated"`
}

// Default Copilot Pro monthly entitlement, used until the first fetch.
const DefaultUsageLimit = 1200

// DefaultSettings returns the settings used on first run.
func DefaultSettings() Settings {
	return Settings{
		UsageLimit:        DefaultUsageLimit,
		RefreshInterval:   300,
		PredictionPeriod:  7,
		ShowNotifications: true,
	}
}

// AuthState describes whether the tracker currently holds a customer id.
type AuthState string

const (
	AuthStateAuthenticated   AuthState = "authenticated"
	AuthStateUnauthenticated AuthState = "unauthenticated"
)
