// Package config contains everything related to configuration
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration.
type Config struct {
	// DataDir holds settings.json, history.json and the snapshot archive.
	DataDir     string
	ArchivePath string
	// RefreshInterval is the default polling cadence; the persisted
	// per-user setting takes precedence once loaded.
	RefreshInterval time.Duration
	// PredictionWindowDays is the forecast window (7, 14 or 21).
	PredictionWindowDays int
	// OverageRate is the billed amount per request over the entitlement.
	// A rough estimate, not a published price.
	OverageRate float64
	// BrowserPath optionally pins the Chrome/Chromium executable used
	// for extraction sessions.
	BrowserPath     string
	BrowserHeadless bool
	// ExtractionTimeout bounds one full extraction attempt.
	ExtractionTimeout time.Duration
	// SettleDelay is how long the injected script waits after page load
	// before extracting, to let client-side rendering finish.
	SettleDelay time.Duration
}

// Default values
const (
	defaultRefreshInterval   = 5 * time.Minute
	defaultExtractionTimeout = 30 * time.Second
	defaultSettleDelay       = 1500 * time.Millisecond
	defaultOverageRate       = 0.04
	defaultPredictionWindow  = 7

	// MinRefreshInterval is the floor enforced on polling cadence.
	MinRefreshInterval = 10 * time.Second
)

// Load reads configuration from .env files and environment variables.
func Load() (*Config, error) {
	for _, path := range envPaths() {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			break
		}
	}

	dataDir := getEnvString("DATA_DIR", defaultDataDir())

	cfg := &Config{
		DataDir:              dataDir,
		ArchivePath:          getEnvString("ARCHIVE_PATH", filepath.Join(dataDir, "snapshots.db")),
		RefreshInterval:      getEnvDuration("REFRESH_INTERVAL", defaultRefreshInterval),
		PredictionWindowDays: getEnvInt("PREDICTION_WINDOW_DAYS", defaultPredictionWindow),
		OverageRate:          getEnvFloat("COPILOT_OVERAGE_RATE", defaultOverageRate),
		BrowserPath:          os.Getenv("BROWSER_PATH"),
		BrowserHeadless:      getEnvBool("BROWSER_HEADLESS", true),
		ExtractionTimeout:    getEnvDuration("EXTRACTION_TIMEOUT", defaultExtractionTimeout),
		SettleDelay:          getEnvDuration("SETTLE_DELAY", defaultSettleDelay),
	}

	if cfg.RefreshInterval < MinRefreshInterval {
		cfg.RefreshInterval = MinRefreshInterval
	}
	switch cfg.PredictionWindowDays {
	case 7, 14, 21:
	default:
		cfg.PredictionWindowDays = defaultPredictionWindow
	}

	if err := ensureDir(cfg.DataDir); err != nil {
		return nil, err
	}

	return cfg, nil
}

// envPaths returns a list of paths to check for .env files.
func envPaths() []string {
	var paths []string

	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, ".env"))
	}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths,
			filepath.Join(home, ".config", "copilot-tracker", ".env"),
		)
	}

	return paths
}

// defaultDataDir returns the default directory for persisted state.
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "copilot-tracker"
	}
	return filepath.Join(home, ".config", "copilot-tracker")
}

// getEnvString retrieves a string environment variable or returns the default.
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvDuration retrieves a duration environment variable or returns the
// default. Accepts values like "30s", "1m", or bare seconds.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		if secs, err := strconv.Atoi(value); err == nil {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

// ensureDir creates a directory and all parent directories if they don't exist.
func ensureDir(path string) error {
	if path == "" || path == "." {
		return nil
	}
	return os.MkdirAll(path, 0o750)
}
