// Package archive keeps a local sqlite log of usage snapshots, one row
// per successful poll. The JSON store only remembers the latest counters;
// the archive is what makes intra-month trends queryable.
package archive

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	// Register the sqlite driver.
	_ "modernc.org/sqlite"

	"github.com/bizzkoot/copilot-tracker/internal/models"
)

// Archive wraps the snapshot database.
type Archive struct {
	*sql.DB
	path string
}

// DailyUsage is one day's aggregated snapshot series.
type DailyUsage struct {
	Day     string
	MaxUsed uint32
	Samples int
}

// Open opens (or creates) the snapshot database at path.
func Open(path string) (*Archive, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create archive directory: %w", err)
		}
	}

	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}

	if err := sqlDB.PingContext(context.Background()); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to connect to archive: %w", err)
	}

	a := &Archive{DB: sqlDB, path: path}

	if err := a.configure(); err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("failed to configure archive: %w", err)
	}
	if err := a.createSchema(); err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("failed to create archive schema: %w", err)
	}

	return a, nil
}

// Path returns the database file path.
func (a *Archive) Path() string {
	return a.path
}

func (a *Archive) configure() error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA temp_store=MEMORY",
	}

	for _, pragma := range pragmas {
		if _, err := a.ExecContext(context.Background(), pragma); err != nil {
			return fmt.Errorf("failed to execute %s: %w", pragma, err)
		}
	}
	return nil
}

func (a *Archive) createSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS usage_snapshots (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp DATETIME NOT NULL,
		used INTEGER NOT NULL,
		usage_limit INTEGER NOT NULL,
		remaining INTEGER NOT NULL,
		percentage REAL NOT NULL
	)`
	if _, err := a.ExecContext(context.Background(), query); err != nil {
		return err
	}

	index := `CREATE INDEX IF NOT EXISTS idx_snapshots_timestamp ON usage_snapshots(timestamp)`
	_, err := a.ExecContext(context.Background(), index)
	return err
}

// RecordSnapshot appends one poll result.
func (a *Archive) RecordSnapshot(summary models.UsageSummary) error {
	query := `
		INSERT INTO usage_snapshots (timestamp, used, usage_limit, remaining, percentage)
		VALUES (?, ?, ?, ?, ?)
	`

	ts := time.Unix(summary.Timestamp, 0).UTC()
	if summary.Timestamp == 0 {
		ts = time.Now().UTC()
	}

	_, err := a.ExecContext(context.Background(), query,
		ts.Format("2006-01-02 15:04:05"),
		summary.Used,
		summary.Limit,
		summary.Remaining,
		summary.Percentage,
	)
	if err != nil {
		return fmt.Errorf("failed to insert snapshot: %w", err)
	}
	return nil
}

// GetDailySeries returns per-day usage peaks for the last n days, oldest
// first. The peak is used rather than the mean because the counter is
// monotonic within a billing period.
func (a *Archive) GetDailySeries(days int) ([]DailyUsage, error) {
	query := `
		SELECT DATE(timestamp) AS day, MAX(used), COUNT(*)
		FROM usage_snapshots
		WHERE timestamp >= DATE('now', ?)
		GROUP BY day
		ORDER BY day ASC
	`

	rows, err := a.QueryContext(context.Background(), query, fmt.Sprintf("-%d days", days))
	if err != nil {
		return nil, fmt.Errorf("failed to query daily series: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var series []DailyUsage
	for rows.Next() {
		var d DailyUsage
		if err := rows.Scan(&d.Day, &d.MaxUsed, &d.Samples); err != nil {
			return nil, fmt.Errorf("failed to scan daily series row: %w", err)
		}
		series = append(series, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read daily series: %w", err)
	}

	return series, nil
}

// LatestSnapshot returns the most recent recorded snapshot, or nil when
// the archive is empty.
func (a *Archive) LatestSnapshot() (*models.UsageSummary, error) {
	query := `
		SELECT timestamp, used, usage_limit, remaining, percentage
		FROM usage_snapshots
		ORDER BY timestamp DESC, id DESC
		LIMIT 1
	`

	var (
		ts      time.Time
		summary models.UsageSummary
	)
	err := a.QueryRowContext(context.Background(), query).Scan(
		&ts, &summary.Used, &summary.Limit, &summary.Remaining, &summary.Percentage,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query latest snapshot: %w", err)
	}

	summary.Timestamp = ts.Unix()
	return &summary, nil
}

// Prune deletes snapshots older than the retention window.
func (a *Archive) Prune(retainDays int) error {
	query := `DELETE FROM usage_snapshots WHERE timestamp < DATE('now', ?)`
	_, err := a.ExecContext(context.Background(), query, fmt.Sprintf("-%d days", retainDays))
	if err != nil {
		return fmt.Errorf("failed to prune snapshots: %w", err)
	}
	return nil
}
