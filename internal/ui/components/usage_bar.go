// Package components provides reusable UI components.
package components

import (
	"fmt"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"

	"github.com/bizzkoot/copilot-tracker/internal/ui/styles"
)

// UsageBar renders the quota consumption as a gradient progress bar with
// a used/limit annotation.
type UsageBar struct {
	progress progress.Model
	used     uint32
	limit    uint32
	percent  float64
}

// NewUsageBar creates a usage bar with the given width.
func NewUsageBar(width int) UsageBar {
	p := progress.New(
		progress.WithScaledGradient("#51cf66", "#ff6b6b"),
		progress.WithWidth(width),
		progress.WithoutPercentage(),
	)
	return UsageBar{progress: p}
}

// SetUsage updates the displayed counters.
func (u *UsageBar) SetUsage(used, limit uint32) {
	u.used = used
	u.limit = limit
	if limit > 0 {
		u.percent = float64(used) / float64(limit)
	} else {
		u.percent = 0
	}
	if u.percent > 1 {
		u.percent = 1
	}
}

// SetWidth resizes the bar.
func (u *UsageBar) SetWidth(width int) {
	u.progress.Width = width
}

// View renders the bar with its annotation.
func (u UsageBar) View() string {
	percentage := float32(u.percent * 100)
	annotation := lipgloss.NewStyle().
		Foreground(styles.StatusForPercentage(percentage)).
		Render(fmt.Sprintf("%d / %d (%.1f%%)", u.used, u.limit, percentage))

	return u.progress.ViewAs(u.percent) + "  " + annotation
}
