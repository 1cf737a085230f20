// Package styles defines the visual styling for the application.
package styles

import "github.com/charmbracelet/lipgloss"

// Color definitions.
var (
	Primary   = lipgloss.Color("75")  // Copilot blue
	Secondary = lipgloss.Color("141") // Purple
	Subtle    = lipgloss.Color("240") // Gray

	// Status colors
	Success = lipgloss.Color("42")  // Green
	Error   = lipgloss.Color("196") // Red
	Warning = lipgloss.Color("220") // Yellow

	// Text colors
	TextPrimary   = lipgloss.Color("252")
	TextSecondary = lipgloss.Color("245")
	TextMuted     = lipgloss.Color("240")
)

// TitleStyle is used for main headings.
var TitleStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(Primary).
	MarginBottom(1)

// DocStyle provides consistent document margins.
var DocStyle = lipgloss.NewStyle().
	Margin(1, 2).
	Padding(0, 1)

// CardStyle creates a bordered card container.
var CardStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(Subtle).
	Padding(1, 2).
	MarginBottom(1)

// CardTitleStyle styles card headers.
var CardTitleStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(Primary).
	MarginBottom(1)

// LabelStyle styles field labels.
var LabelStyle = lipgloss.NewStyle().
	Foreground(TextSecondary)

// ValueStyle styles field values.
var ValueStyle = lipgloss.NewStyle().
	Foreground(TextPrimary).
	Bold(true)

// HelpStyle styles the footer key help.
var HelpStyle = lipgloss.NewStyle().
	Foreground(TextMuted)

// ErrorStyle styles error lines.
var ErrorStyle = lipgloss.NewStyle().
	Foreground(Error).
	Bold(true)

// WarningStyle styles warning lines.
var WarningStyle = lipgloss.NewStyle().
	Foreground(Warning)

// SuccessStyle styles confirmation lines.
var SuccessStyle = lipgloss.NewStyle().
	Foreground(Success)

// StatusForPercentage picks a color for a usage percentage.
func StatusForPercentage(percentage float32) lipgloss.Color {
	switch {
	case percentage >= 95:
		return Error
	case percentage >= 80:
		return Warning
	default:
		return Success
	}
}
