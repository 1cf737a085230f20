package dashboard

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/bizzkoot/copilot-tracker/internal/forecast"
	"github.com/bizzkoot/copilot-tracker/internal/models"
	"github.com/bizzkoot/copilot-tracker/internal/ui/components"
	"github.com/bizzkoot/copilot-tracker/internal/ui/styles"
)

// View renders the whole dashboard.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(styles.TitleStyle.Render("Copilot Usage Tracker"))
	b.WriteString("\n")

	if !m.authenticated {
		b.WriteString(m.loginPrompt())
	} else {
		b.WriteString(m.usageCard())
		b.WriteString(m.forecastCard())
		b.WriteString(m.historyCard())
	}

	b.WriteString(m.footer())

	return styles.DocStyle.Render(b.String())
}

func (m Model) loginPrompt() string {
	if m.fetching {
		return styles.CardStyle.Render(m.spinner.View()) + "\n"
	}
	return styles.CardStyle.Render(
		styles.LabelStyle.Render("Not signed in.") + "\n\n" +
			styles.ValueStyle.Render("Press l to open GitHub in a browser window and sign in."),
	) + "\n"
}

func (m Model) usageCard() string {
	var b strings.Builder
	b.WriteString(styles.CardTitleStyle.Render("Premium Requests"))
	b.WriteString("\n")

	if m.fetching {
		b.WriteString(m.spinner.View())
	} else if m.payload == nil {
		b.WriteString(styles.HelpStyle.Render("No data yet. Press r to fetch."))
	} else {
		b.WriteString(m.usageBar.View())
		b.WriteString("\n\n")
		summary := m.payload.Summary
		b.WriteString(styles.LabelStyle.Render("Remaining: "))
		b.WriteString(styles.ValueStyle.Render(fmt.Sprintf("%d", summary.Remaining)))
		b.WriteString(styles.LabelStyle.Render("   Last fetch: "))
		b.WriteString(styles.ValueStyle.Render(relativeTime(summary.Timestamp)))
	}

	return styles.CardStyle.Render(b.String()) + "\n"
}

func (m Model) forecastCard() string {
	if m.payload == nil || m.payload.Prediction == nil {
		return ""
	}
	p := m.payload.Prediction

	var b strings.Builder
	b.WriteString(styles.CardTitleStyle.Render(
		fmt.Sprintf("Month-End Forecast (%dd window)", m.settings.PredictionPeriod)))
	b.WriteString("\n")

	b.WriteString(styles.LabelStyle.Render("Projected requests: "))
	b.WriteString(styles.ValueStyle.Render(fmt.Sprintf("%d", p.PredictedMonthlyRequests)))
	b.WriteString(styles.LabelStyle.Render("   Confidence: "))
	b.WriteString(confidenceStyle(p.ConfidenceLevel).Render(string(p.ConfidenceLevel)))
	b.WriteString("\n")

	now := time.Now()
	summary := m.payload.Summary
	b.WriteString(styles.LabelStyle.Render("Daily rate: "))
	b.WriteString(styles.ValueStyle.Render(fmt.Sprintf("%.1f/day", forecast.DailyRate(summary.Used, now))))
	b.WriteString(styles.LabelStyle.Render("   Budget: "))
	b.WriteString(styles.ValueStyle.Render(fmt.Sprintf("%.1f/day", forecast.DailyBudget(summary.Used, summary.Limit, now))))
	b.WriteString(styles.LabelStyle.Render(fmt.Sprintf("   %d days left", forecast.DaysRemaining(now))))
	b.WriteString("\n")

	if p.PredictedBilledAmount > 0 {
		b.WriteString(styles.WarningStyle.Render(
			fmt.Sprintf("Projected overage: $%.2f", p.PredictedBilledAmount)))
	} else {
		b.WriteString(styles.SuccessStyle.Render("On pace to stay within the included quota"))
	}

	return styles.CardStyle.Render(b.String()) + "\n"
}

func (m Model) historyCard() string {
	if m.payload == nil || len(m.payload.History) == 0 {
		return ""
	}

	// History is newest first; the chart reads left to right.
	entries := m.payload.History
	data := make([]float64, len(entries))
	for i, entry := range entries {
		data[len(entries)-1-i] = float64(entry.Used)
	}

	width := m.width - 16
	if width > 70 {
		width = 70
	}
	chart := components.RenderLineChart(data, width, 8, "requests per billing day")

	var rows strings.Builder
	shown := entries
	if len(shown) > 5 {
		shown = shown[:5]
	}
	for _, entry := range shown {
		day := time.Unix(entry.Timestamp, 0).Format("Jan 02")
		rows.WriteString(fmt.Sprintf("\n%s  %s",
			styles.LabelStyle.Render(day),
			styles.ValueStyle.Render(fmt.Sprintf("%4d requests", entry.Used))))
		if entry.BilledAmount > 0 {
			rows.WriteString(styles.WarningStyle.Render(fmt.Sprintf("  $%.2f billed", entry.BilledAmount)))
		}
	}

	return styles.CardStyle.Render(
		styles.CardTitleStyle.Render("History")+"\n"+chart+"\n"+rows.String(),
	) + "\n"
}

func (m Model) footer() string {
	help := "r refresh · l login · L logout · p forecast window · n notifications · q quit"

	var status string
	switch {
	case m.lastError != nil:
		status = styles.ErrorStyle.Render("Error: " + m.lastError.Error())
	case m.statusLine != "":
		status = styles.HelpStyle.Render(m.statusLine)
	}

	line := styles.HelpStyle.Render(help)
	if status != "" {
		line = status + "\n" + line
	}
	if m.width > 0 {
		line = truncateLines(line, m.width-6)
	}
	return line
}

func truncateLines(s string, width int) string {
	if width < 10 {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = ansi.Truncate(line, width, "…")
	}
	return strings.Join(lines, "\n")
}

func confidenceStyle(c models.Confidence) lipgloss.Style {
	switch c {
	case models.ConfidenceHigh:
		return styles.SuccessStyle
	case models.ConfidenceMedium:
		return styles.WarningStyle
	default:
		return styles.ErrorStyle
	}
}

func relativeTime(unix int64) string {
	if unix == 0 {
		return "never"
	}
	d := time.Since(time.Unix(unix, 0))
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}
