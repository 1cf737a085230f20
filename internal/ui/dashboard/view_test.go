package dashboard

import (
	"strings"
	"testing"
	"time"

	"github.com/bizzkoot/copilot-tracker/internal/models"
	"github.com/bizzkoot/copilot-tracker/internal/ui/components"
)

func bareModel() Model {
	return Model{
		keys:     defaultKeyMap(),
		usageBar: components.NewUsageBar(30),
		spinner:  components.NewSpinner("Fetching usage..."),
		settings: models.DefaultSettings(),
		width:    100,
	}
}

func TestViewUnauthenticated(t *testing.T) {
	m := bareModel()

	view := m.View()
	if !strings.Contains(view, "Not signed in") {
		t.Error("unauthenticated view should prompt for login")
	}
	if strings.Contains(view, "Month-End Forecast") {
		t.Error("unauthenticated view should not show a forecast")
	}
}

func TestViewWithPayload(t *testing.T) {
	m := bareModel()
	m.authenticated = true

	summary := models.NewUsageSummary(150, 300, time.Now().Unix())
	m.payload = &models.UsagePayload{
		Summary: summary,
		History: []models.UsageHistoryEntry{
			{Timestamp: time.Now().Unix(), Used: 150},
		},
		Prediction: &models.Prediction{
			PredictedMonthlyRequests: 310,
			PredictedBilledAmount:    0.40,
			ConfidenceLevel:          models.ConfidenceLow,
			DaysUsedForPrediction:    1,
		},
	}
	m.usageBar.SetUsage(summary.Used, summary.Limit)

	view := m.View()
	for _, want := range []string{"150 / 300", "Month-End Forecast", "310", "$0.40", "History"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestViewNoOverage(t *testing.T) {
	m := bareModel()
	m.authenticated = true
	m.payload = &models.UsagePayload{
		Summary: models.NewUsageSummary(10, 300, time.Now().Unix()),
		History: []models.UsageHistoryEntry{{Timestamp: time.Now().Unix(), Used: 10}},
		Prediction: &models.Prediction{
			PredictedMonthlyRequests: 21,
			ConfidenceLevel:          models.ConfidenceLow,
		},
	}

	view := m.View()
	if !strings.Contains(view, "within the included quota") {
		t.Error("view should report staying within quota")
	}
	if strings.Contains(view, "Projected overage") {
		t.Error("view should not warn about overage")
	}
}

func TestRelativeTime(t *testing.T) {
	if got := relativeTime(0); got != "never" {
		t.Errorf("relativeTime(0) = %q, want never", got)
	}
	if got := relativeTime(time.Now().Unix()); got != "just now" {
		t.Errorf("relativeTime(now) = %q, want just now", got)
	}
	if got := relativeTime(time.Now().Add(-2 * time.Hour).Unix()); got != "2h ago" {
		t.Errorf("relativeTime(-2h) = %q, want 2h ago", got)
	}
}
