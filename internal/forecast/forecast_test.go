package forecast

import (
	"math"
	"testing"
	"time"

	"github.com/bizzkoot/copilot-tracker/internal/models"
)

func historyOf(n int) []models.UsageHistoryEntry {
	entries := make([]models.UsageHistoryEntry, n)
	for i := range entries {
		entries[i] = models.UsageHistoryEntry{Timestamp: int64(1709251200 - i*86400), Used: uint32(10 + i)}
	}
	return entries
}

func TestPredictEmptyHistory(t *testing.T) {
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	if p := Predict(nil, 100, 300, 7, 0.04, now); p != nil {
		t.Errorf("Predict with empty history = %+v, want nil", p)
	}
	if p := Predict([]models.UsageHistoryEntry{}, 0, 0, 7, 0.04, now); p != nil {
		t.Errorf("Predict with empty history = %+v, want nil", p)
	}
}

func TestPredictStraightLine(t *testing.T) {
	// Day 15 of a 31-day month with 10 requests used: rate 0.667/day,
	// 16 days remaining, so roughly 21 by month end and nothing billed.
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

	p := Predict(historyOf(1), 10, 300, 7, 0.04, now)
	if p == nil {
		t.Fatal("Predict returned nil")
	}
	if p.PredictedMonthlyRequests != 21 {
		t.Errorf("PredictedMonthlyRequests = %d, want 21", p.PredictedMonthlyRequests)
	}
	if p.PredictedBilledAmount != 0 {
		t.Errorf("PredictedBilledAmount = %v, want 0", p.PredictedBilledAmount)
	}
	if p.ConfidenceLevel != models.ConfidenceLow {
		t.Errorf("ConfidenceLevel = %v, want low", p.ConfidenceLevel)
	}
}

func TestPredictOverage(t *testing.T) {
	// 600 used by day 15 projects to 1240, which is 40 over a 1200 limit.
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

	p := Predict(historyOf(8), 600, 1200, 7, 0.04, now)
	if p == nil {
		t.Fatal("Predict returned nil")
	}
	if p.PredictedMonthlyRequests != 1240 {
		t.Errorf("PredictedMonthlyRequests = %d, want 1240", p.PredictedMonthlyRequests)
	}
	want := 40 * 0.04
	if math.Abs(p.PredictedBilledAmount-want) > 1e-9 {
		t.Errorf("PredictedBilledAmount = %v, want %v", p.PredictedBilledAmount, want)
	}
}

func TestPredictConfidenceThresholds(t *testing.T) {
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		entries int
		want    models.Confidence
	}{
		{1, models.ConfidenceLow},
		{2, models.ConfidenceLow},
		{3, models.ConfidenceMedium},
		{6, models.ConfidenceMedium},
		{7, models.ConfidenceHigh},
		{20, models.ConfidenceHigh},
	}

	for _, tt := range tests {
		p := Predict(historyOf(tt.entries), 50, 300, 21, 0.04, now)
		if p == nil {
			t.Fatalf("Predict returned nil for %d entries", tt.entries)
		}
		if p.ConfidenceLevel != tt.want {
			t.Errorf("%d entries: ConfidenceLevel = %v, want %v", tt.entries, p.ConfidenceLevel, tt.want)
		}
	}
}

func TestPredictDaysUsedCappedByWindow(t *testing.T) {
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

	p := Predict(historyOf(20), 50, 300, 7, 0.04, now)
	if p == nil {
		t.Fatal("Predict returned nil")
	}
	if p.DaysUsedForPrediction != 7 {
		t.Errorf("DaysUsedForPrediction = %d, want 7", p.DaysUsedForPrediction)
	}

	p = Predict(historyOf(4), 50, 300, 7, 0.04, now)
	if p.DaysUsedForPrediction != 4 {
		t.Errorf("DaysUsedForPrediction = %d, want 4", p.DaysUsedForPrediction)
	}
}

func TestDaysInMonth(t *testing.T) {
	tests := []struct {
		now  time.Time
		want int
	}{
		{time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC), 29},
		{time.Date(2023, 2, 15, 0, 0, 0, 0, time.UTC), 28},
		{time.Date(2024, 12, 15, 0, 0, 0, 0, time.UTC), 31},
		{time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC), 30},
	}

	for _, tt := range tests {
		if got := DaysInMonth(tt.now); got != tt.want {
			t.Errorf("DaysInMonth(%s) = %d, want %d", tt.now.Format("2006-01"), got, tt.want)
		}
	}
}

func TestDaysInMonthAcrossDST(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}

	// March loses an hour to spring-forward; an hour-counting
	// implementation reports 30 here.
	if got := DaysInMonth(time.Date(2024, 3, 15, 0, 0, 0, 0, loc)); got != 31 {
		t.Errorf("DaysInMonth(March, DST zone) = %d, want 31", got)
	}
	// November gains one back.
	if got := DaysInMonth(time.Date(2024, 11, 15, 0, 0, 0, 0, loc)); got != 30 {
		t.Errorf("DaysInMonth(November, DST zone) = %d, want 30", got)
	}
}

func TestDailyBudget(t *testing.T) {
	now := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC) // 16 days remain

	if got := DailyBudget(140, 300, now); math.Abs(got-10) > 1e-9 {
		t.Errorf("DailyBudget = %v, want 10", got)
	}
	if got := DailyBudget(300, 300, now); got != 0 {
		t.Errorf("DailyBudget at limit = %v, want 0", got)
	}
	if got := DailyBudget(400, 300, now); got != 0 {
		t.Errorf("DailyBudget over limit = %v, want 0", got)
	}

	lastDay := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)
	if got := DailyBudget(10, 300, lastDay); got != 0 {
		t.Errorf("DailyBudget on last day = %v, want 0", got)
	}
}

func TestDailyRate(t *testing.T) {
	now := time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC)
	if got := DailyRate(100, now); math.Abs(got-5) > 1e-9 {
		t.Errorf("DailyRate = %v, want 5", got)
	}
}
