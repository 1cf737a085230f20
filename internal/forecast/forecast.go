// Package forecast projects month-end usage from the current counters and
// the observed history. Everything here is pure: callers pass "now" in, so
// the math is deterministic and testable.
package forecast

import (
	"math"
	"time"

	"github.com/bizzkoot/copilot-tracker/internal/models"
)

// Predict estimates where usage lands at the end of the current month.
// It returns nil when history is empty: with no observed days there is no
// basis for a rate, and showing a projection would just be noise.
//
// The projection is a straight-line extrapolation of the month-to-date
// daily average. windowDays caps the DaysUsedForPrediction label, and
// overageRate prices each predicted request beyond the limit.
func Predict(history []models.UsageHistoryEntry, used, limit uint32, windowDays int, overageRate float64, now time.Time) *models.Prediction {
	if len(history) == 0 {
		return nil
	}

	currentDay := now.Day()
	if currentDay == 0 {
		return nil
	}

	dailyAverage := float64(used) / float64(currentDay)
	remainingDays := DaysInMonth(now) - currentDay

	predicted := float64(used) + dailyAverage*float64(remainingDays)
	if predicted < 0 {
		predicted = 0
	}
	predictedRequests := uint32(math.Round(predicted))

	var billed float64
	if predictedRequests > limit {
		billed = float64(predictedRequests-limit) * overageRate
	}

	daysUsed := len(history)
	if windowDays > 0 && daysUsed > windowDays {
		daysUsed = windowDays
	}

	return &models.Prediction{
		PredictedMonthlyRequests: predictedRequests,
		PredictedBilledAmount:    billed,
		ConfidenceLevel:          confidenceFor(len(history)),
		DaysUsedForPrediction:    uint32(daysUsed),
	}
}

// confidenceFor labels a prediction by how many history entries back it.
func confidenceFor(entries int) models.Confidence {
	switch {
	case entries < 3:
		return models.ConfidenceLow
	case entries < 7:
		return models.ConfidenceMedium
	default:
		return models.ConfidenceHigh
	}
}

// DaysInMonth returns the number of days in now's month. Day zero of the
// next month normalizes to the last day of this one, which stays correct
// across leap years, the December rollover, and DST transitions (a
// duration-based count loses an hour in months with a spring-forward).
func DaysInMonth(now time.Time) int {
	year, month, _ := now.Date()
	return time.Date(year, month+1, 0, 0, 0, 0, 0, now.Location()).Day()
}

// DaysRemaining returns how many full days are left in now's month, not
// counting today.
func DaysRemaining(now time.Time) int {
	return DaysInMonth(now) - now.Day()
}

// DailyRate returns the average requests per day so far this month.
func DailyRate(used uint32, now time.Time) float64 {
	day := now.Day()
	if day == 0 {
		return 0
	}
	return float64(used) / float64(day)
}

// DailyBudget returns the requests per day the user can still spend without
// exceeding the limit. Zero once the limit is reached or the month is over.
func DailyBudget(used, limit uint32, now time.Time) float64 {
	remaining := DaysRemaining(now)
	if remaining <= 0 || used >= limit {
		return 0
	}
	return float64(limit-used) / float64(remaining)
}
