// Package models defines data structures and domain types.
package models

// UsageSummary is the current-period usage snapshot surfaced to the UI.
// Remaining and Percentage are always derived from Used and Limit, never
// stored independently.
type UsageSummary struct {
	Used       uint32  `json:"used"`
	Limit      uint32  `json:"limit"`
	Remaining  uint32  `json:"remaining"`
	Percentage float32 `json:"percentage"`
	Timestamp  int64   `json:"timestamp"`
}

// NewUsageSummary derives a summary from raw counters. Remaining saturates
// at zero when used exceeds the limit.
func NewUsageSummary(used, limit uint32, timestamp int64) UsageSummary {
	var remaining uint32
	if limit > used {
		remaining = limit - used
	}
	var percentage float32
	if limit > 0 {
		percentage = float32(used) / float32(limit) * 100
	}
	return UsageSummary{
		Used:       used,
		Limit:      limit,
		Remaining:  remaining,
		Percentage: percentage,
		Timestamp:  timestamp,
	}
}

// UsageHistoryEntry is one observed billing-period row. The list is kept
// ordered descending by timestamp and replaced wholesale on each fetch.
type UsageHistoryEntry struct {
	Timestamp        int64   `json:"timestamp"`
	IncludedRequests uint32  `json:"includedRequests"`
	BilledRequests   uint32  `json:"billedRequests"`
	GrossAmount      float64 `json:"grossAmount"`
	BilledAmount     float64 `json:"billedAmount"`
	Used             uint32  `json:"used"`
}

// Confidence labels how much history backs a prediction.
type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// Prediction is the projected month-end usage. Derived on demand, never
// persisted.
type Prediction struct {
	PredictedMonthlyRequests uint32     `json:"predictedMonthlyRequests"`
	PredictedBilledAmount    float64    `json:"predictedBilledAmount"`
	ConfidenceLevel          Confidence `json:"confidenceLevel"`
	DaysUsedForPrediction    uint32     `json:"daysUsedForPrediction"`
}

// UsagePayload bundles everything the display shell needs after a fetch.
type UsagePayload struct {
	Summary    UsageSummary        `json:"summary"`
	History    []UsageHistoryEntry `json:"history"`
	Prediction *Prediction         `json:"prediction,omitempty"`
}
