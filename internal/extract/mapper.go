package extract

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/bizzkoot/copilot-tracker/internal/models"
)

// Event names the injected script reports over the bridge.
const (
	eventCustomer = "customer"
	eventUsage    = "usage"
	eventComplete = "complete"
)

// legacyDateLayout is the second date shape the usage table has been seen
// to emit, alongside RFC 3339.
const legacyDateLayout = "2006-01-02 15:04:05 -0700 MST"

type customerPayload struct {
	Success bool    `json:"success"`
	ID      *uint64 `json:"id"`
	Error   string  `json:"error"`
}

type usagePayload struct {
	UsageCard struct {
		Success bool                `json:"success"`
		Error   string              `json:"error"`
		Data    models.UsageFigures `json:"data"`
	} `json:"usageCard"`
	UsageTable struct {
		Success bool                   `json:"success"`
		Error   string                 `json:"error"`
		Rows    []models.RawHistoryRow `json:"rows"`
	} `json:"usageTable"`
}

type completePayload struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func parseCustomerEvent(raw json.RawMessage) (*uint64, error) {
	var p customerPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("malformed customer payload: %w", err)
	}
	if !p.Success || p.ID == nil {
		if p.Error != "" {
			return nil, fmt.Errorf("customer id extraction failed: %s", p.Error)
		}
		return nil, fmt.Errorf("customer id extraction failed")
	}
	return p.ID, nil
}

// parseUsageEvent splits the consolidated usage event into the card
// figures and the raw table rows. Either half may have failed on the page
// side; the other is still used.
func parseUsageEvent(raw json.RawMessage) (*models.UsageFigures, []models.RawHistoryRow, error) {
	var p usagePayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, nil, fmt.Errorf("malformed usage payload: %w", err)
	}

	var figures *models.UsageFigures
	if p.UsageCard.Success {
		card := p.UsageCard.Data
		figures = &card
	}

	var rows []models.RawHistoryRow
	if p.UsageTable.Success {
		rows = p.UsageTable.Rows
	}

	return figures, rows, nil
}

func parseCompleteEvent(raw json.RawMessage) completePayload {
	var p completePayload
	if err := json.Unmarshal(raw, &p); err != nil {
		// An unreadable terminal event still terminates the attempt.
		return completePayload{Success: false, Error: "malformed completion payload"}
	}
	return p
}

// MapHistoryRows converts raw table rows into history entries: dates are
// parsed (two observed formats, falling back to now rather than dropping
// the row), currency symbols are stripped from amounts, and the result is
// sorted newest first.
func MapHistoryRows(rows []models.RawHistoryRow, now time.Time) []models.UsageHistoryEntry {
	entries := make([]models.UsageHistoryEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, models.UsageHistoryEntry{
			Timestamp:        parseRowDate(row.Date, now),
			IncludedRequests: row.IncludedRequests,
			BilledRequests:   row.BilledRequests,
			GrossAmount:      parseAmount(row.GrossAmount),
			BilledAmount:     parseAmount(row.BilledAmount),
			Used:             row.IncludedRequests + row.BilledRequests,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp > entries[j].Timestamp
	})
	return entries
}

func parseRowDate(s string, now time.Time) int64 {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.Unix()
	}
	if t, err := time.Parse(legacyDateLayout, s); err == nil {
		return t.Unix()
	}
	return now.Unix()
}

// parseAmount reads a money cell like "$1,234.56" or "0.12".
func parseAmount(s string) float64 {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}
