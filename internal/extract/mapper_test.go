package extract

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/bizzkoot/copilot-tracker/internal/models"
)

func TestMapHistoryRowsSortsNewestFirst(t *testing.T) {
	now := time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC)
	rows := []models.RawHistoryRow{
		{Date: "2024-03-01T00:00:00Z", IncludedRequests: 10, GrossAmount: "0", BilledAmount: "0"},
		{Date: "2024-03-03T00:00:00Z", IncludedRequests: 30, GrossAmount: "0", BilledAmount: "0"},
		{Date: "2024-03-02T00:00:00Z", IncludedRequests: 20, GrossAmount: "0", BilledAmount: "0"},
	}

	entries := MapHistoryRows(rows, now)
	if len(entries) != 3 {
		t.Fatalf("got %d entries, want 3", len(entries))
	}
	for i := 1; i < len(entries); i++ {
		if entries[i-1].Timestamp < entries[i].Timestamp {
			t.Fatalf("entries not descending: %d before %d", entries[i-1].Timestamp, entries[i].Timestamp)
		}
	}
	if entries[0].IncludedRequests != 30 {
		t.Errorf("newest entry IncludedRequests = %d, want 30", entries[0].IncludedRequests)
	}
}

func TestMapHistoryRowsStripsCurrency(t *testing.T) {
	now := time.Now()
	rows := []models.RawHistoryRow{
		{Date: "2024-03-01T00:00:00Z", GrossAmount: "$1,234.56", BilledAmount: "$0.12"},
	}

	entries := MapHistoryRows(rows, now)
	if entries[0].GrossAmount != 1234.56 {
		t.Errorf("GrossAmount = %v, want 1234.56", entries[0].GrossAmount)
	}
	if entries[0].BilledAmount != 0.12 {
		t.Errorf("BilledAmount = %v, want 0.12", entries[0].BilledAmount)
	}
}

func TestMapHistoryRowsLegacyDateFormat(t *testing.T) {
	now := time.Now()
	rows := []models.RawHistoryRow{
		{Date: "2024-03-01 00:00:00 +0000 UTC", GrossAmount: "0", BilledAmount: "0"},
	}

	entries := MapHistoryRows(rows, now)
	want := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC).Unix()
	if entries[0].Timestamp != want {
		t.Errorf("Timestamp = %d, want %d", entries[0].Timestamp, want)
	}
}

func TestMapHistoryRows_BadDateFallsBackToNow(t *testing.T) {
	now := time.Date(2024, 3, 20, 9, 30, 0, 0, time.UTC)
	rows := []models.RawHistoryRow{
		{Date: "not a date", IncludedRequests: 5, GrossAmount: "0", BilledAmount: "0"},
	}

	entries := MapHistoryRows(rows, now)
	if len(entries) != 1 {
		t.Fatal("row with a bad date must be kept, not dropped")
	}
	if entries[0].Timestamp != now.Unix() {
		t.Errorf("Timestamp = %d, want now (%d)", entries[0].Timestamp, now.Unix())
	}
}

func TestMapHistoryRowsComputesUsed(t *testing.T) {
	entries := MapHistoryRows([]models.RawHistoryRow{
		{Date: "2024-03-01T00:00:00Z", IncludedRequests: 10, BilledRequests: 3, GrossAmount: "0", BilledAmount: "0"},
	}, time.Now())

	if entries[0].Used != 13 {
		t.Errorf("Used = %d, want 13", entries[0].Used)
	}
}

func TestParseCustomerEvent(t *testing.T) {
	id, err := parseCustomerEvent(json.RawMessage(`{"success":true,"id":123456}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id == nil || *id != 123456 {
		t.Errorf("id = %v, want 123456", id)
	}

	if _, err := parseCustomerEvent(json.RawMessage(`{"success":false,"error":"nope"}`)); err == nil {
		t.Error("expected error for a failed payload")
	}
	if _, err := parseCustomerEvent(json.RawMessage(`{garbage`)); err == nil {
		t.Error("expected error for malformed JSON")
	}
}

func TestParseUsageEventMissingFieldsZero(t *testing.T) {
	raw := json.RawMessage(`{
		"usageCard": {"success": true, "data": {"discount_quantity": 42}},
		"usageTable": {"success": true, "rows": []}
	}`)

	figures, rows, err := parseUsageEvent(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if figures == nil {
		t.Fatal("figures = nil, want card data")
	}
	if figures.DiscountQuantity != 42 {
		t.Errorf("DiscountQuantity = %d, want 42", figures.DiscountQuantity)
	}
	if figures.UserPremiumRequestEntitlement != 0 {
		t.Errorf("missing entitlement should decode as 0, got %d", figures.UserPremiumRequestEntitlement)
	}
	if rows == nil || len(rows) != 0 {
		t.Errorf("rows = %v, want empty slice", rows)
	}
}

func TestParseUsageEventCardFailure(t *testing.T) {
	raw := json.RawMessage(`{
		"usageCard": {"success": false, "error": "403"},
		"usageTable": {"success": true, "rows": [{"date":"2024-03-01T00:00:00Z","included_requests":1,"gross_amount":"0","billed_amount":"0"}]}
	}`)

	figures, rows, err := parseUsageEvent(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if figures != nil {
		t.Error("failed card should yield nil figures")
	}
	if len(rows) != 1 {
		t.Errorf("table rows should still be used, got %d", len(rows))
	}
}
