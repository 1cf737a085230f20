package models

import "testing"

func TestNewUsageSummary(t *testing.T) {
	tests := []struct {
		name          string
		used          uint32
		limit         uint32
		wantRemaining uint32
		wantPercent   float32
	}{
		{"under limit", 300, 1200, 900, 25},
		{"at limit", 1200, 1200, 0, 100},
		{"over limit saturates", 1500, 1200, 0, 125},
		{"zero limit", 42, 0, 0, 0},
		{"zero usage", 0, 1200, 1200, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewUsageSummary(tt.used, tt.limit, 1700000000)
			if s.Remaining != tt.wantRemaining {
				t.Errorf("Remaining = %d, want %d", s.Remaining, tt.wantRemaining)
			}
			if s.Percentage != tt.wantPercent {
				t.Errorf("Percentage = %f, want %f", s.Percentage, tt.wantPercent)
			}
			if s.Timestamp != 1700000000 {
				t.Errorf("Timestamp = %d, want 1700000000", s.Timestamp)
			}
		})
	}
}

func TestDefaultSettings(t *testing.T) {
	s := DefaultSettings()

	if s.CustomerID != nil {
		t.Error("expected no customer id by default")
	}
	if s.IsAuthenticated {
		t.Error("expected unauthenticated by default")
	}
	if s.UsageLimit != DefaultUsageLimit {
		t.Errorf("UsageLimit = %d, want %d", s.UsageLimit, DefaultUsageLimit)
	}
	if s.RefreshInterval < 10 {
		t.Errorf("RefreshInterval = %d, want >= 10", s.RefreshInterval)
	}
	if !s.ShowNotifications {
		t.Error("expected notifications enabled by default")
	}
}
