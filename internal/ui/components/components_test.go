package components

import (
	"strings"
	"testing"
)

func TestUsageBarAnnotation(t *testing.T) {
	bar := NewUsageBar(30)
	bar.SetUsage(150, 300)

	view := bar.View()
	if !strings.Contains(view, "150 / 300") {
		t.Errorf("view missing counters: %q", view)
	}
	if !strings.Contains(view, "50.0%") {
		t.Errorf("view missing percentage: %q", view)
	}
}

func TestUsageBarOverLimitCapped(t *testing.T) {
	bar := NewUsageBar(30)
	bar.SetUsage(400, 300)

	if bar.percent != 1 {
		t.Errorf("percent = %v, want capped at 1", bar.percent)
	}
}

func TestUsageBarZeroLimit(t *testing.T) {
	bar := NewUsageBar(30)
	bar.SetUsage(10, 0)

	if bar.percent != 0 {
		t.Errorf("percent = %v, want 0 for zero limit", bar.percent)
	}
}

func TestRenderLineChartEmpty(t *testing.T) {
	out := RenderLineChart(nil, 40, 8, "test")
	if !strings.Contains(out, "No data") {
		t.Errorf("empty chart = %q, want placeholder", out)
	}
}

func TestRenderLineChart(t *testing.T) {
	out := RenderLineChart([]float64{1, 5, 3, 8}, 40, 6, "requests")
	if out == "" {
		t.Fatal("chart render is empty")
	}
	if !strings.Contains(out, "requests") {
		t.Error("chart missing caption")
	}
}
