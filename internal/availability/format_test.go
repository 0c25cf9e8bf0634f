package availability

import (
	"strings"
	"testing"
)

func TestFormatSlotHuman(t *testing.T) {
	cfg := testConfig()
	got := FormatSlotHuman(cfg, "2026-09-07", "15:00", "Providencia")
	if !strings.Contains(got, "Monday") || !strings.Contains(got, "3:00 PM") {
		t.Fatalf("unexpected formatting: %q", got)
	}
	if !strings.Contains(got, "(Providencia)") {
		t.Fatalf("expected location suffix, got %q", got)
	}
}

func TestFormatSlotHumanWithoutLocation(t *testing.T) {
	cfg := testConfig()
	got := FormatSlotHuman(cfg, "2026-09-07", "09:00", "")
	if strings.Contains(got, "(") {
		t.Fatalf("expected no location suffix, got %q", got)
	}
}

func TestFormatSlotHumanFallsBackOnBadInput(t *testing.T) {
	cfg := testConfig()
	got := FormatSlotHuman(cfg, "bogus", "10:00", "Providencia")
	if !strings.Contains(got, "bogus") || !strings.Contains(got, "10:00") {
		t.Fatalf("expected raw fallback, got %q", got)
	}
}
