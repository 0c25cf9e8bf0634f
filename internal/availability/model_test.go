package availability

import (
	"errors"
	"testing"
)

func TestValidateAcceptsWellFormedConfig(t *testing.T) {
	if err := testConfig().Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing workspace", func(c *Config) { c.WorkspaceID = "" }},
		{"unknown timezone", func(c *Config) { c.Timezone = "Nowhere/Here" }},
		{"slot too small", func(c *Config) { c.SlotMinutes = 4 }},
		{"slot too large", func(c *Config) { c.SlotMinutes = 241 }},
		{"unknown weekday", func(c *Config) {
			c.WeeklyAvailability["funday"] = []Interval{{Start: "09:00", End: "10:00"}}
		}},
		{"inverted interval", func(c *Config) {
			c.WeeklyAvailability["monday"] = []Interval{{Start: "18:00", End: "09:00"}}
		}},
		{"empty interval", func(c *Config) {
			c.WeeklyAvailability["monday"] = []Interval{{Start: "09:00", End: "09:00"}}
		}},
		{"overlapping intervals", func(c *Config) {
			c.WeeklyAvailability["monday"] = []Interval{
				{Start: "09:00", End: "12:00"},
				{Start: "11:00", End: "14:00"},
			}
		}},
		{"bad interval time", func(c *Config) {
			c.WeeklyAvailability["monday"] = []Interval{{Start: "nine", End: "10:00"}}
		}},
		{"bad exception date", func(c *Config) { c.Exceptions = append(c.Exceptions, "14-09-2026") }},
		{"no locations", func(c *Config) { c.Locations = nil }},
		{"blank location label", func(c *Config) { c.Locations = []Location{{Label: ""}} }},
		{"duplicate location label", func(c *Config) {
			c.Locations = []Location{{Label: "Providencia"}, {Label: "Providencia"}}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestValidateAllowsUnsortedIntervalInput(t *testing.T) {
	cfg := testConfig()
	cfg.WeeklyAvailability["monday"] = []Interval{
		{Start: "15:00", End: "18:00"},
		{Start: "09:00", End: "12:00"},
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unsorted but non-overlapping intervals should validate, got %v", err)
	}
}

func TestLocationLookups(t *testing.T) {
	cfg := testConfig()
	if !cfg.HasLocation("Providencia") {
		t.Fatal("expected Providencia to exist")
	}
	if cfg.HasLocation("Vitacura") {
		t.Fatal("did not expect Vitacura")
	}
	loc, ok := cfg.LocationByLabel("Providencia")
	if !ok || loc.ExactAddress != "Av. Providencia 1234" {
		t.Fatalf("unexpected location record: %+v ok=%v", loc, ok)
	}
}

func TestIsException(t *testing.T) {
	cfg := testConfig()
	if !cfg.IsException("2026-09-14") {
		t.Fatal("expected 2026-09-14 to be an exception")
	}
	if cfg.IsException("2026-09-07") {
		t.Fatal("did not expect 2026-09-07 to be an exception")
	}
}
