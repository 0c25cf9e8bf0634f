// Package availability describes when interviews can happen for a workspace:
// timezone, slot granularity, weekly recurring windows, blackout dates and
// interview locations. The configuration is pure data validated at write time;
// slot derivation over it lives in deriver.go.
package availability

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

const (
	// DayFormat is the wire format for calendar dates.
	DayFormat = "2006-01-02"
	// TimeFormat is the wire format for local times of day.
	TimeFormat = "15:04"

	minSlotMinutes = 5
	maxSlotMinutes = 240
)

// ErrInvalidConfig is the root of every configuration validation failure.
var ErrInvalidConfig = errors.New("availability: invalid config")

var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// Interval is a half-open [Start, End) window of local time within one day.
type Interval struct {
	Start string `json:"start"` // "09:00" in 24-hour format
	End   string `json:"end"`   // "18:00" in 24-hour format
}

// Location is a place where interviews are held. ExactAddress is withheld
// from candidates until their reservation is confirmed; that policy is
// enforced by callers, this package only carries the data.
type Location struct {
	Label        string `json:"label"`
	ExactAddress string `json:"exact_address,omitempty"`
	Instructions string `json:"instructions,omitempty"`
}

// Config holds one workspace's interview availability.
type Config struct {
	WorkspaceID        string                `json:"workspace_id"`
	Timezone           string                `json:"timezone"`     // IANA name, e.g. "America/Santiago"
	SlotMinutes        int                   `json:"slot_minutes"` // 5–240
	WeeklyAvailability map[string][]Interval `json:"weekly_availability"`
	Exceptions         []string              `json:"exceptions,omitempty"` // blacked-out dates
	Locations          []Location            `json:"locations"`
}

// Validate checks the whole structure. An update either passes in full or is
// rejected in full; the stored config is never partially corrupt.
func (c *Config) Validate() error {
	if c.WorkspaceID == "" {
		return fmt.Errorf("%w: workspace_id is required", ErrInvalidConfig)
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("%w: unknown timezone %q", ErrInvalidConfig, c.Timezone)
	}
	if c.SlotMinutes < minSlotMinutes || c.SlotMinutes > maxSlotMinutes {
		return fmt.Errorf("%w: slot_minutes must be between %d and %d, got %d",
			ErrInvalidConfig, minSlotMinutes, maxSlotMinutes, c.SlotMinutes)
	}

	for day, intervals := range c.WeeklyAvailability {
		if _, ok := weekdayNames[day]; !ok {
			return fmt.Errorf("%w: unknown weekday %q", ErrInvalidConfig, day)
		}
		prevEnd := -1
		sorted := append([]Interval(nil), intervals...)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })
		for _, iv := range sorted {
			start, err := minutesOfDay(iv.Start)
			if err != nil {
				return fmt.Errorf("%w: %s: bad start %q", ErrInvalidConfig, day, iv.Start)
			}
			end, err := minutesOfDay(iv.End)
			if err != nil {
				return fmt.Errorf("%w: %s: bad end %q", ErrInvalidConfig, day, iv.End)
			}
			if start >= end {
				return fmt.Errorf("%w: %s: interval %s-%s is empty or inverted",
					ErrInvalidConfig, day, iv.Start, iv.End)
			}
			if start < prevEnd {
				return fmt.Errorf("%w: %s: overlapping intervals", ErrInvalidConfig, day)
			}
			prevEnd = end
		}
	}

	for _, d := range c.Exceptions {
		if _, err := ParseDay(d); err != nil {
			return fmt.Errorf("%w: bad exception date %q", ErrInvalidConfig, d)
		}
	}

	if len(c.Locations) == 0 {
		return fmt.Errorf("%w: at least one location is required", ErrInvalidConfig)
	}
	seen := make(map[string]struct{}, len(c.Locations))
	for _, loc := range c.Locations {
		if loc.Label == "" {
			return fmt.Errorf("%w: location label is required", ErrInvalidConfig)
		}
		if _, dup := seen[loc.Label]; dup {
			return fmt.Errorf("%w: duplicate location label %q", ErrInvalidConfig, loc.Label)
		}
		seen[loc.Label] = struct{}{}
	}

	return nil
}

// HasLocation reports whether a location label is configured.
func (c *Config) HasLocation(label string) bool {
	for _, loc := range c.Locations {
		if loc.Label == label {
			return true
		}
	}
	return false
}

// LocationByLabel returns the configured location record.
func (c *Config) LocationByLabel(label string) (Location, bool) {
	for _, loc := range c.Locations {
		if loc.Label == label {
			return loc, true
		}
	}
	return Location{}, false
}

// IsException reports whether the given day is fully blacked out.
func (c *Config) IsException(day string) bool {
	for _, d := range c.Exceptions {
		if d == day {
			return true
		}
	}
	return false
}

// IntervalsFor returns the recurring intervals for the weekday of the given
// date, already sorted by start time.
func (c *Config) IntervalsFor(weekday time.Weekday) []Interval {
	for name, wd := range weekdayNames {
		if wd != weekday {
			continue
		}
		intervals := append([]Interval(nil), c.WeeklyAvailability[name]...)
		sort.Slice(intervals, func(i, j int) bool { return intervals[i].Start < intervals[j].Start })
		return intervals
	}
	return nil
}

// ParseDay parses a calendar date in DayFormat.
func ParseDay(day string) (time.Time, error) {
	t, err := time.Parse(DayFormat, day)
	if err != nil {
		return time.Time{}, fmt.Errorf("availability: parse day %q: %w", day, err)
	}
	return t, nil
}

// minutesOfDay converts "HH:MM" into minutes since midnight.
func minutesOfDay(hhmm string) (int, error) {
	t, err := time.Parse(TimeFormat, hhmm)
	if err != nil {
		return 0, err
	}
	return t.Hour()*60 + t.Minute(), nil
}

// formatMinutes renders minutes since midnight back into "HH:MM".
func formatMinutes(mins int) string {
	return fmt.Sprintf("%02d:%02d", mins/60, mins%60)
}
