package availability

import (
	"fmt"
	"time"
)

// TimeWindow is one bookable window on a given day, local to the workspace
// timezone. Start and End are in TimeFormat.
type TimeWindow struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// DeriveSlots expands the weekly recurrence into the concrete bookable windows
// for one date. Exception dates yield nothing. Each interval is chunked into
// consecutive SlotMinutes-sized windows; a trailing remainder shorter than one
// slot is dropped. Output is sorted ascending by start time.
//
// Pure function: no I/O, no clock. Existing bookings are filtered elsewhere.
func DeriveSlots(cfg *Config, day string) []TimeWindow {
	date, err := ParseDay(day)
	if err != nil {
		return nil
	}
	if cfg.IsException(day) {
		return nil
	}

	var windows []TimeWindow
	for _, iv := range cfg.IntervalsFor(date.Weekday()) {
		start, err := minutesOfDay(iv.Start)
		if err != nil {
			continue
		}
		end, err := minutesOfDay(iv.End)
		if err != nil {
			continue
		}
		for s := start; s+cfg.SlotMinutes <= end; s += cfg.SlotMinutes {
			windows = append(windows, TimeWindow{
				Start: formatMinutes(s),
				End:   formatMinutes(s + cfg.SlotMinutes),
			})
		}
	}
	return windows
}

// HasSlot reports whether the given day/time combination is a derivable slot.
func HasSlot(cfg *Config, day, startTime string) bool {
	for _, w := range DeriveSlots(cfg, day) {
		if w.Start == startTime {
			return true
		}
	}
	return false
}

// SlotInstant resolves a day + local start time to an absolute instant in the
// workspace timezone. Using zoned construction rather than a fixed UTC offset
// keeps the math right across DST transitions.
func SlotInstant(cfg *Config, day, startTime string) (time.Time, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return time.Time{}, fmt.Errorf("availability: load timezone %q: %w", cfg.Timezone, err)
	}
	date, err := ParseDay(day)
	if err != nil {
		return time.Time{}, err
	}
	mins, err := minutesOfDay(startTime)
	if err != nil {
		return time.Time{}, fmt.Errorf("availability: parse time %q: %w", startTime, err)
	}
	return time.Date(date.Year(), date.Month(), date.Day(), mins/60, mins%60, 0, 0, loc), nil
}
