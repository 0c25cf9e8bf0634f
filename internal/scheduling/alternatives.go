package scheduling

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/cesarabia/talentflow-scheduling/internal/availability"
	"github.com/cesarabia/talentflow-scheduling/internal/reservations"
)

// SuggestAlternatives ranks open slots near the requested one. The search is
// lazy: days are visited in order starting from the requested day, occupancy
// is loaded once per day, and the scan stops as soon as limit candidates are
// collected. Within a day candidates are ordered by absolute time distance
// from the requested start, earlier slot first on a tie.
//
// excludeLocation drops one location from consideration; candidates then take
// the first remaining configured location with the slot free.
func (e *Engine) SuggestAlternatives(ctx context.Context, cfg *availability.Config, workspaceID, requestedDay, requestedTime, excludeLocation string, limit int) ([]Alternative, error) {
	if limit <= 0 {
		limit = e.suggestionLimit
	}
	anchor, err := availability.ParseDay(requestedDay)
	if err != nil {
		return nil, fmt.Errorf("scheduling: parse day %q: %w", requestedDay, err)
	}
	requestedMins, err := parseMinutes(requestedTime)
	if err != nil {
		return nil, fmt.Errorf("scheduling: parse time %q: %w", requestedTime, err)
	}

	locations := make([]string, 0, len(cfg.Locations))
	for _, loc := range cfg.Locations {
		if loc.Label != excludeLocation {
			locations = append(locations, loc.Label)
		}
	}
	if len(locations) == 0 {
		return nil, nil
	}

	var alts []Alternative
	for offset := 0; offset < e.windowDays && len(alts) < limit; offset++ {
		day := anchor.AddDate(0, 0, offset).Format(availability.DayFormat)
		windows := DeriveSlotsByDistance(cfg, day, requestedMins)
		if len(windows) == 0 {
			continue
		}

		occupied, err := e.store.ListOccupied(ctx, workspaceID, day, cfg.SlotMinutes)
		if err != nil {
			return nil, fmt.Errorf("scheduling: occupancy for %s: %w", day, err)
		}

		for _, w := range windows {
			if len(alts) >= limit {
				break
			}
			// A window already in the past is never actionable.
			if instant, err := availability.SlotInstant(cfg, day, w.Start); err != nil || instant.Before(e.now()) {
				continue
			}
			for _, loc := range locations {
				if _, taken := occupied[reservations.SlotKey{StartTime: w.Start, Location: loc}]; taken {
					continue
				}
				alts = append(alts, Alternative{
					Day:      day,
					Start:    w.Start,
					End:      w.End,
					Location: loc,
					Display:  availability.FormatSlotHuman(cfg, day, w.Start, loc),
				})
				break
			}
		}
	}
	return alts, nil
}

// DeriveSlotsByDistance returns the day's windows sorted by distance in
// minutes from an anchor time instead of chronologically.
func DeriveSlotsByDistance(cfg *availability.Config, day string, anchorMins int) []availability.TimeWindow {
	windows := availability.DeriveSlots(cfg, day)
	sort.SliceStable(windows, func(i, j int) bool {
		di := distanceMinutes(windows[i].Start, anchorMins)
		dj := distanceMinutes(windows[j].Start, anchorMins)
		if di != dj {
			return di < dj
		}
		return windows[i].Start < windows[j].Start
	})
	return windows
}

func distanceMinutes(start string, anchorMins int) int {
	mins, err := parseMinutes(start)
	if err != nil {
		return 1 << 20
	}
	d := mins - anchorMins
	if d < 0 {
		return -d
	}
	return d
}

func parseMinutes(s string) (int, error) {
	t, err := time.Parse(availability.TimeFormat, s)
	if err != nil {
		return 0, err
	}
	return t.Hour()*60 + t.Minute(), nil
}
