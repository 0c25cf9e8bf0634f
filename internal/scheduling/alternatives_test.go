package scheduling

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cesarabia/talentflow-scheduling/internal/reservations"
	"github.com/cesarabia/talentflow-scheduling/pkg/logging"
)

type occupancySpy struct {
	reservations.Store
	daysQueried []string
}

func (s *occupancySpy) ListOccupied(ctx context.Context, workspaceID, day string, slotMinutes int) (map[reservations.SlotKey]struct{}, error) {
	s.daysQueried = append(s.daysQueried, day)
	return s.Store.ListOccupied(ctx, workspaceID, day, slotMinutes)
}

func TestSuggestAlternativesSkipsClosedDays(t *testing.T) {
	spy := &occupancySpy{Store: reservations.NewMemoryStore()}
	engine := newTestEngine(t, spy)
	cfg := testEngineConfig()

	// Request a Monday slot with the whole grid open: the first day already
	// satisfies the limit, so occupancy is loaded for that day only.
	alts, err := engine.SuggestAlternatives(context.Background(), cfg, "ws-1", "2026-09-07", "10:00", "", 3)
	require.NoError(t, err)
	require.Len(t, alts, 3)
	assert.Equal(t, []string{"2026-09-07"}, spy.daysQueried)
}

func TestSuggestAlternativesCrossesIntoLaterDays(t *testing.T) {
	store := reservations.NewMemoryStore()
	spy := &occupancySpy{Store: store}
	engine := newTestEngine(t, spy)
	cfg := testEngineConfig()

	// Block every Monday slot at both locations.
	for _, w := range DeriveSlotsByDistance(cfg, "2026-09-07", 0) {
		for _, loc := range []string{"Providencia", "Las Condes"} {
			store.AddBlock(reservations.MemorySlotBlock{
				WorkspaceID: "ws-1", Day: "2026-09-07", StartTime: w.Start, Location: loc,
			})
		}
	}

	alts, err := engine.SuggestAlternatives(context.Background(), cfg, "ws-1", "2026-09-07", "10:00", "", 3)
	require.NoError(t, err)
	require.Len(t, alts, 3)
	for _, alt := range alts {
		assert.Equal(t, "2026-09-08", alt.Day)
	}
	// Nearest to 10:00 on the Tuesday grid (09:00-13:00).
	assert.Equal(t, "10:00", alts[0].Start)
	assert.Equal(t, "09:00", alts[1].Start)
	assert.Equal(t, "11:00", alts[2].Start)

	// Wednesday through Sunday have no windows and are skipped without a
	// single occupancy query; the scan stops once the limit is met.
	assert.Equal(t, []string{"2026-09-07", "2026-09-08"}, spy.daysQueried)
}

func TestSuggestAlternativesExcludesLocation(t *testing.T) {
	engine := newTestEngine(t, reservations.NewMemoryStore())
	cfg := testEngineConfig()

	alts, err := engine.SuggestAlternatives(context.Background(), cfg, "ws-1", "2026-09-07", "10:00", "Providencia", 5)
	require.NoError(t, err)
	require.NotEmpty(t, alts)
	for _, alt := range alts {
		assert.Equal(t, "Las Condes", alt.Location)
	}
}

func TestSuggestAlternativesAllLocationsExcluded(t *testing.T) {
	cfg := testEngineConfig()
	cfg.Locations = cfg.Locations[:1]
	engine := newTestEngine(t, reservations.NewMemoryStore())

	alts, err := engine.SuggestAlternatives(context.Background(), cfg, "ws-1", "2026-09-07", "10:00", "Providencia", 3)
	require.NoError(t, err)
	assert.Empty(t, alts)
}

func TestSuggestAlternativesFullyBookedWindow(t *testing.T) {
	store := reservations.NewMemoryStore()
	engine := newTestEngine(t, store)
	cfg := testEngineConfig()

	// Saturate the entire two-week horizon.
	for offset := 0; offset < DefaultSuggestionWindowDays; offset++ {
		day := testClock.AddDate(0, 0, offset).Format("2006-01-02")
		for _, w := range DeriveSlotsByDistance(cfg, day, 0) {
			for _, loc := range []string{"Providencia", "Las Condes"} {
				store.AddBlock(reservations.MemorySlotBlock{
					WorkspaceID: "ws-1", Day: day, StartTime: w.Start, Location: loc,
				})
			}
		}
	}

	alts, err := engine.SuggestAlternatives(context.Background(), cfg, "ws-1", "2026-09-01", "10:00", "", 3)
	require.NoError(t, err)
	assert.Empty(t, alts)
}

func TestSuggestAlternativesOmitsElapsedWindows(t *testing.T) {
	cfg := testEngineConfig()
	// Mid-morning on the requested Monday: 09:00 and 10:00 have already
	// started and must never be offered.
	midDay := time.Date(2026, 9, 7, 10, 30, 0, 0, time.UTC)
	engine := NewEngine(reservations.NewMemoryStore(), logging.New("error"),
		WithClock(func() time.Time { return midDay }))

	alts, err := engine.SuggestAlternatives(context.Background(), cfg, "ws-1", "2026-09-07", "13:00", "", 20)
	require.NoError(t, err)
	require.NotEmpty(t, alts)
	for _, alt := range alts {
		if alt.Day == "2026-09-07" {
			assert.GreaterOrEqual(t, alt.Start, "11:00", "offered a window already in the past")
		}
	}
}

func TestDeriveSlotsByDistanceTieBreaksEarlier(t *testing.T) {
	cfg := testEngineConfig()
	windows := DeriveSlotsByDistance(cfg, "2026-09-07", 10*60)
	require.NotEmpty(t, windows)
	assert.Equal(t, "10:00", windows[0].Start)
	assert.Equal(t, "09:00", windows[1].Start)
	assert.Equal(t, "11:00", windows[2].Start)
}
