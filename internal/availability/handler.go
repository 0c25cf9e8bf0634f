package availability

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/cesarabia/talentflow-scheduling/internal/reservations"
	"github.com/cesarabia/talentflow-scheduling/internal/tenancy"
	"github.com/cesarabia/talentflow-scheduling/pkg/logging"
)

// OccupancyLister reports which (time, location) pairs are taken on a day.
// Satisfied by reservations.Store.
type OccupancyLister interface {
	ListOccupied(ctx context.Context, workspaceID, day string, slotMinutes int) (map[reservations.SlotKey]struct{}, error)
}

// Handler handles HTTP requests for availability configuration and derived
// open slots.
type Handler struct {
	store     *Store
	occupancy OccupancyLister
	logger    *logging.Logger
}

// NewHandler creates a new availability handler.
func NewHandler(store *Store, occupancy OccupancyLister, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{store: store, occupancy: occupancy, logger: logger}
}

// GetConfig handles GET /availability/config.
func (h *Handler) GetConfig(w http.ResponseWriter, r *http.Request) {
	workspaceID, ok := tenancy.WorkspaceIDFromContext(r.Context())
	if !ok {
		http.Error(w, "missing workspace context", http.StatusBadRequest)
		return
	}

	cfg, err := h.store.Get(r.Context(), workspaceID)
	if err != nil {
		if errors.Is(err, ErrConfigNotFound) {
			http.Error(w, "availability not configured", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to load availability config", "error", err, "workspace_id", workspaceID)
		http.Error(w, "failed to load availability", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(cfg)
}

// PutConfig handles PUT /availability/config. The body is validated as a
// whole before it replaces the stored config.
func (h *Handler) PutConfig(w http.ResponseWriter, r *http.Request) {
	workspaceID, ok := tenancy.WorkspaceIDFromContext(r.Context())
	if !ok {
		http.Error(w, "missing workspace context", http.StatusBadRequest)
		return
	}

	var cfg Config
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	cfg.WorkspaceID = workspaceID

	if err := h.store.Set(r.Context(), &cfg); err != nil {
		if errors.Is(err, ErrInvalidConfig) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.logger.Error("failed to save availability config", "error", err, "workspace_id", workspaceID)
		http.Error(w, "failed to save availability", http.StatusInternalServerError)
		return
	}

	h.logger.Info("availability config updated",
		"workspace_id", workspaceID,
		"timezone", cfg.Timezone,
		"slot_minutes", cfg.SlotMinutes,
		"locations", len(cfg.Locations),
	)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(&cfg)
}

// OpenSlot is one bookable window at one location.
type OpenSlot struct {
	Start    string `json:"start"`
	End      string `json:"end"`
	Location string `json:"location"`
	Display  string `json:"display"`
}

// SlotsResponse is the response for GET /availability/slots.
type SlotsResponse struct {
	Day   string     `json:"day"`
	Slots []OpenSlot `json:"slots"`
	Count int        `json:"count"`
}

// Slots handles GET /availability/slots?day=YYYY-MM-DD. It returns the
// derived grid for the day minus everything currently occupied.
func (h *Handler) Slots(w http.ResponseWriter, r *http.Request) {
	workspaceID, ok := tenancy.WorkspaceIDFromContext(r.Context())
	if !ok {
		http.Error(w, "missing workspace context", http.StatusBadRequest)
		return
	}

	day := r.URL.Query().Get("day")
	if _, err := ParseDay(day); err != nil {
		http.Error(w, "missing or invalid day", http.StatusBadRequest)
		return
	}

	cfg, err := h.store.Get(r.Context(), workspaceID)
	if err != nil {
		if errors.Is(err, ErrConfigNotFound) {
			http.Error(w, "availability not configured", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to load availability config", "error", err, "workspace_id", workspaceID)
		http.Error(w, "failed to load availability", http.StatusInternalServerError)
		return
	}

	windows := DeriveSlots(cfg, day)
	slots := []OpenSlot{}
	if len(windows) > 0 {
		occupied, err := h.occupancy.ListOccupied(r.Context(), workspaceID, day, cfg.SlotMinutes)
		if err != nil {
			h.logger.Error("failed to load occupancy", "error", err, "workspace_id", workspaceID, "day", day)
			http.Error(w, "failed to load occupancy", http.StatusInternalServerError)
			return
		}
		for _, win := range windows {
			for _, loc := range cfg.Locations {
				if _, taken := occupied[reservations.SlotKey{StartTime: win.Start, Location: loc.Label}]; taken {
					continue
				}
				slots = append(slots, OpenSlot{
					Start:    win.Start,
					End:      win.End,
					Location: loc.Label,
					Display:  FormatSlotHuman(cfg, day, win.Start, loc.Label),
				})
			}
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(SlotsResponse{Day: day, Slots: slots, Count: len(slots)})
}
