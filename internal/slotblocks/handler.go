package slotblocks

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/cesarabia/talentflow-scheduling/internal/tenancy"
	"github.com/cesarabia/talentflow-scheduling/pkg/logging"
)

// Handler handles HTTP requests for operator slot blocks.
type Handler struct {
	store  *Store
	logger *logging.Logger
}

// NewHandler creates a new slot block handler.
func NewHandler(store *Store, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{store: store, logger: logger}
}

// CreateBlockRequest is the payload for POST /admin/slot-blocks.
type CreateBlockRequest struct {
	Day             string `json:"day"`
	StartTime       string `json:"start_time"`
	DurationMinutes int    `json:"duration_minutes"`
	Location        string `json:"location"`
	Tag             string `json:"tag"`
}

// Create handles POST /admin/slot-blocks.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	workspaceID, ok := tenancy.WorkspaceIDFromContext(r.Context())
	if !ok {
		http.Error(w, "missing workspace context", http.StatusBadRequest)
		return
	}

	var req CreateBlockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	block := &Block{
		WorkspaceID:     workspaceID,
		Day:             req.Day,
		StartTime:       req.StartTime,
		DurationMinutes: req.DurationMinutes,
		Location:        req.Location,
		Tag:             req.Tag,
	}
	if err := h.store.Create(r.Context(), block); err != nil {
		if errors.Is(err, ErrInvalidBlock) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.logger.Error("failed to create slot block", "error", err, "workspace_id", workspaceID)
		http.Error(w, "failed to create slot block", http.StatusInternalServerError)
		return
	}

	h.logger.Info("slot block created",
		"workspace_id", workspaceID, "block_id", block.ID, "day", block.Day, "tag", block.Tag)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(block)
}

// Archive handles POST /admin/slot-blocks/{blockID}/archive.
func (h *Handler) Archive(w http.ResponseWriter, r *http.Request) {
	workspaceID, ok := tenancy.WorkspaceIDFromContext(r.Context())
	if !ok {
		http.Error(w, "missing workspace context", http.StatusBadRequest)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "blockID"))
	if err != nil {
		http.Error(w, "invalid block id", http.StatusBadRequest)
		return
	}

	if err := h.store.Archive(r.Context(), workspaceID, id); err != nil {
		if errors.Is(err, ErrBlockNotFound) {
			http.Error(w, "slot block not found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to archive slot block", "error", err, "block_id", id)
		http.Error(w, "failed to archive slot block", http.StatusInternalServerError)
		return
	}

	h.logger.Info("slot block archived", "workspace_id", workspaceID, "block_id", id)
	w.WriteHeader(http.StatusNoContent)
}

// ListResponse is the response for listing blocks.
type ListResponse struct {
	Blocks []Block `json:"blocks"`
	Count  int     `json:"count"`
}

// List handles GET /admin/slot-blocks?day=YYYY-MM-DD&active=true.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	workspaceID, ok := tenancy.WorkspaceIDFromContext(r.Context())
	if !ok {
		http.Error(w, "missing workspace context", http.StatusBadRequest)
		return
	}

	day := r.URL.Query().Get("day")
	if day == "" {
		http.Error(w, "missing day", http.StatusBadRequest)
		return
	}
	activeOnly := r.URL.Query().Get("active") == "true"

	blocks, err := h.store.ListByDay(r.Context(), workspaceID, day, activeOnly)
	if err != nil {
		if errors.Is(err, ErrInvalidBlock) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.logger.Error("failed to list slot blocks", "error", err, "workspace_id", workspaceID)
		http.Error(w, "failed to list slot blocks", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(ListResponse{Blocks: blocks, Count: len(blocks)})
}
