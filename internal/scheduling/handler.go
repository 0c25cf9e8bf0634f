package scheduling

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/cesarabia/talentflow-scheduling/internal/availability"
	"github.com/cesarabia/talentflow-scheduling/internal/reservations"
	"github.com/cesarabia/talentflow-scheduling/internal/tenancy"
	"github.com/cesarabia/talentflow-scheduling/pkg/logging"
)

// Handler handles HTTP requests for scheduling and reservation lifecycle.
type Handler struct {
	engine  *Engine
	configs *availability.Store
	logger  *logging.Logger
}

// NewHandler creates a new scheduling handler.
func NewHandler(engine *Engine, configs *availability.Store, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{engine: engine, configs: configs, logger: logger}
}

type scheduleRequest struct {
	ConversationID string `json:"conversation_id"`
	ContactID      string `json:"contact_id"`
	Day            string `json:"day"`
	Time           string `json:"time"`
	Location       string `json:"location"`
}

// Schedule handles POST /schedule.
func (h *Handler) Schedule(w http.ResponseWriter, r *http.Request) {
	workspaceID, ok := tenancy.WorkspaceIDFromContext(r.Context())
	if !ok {
		http.Error(w, "missing workspace context", http.StatusBadRequest)
		return
	}

	var req scheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.ConversationID == "" {
		http.Error(w, "missing conversation_id", http.StatusBadRequest)
		return
	}

	cfg, ok := h.loadConfig(w, r, workspaceID)
	if !ok {
		return
	}

	result, err := h.engine.AttemptSchedule(r.Context(), cfg, ScheduleRequest{
		WorkspaceID:    workspaceID,
		ConversationID: req.ConversationID,
		ContactID:      req.ContactID,
		Day:            req.Day,
		Time:           req.Time,
		Location:       req.Location,
	})
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": verr.Reason})
			return
		}
		h.logger.Error("schedule attempt failed", "error", err, "workspace_id", workspaceID)
		http.Error(w, "failed to schedule", http.StatusInternalServerError)
		return
	}

	status := http.StatusOK
	if result.OK && result.Kind == KindScheduled {
		status = http.StatusCreated
	}
	if !result.OK {
		status = http.StatusConflict
	}
	writeJSON(w, status, result)
}

type lifecycleRequest struct {
	ConversationID string `json:"conversation_id"`
	Status         string `json:"status,omitempty"`
}

// Confirm handles POST /reservations/confirm.
func (h *Handler) Confirm(w http.ResponseWriter, r *http.Request) {
	workspaceID, ok := tenancy.WorkspaceIDFromContext(r.Context())
	if !ok {
		http.Error(w, "missing workspace context", http.StatusBadRequest)
		return
	}

	var req lifecycleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ConversationID == "" {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	confirmed, err := h.engine.ConfirmActiveReservation(r.Context(), workspaceID, req.ConversationID)
	if err != nil {
		h.logger.Error("confirm failed", "error", err, "workspace_id", workspaceID)
		http.Error(w, "failed to confirm", http.StatusInternalServerError)
		return
	}
	if confirmed == nil {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "reservation": nil})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "reservation": confirmed})
}

// Release handles POST /reservations/release.
func (h *Handler) Release(w http.ResponseWriter, r *http.Request) {
	workspaceID, ok := tenancy.WorkspaceIDFromContext(r.Context())
	if !ok {
		http.Error(w, "missing workspace context", http.StatusBadRequest)
		return
	}

	var req lifecycleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ConversationID == "" {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	next := reservations.Status(req.Status)
	if req.Status == "" {
		next = reservations.StatusCancelled
	}

	released, err := h.engine.ReleaseActiveReservation(r.Context(), workspaceID, req.ConversationID, next)
	if err != nil {
		if errors.Is(err, reservations.ErrInvalidStatus) {
			http.Error(w, "status must be CANCELLED or ON_HOLD", http.StatusBadRequest)
			return
		}
		h.logger.Error("release failed", "error", err, "workspace_id", workspaceID)
		http.Error(w, "failed to release", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "reservation": released})
}

// Active handles GET /reservations/active?conversation_id=...
func (h *Handler) Active(w http.ResponseWriter, r *http.Request) {
	workspaceID, ok := tenancy.WorkspaceIDFromContext(r.Context())
	if !ok {
		http.Error(w, "missing workspace context", http.StatusBadRequest)
		return
	}

	conversationID := r.URL.Query().Get("conversation_id")
	if conversationID == "" {
		http.Error(w, "missing conversation_id", http.StatusBadRequest)
		return
	}

	active, err := h.engine.ActiveReservation(r.Context(), workspaceID, conversationID)
	if err != nil {
		h.logger.Error("active lookup failed", "error", err, "workspace_id", workspaceID)
		http.Error(w, "failed to look up reservation", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"reservation": active})
}

// HistoryList handles GET /reservations/history?conversation_id=...
func (h *Handler) HistoryList(w http.ResponseWriter, r *http.Request) {
	workspaceID, ok := tenancy.WorkspaceIDFromContext(r.Context())
	if !ok {
		http.Error(w, "missing workspace context", http.StatusBadRequest)
		return
	}

	conversationID := r.URL.Query().Get("conversation_id")
	if conversationID == "" {
		http.Error(w, "missing conversation_id", http.StatusBadRequest)
		return
	}

	history, err := h.engine.History(r.Context(), workspaceID, conversationID)
	if err != nil {
		h.logger.Error("history lookup failed", "error", err, "workspace_id", workspaceID)
		http.Error(w, "failed to list reservations", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"reservations": history, "count": len(history)})
}

func (h *Handler) loadConfig(w http.ResponseWriter, r *http.Request, workspaceID string) (*availability.Config, bool) {
	cfg, err := h.configs.Get(r.Context(), workspaceID)
	if err != nil {
		if errors.Is(err, availability.ErrConfigNotFound) {
			http.Error(w, "availability not configured for workspace", http.StatusNotFound)
			return nil, false
		}
		h.logger.Error("failed to load availability config", "error", err, "workspace_id", workspaceID)
		http.Error(w, "failed to load availability", http.StatusInternalServerError)
		return nil, false
	}
	return cfg, true
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
