// Package router assembles the HTTP surface of the scheduling service.
package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cesarabia/talentflow-scheduling/internal/availability"
	httpmiddleware "github.com/cesarabia/talentflow-scheduling/internal/http/middleware"
	"github.com/cesarabia/talentflow-scheduling/internal/scheduling"
	"github.com/cesarabia/talentflow-scheduling/internal/slotblocks"
	"github.com/cesarabia/talentflow-scheduling/internal/tenancy"
	"github.com/cesarabia/talentflow-scheduling/pkg/logging"
)

// WorkspaceHeader carries the tenant on every API request.
const WorkspaceHeader = "X-Workspace-Id"

// Config wires the handlers into the router.
type Config struct {
	Scheduling     *scheduling.Handler
	Availability   *availability.Handler
	SlotBlocks     *slotblocks.Handler
	Logger         *logging.Logger
	AllowedOrigins []string
}

// New builds the chi router with the standard middleware stack.
func New(cfg Config) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	r.Use(middleware.Timeout(30 * time.Second))
	if len(cfg.AllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.AllowedOrigins))
	}

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(WorkspaceMiddleware)

		r.Post("/schedule", cfg.Scheduling.Schedule)
		r.Post("/reservations/confirm", cfg.Scheduling.Confirm)
		r.Post("/reservations/release", cfg.Scheduling.Release)
		r.Get("/reservations/active", cfg.Scheduling.Active)
		r.Get("/reservations/history", cfg.Scheduling.HistoryList)

		r.Get("/availability/config", cfg.Availability.GetConfig)
		r.Put("/availability/config", cfg.Availability.PutConfig)
		r.Get("/availability/slots", cfg.Availability.Slots)

		r.Post("/admin/slot-blocks", cfg.SlotBlocks.Create)
		r.Post("/admin/slot-blocks/{blockID}/archive", cfg.SlotBlocks.Archive)
		r.Get("/admin/slot-blocks", cfg.SlotBlocks.List)
	})

	return r
}

// WorkspaceMiddleware requires the workspace header and stores it in the
// request context for downstream handlers.
func WorkspaceMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		workspaceID := r.Header.Get(WorkspaceHeader)
		if workspaceID == "" {
			http.Error(w, "missing "+WorkspaceHeader+" header", http.StatusBadRequest)
			return
		}
		next.ServeHTTP(w, r.WithContext(tenancy.WithWorkspaceID(r.Context(), workspaceID)))
	})
}
