// Package scheduling orchestrates interview slot booking: it validates a
// requested slot against derived availability, races for the claim through
// the reservation store's atomic primitives, offers ranked alternatives when
// the slot is lost, and drives the reservation lifecycle.
package scheduling

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/cesarabia/talentflow-scheduling/internal/availability"
	"github.com/cesarabia/talentflow-scheduling/internal/observability/metrics"
	"github.com/cesarabia/talentflow-scheduling/internal/reservations"
	"github.com/cesarabia/talentflow-scheduling/pkg/logging"
)

var schedulingTracer = otel.Tracer("talentflow.internal.scheduling")

// Kind classifies a successful schedule attempt.
type Kind string

const (
	KindScheduled   Kind = "SCHEDULED"
	KindRescheduled Kind = "RESCHEDULED"
	KindUnchanged   Kind = "UNCHANGED"
)

// Default search bounds for alternatives. Two weeks keeps suggestions
// relevant to a candidate deciding right now.
const (
	DefaultSuggestionLimit      = 3
	DefaultSuggestionWindowDays = 14
)

// ScheduleRequest is the structured intent produced by upstream extraction.
type ScheduleRequest struct {
	WorkspaceID    string `json:"workspace_id"`
	ConversationID string `json:"conversation_id"`
	ContactID      string `json:"contact_id"`
	Day            string `json:"day"`  // "2006-01-02"
	Time           string `json:"time"` // "15:04"
	Location       string `json:"location"`
}

// Alternative is one suggested open slot.
type Alternative struct {
	Day      string `json:"day"`
	Start    string `json:"start"`
	End      string `json:"end"`
	Location string `json:"location"`
	Display  string `json:"display"`
}

// ScheduleResult is the outcome of one attempt. When OK is false the slot was
// lost to a conflict and Alternatives carries what to offer instead.
type ScheduleResult struct {
	OK            bool                `json:"ok"`
	Kind          Kind                `json:"kind,omitempty"`
	ReservationID uuid.UUID           `json:"reservation_id,omitempty"`
	Day           string              `json:"day,omitempty"`
	Time          string              `json:"time,omitempty"`
	Location      string              `json:"location,omitempty"`
	Status        reservations.Status `json:"status,omitempty"`
	Alternatives  []Alternative       `json:"alternatives,omitempty"`
	Message       string              `json:"message,omitempty"`
}

// ValidationError marks a malformed or out-of-availability request. It is
// surfaced directly to the caller and never retried.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "scheduling: " + e.Reason
}

// Engine is stateless: availability config is passed into every call and all
// mutual exclusion lives in the reservation store.
type Engine struct {
	store   reservations.Store
	logger  *logging.Logger
	metrics *metrics.SchedulingMetrics

	suggestionLimit int
	windowDays      int
	now             func() time.Time
}

// Option tunes engine construction.
type Option func(*Engine)

// WithSuggestionLimit overrides how many alternatives are offered.
func WithSuggestionLimit(limit int) Option {
	return func(e *Engine) {
		if limit > 0 {
			e.suggestionLimit = limit
		}
	}
}

// WithSuggestionWindow overrides the alternative search horizon in days.
func WithSuggestionWindow(days int) Option {
	return func(e *Engine) {
		if days > 0 {
			e.windowDays = days
		}
	}
}

// WithClock pins the engine clock. Tests use this.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithMetrics attaches scheduling metrics.
func WithMetrics(m *metrics.SchedulingMetrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// NewEngine constructs a scheduling engine.
func NewEngine(store reservations.Store, logger *logging.Logger, opts ...Option) *Engine {
	if store == nil {
		panic("scheduling: reservation store required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	e := &Engine{
		store:           store,
		logger:          logger,
		suggestionLimit: DefaultSuggestionLimit,
		windowDays:      DefaultSuggestionWindowDays,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// AttemptSchedule validates the requested slot and races for it. Outcomes:
//
//   - validation failure: (*ValidationError, nil result)
//   - identical re-submission: OK with Kind UNCHANGED, no store mutation
//   - conversation already booked elsewhere: atomic reschedule
//   - otherwise: fresh claim
//   - lost race: OK=false with ranked alternatives
//
// A returned error that is not a ValidationError is a store failure; retry
// policy belongs to the caller.
func (e *Engine) AttemptSchedule(ctx context.Context, cfg *availability.Config, req ScheduleRequest) (*ScheduleResult, error) {
	ctx, span := schedulingTracer.Start(ctx, "scheduling.attempt")
	defer span.End()
	span.SetAttributes(
		attribute.String("talentflow.workspace_id", req.WorkspaceID),
		attribute.String("talentflow.conversation_id", req.ConversationID),
		attribute.String("talentflow.slot", req.Day+" "+req.Time),
	)
	start := e.now()

	if err := e.validate(cfg, req); err != nil {
		span.RecordError(err)
		e.metrics.ObserveAttempt("validation_error", e.now().Sub(start).Seconds())
		return nil, err
	}

	active, err := e.store.FindActiveFor(ctx, req.WorkspaceID, req.ConversationID)
	if err != nil {
		span.RecordError(err)
		e.metrics.ObserveAttempt("store_failure", e.now().Sub(start).Seconds())
		return nil, err
	}

	// Idempotent re-submission: same conversation asking for the slot it
	// already holds, under either status.
	if active != nil && active.Day == req.Day && active.StartTime == req.Time && active.Location == req.Location {
		e.metrics.ObserveAttempt("unchanged", e.now().Sub(start).Seconds())
		return &ScheduleResult{
			OK:            true,
			Kind:          KindUnchanged,
			ReservationID: active.ID,
			Day:           active.Day,
			Time:          active.StartTime,
			Location:      active.Location,
			Status:        active.Status,
		}, nil
	}

	claim := reservations.Claim{
		WorkspaceID:    req.WorkspaceID,
		ConversationID: req.ConversationID,
		ContactID:      req.ContactID,
		Day:            req.Day,
		StartTime:      req.Time,
		Location:       req.Location,
	}

	var (
		created *reservations.Reservation
		kind    Kind
	)
	if active != nil {
		created, err = e.store.Reschedule(ctx, req.WorkspaceID, active.ID, claim)
		kind = KindRescheduled
		if errors.Is(err, reservations.ErrNotFound) {
			// The old claim was released between lookup and reschedule;
			// fall through to a fresh claim.
			created, err = e.store.TryClaim(ctx, claim)
			kind = KindScheduled
		}
	} else {
		created, err = e.store.TryClaim(ctx, claim)
		kind = KindScheduled
	}

	if errors.Is(err, reservations.ErrSlotTaken) || errors.Is(err, reservations.ErrConversationBusy) {
		return e.conflictResult(ctx, cfg, req, start, err)
	}
	if err != nil {
		span.RecordError(err)
		e.metrics.ObserveAttempt("store_failure", e.now().Sub(start).Seconds())
		return nil, fmt.Errorf("scheduling: attempt: %w", err)
	}

	e.metrics.ObserveAttempt(string(kind), e.now().Sub(start).Seconds())
	e.logger.Info("slot claimed",
		"workspace_id", req.WorkspaceID,
		"conversation_id", req.ConversationID,
		"reservation_id", created.ID,
		"kind", kind,
		"slot", req.Day+" "+req.Time+" "+req.Location,
	)
	return &ScheduleResult{
		OK:            true,
		Kind:          kind,
		ReservationID: created.ID,
		Day:           created.Day,
		Time:          created.StartTime,
		Location:      created.Location,
		Status:        created.Status,
	}, nil
}

func (e *Engine) validate(cfg *availability.Config, req ScheduleRequest) error {
	if _, err := availability.ParseDay(req.Day); err != nil {
		return &ValidationError{Reason: fmt.Sprintf("bad day %q", req.Day)}
	}
	if !cfg.HasLocation(req.Location) {
		return &ValidationError{Reason: fmt.Sprintf("unknown location %q", req.Location)}
	}
	if !availability.HasSlot(cfg, req.Day, req.Time) {
		return &ValidationError{Reason: fmt.Sprintf("no interview slot at %s %s", req.Day, req.Time)}
	}
	instant, err := availability.SlotInstant(cfg, req.Day, req.Time)
	if err != nil {
		return &ValidationError{Reason: err.Error()}
	}
	if instant.Before(e.now()) {
		return &ValidationError{Reason: fmt.Sprintf("slot %s %s is in the past", req.Day, req.Time)}
	}
	return nil
}

func (e *Engine) conflictResult(ctx context.Context, cfg *availability.Config, req ScheduleRequest, start time.Time, cause error) (*ScheduleResult, error) {
	alts, err := e.SuggestAlternatives(ctx, cfg, req.WorkspaceID, req.Day, req.Time, "", e.suggestionLimit)
	if err != nil {
		e.metrics.ObserveAttempt("store_failure", e.now().Sub(start).Seconds())
		return nil, fmt.Errorf("scheduling: alternatives after conflict: %w", err)
	}

	e.metrics.ObserveAttempt("conflict", e.now().Sub(start).Seconds())
	e.metrics.ObserveConflict(len(alts) > 0)

	message := "that slot was just taken"
	if errors.Is(cause, reservations.ErrConversationBusy) {
		message = "this conversation already holds a reservation"
	}
	if len(alts) > 0 {
		message += "; here are the nearest open slots"
	}

	e.logger.Info("slot conflict",
		"workspace_id", req.WorkspaceID,
		"conversation_id", req.ConversationID,
		"slot", req.Day+" "+req.Time+" "+req.Location,
		"alternatives", len(alts),
	)
	return &ScheduleResult{
		OK:           false,
		Alternatives: alts,
		Message:      message,
	}, nil
}

// ActiveReservation returns the conversation's in-flight reservation, nil
// when it has none.
func (e *Engine) ActiveReservation(ctx context.Context, workspaceID, conversationID string) (*reservations.Reservation, error) {
	return e.store.FindActiveFor(ctx, workspaceID, conversationID)
}

// History returns every reservation the conversation ever made, newest first.
func (e *Engine) History(ctx context.Context, workspaceID, conversationID string) ([]reservations.Reservation, error) {
	return e.store.ListByConversation(ctx, workspaceID, conversationID)
}
