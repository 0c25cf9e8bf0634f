package scheduling

import (
	"context"
	"fmt"

	"github.com/cesarabia/talentflow-scheduling/internal/reservations"
)

// ConfirmActiveReservation promotes the conversation's active reservation
// from PENDING to CONFIRMED. A conversation with nothing active returns
// (nil, nil): a candidate saying "yes, confirmed" twice must not fail.
func (e *Engine) ConfirmActiveReservation(ctx context.Context, workspaceID, conversationID string) (*reservations.Reservation, error) {
	ctx, span := schedulingTracer.Start(ctx, "scheduling.confirm")
	defer span.End()

	active, err := e.store.FindActiveFor(ctx, workspaceID, conversationID)
	if err != nil {
		return nil, fmt.Errorf("scheduling: confirm lookup: %w", err)
	}
	if active == nil {
		return nil, nil
	}

	confirmed, err := e.store.Confirm(ctx, workspaceID, active.ID)
	if err != nil {
		return nil, fmt.Errorf("scheduling: confirm %s: %w", active.ID, err)
	}

	e.metrics.ObserveLifecycle("confirm")
	e.logger.Info("reservation confirmed",
		"workspace_id", workspaceID,
		"conversation_id", conversationID,
		"reservation_id", confirmed.ID,
		"slot", confirmed.Day+" "+confirmed.StartTime,
	)
	return confirmed, nil
}

// ReleaseActiveReservation ends the conversation's active reservation with
// the given terminal status and frees the slot. Only CANCELLED and ON_HOLD
// are accepted. No active reservation is a successful no-op, so release is
// safe to retry.
func (e *Engine) ReleaseActiveReservation(ctx context.Context, workspaceID, conversationID string, next reservations.Status) (*reservations.Reservation, error) {
	ctx, span := schedulingTracer.Start(ctx, "scheduling.release")
	defer span.End()

	if !reservations.IsReleasable(next) {
		return nil, fmt.Errorf("scheduling: release to %s: %w", next, reservations.ErrInvalidStatus)
	}

	active, err := e.store.FindActiveFor(ctx, workspaceID, conversationID)
	if err != nil {
		return nil, fmt.Errorf("scheduling: release lookup: %w", err)
	}
	if active == nil {
		return nil, nil
	}

	released, err := e.store.Release(ctx, workspaceID, active.ID, next)
	if err != nil {
		return nil, fmt.Errorf("scheduling: release %s: %w", active.ID, err)
	}

	e.metrics.ObserveLifecycle("release_" + string(next))
	e.logger.Info("reservation released",
		"workspace_id", workspaceID,
		"conversation_id", conversationID,
		"reservation_id", released.ID,
		"status", released.Status,
	)
	return released, nil
}
