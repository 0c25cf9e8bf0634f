package reservations

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
)

func TestMemoryStoreClaimConflicts(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	first, err := store.TryClaim(ctx, testClaim())
	if err != nil {
		t.Fatalf("first claim: %v", err)
	}

	// Same slot, different conversation.
	other := testClaim()
	other.ConversationID = "conv-2"
	if _, err := store.TryClaim(ctx, other); !errors.Is(err, ErrSlotTaken) {
		t.Fatalf("expected ErrSlotTaken, got %v", err)
	}

	// Different slot, same conversation.
	busy := testClaim()
	busy.StartTime = "11:00"
	if _, err := store.TryClaim(ctx, busy); !errors.Is(err, ErrConversationBusy) {
		t.Fatalf("expected ErrConversationBusy, got %v", err)
	}

	// Releasing frees both invariants.
	if _, err := store.Release(ctx, "ws-1", first.ID, StatusCancelled); err != nil {
		t.Fatalf("release: %v", err)
	}
	if _, err := store.TryClaim(ctx, other); err != nil {
		t.Fatalf("claim after release: %v", err)
	}
}

func TestMemoryStoreSlotBlockOccupies(t *testing.T) {
	store := NewMemoryStore()
	store.AddBlock(MemorySlotBlock{
		WorkspaceID: "ws-1", Day: "2026-09-07", StartTime: "10:00", Location: "Providencia",
	})

	if _, err := store.TryClaim(context.Background(), testClaim()); !errors.Is(err, ErrSlotTaken) {
		t.Fatalf("expected block to occupy slot, got %v", err)
	}

	occupied, err := store.ListOccupied(context.Background(), "ws-1", "2026-09-07", 60)
	if err != nil {
		t.Fatalf("ListOccupied: %v", err)
	}
	if _, ok := occupied[SlotKey{StartTime: "10:00", Location: "Providencia"}]; !ok {
		t.Fatalf("expected block in occupancy set: %v", occupied)
	}
}

func TestMemoryStoreBlockDurationCoversLaterSlots(t *testing.T) {
	store := NewMemoryStore()
	store.AddBlock(MemorySlotBlock{
		WorkspaceID: "ws-1", Day: "2026-09-07", StartTime: "10:00",
		Location: "Providencia", DurationMinutes: 120,
	})

	// A claim inside the covered window loses even though it does not share
	// the block's start time.
	claim := testClaim()
	claim.StartTime = "11:00"
	if _, err := store.TryClaim(context.Background(), claim); !errors.Is(err, ErrSlotTaken) {
		t.Fatalf("expected covered slot to be taken, got %v", err)
	}

	// The slot right after the block is open.
	after := testClaim()
	after.StartTime = "12:00"
	if _, err := store.TryClaim(context.Background(), after); err != nil {
		t.Fatalf("slot past the block should be free: %v", err)
	}

	occupied, err := store.ListOccupied(context.Background(), "ws-1", "2026-09-07", 60)
	if err != nil {
		t.Fatalf("ListOccupied: %v", err)
	}
	for _, start := range []string{"10:00", "11:00"} {
		if _, ok := occupied[SlotKey{StartTime: start, Location: "Providencia"}]; !ok {
			t.Fatalf("expected %s in occupancy set: %v", start, occupied)
		}
	}
}

func TestMemoryStoreReleaseIdempotent(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	res, err := store.TryClaim(ctx, testClaim())
	if err != nil {
		t.Fatalf("claim: %v", err)
	}

	released, err := store.Release(ctx, "ws-1", res.ID, StatusOnHold)
	if err != nil {
		t.Fatalf("release: %v", err)
	}
	if released.Status != StatusOnHold || released.Active {
		t.Fatalf("unexpected released row: %+v", released)
	}

	// Second release is a no-op, not an error, and keeps the first status.
	again, err := store.Release(ctx, "ws-1", res.ID, StatusCancelled)
	if err != nil {
		t.Fatalf("repeat release: %v", err)
	}
	if again.Status != StatusOnHold {
		t.Fatalf("repeat release overwrote status: %+v", again)
	}
}

func TestMemoryStoreReleaseUnknownID(t *testing.T) {
	store := NewMemoryStore()
	if _, err := store.Release(context.Background(), "ws-1", uuid.New(), StatusCancelled); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStoreRescheduleAtomicity(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	mine, err := store.TryClaim(ctx, testClaim())
	if err != nil {
		t.Fatalf("claim: %v", err)
	}

	// Another conversation holds the target slot.
	target := testClaim()
	target.ConversationID = "conv-2"
	target.StartTime = "11:00"
	if _, err := store.TryClaim(ctx, target); err != nil {
		t.Fatalf("competitor claim: %v", err)
	}

	move := testClaim()
	move.StartTime = "11:00"
	if _, err := store.Reschedule(ctx, "ws-1", mine.ID, move); !errors.Is(err, ErrSlotTaken) {
		t.Fatalf("expected ErrSlotTaken, got %v", err)
	}

	// The old reservation must be exactly as it was.
	active, err := store.FindActiveFor(ctx, "ws-1", "conv-1")
	if err != nil {
		t.Fatalf("FindActiveFor: %v", err)
	}
	if active == nil || active.ID != mine.ID || active.StartTime != "10:00" || active.Status != StatusPending {
		t.Fatalf("old reservation disturbed by failed reschedule: %+v", active)
	}
}

func TestMemoryStoreRescheduleMoves(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	mine, err := store.TryClaim(ctx, testClaim())
	if err != nil {
		t.Fatalf("claim: %v", err)
	}

	move := testClaim()
	move.StartTime = "12:00"
	created, err := store.Reschedule(ctx, "ws-1", mine.ID, move)
	if err != nil {
		t.Fatalf("Reschedule: %v", err)
	}
	if created.StartTime != "12:00" || created.Status != StatusPending {
		t.Fatalf("unexpected new claim: %+v", created)
	}

	history, err := store.ListByConversation(ctx, "ws-1", "conv-1")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected old row retained for audit, got %d rows", len(history))
	}

	// Old slot is free again.
	other := testClaim()
	other.ConversationID = "conv-2"
	if _, err := store.TryClaim(ctx, other); err != nil {
		t.Fatalf("old slot should be free: %v", err)
	}
}

func TestMemoryStoreConcurrentClaimsSingleWinner(t *testing.T) {
	store := NewMemoryStore()
	const n = 32

	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			claim := testClaim()
			claim.ConversationID = uuid.NewString()
			_, errs[i] = store.TryClaim(context.Background(), claim)
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		switch {
		case err == nil:
			winners++
		case errors.Is(err, ErrSlotTaken):
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if winners != 1 {
		t.Fatalf("expected exactly one winner, got %d", winners)
	}
}
