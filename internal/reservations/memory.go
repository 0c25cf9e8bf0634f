package reservations

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory Store used by unit tests and local development.
// It enforces the same two uniqueness invariants as the Postgres schema under
// a single mutex, so engine behavior is identical against either backend.
type MemoryStore struct {
	mu     sync.Mutex
	rows   map[uuid.UUID]*Reservation
	blocks []MemorySlotBlock
}

// MemorySlotBlock mirrors an unarchived operator hold for occupancy checks.
// A zero DurationMinutes covers exactly the window starting at StartTime.
type MemorySlotBlock struct {
	WorkspaceID     string
	Day             string
	StartTime       string
	DurationMinutes int
	Location        string
}

// covers reports whether the hold spans the window starting at startTime.
func (b MemorySlotBlock) covers(startTime string) bool {
	if b.StartTime == startTime {
		return true
	}
	start, err := parseClockMinutes(b.StartTime)
	if err != nil {
		return false
	}
	at, err := parseClockMinutes(startTime)
	if err != nil {
		return false
	}
	return at >= start && at < start+b.DurationMinutes
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rows: make(map[uuid.UUID]*Reservation)}
}

// AddBlock registers an operator hold that occupies a slot.
func (m *MemoryStore) AddBlock(block MemorySlotBlock) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blocks = append(m.blocks, block)
}

// TryClaim implements Store.
func (m *MemoryStore) TryClaim(ctx context.Context, claim Claim) (*Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tryClaimLocked(claim)
}

func (m *MemoryStore) tryClaimLocked(claim Claim) (*Reservation, error) {
	for _, r := range m.rows {
		if !r.Active || r.WorkspaceID != claim.WorkspaceID {
			continue
		}
		if r.Day == claim.Day && r.StartTime == claim.StartTime && r.Location == claim.Location {
			return nil, ErrSlotTaken
		}
		if r.ConversationID == claim.ConversationID {
			return nil, ErrConversationBusy
		}
	}
	for _, b := range m.blocks {
		if b.WorkspaceID == claim.WorkspaceID && b.Day == claim.Day &&
			b.Location == claim.Location && b.covers(claim.StartTime) {
			return nil, ErrSlotTaken
		}
	}

	now := time.Now().UTC()
	res := &Reservation{
		ID:             uuid.New(),
		WorkspaceID:    claim.WorkspaceID,
		ConversationID: claim.ConversationID,
		ContactID:      claim.ContactID,
		Day:            claim.Day,
		StartTime:      claim.StartTime,
		Location:       claim.Location,
		Status:         StatusPending,
		Active:         true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	m.rows[res.ID] = res
	copied := *res
	return &copied, nil
}

// Release implements Store.
func (m *MemoryStore) Release(ctx context.Context, workspaceID string, id uuid.UUID, next Status) (*Reservation, error) {
	if !IsReleasable(next) {
		return nil, ErrInvalidStatus
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	res, ok := m.rows[id]
	if !ok || res.WorkspaceID != workspaceID {
		return nil, fmt.Errorf("reservations: %s: %w", id, ErrNotFound)
	}
	if res.Active {
		res.Status = next
		res.Active = false
		res.UpdatedAt = time.Now().UTC()
	}
	copied := *res
	return &copied, nil
}

// Confirm implements Store.
func (m *MemoryStore) Confirm(ctx context.Context, workspaceID string, id uuid.UUID) (*Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	res, ok := m.rows[id]
	if !ok || res.WorkspaceID != workspaceID {
		return nil, fmt.Errorf("reservations: %s: %w", id, ErrNotFound)
	}
	if res.Active && res.Status == StatusPending {
		res.Status = StatusConfirmed
		res.UpdatedAt = time.Now().UTC()
	}
	if !res.Active {
		return nil, fmt.Errorf("reservations: confirm %s: reservation is %s: %w", id, res.Status, ErrNotFound)
	}
	copied := *res
	return &copied, nil
}

// FindActiveFor implements Store.
func (m *MemoryStore) FindActiveFor(ctx context.Context, workspaceID, conversationID string) (*Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, r := range m.rows {
		if r.Active && r.WorkspaceID == workspaceID && r.ConversationID == conversationID {
			copied := *r
			return &copied, nil
		}
	}
	return nil, nil
}

// ListOccupied implements Store.
func (m *MemoryStore) ListOccupied(ctx context.Context, workspaceID, day string, slotMinutes int) (map[SlotKey]struct{}, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	occupied := make(map[SlotKey]struct{})
	for _, r := range m.rows {
		if r.Active && r.WorkspaceID == workspaceID && r.Day == day {
			occupied[SlotKey{StartTime: r.StartTime, Location: r.Location}] = struct{}{}
		}
	}
	for _, b := range m.blocks {
		if b.WorkspaceID == workspaceID && b.Day == day {
			for _, start := range coveredStarts(b.StartTime, b.DurationMinutes, slotMinutes) {
				occupied[SlotKey{StartTime: start, Location: b.Location}] = struct{}{}
			}
		}
	}
	return occupied, nil
}

// Reschedule implements Store. Release-then-claim happens under one lock, so
// a losing new claim leaves the old reservation untouched.
func (m *MemoryStore) Reschedule(ctx context.Context, workspaceID string, oldID uuid.UUID, claim Claim) (*Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	old, ok := m.rows[oldID]
	if !ok || old.WorkspaceID != workspaceID || !old.Active {
		return nil, fmt.Errorf("reservations: reschedule %s: %w", oldID, ErrNotFound)
	}

	// Tentatively release so the claim sees the freed slot, restore on failure.
	old.Active = false
	created, err := m.tryClaimLocked(claim)
	if err != nil {
		old.Active = true
		return nil, err
	}
	old.Status = StatusCancelled
	old.UpdatedAt = time.Now().UTC()
	return created, nil
}

// ListByConversation implements Store.
func (m *MemoryStore) ListByConversation(ctx context.Context, workspaceID, conversationID string) ([]Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var result []Reservation
	for _, r := range m.rows {
		if r.WorkspaceID == workspaceID && r.ConversationID == conversationID {
			result = append(result, *r)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return result, nil
}
