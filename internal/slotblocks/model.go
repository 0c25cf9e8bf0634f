// Package slotblocks manages operator holds on interview slots. A block
// occupies a slot the same way a reservation does, so operational holds and
// candidate bookings share one conflict-detection path. Blocks are archived,
// never hard-deleted.
package slotblocks

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Block is an administrative hold on a specific slot.
type Block struct {
	ID              uuid.UUID  `json:"id"`
	WorkspaceID     string     `json:"workspace_id"`
	Day             string     `json:"day"`        // "2006-01-02"
	StartTime       string     `json:"start_time"` // "15:04"
	DurationMinutes int        `json:"duration_minutes"`
	Location        string     `json:"location"`
	Tag             string     `json:"tag"` // free text, e.g. "TEST"
	ArchivedAt      *time.Time `json:"archived_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

var (
	// ErrBlockNotFound is returned when a block does not exist.
	ErrBlockNotFound = errors.New("slot block not found")

	// ErrInvalidBlock is returned when creation input is malformed.
	ErrInvalidBlock = errors.New("invalid slot block")
)
