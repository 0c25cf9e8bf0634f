// Package reservations holds the durable state of interview bookings and the
// atomic claim/release primitives the scheduling engine is built on. All
// mutual exclusion lives here: the store's uniqueness invariants are the
// arbiter of who wins a slot, never application-level locking.
package reservations

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a reservation.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusCancelled Status = "CANCELLED"
	StatusOnHold    Status = "ON_HOLD"
)

// ActiveKey is the marker stored in active_key while a reservation occupies
// its slot. Released rows carry NULL there, which keeps them out of both
// unique indexes (NULLs never collide) while preserving history.
const ActiveKey = "ACTIVE"

// Reservation is one candidate's claim on a slot.
type Reservation struct {
	ID             uuid.UUID `json:"id"`
	WorkspaceID    string    `json:"workspace_id"`
	ConversationID string    `json:"conversation_id"`
	ContactID      string    `json:"contact_id"`
	Day            string    `json:"day"`        // "2006-01-02"
	StartTime      string    `json:"start_time"` // "15:04" local to the workspace timezone
	Location       string    `json:"location"`
	Status         Status    `json:"status"`
	Active         bool      `json:"active"` // active_key = ACTIVE
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Claim carries the parameters of one atomic booking attempt.
type Claim struct {
	WorkspaceID    string
	ConversationID string
	ContactID      string
	Day            string
	StartTime      string
	Location       string
}

// SlotKey identifies an occupied (time, location) pair within one day.
type SlotKey struct {
	StartTime string
	Location  string
}

// IsReleasable reports whether next is a valid terminal status for Release.
func IsReleasable(next Status) bool {
	return next == StatusCancelled || next == StatusOnHold
}

// coveredStarts expands a hold into the start times of every slotMinutes-sized
// window it covers. A duration of zero (or one shorter than a slot) covers
// exactly its own window.
func coveredStarts(startTime string, durationMinutes, slotMinutes int) []string {
	starts := []string{startTime}
	if slotMinutes <= 0 {
		return starts
	}
	base, err := parseClockMinutes(startTime)
	if err != nil {
		return starts
	}
	for offset := slotMinutes; offset < durationMinutes; offset += slotMinutes {
		starts = append(starts, formatClockMinutes(base+offset))
	}
	return starts
}

func parseClockMinutes(hhmm string) (int, error) {
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		return 0, err
	}
	return t.Hour()*60 + t.Minute(), nil
}

func formatClockMinutes(mins int) string {
	return fmt.Sprintf("%02d:%02d", mins/60, mins%60)
}
