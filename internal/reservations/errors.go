package reservations

import "errors"

var (
	// ErrSlotTaken is returned when another active reservation or slot block
	// already occupies the requested (day, time, location).
	ErrSlotTaken = errors.New("slot already taken")

	// ErrConversationBusy is returned when the conversation already owns an
	// active reservation and a fresh claim was attempted instead of a reschedule.
	ErrConversationBusy = errors.New("conversation already has an active reservation")

	// ErrNotFound is returned when a reservation does not exist.
	ErrNotFound = errors.New("reservation not found")

	// ErrInvalidStatus is returned when Release is asked to transition into a
	// status that does not free the slot.
	ErrInvalidStatus = errors.New("release status must be CANCELLED or ON_HOLD")
)
