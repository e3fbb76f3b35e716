package booking

import "fmt"

type Status string

const (
	StatusRequested Status = "requested"
	StatusConfirmed Status = "confirmed"
	StatusActive    Status = "active"
	StatusDisputed  Status = "disputed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusNoShow    Status = "no_show"
)

func (s Status) String() string {
	return string(s)
}

func (s Status) IsValid() bool {
	switch s {
	case StatusRequested, StatusConfirmed, StatusActive, StatusDisputed,
		StatusCompleted, StatusCancelled, StatusNoShow:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether the status ends the lifecycle. Terminal
// bookings are retained for audit, never deleted.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusCancelled, StatusNoShow:
		return true
	default:
		return false
	}
}

// IsBlocking reports whether a booking in this status owns an entry in the
// interval index.
func (s Status) IsBlocking() bool {
	switch s {
	case StatusConfirmed, StatusActive, StatusDisputed:
		return true
	default:
		return false
	}
}

// Event names a lifecycle transition attempt, used in StateError reporting.
type Event string

const (
	EventConfirm        Event = "confirm"
	EventPickup         Event = "pickup"
	EventComplete       Event = "complete"
	EventCancel         Event = "cancel"
	EventNoShow         Event = "no_show"
	EventOpenDispute    Event = "open_dispute"
	EventResolveDispute Event = "resolve_dispute"
)

// StateError reports an illegal transition attempt. Illegal attempts always
// fail loudly; they never silently no-op.
type StateError struct {
	Current Status
	Event   Event
}

func (e *StateError) Error() string {
	return fmt.Sprintf("cannot %s a booking in status %q", e.Event, e.Current)
}
