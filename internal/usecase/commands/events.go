package commands

import (
	"time"

	"github.com/google/uuid"

	"fleetbook/internal/domain/booking"
)

type EventKind string

const (
	EventBookingConfirmed EventKind = "BookingConfirmed"
	EventBookingCancelled EventKind = "BookingCancelled"
	EventBookingCompleted EventKind = "BookingCompleted"
	EventBookingNoShow    EventKind = "BookingNoShow"
	EventBookingDisputed  EventKind = "BookingDisputed"
	EventPenaltyApplied   EventKind = "PenaltyApplied"
)

// Event is the booking snapshot handed to the notification collaborator.
// Delivery and formatting are out of scope; the publisher only guarantees
// the payload carries enough context to act on.
type Event struct {
	Kind         EventKind `json:"kind"`
	BookingID    uuid.UUID `json:"booking_id"`
	Reference    string    `json:"reference"`
	VehicleID    uuid.UUID `json:"vehicle_id"`
	RequesterID  uuid.UUID `json:"requester_id"`
	Status       string    `json:"status"`
	TotalCents   int64     `json:"total_cents"`
	PenaltyCents int64     `json:"penalty_cents,omitempty"`
	RefundCents  int64     `json:"refund_cents,omitempty"`
	OccurredAt   time.Time `json:"occurred_at"`
}

func newEvent(kind EventKind, b *booking.Booking, at time.Time) Event {
	return Event{
		Kind:        kind,
		BookingID:   b.ID(),
		Reference:   b.Reference(),
		VehicleID:   b.VehicleID(),
		RequesterID: b.RequesterID(),
		Status:      b.Status().String(),
		TotalCents:  b.Breakdown().TotalCents,
		OccurredAt:  at,
	}
}
