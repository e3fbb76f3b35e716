package booking

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"fleetbook/internal/domain/pricing"
	"fleetbook/internal/domain/schedule"
)

var (
	ErrMileageBelowPickup = errors.New("return mileage below pickup mileage")
	ErrNegativeOdometer   = errors.New("odometer reading cannot be negative")
	ErrMissingPaymentRef  = errors.New("payment reference required to confirm")
)

// HistoryEntry is one record of the append-only status log. Replaying the
// entries for a booking reconstructs its lifecycle.
type HistoryEntry struct {
	Status Status
	Actor  string
	Note   string
	At     time.Time
}

// Booking is the aggregate owning a single reservation's lifecycle. All
// mutation goes through the transition methods below; each enforces the
// state machine and appends to the history log.
type Booking struct {
	id          uuid.UUID
	reference   string
	vehicleID   uuid.UUID
	requesterID uuid.UUID
	window      schedule.Window
	status      Status

	breakdown pricing.Breakdown
	// authorizedCents is the total authorized at confirmation, the "paid"
	// amount refunds are computed against. Zero until confirmed.
	authorizedCents int64
	paymentRef      string

	pickupMileage *int64
	returnMileage *int64

	history      []HistoryEntry
	savedHistory int

	createdAt time.Time
	updatedAt time.Time
}

func newBooking(id uuid.UUID, reference string, vehicleID, requesterID uuid.UUID, w schedule.Window, bd pricing.Breakdown, actor string, now time.Time) *Booking {
	b := &Booking{
		id:          id,
		reference:   reference,
		vehicleID:   vehicleID,
		requesterID: requesterID,
		window:      w,
		status:      StatusRequested,
		breakdown:   bd,
		createdAt:   now,
		updatedAt:   now,
	}
	b.appendHistory(StatusRequested, actor, "", now)
	return b
}

func ReconstructBooking(
	id uuid.UUID,
	reference string,
	vehicleID, requesterID uuid.UUID,
	w schedule.Window,
	status Status,
	bd pricing.Breakdown,
	authorizedCents int64,
	paymentRef string,
	pickupMileage, returnMileage *int64,
	history []HistoryEntry,
	createdAt, updatedAt time.Time,
) *Booking {
	return &Booking{
		id:              id,
		reference:       reference,
		vehicleID:       vehicleID,
		requesterID:     requesterID,
		window:          w,
		status:          status,
		breakdown:       bd,
		authorizedCents: authorizedCents,
		paymentRef:      paymentRef,
		pickupMileage:   pickupMileage,
		returnMileage:   returnMileage,
		history:         history,
		savedHistory:    len(history),
		createdAt:       createdAt,
		updatedAt:       updatedAt,
	}
}

// Confirm moves Requested -> Confirmed after a successful payment
// authorization. The caller commits the interval atomically with persisting
// this change; that pairing is the core invariant of the whole design.
func (b *Booking) Confirm(paymentRef, actor string, now time.Time) error {
	if b.status != StatusRequested {
		return &StateError{Current: b.status, Event: EventConfirm}
	}
	if paymentRef == "" {
		return ErrMissingPaymentRef
	}
	b.paymentRef = paymentRef
	b.authorizedCents = b.breakdown.TotalCents
	b.transition(StatusConfirmed, actor, "", now)
	return nil
}

// Pickup moves Confirmed -> Active and records the starting odometer.
func (b *Booking) Pickup(odometerMiles int64, actor string, now time.Time) error {
	if b.status != StatusConfirmed {
		return &StateError{Current: b.status, Event: EventPickup}
	}
	if odometerMiles < 0 {
		return ErrNegativeOdometer
	}
	b.pickupMileage = &odometerMiles
	b.transition(StatusActive, actor, "", now)
	return nil
}

// CompletionResult reports what Complete charged beyond the confirmed total.
type CompletionResult struct {
	DrivenMiles  int64
	PenaltyCents int64
	FinalCents   int64
}

// Complete moves Active -> Completed, records the ending odometer and
// appends mileage-overage and late-return penalties as a breakdown revision.
func (b *Booking) Complete(odometerMiles int64, actor string, mileage pricing.MileagePolicy, late pricing.LateReturnPolicy, now time.Time) (CompletionResult, error) {
	if b.status != StatusActive {
		return CompletionResult{}, &StateError{Current: b.status, Event: EventComplete}
	}
	if b.pickupMileage != nil && odometerMiles < *b.pickupMileage {
		return CompletionResult{}, ErrMileageBelowPickup
	}
	b.returnMileage = &odometerMiles

	var driven int64
	if b.pickupMileage != nil {
		driven = odometerMiles - *b.pickupMileage
	}

	var penalty int64
	if over := mileage.OverageCents(driven, b.window.Days()); over > 0 {
		b.applyPenalty(pricing.ReasonExcessMileage, over, now)
		penalty += over
	}
	if fee := late.FeeCents(b.window.End(), now); fee > 0 {
		b.applyPenalty(pricing.ReasonLateReturn, fee, now)
		penalty += fee
	}

	b.transition(StatusCompleted, actor, "", now)
	return CompletionResult{
		DrivenMiles:  driven,
		PenaltyCents: penalty,
		FinalCents:   b.breakdown.ChargeableCents(),
	}, nil
}

// CancellationResult carries the compensating amounts of a cancellation.
type CancellationResult struct {
	PenaltyCents int64
	RefundCents  int64
}

// Cancel moves Requested|Confirmed -> Cancelled. The penalty is a tiered
// percentage of the confirmed total based on lead time; the refund is what
// was authorized minus the penalty. Requested bookings were never charged,
// so both amounts are zero for them.
func (b *Booking) Cancel(reason, actor string, policy pricing.CancellationPolicy, now time.Time) (CancellationResult, error) {
	if b.status != StatusRequested && b.status != StatusConfirmed {
		return CancellationResult{}, &StateError{Current: b.status, Event: EventCancel}
	}

	var res CancellationResult
	if b.status == StatusConfirmed {
		percent := policy.PenaltyPercent(b.window.LeadTime(now))
		res.PenaltyCents = b.authorizedCents * int64(percent) / 100
		res.RefundCents = b.authorizedCents - res.PenaltyCents
		if res.PenaltyCents > 0 {
			b.applyPenalty(pricing.ReasonCancellation, res.PenaltyCents, now)
		}
	}
	b.transition(StatusCancelled, actor, reason, now)
	return res, nil
}

// MarkNoShow moves Confirmed -> NoShow. Treated as a cancellation at the
// maximum penalty tier; the interval is released by the caller.
func (b *Booking) MarkNoShow(actor string, policy pricing.CancellationPolicy, now time.Time) (CancellationResult, error) {
	if b.status != StatusConfirmed {
		return CancellationResult{}, &StateError{Current: b.status, Event: EventNoShow}
	}
	percent := policy.MaxPercent()
	res := CancellationResult{
		PenaltyCents: b.authorizedCents * int64(percent) / 100,
	}
	res.RefundCents = b.authorizedCents - res.PenaltyCents
	if res.PenaltyCents > 0 {
		b.applyPenalty(pricing.ReasonNoShow, res.PenaltyCents, now)
	}
	b.transition(StatusNoShow, actor, "", now)
	return res, nil
}

// OpenDispute moves Active -> Disputed, blocking completion until an admin
// resolves it.
func (b *Booking) OpenDispute(note, actor string, now time.Time) error {
	if b.status != StatusActive {
		return &StateError{Current: b.status, Event: EventOpenDispute}
	}
	b.transition(StatusDisputed, actor, note, now)
	return nil
}

// ResolveDispute moves Disputed -> Completed with a signed adjustment:
// positive charges the requester extra, negative grants a credit.
func (b *Booking) ResolveDispute(adjustmentCents int64, note, actor string, now time.Time) error {
	if b.status != StatusDisputed {
		return &StateError{Current: b.status, Event: EventResolveDispute}
	}
	if adjustmentCents != 0 {
		b.applyPenalty(pricing.ReasonDisputeAdjustment, adjustmentCents, now)
	}
	b.transition(StatusCompleted, actor, note, now)
	return nil
}

// DrivenMiles is the distance recorded between pickup and return. Zero
// until both readings exist.
func (b *Booking) DrivenMiles() int64 {
	if b.pickupMileage == nil || b.returnMileage == nil {
		return 0
	}
	return *b.returnMileage - *b.pickupMileage
}

// PendingHistory returns entries appended since the last persist.
func (b *Booking) PendingHistory() []HistoryEntry {
	return b.history[b.savedHistory:]
}

// MarkHistoryPersisted acknowledges that all history entries reached
// storage. Repositories call it after a successful write.
func (b *Booking) MarkHistoryPersisted() {
	b.savedHistory = len(b.history)
}

func (b *Booking) transition(to Status, actor, note string, now time.Time) {
	b.status = to
	b.updatedAt = now
	b.appendHistory(to, actor, note, now)
}

func (b *Booking) applyPenalty(reason pricing.PenaltyReason, amountCents int64, now time.Time) {
	b.breakdown = b.breakdown.WithPenalty(pricing.PenaltyLine{
		ID:          uuid.New(),
		Reason:      reason,
		AmountCents: amountCents,
		AppliedAt:   now,
	})
}

func (b *Booking) appendHistory(status Status, actor, note string, now time.Time) {
	b.history = append(b.history, HistoryEntry{Status: status, Actor: actor, Note: note, At: now})
}

func (b *Booking) ID() uuid.UUID               { return b.id }
func (b *Booking) Reference() string           { return b.reference }
func (b *Booking) VehicleID() uuid.UUID        { return b.vehicleID }
func (b *Booking) RequesterID() uuid.UUID      { return b.requesterID }
func (b *Booking) Window() schedule.Window     { return b.window }
func (b *Booking) Status() Status              { return b.status }
func (b *Booking) Breakdown() pricing.Breakdown { return b.breakdown }
func (b *Booking) AuthorizedCents() int64      { return b.authorizedCents }
func (b *Booking) PaymentRef() string          { return b.paymentRef }
func (b *Booking) PickupMileage() *int64       { return b.pickupMileage }
func (b *Booking) ReturnMileage() *int64       { return b.returnMileage }
func (b *Booking) History() []HistoryEntry     { return b.history }
func (b *Booking) CreatedAt() time.Time        { return b.createdAt }
func (b *Booking) UpdatedAt() time.Time        { return b.updatedAt }
