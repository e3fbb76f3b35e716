package commands

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"fleetbook/internal/domain/booking"
	"fleetbook/internal/domain/pricing"
	"fleetbook/internal/domain/schedule"
	"fleetbook/internal/pkg/clock"
	"fleetbook/internal/pkg/config"
	"fleetbook/internal/pkg/errs"
	"fleetbook/internal/pkg/keymutex"
)

type BookingCommands interface {
	Pickup(ctx context.Context, bookingID uuid.UUID, actor string, odometerMiles int64) (*booking.Booking, error)
	Return(ctx context.Context, bookingID uuid.UUID, actor string, odometerMiles int64) (*booking.Booking, error)
	Cancel(ctx context.Context, bookingID uuid.UUID, actor, reason string) (*booking.Booking, error)
	OpenDispute(ctx context.Context, bookingID uuid.UUID, actor, note string) (*booking.Booking, error)
	ResolveDispute(ctx context.Context, bookingID uuid.UUID, actor string, adjustmentCents int64, note string) (*booking.Booking, error)
	// SweepNoShows transitions confirmed bookings whose pickup never
	// happened within the grace window. Returns how many were swept.
	SweepNoShows(ctx context.Context) (int, error)
}

type bookingLifecycle struct {
	bookings  BookingRepository
	vehicles  VehicleRepository
	catalogs  CatalogRepository
	gateway   PaymentGateway
	publisher EventPublisher
	index     *schedule.Index
	locks     *keymutex.KeyedMutex
	clock     clock.Clock
	cfg       config.BookingConfig
	logger    *slog.Logger
}

func NewBookingCommands(
	bookings BookingRepository,
	vehicles VehicleRepository,
	catalogs CatalogRepository,
	gateway PaymentGateway,
	publisher EventPublisher,
	index *schedule.Index,
	locks *keymutex.KeyedMutex,
	clk clock.Clock,
	cfg config.BookingConfig,
	logger *slog.Logger,
) BookingCommands {
	return &bookingLifecycle{
		bookings:  bookings,
		vehicles:  vehicles,
		catalogs:  catalogs,
		gateway:   gateway,
		publisher: publisher,
		index:     index,
		locks:     locks,
		clock:     clk,
		cfg:       cfg,
		logger:    logger,
	}
}

// lockAndLoad enters the per-vehicle exclusive section for the booking and
// reloads it inside, so the transition runs against current state. Without
// the reload a concurrent sweep or cancel could be silently overwritten.
func (l *bookingLifecycle) lockAndLoad(ctx context.Context, bookingID uuid.UUID) (*booking.Booking, func(), error) {
	b, err := l.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, nil, loadErr(err, errs.ErrBookingNotFound)
	}
	unlock := l.locks.Lock(b.VehicleID())
	b, err = l.bookings.FindByID(ctx, bookingID)
	if err != nil {
		unlock()
		return nil, nil, loadErr(err, errs.ErrBookingNotFound)
	}
	return b, unlock, nil
}

func (l *bookingLifecycle) Pickup(ctx context.Context, bookingID uuid.UUID, actor string, odometerMiles int64) (*booking.Booking, error) {
	b, unlock, err := l.lockAndLoad(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if err := b.Pickup(odometerMiles, actor, l.clock.Now()); err != nil {
		return nil, markTransitionErr(err)
	}
	if err := l.bookings.Update(ctx, b); err != nil {
		return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}
	return b, nil
}

func (l *bookingLifecycle) Return(ctx context.Context, bookingID uuid.UUID, actor string, odometerMiles int64) (*booking.Booking, error) {
	cat, err := l.catalogs.Current(ctx)
	if err != nil {
		return nil, err
	}

	b, unlock, err := l.lockAndLoad(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	now := l.clock.Now()
	res, err := b.Complete(odometerMiles, actor, cat.Mileage, cat.LateReturn, now)
	if err != nil {
		return nil, markTransitionErr(err)
	}
	if err := l.bookings.Update(ctx, b); err != nil {
		return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}
	l.index.Release(b.VehicleID(), b.ID())

	if err := l.vehicles.RecordMileage(ctx, b.VehicleID(), res.DrivenMiles); err != nil {
		l.logger.Error("failed to record vehicle mileage",
			"vehicle_id", b.VehicleID(), "booking_id", b.ID(), "miles", res.DrivenMiles, "error", err)
	}
	// Finalize payment: capture the full amount including appended penalties.
	if err := l.gateway.Capture(ctx, b.PaymentRef(), res.FinalCents); err != nil {
		l.logger.Error("failed to capture final payment",
			"booking_id", b.ID(), "payment_ref", b.PaymentRef(), "amount_cents", res.FinalCents, "error", err)
	}

	if res.PenaltyCents > 0 {
		evt := newEvent(EventPenaltyApplied, b, now)
		evt.PenaltyCents = res.PenaltyCents
		l.publish(ctx, evt)
	}
	l.publish(ctx, newEvent(EventBookingCompleted, b, now))
	return b, nil
}

func (l *bookingLifecycle) Cancel(ctx context.Context, bookingID uuid.UUID, actor, reason string) (*booking.Booking, error) {
	cat, err := l.catalogs.Current(ctx)
	if err != nil {
		return nil, err
	}

	b, unlock, err := l.lockAndLoad(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	now := l.clock.Now()
	wasAuthorized := b.Status() == booking.StatusConfirmed

	res, err := b.Cancel(reason, actor, cat.Cancellation, now)
	if err != nil {
		return nil, markTransitionErr(err)
	}
	if err := l.bookings.Update(ctx, b); err != nil {
		return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}
	// The interval is gone before Cancel returns; a follow-up Reserve for
	// the same window succeeds immediately.
	l.index.Release(b.VehicleID(), b.ID())

	if wasAuthorized && res.RefundCents > 0 {
		if err := l.gateway.Refund(ctx, b.PaymentRef(), res.RefundCents); err != nil {
			l.logger.Error("failed to issue refund",
				"booking_id", b.ID(), "payment_ref", b.PaymentRef(), "amount_cents", res.RefundCents, "error", err)
		}
	}

	evt := newEvent(EventBookingCancelled, b, now)
	evt.PenaltyCents = res.PenaltyCents
	evt.RefundCents = res.RefundCents
	l.publish(ctx, evt)
	return b, nil
}

func (l *bookingLifecycle) OpenDispute(ctx context.Context, bookingID uuid.UUID, actor, note string) (*booking.Booking, error) {
	b, unlock, err := l.lockAndLoad(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if err := b.OpenDispute(note, actor, l.clock.Now()); err != nil {
		return nil, markTransitionErr(err)
	}
	if err := l.bookings.Update(ctx, b); err != nil {
		return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}
	l.publish(ctx, newEvent(EventBookingDisputed, b, l.clock.Now()))
	return b, nil
}

func (l *bookingLifecycle) ResolveDispute(ctx context.Context, bookingID uuid.UUID, actor string, adjustmentCents int64, note string) (*booking.Booking, error) {
	b, unlock, err := l.lockAndLoad(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	now := l.clock.Now()
	if err := b.ResolveDispute(adjustmentCents, note, actor, now); err != nil {
		return nil, markTransitionErr(err)
	}
	if err := l.bookings.Update(ctx, b); err != nil {
		return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}
	l.index.Release(b.VehicleID(), b.ID())

	switch {
	case adjustmentCents > 0:
		if err := l.gateway.Capture(ctx, b.PaymentRef(), b.Breakdown().ChargeableCents()); err != nil {
			l.logger.Error("failed to capture dispute adjustment",
				"booking_id", b.ID(), "amount_cents", adjustmentCents, "error", err)
		}
	case adjustmentCents < 0:
		if err := l.gateway.Refund(ctx, b.PaymentRef(), -adjustmentCents); err != nil {
			l.logger.Error("failed to refund dispute adjustment",
				"booking_id", b.ID(), "amount_cents", -adjustmentCents, "error", err)
		}
	}

	l.publish(ctx, newEvent(EventBookingCompleted, b, now))
	return b, nil
}

func (l *bookingLifecycle) SweepNoShows(ctx context.Context) (int, error) {
	now := l.clock.Now()
	cutoff := now.Add(-l.cfg.NoShowGrace)

	candidates, err := l.bookings.ListNoShowCandidates(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	cat, err := l.catalogs.Current(ctx)
	if err != nil {
		return 0, err
	}

	swept := 0
	for _, id := range candidates {
		if err := l.sweepOne(ctx, id, cat.Cancellation); err != nil {
			l.logger.Error("failed to sweep no-show booking", "booking_id", id, "error", err)
			continue
		}
		swept++
	}
	return swept, nil
}

func (l *bookingLifecycle) sweepOne(ctx context.Context, bookingID uuid.UUID, policy pricing.CancellationPolicy) error {
	b, unlock, err := l.lockAndLoad(ctx, bookingID)
	if err != nil {
		return err
	}
	defer unlock()

	now := l.clock.Now()
	res, err := b.MarkNoShow("system", policy, now)
	if err != nil {
		// Raced with a pickup or a cancel; nothing to sweep.
		var stateErr *booking.StateError
		if errors.As(err, &stateErr) {
			return nil
		}
		return err
	}
	if err := l.bookings.Update(ctx, b); err != nil {
		return errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}
	l.index.Release(b.VehicleID(), b.ID())

	if res.RefundCents > 0 {
		if err := l.gateway.Refund(ctx, b.PaymentRef(), res.RefundCents); err != nil {
			l.logger.Error("failed to refund no-show remainder",
				"booking_id", b.ID(), "amount_cents", res.RefundCents, "error", err)
		}
	}

	evt := newEvent(EventBookingNoShow, b, now)
	evt.PenaltyCents = res.PenaltyCents
	evt.RefundCents = res.RefundCents
	l.publish(ctx, evt)
	return nil
}

func (l *bookingLifecycle) publish(ctx context.Context, evt Event) {
	if err := l.publisher.Publish(ctx, evt); err != nil {
		l.logger.Warn("failed to publish booking event",
			"kind", evt.Kind, "booking_id", evt.BookingID, "error", err)
	}
}

func markTransitionErr(err error) error {
	var stateErr *booking.StateError
	if errors.As(err, &stateErr) {
		return errs.Mark(err, errs.ErrInvalidState)
	}
	return errs.Mark(err, errs.ErrDomainValidation)
}
