package commands

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"fleetbook/internal/domain/booking"
	"fleetbook/internal/domain/pricing"
	"fleetbook/internal/domain/schedule"
	"fleetbook/internal/pkg/clock"
	"fleetbook/internal/pkg/config"
	"fleetbook/internal/pkg/errs"
	"fleetbook/internal/pkg/keymutex"
)

const reserveEndpoint = "POST /bookings"

type ReserveParams struct {
	VehicleID   uuid.UUID
	RequesterID uuid.UUID
	Start       time.Time
	End         time.Time
	AddOns      []string
}

type ReserveResult struct {
	Booking    *booking.Booking
	IsReplayed bool
}

type ReservationCommands interface {
	Reserve(ctx context.Context, params ReserveParams, idempotencyKey uuid.UUID) (*ReserveResult, error)
}

// reservationCoordinator makes Requested -> Confirmed safe under concurrent
// requests. Serialization is per vehicle via a keyed mutex; requests for
// different vehicles never contend. Payment authorization runs outside the
// exclusive section, protected by a provisional hold with a short expiry so
// an abandoned attempt cannot block the window for long.
type reservationCoordinator struct {
	bookings    BookingRepository
	vehicles    VehicleRepository
	catalogs    CatalogRepository
	idempotency IdempotencyRepository
	gateway     PaymentGateway
	publisher   EventPublisher
	index       *schedule.Index
	locks       *keymutex.KeyedMutex
	factory     *booking.Factory
	clock       clock.Clock
	cfg         config.BookingConfig
	logger      *slog.Logger
}

func NewReservationCommands(
	bookings BookingRepository,
	vehicles VehicleRepository,
	catalogs CatalogRepository,
	idempotency IdempotencyRepository,
	gateway PaymentGateway,
	publisher EventPublisher,
	index *schedule.Index,
	locks *keymutex.KeyedMutex,
	factory *booking.Factory,
	clk clock.Clock,
	cfg config.BookingConfig,
	logger *slog.Logger,
) ReservationCommands {
	return &reservationCoordinator{
		bookings:    bookings,
		vehicles:    vehicles,
		catalogs:    catalogs,
		idempotency: idempotency,
		gateway:     gateway,
		publisher:   publisher,
		index:       index,
		locks:       locks,
		factory:     factory,
		clock:       clk,
		cfg:         cfg,
		logger:      logger,
	}
}

func (c *reservationCoordinator) Reserve(ctx context.Context, params ReserveParams, idempotencyKey uuid.UUID) (*ReserveResult, error) {
	replayed, err := c.claimIdempotencyKey(ctx, params, idempotencyKey)
	if err != nil {
		return nil, err
	}
	if replayed != nil {
		return &ReserveResult{Booking: replayed, IsReplayed: true}, nil
	}

	b, err := c.reserve(ctx, params)
	if err != nil {
		return nil, err
	}

	if err := c.idempotency.MarkCompleted(ctx, idempotencyKey, params.RequesterID, b.ID()); err != nil {
		// The booking is committed; a failed idempotency update only costs a
		// replay returning ErrRequestInProgress later.
		c.logger.Warn("failed to complete idempotency record",
			"booking_id", b.ID(), "idempotency_key", idempotencyKey, "error", err)
	}

	c.publish(ctx, newEvent(EventBookingConfirmed, b, c.clock.Now()))
	return &ReserveResult{Booking: b}, nil
}

// claimIdempotencyKey returns the previously created booking when the key
// was already completed, nil when this call owns a fresh key.
func (c *reservationCoordinator) claimIdempotencyKey(ctx context.Context, params ReserveParams, key uuid.UUID) (*booking.Booking, error) {
	hash := requestHash(params)
	expiresAt := c.clock.Now().Add(24 * time.Hour)

	inserted, err := c.idempotency.TryInsert(ctx, key, params.RequesterID, reserveEndpoint, hash, expiresAt)
	if err != nil {
		return nil, errs.Mark(err, errs.ErrIdempotencyCheckFailed)
	}
	if inserted {
		return nil, nil
	}

	existing, err := c.idempotency.Get(ctx, key, params.RequesterID)
	if err != nil {
		return nil, errs.Mark(err, errs.ErrIdempotencyCheckFailed)
	}
	if existing.RequestHash != hash {
		return nil, errs.ErrDuplicateRequest
	}
	if existing.Status != "completed" || existing.ResultBookingID == nil {
		return nil, errs.ErrRequestInProgress
	}
	b, err := c.bookings.FindByID(ctx, *existing.ResultBookingID)
	if err != nil {
		return nil, loadErr(err, errs.ErrBookingNotFound)
	}
	return b, nil
}

func (c *reservationCoordinator) reserve(ctx context.Context, params ReserveParams) (*booking.Booking, error) {
	now := c.clock.Now()

	w, err := schedule.NewWindow(params.Start, params.End)
	if err != nil {
		return nil, errs.Mark(err, errs.ErrInvalidWindow)
	}
	if err := w.ValidateNotPast(now, c.cfg.PastGrace); err != nil {
		return nil, errs.Mark(err, errs.ErrInvalidWindow)
	}

	v, err := c.vehicles.FindByID(ctx, params.VehicleID)
	if err != nil {
		return nil, loadErr(err, errs.ErrVehicleNotFound)
	}
	if !v.Bookable(now) {
		return nil, errs.Mark(
			errs.Newf("vehicle %s is %s", v.ID(), v.Status()),
			errs.ErrVehicleUnavailable,
		)
	}

	cat, err := c.catalogs.Current(ctx)
	if err != nil {
		return nil, err
	}

	bd, err := quoteFor(v, w, params.AddOns, cat, now)
	if err != nil {
		return nil, err
	}

	b, holdID, err := c.holdAndCreate(ctx, params, w, bd)
	if err != nil {
		return nil, err
	}

	// Authorization runs outside the per-vehicle lock: the provisional hold
	// keeps the window safe while the gateway round-trips.
	auth, err := c.gateway.Authorize(ctx, bd.TotalCents, c.cfg.Currency, params.RequesterID)
	if err != nil {
		c.discard(ctx, b, holdID, "", "payment authorization failed")
		return nil, errs.Mark(err, errs.ErrPaymentDeclined)
	}
	if !auth.Approved {
		c.discard(ctx, b, holdID, "", "payment declined: "+auth.DeclineReason)
		return nil, errs.Mark(
			errs.Newf("authorization declined for booking %s: %s", b.Reference(), auth.DeclineReason),
			errs.ErrPaymentDeclined,
		)
	}

	if err := c.confirmAndCommit(ctx, b, holdID, auth.ReferenceID); err != nil {
		return nil, err
	}
	return b, nil
}

// holdAndCreate is the short exclusive section: re-check availability
// against the current committed index, place the provisional hold and
// persist the Requested booking.
func (c *reservationCoordinator) holdAndCreate(ctx context.Context, params ReserveParams, w schedule.Window, bd pricing.Breakdown) (*booking.Booking, uuid.UUID, error) {
	unlock := c.locks.Lock(params.VehicleID)
	defer unlock()

	now := c.clock.Now()
	holdID := uuid.New()
	if err := c.index.PlaceHold(params.VehicleID, holdID, w, c.cfg.HoldTTL, now); err != nil {
		return nil, uuid.Nil, errs.Mark(
			errs.Newf("vehicle %s window %s", params.VehicleID, w.ToTstzrange()),
			errs.ErrWindowConflict,
		)
	}

	b := c.factory.CreateBooking(params.VehicleID, params.RequesterID, w, bd, params.RequesterID.String())
	if err := c.bookings.Create(ctx, b); err != nil {
		c.index.ReleaseHold(params.VehicleID, holdID)
		return nil, uuid.Nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}
	return b, holdID, nil
}

// confirmAndCommit advances the booking to Confirmed and promotes the hold
// to a committed interval. Both happen inside the per-vehicle exclusive
// section: either the status change and the interval commit both land, or
// neither does.
func (c *reservationCoordinator) confirmAndCommit(ctx context.Context, b *booking.Booking, holdID uuid.UUID, paymentRef string) error {
	unlock := c.locks.Lock(b.VehicleID())
	defer unlock()

	if err := b.Confirm(paymentRef, b.RequesterID().String(), c.clock.Now()); err != nil {
		c.discard(ctx, b, holdID, paymentRef, "confirmation rejected")
		return errs.Mark(err, errs.ErrInvalidState)
	}
	if err := c.bookings.Update(ctx, b); err != nil {
		c.discard(ctx, b, holdID, paymentRef, "failed to persist confirmation")
		return errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}
	if err := c.index.CommitHold(b.VehicleID(), holdID, b.ID()); err != nil {
		// The hold expired while authorization ran and another request took
		// the window. Surface the conflict; the persisted record is rolled
		// back to cancelled.
		c.discard(ctx, b, holdID, paymentRef, "hold expired during authorization")
		return errs.Mark(err, errs.ErrWindowConflict)
	}
	return nil
}

// discard abandons a provisional booking: release the hold, void the
// authorization when one was already issued, mark the record cancelled for
// audit. The vehicle is left untouched.
func (c *reservationCoordinator) discard(ctx context.Context, b *booking.Booking, holdID uuid.UUID, paymentRef, note string) {
	c.index.ReleaseHold(b.VehicleID(), holdID)

	if paymentRef != "" {
		if err := c.gateway.Refund(ctx, paymentRef, b.Breakdown().TotalCents); err != nil {
			c.logger.Error("failed to release abandoned authorization",
				"booking_id", b.ID(), "payment_ref", paymentRef, "error", err)
		}
	}

	if _, err := b.Cancel(note, "system", emptyCancellationPolicy, c.clock.Now()); err != nil {
		c.logger.Error("failed to discard provisional booking", "booking_id", b.ID(), "error", err)
		return
	}
	if err := c.bookings.Update(ctx, b); err != nil {
		c.logger.Error("failed to persist discarded booking", "booking_id", b.ID(), "error", err)
	}
}

func (c *reservationCoordinator) publish(ctx context.Context, evt Event) {
	if err := c.publisher.Publish(ctx, evt); err != nil {
		c.logger.Warn("failed to publish booking event",
			"kind", evt.Kind, "booking_id", evt.BookingID, "error", err)
	}
}

func requestHash(params ReserveParams) string {
	data, _ := json.Marshal(params)
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}
