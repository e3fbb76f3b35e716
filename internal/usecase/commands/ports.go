package commands

import (
	"context"
	"time"

	"github.com/google/uuid"

	"fleetbook/internal/domain/booking"
	"fleetbook/internal/domain/pricing"
	"fleetbook/internal/domain/schedule"
	"fleetbook/internal/domain/vehicle"
)

// BookingRepository persists the aggregate. Update writes the status,
// breakdown revision, mileage fields and any pending history entries in one
// transaction.
type BookingRepository interface {
	Create(ctx context.Context, b *booking.Booking) error
	Update(ctx context.Context, b *booking.Booking) error
	FindByID(ctx context.Context, id uuid.UUID) (*booking.Booking, error)
	// ListBlocking returns the committed window of every booking in an
	// index-blocking status. Used for the startup rebuild.
	ListBlocking(ctx context.Context) ([]schedule.CommittedEntry, error)
	// ListNoShowCandidates returns confirmed bookings whose window started
	// before the cutoff and were never picked up.
	ListNoShowCandidates(ctx context.Context, startedBefore time.Time) ([]uuid.UUID, error)
}

type VehicleRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*vehicle.Vehicle, error)
	// RecordMileage appends driven distance to the vehicle odometer on
	// booking completion (write-through to fleet management).
	RecordMileage(ctx context.Context, vehicleID uuid.UUID, deltaMiles int64) error
}

// CatalogRepository assembles the versioned pricing snapshot: add-ons and
// promotions from storage, penalty policies from configuration.
type CatalogRepository interface {
	Current(ctx context.Context) (pricing.Catalog, error)
}

type IdempotencyRecord struct {
	Status          string
	RequestHash     string
	ResultBookingID *uuid.UUID
}

type IdempotencyRepository interface {
	// TryInsert claims the key and reports whether this call inserted it.
	// A false return means the key already exists and Get should be
	// consulted.
	TryInsert(ctx context.Context, key, requesterID uuid.UUID, endpoint, requestHash string, expiresAt time.Time) (bool, error)
	Get(ctx context.Context, key, requesterID uuid.UUID) (*IdempotencyRecord, error)
	MarkCompleted(ctx context.Context, key, requesterID uuid.UUID, bookingID uuid.UUID) error
	// DeleteExpired purges keys whose retention window has passed.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type AuthorizationResult struct {
	Approved      bool
	ReferenceID   string
	DeclineReason string
}

// PaymentGateway is the boundary to the payment collaborator. The core
// consumes outcomes only; card data never crosses this interface.
type PaymentGateway interface {
	Authorize(ctx context.Context, amountCents int64, currency string, requesterID uuid.UUID) (AuthorizationResult, error)
	Capture(ctx context.Context, referenceID string, finalAmountCents int64) error
	Refund(ctx context.Context, referenceID string, amountCents int64) error
}

type EventPublisher interface {
	Publish(ctx context.Context, evt Event) error
}
