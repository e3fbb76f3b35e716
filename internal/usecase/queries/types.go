package queries

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"fleetbook/internal/domain/pricing"
	"fleetbook/internal/domain/vehicle"
	"fleetbook/internal/infra"
	"fleetbook/internal/pkg/errs"
)

// Read models (DTO for read side)

type VehicleView struct {
	ID             uuid.UUID        `json:"id"`
	Plate          string           `json:"plate"`
	Name           string           `json:"name"`
	Category       vehicle.Category `json:"category"`
	Status         string           `json:"status"`
	DailyRateCents int64            `json:"daily_rate_cents"`
	OdometerMiles  int64            `json:"odometer_miles"`
}

type HistoryEntryView struct {
	Status string    `json:"status"`
	Actor  string    `json:"actor"`
	Note   string    `json:"note,omitempty"`
	At     time.Time `json:"at"`
}

type BookingView struct {
	ID              uuid.UUID          `json:"id"`
	Reference       string             `json:"reference"`
	VehicleID       uuid.UUID          `json:"vehicle_id"`
	RequesterID     uuid.UUID          `json:"requester_id"`
	Start           time.Time          `json:"start"`
	End             time.Time          `json:"end"`
	Status          string             `json:"status"`
	Breakdown       pricing.Breakdown  `json:"breakdown"`
	AuthorizedCents int64              `json:"authorized_cents"`
	PickupMileage   *int64             `json:"pickup_mileage,omitempty"`
	ReturnMileage   *int64             `json:"return_mileage,omitempty"`
	History         []HistoryEntryView `json:"history"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
}

type BookingListItem struct {
	ID         uuid.UUID `json:"id"`
	Reference  string    `json:"reference"`
	VehicleID  uuid.UUID `json:"vehicle_id"`
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	Status     string    `json:"status"`
	TotalCents int64     `json:"total_cents"`
	CreatedAt  time.Time `json:"created_at"`
}

type BookingReadStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*BookingView, error)
	FindByRequester(ctx context.Context, requesterID uuid.UUID, limit, offset int32) ([]*BookingListItem, error)
}

type VehicleReadStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*VehicleView, error)
	// ListBookable returns vehicles in the available status, optionally
	// narrowed to one category.
	ListBookable(ctx context.Context, category *vehicle.Category) ([]*VehicleView, error)
}

type BookingQueries interface {
	GetByID(ctx context.Context, id uuid.UUID) (*BookingView, error)
	ListByRequester(ctx context.Context, requesterID uuid.UUID, limit, offset int32) ([]*BookingListItem, error)
}

type bookingQueriesImpl struct {
	store BookingReadStore
}

func NewBookingQueries(store BookingReadStore) BookingQueries {
	return &bookingQueriesImpl{store: store}
}

func (q *bookingQueriesImpl) GetByID(ctx context.Context, id uuid.UUID) (*BookingView, error) {
	v, err := q.store.FindByID(ctx, id)
	if err != nil {
		return nil, loadErr(err, errs.ErrBookingNotFound)
	}
	return v, nil
}

func (q *bookingQueriesImpl) ListByRequester(ctx context.Context, requesterID uuid.UUID, limit, offset int32) ([]*BookingListItem, error) {
	if limit <= 0 {
		limit = 50
	}
	items, err := q.store.FindByRequester(ctx, requesterID, limit, offset)
	if err != nil {
		return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}
	return items, nil
}

// loadErr translates repository error kinds into the query sentinels.
func loadErr(err, notFound error) error {
	switch {
	case errors.Is(err, notFound):
		return err
	case infra.IsKind(err, infra.KindNotFound):
		return errs.Mark(err, notFound)
	default:
		return errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}
}
