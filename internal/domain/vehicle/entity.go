package vehicle

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrEmptyPlate      = errors.New("license plate cannot be empty")
	ErrInvalidCategory = errors.New("invalid vehicle category")
	ErrInvalidStatus   = errors.New("invalid vehicle status")
	ErrNonPositiveRate = errors.New("daily rate must be positive")
	ErrNegativeMileage = errors.New("mileage delta cannot be negative")
)

// Vehicle is a rentable fleet unit. Fleet management owns mutation; the
// booking core reads it and appends mileage on completion.
type Vehicle struct {
	id             uuid.UUID
	plate          string
	name           string
	category       Category
	status         Status
	dailyRateCents int64
	odometerMiles  int64
	insuredUntil   *time.Time
	createdAt      time.Time
	updatedAt      time.Time
}

func NewVehicle(id uuid.UUID, plate, name string, category Category, status Status, dailyRateCents, odometerMiles int64, insuredUntil *time.Time) (*Vehicle, error) {
	if plate == "" {
		return nil, ErrEmptyPlate
	}
	if !category.IsValid() {
		return nil, ErrInvalidCategory
	}
	if !status.IsValid() {
		return nil, ErrInvalidStatus
	}
	if dailyRateCents <= 0 {
		return nil, ErrNonPositiveRate
	}
	return &Vehicle{
		id:             id,
		plate:          plate,
		name:           name,
		category:       category,
		status:         status,
		dailyRateCents: dailyRateCents,
		odometerMiles:  odometerMiles,
		insuredUntil:   insuredUntil,
	}, nil
}

func ReconstructVehicle(id uuid.UUID, plate, name string, category Category, status Status, dailyRateCents, odometerMiles int64, insuredUntil *time.Time, createdAt, updatedAt time.Time) *Vehicle {
	return &Vehicle{
		id:             id,
		plate:          plate,
		name:           name,
		category:       category,
		status:         status,
		dailyRateCents: dailyRateCents,
		odometerMiles:  odometerMiles,
		insuredUntil:   insuredUntil,
		createdAt:      createdAt,
		updatedAt:      updatedAt,
	}
}

// Bookable reports whether the vehicle may take new bookings at instant now.
// Vehicles in maintenance or retired never do; an expired insurance window
// also blocks new bookings.
func (v *Vehicle) Bookable(now time.Time) bool {
	if v.status != StatusAvailable {
		return false
	}
	if v.insuredUntil != nil && v.insuredUntil.Before(now) {
		return false
	}
	return true
}

// AddMileage appends the driven distance recorded at booking completion.
func (v *Vehicle) AddMileage(delta int64) error {
	if delta < 0 {
		return ErrNegativeMileage
	}
	v.odometerMiles += delta
	return nil
}

func (v *Vehicle) ID() uuid.UUID            { return v.id }
func (v *Vehicle) Plate() string            { return v.plate }
func (v *Vehicle) Name() string             { return v.name }
func (v *Vehicle) Category() Category       { return v.category }
func (v *Vehicle) Status() Status           { return v.status }
func (v *Vehicle) DailyRateCents() int64    { return v.dailyRateCents }
func (v *Vehicle) OdometerMiles() int64     { return v.odometerMiles }
func (v *Vehicle) InsuredUntil() *time.Time { return v.insuredUntil }
func (v *Vehicle) CreatedAt() time.Time     { return v.createdAt }
func (v *Vehicle) UpdatedAt() time.Time     { return v.updatedAt }
