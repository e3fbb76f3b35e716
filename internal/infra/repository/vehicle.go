package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"fleetbook/internal/domain/vehicle"
	"fleetbook/internal/infra"
)

type VehicleRepository struct {
	db *pgxpool.Pool
}

func NewVehicleRepository(db *pgxpool.Pool) *VehicleRepository {
	return &VehicleRepository{db: db}
}

const selectVehicleSQL = `
SELECT id, plate, name, category, status, daily_rate_cents, odometer_miles, insured_until, created_at, updated_at
FROM vehicles
WHERE id = $1`

const recordMileageSQL = `
UPDATE vehicles SET odometer_miles = odometer_miles + $2, updated_at = now()
WHERE id = $1`

func (r *VehicleRepository) FindByID(ctx context.Context, id uuid.UUID) (*vehicle.Vehicle, error) {
	row := r.db.QueryRow(ctx, selectVehicleSQL, id)

	var (
		vehicleID            uuid.UUID
		plate, name          string
		category, status     string
		dailyRateCents       int64
		odometerMiles        int64
		insuredUntil         *time.Time
		createdAt, updatedAt time.Time
	)
	if err := row.Scan(
		&vehicleID, &plate, &name, &category, &status,
		&dailyRateCents, &odometerMiles, &insuredUntil, &createdAt, &updatedAt,
	); err != nil {
		if isNoRows(err) {
			return nil, infra.WrapRepoErr("vehicle not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find vehicle by ID", err)
	}

	return vehicle.ReconstructVehicle(
		vehicleID, plate, name,
		vehicle.Category(category), vehicle.Status(status),
		dailyRateCents, odometerMiles, insuredUntil, createdAt, updatedAt,
	), nil
}

func (r *VehicleRepository) RecordMileage(ctx context.Context, vehicleID uuid.UUID, deltaMiles int64) error {
	tag, err := r.db.Exec(ctx, recordMileageSQL, vehicleID, deltaMiles)
	if err != nil {
		return infra.WrapRepoErr("failed to record vehicle mileage", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErr("vehicle not found", nil, infra.KindNotFound)
	}
	return nil
}
