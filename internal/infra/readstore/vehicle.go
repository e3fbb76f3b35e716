package readstore

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"fleetbook/internal/domain/vehicle"
	"fleetbook/internal/infra"
	"fleetbook/internal/usecase/queries"
)

type VehicleReadStore struct {
	db *pgxpool.Pool
}

func NewVehicleReadStore(db *pgxpool.Pool) *VehicleReadStore {
	return &VehicleReadStore{db: db}
}

const selectVehicleViewSQL = `
SELECT id, plate, name, category, status, daily_rate_cents, odometer_miles
FROM vehicles
WHERE id = $1`

const selectBookableVehiclesSQL = `
SELECT id, plate, name, category, status, daily_rate_cents, odometer_miles
FROM vehicles
WHERE status = 'available' AND ($1::text IS NULL OR category = $1)
ORDER BY daily_rate_cents, plate`

func (s *VehicleReadStore) FindByID(ctx context.Context, id uuid.UUID) (*queries.VehicleView, error) {
	row := s.db.QueryRow(ctx, selectVehicleViewSQL, id)

	var view queries.VehicleView
	if err := row.Scan(
		&view.ID, &view.Plate, &view.Name, &view.Category,
		&view.Status, &view.DailyRateCents, &view.OdometerMiles,
	); err != nil {
		if isNoRows(err) {
			return nil, infra.WrapRepoErr("vehicle not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find vehicle view", err)
	}
	return &view, nil
}

func (s *VehicleReadStore) ListBookable(ctx context.Context, category *vehicle.Category) ([]*queries.VehicleView, error) {
	var categoryArg *string
	if category != nil {
		c := string(*category)
		categoryArg = &c
	}

	rows, err := s.db.Query(ctx, selectBookableVehiclesSQL, categoryArg)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list bookable vehicles", err)
	}
	defer rows.Close()

	var views []*queries.VehicleView
	for rows.Next() {
		var view queries.VehicleView
		if err := rows.Scan(
			&view.ID, &view.Plate, &view.Name, &view.Category,
			&view.Status, &view.DailyRateCents, &view.OdometerMiles,
		); err != nil {
			return nil, infra.WrapRepoErr("failed to scan vehicle view", err)
		}
		views = append(views, &view)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to iterate bookable vehicles", err)
	}
	return views, nil
}
