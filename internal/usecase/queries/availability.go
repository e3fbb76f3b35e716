package queries

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"fleetbook/internal/domain/schedule"
	"fleetbook/internal/domain/vehicle"
	"fleetbook/internal/pkg/clock"
	"fleetbook/internal/pkg/config"
	"fleetbook/internal/pkg/errs"
)

// Ranking orders availability search results. Comparators are pluggable;
// nil falls back to cheapest-first.
type Ranking func(a, b *VehicleView) bool

func ByDailyRate(a, b *VehicleView) bool {
	if a.DailyRateCents != b.DailyRateCents {
		return a.DailyRateCents < b.DailyRateCents
	}
	return a.ID.String() < b.ID.String()
}

type FindAvailableParams struct {
	Category *vehicle.Category
	Start    time.Time
	End      time.Time
	Limit    int
	Offset   int
	RankBy   Ranking
}

type AvailabilityQueries interface {
	IsFree(ctx context.Context, vehicleID uuid.UUID, start, end time.Time) (bool, error)
	FindAvailable(ctx context.Context, params FindAvailableParams) ([]*VehicleView, error)
}

// availabilityQueriesImpl answers availability questions from the interval
// index without taking the per-vehicle locks. Results may be briefly stale
// relative to an in-flight confirmation; the coordinator re-checks inside
// its exclusive section, so staleness can cost a ConflictError on an
// optimistic attempt but never a double booking. Provisional holds are not
// visible here.
type availabilityQueriesImpl struct {
	vehicles VehicleReadStore
	index    *schedule.Index
	clock    clock.Clock
	cfg      config.BookingConfig
}

func NewAvailabilityQueries(vehicles VehicleReadStore, index *schedule.Index, clk clock.Clock, cfg config.BookingConfig) AvailabilityQueries {
	return &availabilityQueriesImpl{
		vehicles: vehicles,
		index:    index,
		clock:    clk,
		cfg:      cfg,
	}
}

func (a *availabilityQueriesImpl) IsFree(ctx context.Context, vehicleID uuid.UUID, start, end time.Time) (bool, error) {
	w, err := a.validateWindow(start, end)
	if err != nil {
		return false, err
	}
	if _, err := a.vehicles.FindByID(ctx, vehicleID); err != nil {
		return false, loadErr(err, errs.ErrVehicleNotFound)
	}
	return a.index.IsFree(vehicleID, w), nil
}

func (a *availabilityQueriesImpl) FindAvailable(ctx context.Context, params FindAvailableParams) ([]*VehicleView, error) {
	w, err := a.validateWindow(params.Start, params.End)
	if err != nil {
		return nil, err
	}

	candidates, err := a.vehicles.ListBookable(ctx, params.Category)
	if err != nil {
		return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}

	free := make([]*VehicleView, 0, len(candidates))
	for _, v := range candidates {
		if a.index.IsFree(v.ID, w) {
			free = append(free, v)
		}
	}

	rank := params.RankBy
	if rank == nil {
		rank = ByDailyRate
	}
	sort.Slice(free, func(i, j int) bool { return rank(free[i], free[j]) })

	limit := params.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := params.Offset
	if offset < 0 {
		offset = 0
	}
	if offset >= len(free) {
		return []*VehicleView{}, nil
	}
	end := offset + limit
	if end > len(free) {
		end = len(free)
	}
	return free[offset:end], nil
}

func (a *availabilityQueriesImpl) validateWindow(start, end time.Time) (schedule.Window, error) {
	w, err := schedule.NewWindow(start, end)
	if err != nil {
		return schedule.Window{}, errs.Mark(err, errs.ErrInvalidWindow)
	}
	if err := w.ValidateNotPast(a.clock.Now(), a.cfg.PastGrace); err != nil {
		return schedule.Window{}, errs.Mark(err, errs.ErrInvalidWindow)
	}
	return w, nil
}
