package commands

import (
	"errors"
	"time"

	"fleetbook/internal/domain/pricing"
	"fleetbook/internal/domain/schedule"
	"fleetbook/internal/domain/vehicle"
	"fleetbook/internal/pkg/errs"
)

// emptyCancellationPolicy charges nothing. Used when discarding provisional
// bookings that never confirmed.
var emptyCancellationPolicy = pricing.CancellationPolicy{}

// quoteFor prices a window for a vehicle and translates pricing errors into
// the shared validation sentinels.
func quoteFor(v *vehicle.Vehicle, w schedule.Window, addOns []string, cat pricing.Catalog, now time.Time) (pricing.Breakdown, error) {
	spec := pricing.VehicleSpec{
		ID:             v.ID(),
		Category:       v.Category(),
		DailyRateCents: v.DailyRateCents(),
	}
	bd, err := pricing.Quote(spec, w, addOns, cat, now)
	if err != nil {
		switch {
		case errors.Is(err, pricing.ErrUnknownAddOn), errors.Is(err, pricing.ErrDuplicateAddOn):
			return pricing.Breakdown{}, errs.Mark(err, errs.ErrUnknownAddOn)
		case errors.Is(err, pricing.ErrUnknownCategory):
			return pricing.Breakdown{}, errs.Mark(err, errs.ErrUnknownCategory)
		default:
			return pricing.Breakdown{}, errs.Mark(err, errs.ErrDomainValidation)
		}
	}
	return bd, nil
}
