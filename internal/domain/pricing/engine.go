package pricing

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"fleetbook/internal/domain/schedule"
	"fleetbook/internal/domain/vehicle"
)

var (
	ErrUnknownAddOn    = errors.New("unknown add-on code")
	ErrUnknownCategory = errors.New("unknown vehicle category")
	ErrDuplicateAddOn  = errors.New("add-on selected twice")
)

// VehicleSpec is the slice of a vehicle that pricing needs. Passing a value
// rather than the entity keeps Quote a pure function of its arguments.
type VehicleSpec struct {
	ID             uuid.UUID
	Category       vehicle.Category
	DailyRateCents int64
}

// Quote computes the itemized price for renting the vehicle over the window
// with the selected add-ons, against the given catalog snapshot. It mutates
// nothing and is deterministic for identical inputs.
//
// Computation order is fixed: base, then add-ons, then promotions. Penalties
// are never part of a quote; the booking transitions append them later as
// breakdown revisions.
func Quote(spec VehicleSpec, w schedule.Window, addOnCodes []string, cat Catalog, now time.Time) (Breakdown, error) {
	days := w.Days()

	mult, ok := cat.CategoryMultipliers[spec.Category]
	if !ok {
		return Breakdown{}, ErrUnknownCategory
	}
	base := spec.DailyRateCents * int64(days) * int64(mult) / 100

	lines, err := addOnLines(addOnCodes, days, cat)
	if err != nil {
		return Breakdown{}, err
	}

	preDiscount := base
	for _, l := range lines {
		preDiscount += l.AmountCents
	}

	discount, promoCode := promotionDiscount(spec.Category, w, cat, preDiscount, now)

	return NewBreakdown(base, lines, discount, promoCode), nil
}

func addOnLines(codes []string, days int, cat Catalog) ([]AddOnLine, error) {
	if len(codes) == 0 {
		return nil, nil
	}
	seen := make(map[string]struct{}, len(codes))
	lines := make([]AddOnLine, 0, len(codes))
	for _, code := range codes {
		if _, dup := seen[code]; dup {
			return nil, ErrDuplicateAddOn
		}
		seen[code] = struct{}{}

		def, ok := cat.AddOns[code]
		if !ok {
			return nil, ErrUnknownAddOn
		}
		units := 1
		if def.Mode == ModePerDay {
			units = days
		}
		lines = append(lines, AddOnLine{
			Code:        def.Code,
			Name:        def.Name,
			Mode:        def.Mode,
			UnitCents:   def.RateCents,
			Units:       units,
			AmountCents: def.RateCents * int64(units),
		})
	}
	return lines, nil
}

func promotionDiscount(category vehicle.Category, w schedule.Window, cat Catalog, amountCents int64, now time.Time) (int64, *string) {
	days := w.Days()
	lead := w.LeadTime(now)

	var eligible []*Promotion
	for _, p := range cat.Promotions {
		if p.EligibleFor(days, lead, category, now) {
			eligible = append(eligible, p)
		}
	}
	if len(eligible) == 0 {
		return 0, nil
	}
	sortByCreated(eligible)

	applied := cat.selectPromotions(eligible, amountCents)

	var discount int64
	remaining := amountCents
	codes := ""
	for i, p := range applied {
		off := p.DiscountCents(remaining)
		discount += off
		remaining -= off
		if i > 0 {
			codes += "+"
		}
		codes += p.Code()
	}
	return discount, &codes
}
