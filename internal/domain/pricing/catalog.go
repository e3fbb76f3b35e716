package pricing

import (
	"sort"

	"fleetbook/internal/domain/vehicle"
)

// AddOn is a bookable extra (GPS, child seat, ...) priced flat per booking
// or per rental day.
type AddOn struct {
	Code      string
	Name      string
	Mode      PricingMode
	RateCents int64
}

// Catalog is a versioned, immutable snapshot of everything Quote and the
// penalty-producing transitions need: add-on definitions, promotions,
// category multipliers and penalty policies. Callers pass it explicitly so
// pricing stays reproducible; nothing here is read from ambient state.
type Catalog struct {
	Version int64

	AddOns map[string]AddOn

	// CategoryMultipliers are percent values; 100 means the base rate as is.
	CategoryMultipliers map[vehicle.Category]int

	Promotions []*Promotion
	// Stacking lets every eligible promotion apply. Default policy is
	// highest discount wins, ties broken by earliest created.
	Stacking bool

	Cancellation CancellationPolicy
	Mileage      MileagePolicy
	LateReturn   LateReturnPolicy
}

// selectPromotions returns the promotions to apply for the given
// pre-discount amount, under the catalog's stacking policy.
func (c Catalog) selectPromotions(eligible []*Promotion, amountCents int64) []*Promotion {
	if len(eligible) == 0 {
		return nil
	}
	if c.Stacking {
		return eligible
	}
	best := eligible[0]
	bestOff := best.DiscountCents(amountCents)
	for _, p := range eligible[1:] {
		off := p.DiscountCents(amountCents)
		if off > bestOff || (off == bestOff && p.CreatedAt().Before(best.CreatedAt())) {
			best = p
			bestOff = off
		}
	}
	return []*Promotion{best}
}

func sortByCreated(promos []*Promotion) {
	sort.Slice(promos, func(i, j int) bool {
		return promos[i].CreatedAt().Before(promos[j].CreatedAt())
	})
}
