package pricing

import "time"

// CancellationTier: cancelling with lead time below Within pays Percent of
// the confirmed total. Tiers are kept sorted by Within ascending.
type CancellationTier struct {
	Within  time.Duration
	Percent int
}

type CancellationPolicy struct {
	Tiers []CancellationTier
}

// PenaltyPercent picks the tier for the given lead time. Lead times beyond
// every tier cost nothing; a non-positive lead pays the tightest tier.
func (p CancellationPolicy) PenaltyPercent(lead time.Duration) int {
	for _, t := range p.Tiers {
		if lead < t.Within {
			return t.Percent
		}
	}
	return 0
}

// MaxPercent is the harshest tier, applied to no-shows.
func (p CancellationPolicy) MaxPercent() int {
	max := 0
	for _, t := range p.Tiers {
		if t.Percent > max {
			max = t.Percent
		}
	}
	return max
}

// MileagePolicy: each rental day includes IncludedMilesPerDay; every mile
// past the allowance costs OverageCentsPerMile.
type MileagePolicy struct {
	IncludedMilesPerDay int64
	OverageCentsPerMile int64
}

func (p MileagePolicy) AllowanceMiles(days int) int64 {
	return p.IncludedMilesPerDay * int64(days)
}

func (p MileagePolicy) OverageCents(drivenMiles int64, days int) int64 {
	over := drivenMiles - p.AllowanceMiles(days)
	if over <= 0 {
		return 0
	}
	return over * p.OverageCentsPerMile
}

// LateReturnPolicy: returns later than window end plus Grace pay
// FeeCentsPerHour for each started hour past the end.
type LateReturnPolicy struct {
	Grace           time.Duration
	FeeCentsPerHour int64
}

func (p LateReturnPolicy) FeeCents(windowEnd, returnedAt time.Time) int64 {
	if !returnedAt.After(windowEnd.Add(p.Grace)) {
		return 0
	}
	late := returnedAt.Sub(windowEnd)
	hours := int64(late / time.Hour)
	if late%time.Hour != 0 {
		hours++
	}
	return hours * p.FeeCentsPerHour
}
