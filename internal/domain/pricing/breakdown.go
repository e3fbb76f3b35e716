package pricing

import (
	"time"

	"github.com/google/uuid"
)

type PricingMode string

const (
	ModeFlat   PricingMode = "flat"
	ModePerDay PricingMode = "per_day"
)

type AddOnLine struct {
	Code        string      `json:"code"`
	Name        string      `json:"name"`
	Mode        PricingMode `json:"mode"`
	UnitCents   int64       `json:"unit_cents"`
	Units       int         `json:"units"`
	AmountCents int64       `json:"amount_cents"`
}

type PenaltyReason string

const (
	ReasonCancellation      PenaltyReason = "cancellation"
	ReasonNoShow            PenaltyReason = "no_show"
	ReasonExcessMileage     PenaltyReason = "excess_mileage"
	ReasonLateReturn        PenaltyReason = "late_return"
	ReasonDisputeAdjustment PenaltyReason = "dispute_adjustment"
)

// PenaltyLine amounts are signed: positive is a charge, negative a credit
// granted during dispute resolution.
type PenaltyLine struct {
	ID          uuid.UUID     `json:"id"`
	Reason      PenaltyReason `json:"reason"`
	AmountCents int64         `json:"amount_cents"`
	AppliedAt   time.Time     `json:"applied_at"`
}

// Breakdown is the itemized price of a booking. It is immutable once the
// booking confirms; penalties produce a new revision via WithPenalty rather
// than mutating in place. Invariant:
// total = base + sum(add-ons) - discount + sum(penalties).
type Breakdown struct {
	BaseCents     int64         `json:"base_cents"`
	AddOns        []AddOnLine   `json:"add_ons,omitempty"`
	DiscountCents int64         `json:"discount_cents"`
	PromotionCode *string       `json:"promotion_code,omitempty"`
	Penalties     []PenaltyLine `json:"penalties,omitempty"`
	TotalCents    int64         `json:"total_cents"`
	Revision      int           `json:"revision"`
}

func NewBreakdown(baseCents int64, addOns []AddOnLine, discountCents int64, promotionCode *string) Breakdown {
	b := Breakdown{
		BaseCents:     baseCents,
		AddOns:        addOns,
		DiscountCents: discountCents,
		PromotionCode: promotionCode,
		Revision:      1,
	}
	b.TotalCents = b.computeTotal()
	return b
}

// WithPenalty returns a new revision with the penalty appended and the
// total recomputed. The receiver is left untouched.
func (b Breakdown) WithPenalty(p PenaltyLine) Breakdown {
	next := b
	next.AddOns = append([]AddOnLine(nil), b.AddOns...)
	next.Penalties = append(append([]PenaltyLine(nil), b.Penalties...), p)
	next.Revision = b.Revision + 1
	next.TotalCents = next.computeTotal()
	return next
}

func (b Breakdown) PenaltyTotalCents() int64 {
	var sum int64
	for _, p := range b.Penalties {
		sum += p.AmountCents
	}
	return sum
}

// ChargeableCents is the total floored at zero; a dispute credit larger than
// the remaining charges never turns the booking into a payout.
func (b Breakdown) ChargeableCents() int64 {
	if b.TotalCents < 0 {
		return 0
	}
	return b.TotalCents
}

func (b Breakdown) computeTotal() int64 {
	total := b.BaseCents - b.DiscountCents
	for _, a := range b.AddOns {
		total += a.AmountCents
	}
	total += b.PenaltyTotalCents()
	return total
}
