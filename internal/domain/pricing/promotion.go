package pricing

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"fleetbook/internal/domain/vehicle"
)

var (
	ErrEmptyPromotionCode = errors.New("promotion code cannot be empty")
	ErrNoDiscountRule     = errors.New("promotion needs a percent or fixed discount")
	ErrInvalidPercentOff  = errors.New("percent off must be between 0 and 100")
)

// Promotion is a read-only pricing input. Exactly one of percentOff /
// amountOffCents is set.
type Promotion struct {
	id             uuid.UUID
	code           string
	percentOff     *float64
	amountOffCents *int64

	// Eligibility predicate inputs.
	minDays    int
	minLead    time.Duration
	categories []vehicle.Category // empty means all categories

	validFrom *time.Time
	validTo   *time.Time
	createdAt time.Time
}

func NewPromotion(
	id uuid.UUID,
	code string,
	percentOff *float64,
	amountOffCents *int64,
	minDays int,
	minLead time.Duration,
	categories []vehicle.Category,
	validFrom, validTo *time.Time,
	createdAt time.Time,
) (*Promotion, error) {
	if code == "" {
		return nil, ErrEmptyPromotionCode
	}
	if percentOff == nil && amountOffCents == nil {
		return nil, ErrNoDiscountRule
	}
	if percentOff != nil && (*percentOff < 0 || *percentOff > 100) {
		return nil, ErrInvalidPercentOff
	}
	return &Promotion{
		id:             id,
		code:           code,
		percentOff:     percentOff,
		amountOffCents: amountOffCents,
		minDays:        minDays,
		minLead:        minLead,
		categories:     categories,
		validFrom:      validFrom,
		validTo:        validTo,
		createdAt:      createdAt,
	}, nil
}

func (p *Promotion) ID() uuid.UUID        { return p.id }
func (p *Promotion) Code() string         { return p.code }
func (p *Promotion) CreatedAt() time.Time { return p.createdAt }

// EligibleFor evaluates the promotion against window length, lead time and
// vehicle category at instant now.
func (p *Promotion) EligibleFor(days int, lead time.Duration, category vehicle.Category, now time.Time) bool {
	if p.validFrom != nil && now.Before(*p.validFrom) {
		return false
	}
	if p.validTo != nil && now.After(*p.validTo) {
		return false
	}
	if days < p.minDays {
		return false
	}
	if lead < p.minLead {
		return false
	}
	if len(p.categories) == 0 {
		return true
	}
	for _, c := range p.categories {
		if c == category {
			return true
		}
	}
	return false
}

// DiscountCents computes the discount against the pre-discount amount,
// clamped so it never exceeds the amount itself.
func (p *Promotion) DiscountCents(amountCents int64) int64 {
	var off int64
	switch {
	case p.percentOff != nil:
		off = int64(float64(amountCents) * *p.percentOff / 100.0)
	case p.amountOffCents != nil:
		off = *p.amountOffCents
	}
	if off < 0 {
		off = 0
	}
	if off > amountCents {
		off = amountCents
	}
	return off
}
