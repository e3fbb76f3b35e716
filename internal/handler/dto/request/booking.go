package request

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type CreateBookingRequest struct {
	VehicleID uuid.UUID `json:"vehicle_id" binding:"required"`
	Start     time.Time `json:"start" binding:"required"`
	End       time.Time `json:"end" binding:"required"`
	AddOns    []string  `json:"add_ons,omitempty"`
}

// NormalizedAddOns trims whitespace and drops empty codes before the
// request reaches pricing.
func (r CreateBookingRequest) NormalizedAddOns() []string {
	if len(r.AddOns) == 0 {
		return nil
	}
	out := make([]string, 0, len(r.AddOns))
	for _, code := range r.AddOns {
		trimmed := strings.TrimSpace(code)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

type OdometerRequest struct {
	OdometerMiles int64 `json:"odometer_miles" binding:"min=0"`
}

type CancelBookingRequest struct {
	Reason string `json:"reason,omitempty"`
}

type OpenDisputeRequest struct {
	Note string `json:"note" binding:"required"`
}

type ResolveDisputeRequest struct {
	// AdjustmentCents is signed: positive charges extra, negative credits.
	AdjustmentCents int64  `json:"adjustment_cents"`
	Note            string `json:"note,omitempty"`
}
