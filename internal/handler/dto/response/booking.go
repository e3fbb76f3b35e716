package response

import (
	"time"

	"github.com/google/uuid"

	"fleetbook/internal/domain/booking"
	"fleetbook/internal/domain/pricing"
	"fleetbook/internal/usecase/queries"
)

type BookingResponse struct {
	ID              uuid.UUID           `json:"id"`
	Reference       string              `json:"reference"`
	VehicleID       uuid.UUID           `json:"vehicleId"`
	RequesterID     uuid.UUID           `json:"requesterId"`
	Start           time.Time           `json:"start"`
	End             time.Time           `json:"end"`
	Status          string              `json:"status"`
	Breakdown       pricing.Breakdown   `json:"breakdown"`
	AuthorizedCents int64               `json:"authorizedCents"`
	PickupMileage   *int64              `json:"pickupMileage,omitempty"`
	ReturnMileage   *int64              `json:"returnMileage,omitempty"`
	History         []HistoryEntry      `json:"history,omitempty"`
	CreatedAt       time.Time           `json:"createdAt"`
	UpdatedAt       time.Time           `json:"updatedAt"`
}

type HistoryEntry struct {
	Status string    `json:"status"`
	Actor  string    `json:"actor"`
	Note   string    `json:"note,omitempty"`
	At     time.Time `json:"at"`
}

type BookingListResponse struct {
	ID         uuid.UUID `json:"id"`
	Reference  string    `json:"reference"`
	VehicleID  uuid.UUID `json:"vehicleId"`
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	Status     string    `json:"status"`
	TotalCents int64     `json:"totalCents"`
	CreatedAt  time.Time `json:"createdAt"`
}

type VehicleResponse struct {
	ID             uuid.UUID `json:"id"`
	Plate          string    `json:"plate"`
	Name           string    `json:"name"`
	Category       string    `json:"category"`
	Status         string    `json:"status"`
	DailyRateCents int64     `json:"dailyRateCents"`
	OdometerMiles  int64     `json:"odometerMiles"`
}

type AvailabilityResponse struct {
	VehicleID uuid.UUID `json:"vehicleId"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	Free      bool      `json:"free"`
}

// FromBooking renders the domain aggregate, used on the command paths where
// the fresh state is already in hand.
func FromBooking(b *booking.Booking) *BookingResponse {
	history := make([]HistoryEntry, 0, len(b.History()))
	for _, h := range b.History() {
		history = append(history, HistoryEntry{
			Status: h.Status.String(),
			Actor:  h.Actor,
			Note:   h.Note,
			At:     h.At,
		})
	}
	return &BookingResponse{
		ID:              b.ID(),
		Reference:       b.Reference(),
		VehicleID:       b.VehicleID(),
		RequesterID:     b.RequesterID(),
		Start:           b.Window().Start(),
		End:             b.Window().End(),
		Status:          b.Status().String(),
		Breakdown:       b.Breakdown(),
		AuthorizedCents: b.AuthorizedCents(),
		PickupMileage:   b.PickupMileage(),
		ReturnMileage:   b.ReturnMileage(),
		History:         history,
		CreatedAt:       b.CreatedAt(),
		UpdatedAt:       b.UpdatedAt(),
	}
}

func FromBookingView(rm *queries.BookingView) *BookingResponse {
	history := make([]HistoryEntry, 0, len(rm.History))
	for _, h := range rm.History {
		history = append(history, HistoryEntry{Status: h.Status, Actor: h.Actor, Note: h.Note, At: h.At})
	}
	return &BookingResponse{
		ID:              rm.ID,
		Reference:       rm.Reference,
		VehicleID:       rm.VehicleID,
		RequesterID:     rm.RequesterID,
		Start:           rm.Start,
		End:             rm.End,
		Status:          rm.Status,
		Breakdown:       rm.Breakdown,
		AuthorizedCents: rm.AuthorizedCents,
		PickupMileage:   rm.PickupMileage,
		ReturnMileage:   rm.ReturnMileage,
		History:         history,
		CreatedAt:       rm.CreatedAt,
		UpdatedAt:       rm.UpdatedAt,
	}
}

func FromBookingListItem(rm *queries.BookingListItem) *BookingListResponse {
	return &BookingListResponse{
		ID:         rm.ID,
		Reference:  rm.Reference,
		VehicleID:  rm.VehicleID,
		Start:      rm.Start,
		End:        rm.End,
		Status:     rm.Status,
		TotalCents: rm.TotalCents,
		CreatedAt:  rm.CreatedAt,
	}
}

func FromVehicleView(rm *queries.VehicleView) *VehicleResponse {
	return &VehicleResponse{
		ID:             rm.ID,
		Plate:          rm.Plate,
		Name:           rm.Name,
		Category:       string(rm.Category),
		Status:         rm.Status,
		DailyRateCents: rm.DailyRateCents,
		OdometerMiles:  rm.OdometerMiles,
	}
}
