package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	reqdto "fleetbook/internal/handler/dto/request"
	resdto "fleetbook/internal/handler/dto/response"
	"fleetbook/internal/handler/middleware"
	"fleetbook/internal/pkg/errs"
	"fleetbook/internal/usecase/commands"
	"fleetbook/internal/usecase/queries"
)

type BookingHandler struct {
	reservations commands.ReservationCommands
	lifecycle    commands.BookingCommands
	bookings     queries.BookingQueries
}

func NewBookingHandler(reservations commands.ReservationCommands, lifecycle commands.BookingCommands, bookings queries.BookingQueries) *BookingHandler {
	return &BookingHandler{
		reservations: reservations,
		lifecycle:    lifecycle,
		bookings:     bookings,
	}
}

func (h *BookingHandler) CreateBooking(c *gin.Context) {
	requesterID, ok := middleware.GetRequesterID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	idempotencyKey, err := h.getIdempotencyKey(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var req reqdto.CreateBookingRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	params := commands.ReserveParams{
		VehicleID:   req.VehicleID,
		RequesterID: requesterID,
		Start:       req.Start,
		End:         req.End,
		AddOns:      req.NormalizedAddOns(),
	}

	result, err := h.reservations.Reserve(c.Request.Context(), params, idempotencyKey)
	if err != nil {
		switch {
		case errors.Is(err, errs.ErrVehicleNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Vehicle not found"})
		case errors.Is(err, errs.ErrVehicleUnavailable):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Vehicle not available for booking"})
		case errors.Is(err, errs.ErrInvalidWindow):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid booking window"})
		case errors.Is(err, errs.ErrUnknownAddOn):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown add-on code"})
		case errors.Is(err, errs.ErrWindowConflict):
			c.JSON(http.StatusConflict, gin.H{"error": "Window conflicts with an existing booking"})
		case errors.Is(err, errs.ErrPaymentDeclined):
			c.JSON(http.StatusPaymentRequired, gin.H{"error": "Payment authorization declined"})
		case errors.Is(err, errs.ErrRequestInProgress):
			c.JSON(http.StatusConflict, gin.H{"error": "Request with this idempotency key is being processed"})
		case errors.Is(err, errs.ErrDuplicateRequest):
			c.JSON(http.StatusConflict, gin.H{"error": "Idempotency key reused with different parameters"})
		case errors.Is(err, errs.ErrDomainValidation):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Domain validation failed"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}
		return
	}

	status := http.StatusCreated
	if result.IsReplayed {
		status = http.StatusOK
	}
	c.JSON(status, resdto.FromBooking(result.Booking))
}

func (h *BookingHandler) GetBooking(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid booking ID format"})
		return
	}

	view, err := h.bookings.GetByID(c.Request.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, errs.ErrBookingNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Booking not found"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}
		return
	}
	c.JSON(http.StatusOK, resdto.FromBookingView(view))
}

func (h *BookingHandler) GetRequesterBookings(c *gin.Context) {
	requesterID, ok := middleware.GetRequesterID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	limit, offset := parsePagination(c)
	items, err := h.bookings.ListByRequester(c.Request.Context(), requesterID, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	response := make([]*resdto.BookingListResponse, len(items))
	for i, rm := range items {
		response[i] = resdto.FromBookingListItem(rm)
	}
	c.JSON(http.StatusOK, response)
}

func (h *BookingHandler) Pickup(c *gin.Context) {
	h.transition(c, func(c *gin.Context, id uuid.UUID, actor string) (*resdto.BookingResponse, error) {
		var req reqdto.OdometerRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			return nil, errBadPayload
		}
		b, err := h.lifecycle.Pickup(c.Request.Context(), id, actor, req.OdometerMiles)
		if err != nil {
			return nil, err
		}
		return resdto.FromBooking(b), nil
	})
}

func (h *BookingHandler) Return(c *gin.Context) {
	h.transition(c, func(c *gin.Context, id uuid.UUID, actor string) (*resdto.BookingResponse, error) {
		var req reqdto.OdometerRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			return nil, errBadPayload
		}
		b, err := h.lifecycle.Return(c.Request.Context(), id, actor, req.OdometerMiles)
		if err != nil {
			return nil, err
		}
		return resdto.FromBooking(b), nil
	})
}

func (h *BookingHandler) Cancel(c *gin.Context) {
	h.transition(c, func(c *gin.Context, id uuid.UUID, actor string) (*resdto.BookingResponse, error) {
		var req reqdto.CancelBookingRequest
		if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
			return nil, errBadPayload
		}
		b, err := h.lifecycle.Cancel(c.Request.Context(), id, actor, req.Reason)
		if err != nil {
			return nil, err
		}
		return resdto.FromBooking(b), nil
	})
}

func (h *BookingHandler) OpenDispute(c *gin.Context) {
	h.transition(c, func(c *gin.Context, id uuid.UUID, actor string) (*resdto.BookingResponse, error) {
		var req reqdto.OpenDisputeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			return nil, errBadPayload
		}
		b, err := h.lifecycle.OpenDispute(c.Request.Context(), id, actor, req.Note)
		if err != nil {
			return nil, err
		}
		return resdto.FromBooking(b), nil
	})
}

func (h *BookingHandler) ResolveDispute(c *gin.Context) {
	h.transition(c, func(c *gin.Context, id uuid.UUID, actor string) (*resdto.BookingResponse, error) {
		var req reqdto.ResolveDisputeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			return nil, errBadPayload
		}
		b, err := h.lifecycle.ResolveDispute(c.Request.Context(), id, actor, req.AdjustmentCents, req.Note)
		if err != nil {
			return nil, err
		}
		return resdto.FromBooking(b), nil
	})
}

var errBadPayload = errs.New("invalid request payload")

// transition factors the shared shape of lifecycle endpoints: parse the ID,
// resolve the actor, run the command, map errors to statuses.
func (h *BookingHandler) transition(c *gin.Context, run func(c *gin.Context, id uuid.UUID, actor string) (*resdto.BookingResponse, error)) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid booking ID format"})
		return
	}

	requesterID, ok := middleware.GetRequesterID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	resp, err := run(c, id, requesterID.String())
	if err != nil {
		switch {
		case errors.Is(err, errBadPayload):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		case errors.Is(err, errs.ErrBookingNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Booking not found"})
		case errors.Is(err, errs.ErrInvalidState):
			c.JSON(http.StatusConflict, gin.H{"error": "Invalid booking state transition"})
		case errors.Is(err, errs.ErrDomainValidation):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Domain validation failed"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *BookingHandler) getIdempotencyKey(c *gin.Context) (uuid.UUID, error) {
	keyStr := c.GetHeader("Idempotency-Key")
	if keyStr == "" {
		return uuid.Nil, errs.ErrIdempotencyKeyRequired
	}
	key, err := uuid.Parse(keyStr)
	if err != nil {
		return uuid.Nil, errs.Wrap(errs.ErrIdempotencyKeyRequired, "idempotency key must be a UUID")
	}
	return key, nil
}

func parsePagination(c *gin.Context) (limit, offset int32) {
	limit = 50
	offset = 0
	if v, ok := parseInt32(c.Query("limit")); ok && v > 0 && v <= 200 {
		limit = v
	}
	if v, ok := parseInt32(c.Query("offset")); ok && v >= 0 {
		offset = v
	}
	return limit, offset
}

func parseInt32(s string) (int32, bool) {
	if s == "" {
		return 0, false
	}
	var v int32
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
		v = v*10 + int32(r-'0')
	}
	return v, true
}
