package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	resdto "fleetbook/internal/handler/dto/response"
	"fleetbook/internal/domain/vehicle"
	"fleetbook/internal/pkg/errs"
	"fleetbook/internal/usecase/queries"
)

type AvailabilityHandler struct {
	availability queries.AvailabilityQueries
}

func NewAvailabilityHandler(availability queries.AvailabilityQueries) *AvailabilityHandler {
	return &AvailabilityHandler{availability: availability}
}

func (h *AvailabilityHandler) CheckVehicle(c *gin.Context) {
	vehicleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid vehicle ID format"})
		return
	}

	start, end, ok := parseWindow(c)
	if !ok {
		return
	}

	free, err := h.availability.IsFree(c.Request.Context(), vehicleID, start, end)
	if err != nil {
		switch {
		case errors.Is(err, errs.ErrVehicleNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Vehicle not found"})
		case errors.Is(err, errs.ErrInvalidWindow):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid booking window"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}
		return
	}

	c.JSON(http.StatusOK, resdto.AvailabilityResponse{
		VehicleID: vehicleID,
		Start:     start,
		End:       end,
		Free:      free,
	})
}

func (h *AvailabilityHandler) FindAvailable(c *gin.Context) {
	start, end, ok := parseWindow(c)
	if !ok {
		return
	}

	params := queries.FindAvailableParams{Start: start, End: end}

	if raw := c.Query("category"); raw != "" {
		cat := vehicle.Category(raw)
		if !cat.IsValid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown vehicle category"})
			return
		}
		params.Category = &cat
	}
	limit, offset := parsePagination(c)
	params.Limit = int(limit)
	params.Offset = int(offset)

	views, err := h.availability.FindAvailable(c.Request.Context(), params)
	if err != nil {
		switch {
		case errors.Is(err, errs.ErrInvalidWindow):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid booking window"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}
		return
	}

	response := make([]*resdto.VehicleResponse, len(views))
	for i, rm := range views {
		response[i] = resdto.FromVehicleView(rm)
	}
	c.JSON(http.StatusOK, response)
}

func parseWindow(c *gin.Context) (start, end time.Time, ok bool) {
	var err error
	if start, err = time.Parse(time.RFC3339, c.Query("start")); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "start must be RFC3339"})
		return start, end, false
	}
	if end, err = time.Parse(time.RFC3339, c.Query("end")); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "end must be RFC3339"})
		return start, end, false
	}
	return start, end, true
}
