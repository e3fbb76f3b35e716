package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"fleetbook/internal/handler/httperr"
	"fleetbook/internal/pkg/errs"
)

const (
	requesterHeader     = "X-Requester-ID"
	requesterContextKey = "requester_id"
)

var errMissingRequester = errs.New("requester identity header missing or malformed")

// RequireRequester resolves the caller identity from the X-Requester-ID
// header. Authentication itself happens upstream at the gateway; this layer
// only needs a stable UUID to scope bookings and idempotency keys by.
func RequireRequester() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(requesterHeader)
		if raw == "" {
			httperr.AbortWithError(c, http.StatusUnauthorized, errMissingRequester, "X-Requester-ID header required", nil)
			return
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			httperr.AbortWithError(c, http.StatusUnauthorized, errMissingRequester, "X-Requester-ID must be a UUID", nil)
			return
		}
		c.Set(requesterContextKey, id)
		c.Next()
	}
}

func GetRequesterID(c *gin.Context) (uuid.UUID, bool) {
	v, exists := c.Get(requesterContextKey)
	if !exists {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}
