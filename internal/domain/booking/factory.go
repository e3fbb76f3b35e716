package booking

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"

	"fleetbook/internal/domain/pricing"
	"fleetbook/internal/domain/schedule"
	"fleetbook/internal/pkg/clock"
)

// Factory creates bookings in the Requested state with a fresh human
// reference. Pricing happens before the factory runs; the breakdown comes
// in as a finished snapshot.
type Factory struct {
	clock clock.Clock
}

func NewFactory(c clock.Clock) *Factory {
	return &Factory{clock: c}
}

func (f *Factory) CreateBooking(vehicleID, requesterID uuid.UUID, w schedule.Window, bd pricing.Breakdown, actor string) *Booking {
	now := f.clock.Now()
	return newBooking(uuid.New(), newReference(now), vehicleID, requesterID, w, bd, actor, now)
}

// newReference builds a "BK" + yymmdd + 4 random digits booking reference.
// Uniqueness is enforced by the storage layer; the random suffix only keeps
// collisions rare within a day.
func newReference(now time.Time) string {
	n, err := rand.Int(rand.Reader, big.NewInt(10000))
	suffix := int64(0)
	if err == nil {
		suffix = n.Int64()
	}
	return fmt.Sprintf("BK%s%04d", now.Format("060102"), suffix)
}
