package commands

import (
	"context"
	"log/slog"

	"fleetbook/internal/domain/schedule"
	"fleetbook/internal/pkg/errs"
)

// RebuildIndex restores the interval index from persisted blocking bookings.
// Runs once at startup, before the server accepts traffic. Overlapping
// persisted windows indicate storage corruption and fail the boot.
func RebuildIndex(ctx context.Context, bookings BookingRepository, index *schedule.Index, logger *slog.Logger) error {
	entries, err := bookings.ListBlocking(ctx)
	if err != nil {
		return errs.Wrap(err, "failed to load blocking bookings for index rebuild")
	}

	rejected := index.Rebuild(entries)
	if len(rejected) > 0 {
		for _, e := range rejected {
			logger.Error("persisted booking overlaps a committed window",
				"booking_id", e.BookingID, "vehicle_id", e.VehicleID, "window", e.Window.ToTstzrange())
		}
		return errs.Newf("interval index rebuild rejected %d overlapping bookings", len(rejected))
	}

	logger.Info("interval index rebuilt", "committed_windows", len(entries))
	return nil
}
