package bootstrap

import (
	"context"
	"log/slog"
	"time"

	"go.uber.org/fx"

	"fleetbook/internal/domain/schedule"
	"fleetbook/internal/pkg/clock"
	"fleetbook/internal/pkg/config"
	"fleetbook/internal/usecase/commands"
)

var WorkersModule = fx.Module("workers",
	fx.Invoke(
		RebuildIndexOnStart,
		StartSweeper,
	),
)

// RebuildIndexOnStart restores the interval index from storage before the
// server accepts traffic. A failed rebuild fails the boot.
func RebuildIndexOnStart(lc fx.Lifecycle, bookings commands.BookingRepository, index *schedule.Index, logger *slog.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return commands.RebuildIndex(ctx, bookings, index, logger)
		},
	})
}

// StartSweeper runs the no-show sweep, hold expiry and idempotency key
// purge on a fixed interval.
func StartSweeper(lc fx.Lifecycle, lifecycle commands.BookingCommands, idempotency commands.IdempotencyRepository, index *schedule.Index, cfg config.BookingConfig, clk clock.Clock, logger *slog.Logger) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			go func() {
				defer close(done)
				ticker := time.NewTicker(cfg.SweepInterval)
				defer ticker.Stop()
				for {
					select {
					case <-ctx.Done():
						return
					case <-ticker.C:
						index.PruneExpired(clk.Now())
						if purged, err := idempotency.DeleteExpired(ctx, clk.Now()); err != nil {
							logger.Error("idempotency key purge failed", "error", err)
						} else if purged > 0 {
							logger.Info("purged expired idempotency keys", "count", purged)
						}
						swept, err := lifecycle.SweepNoShows(ctx)
						if err != nil {
							logger.Error("no-show sweep failed", "error", err)
							continue
						}
						if swept > 0 {
							logger.Info("no-show sweep completed", "swept", swept)
						}
					}
				}
			}()
			return nil
		},
		OnStop: func(_ context.Context) error {
			cancel()
			<-done
			return nil
		},
	})
}
