package bootstrap

import (
	"context"
	"log/slog"

	"go.uber.org/fx"

	"fleetbook/internal/infra/events"
	"fleetbook/internal/pkg/config"
	"fleetbook/internal/usecase/commands"
)

var EventsModule = fx.Module("events",
	fx.Provide(
		NewEventPublisher,
	),
)

func NewEventPublisher(lc fx.Lifecycle, cfg config.EventsConfig, logger *slog.Logger) commands.EventPublisher {
	publisher := events.NewKafkaPublisher(cfg, logger)

	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			return publisher.Close()
		},
	})

	return publisher
}
