package bootstrap

import (
	"go.uber.org/fx"

	"fleetbook/internal/pkg/config"
)

var ConfigModule = fx.Module("config",
	fx.Provide(
		config.LoadConfig,
		func(cfg config.Config) config.BookingConfig { return cfg.Booking },
		func(cfg config.Config) config.EventsConfig { return cfg.Events },
	),
)
