package bootstrap

import (
	"go.uber.org/fx"

	"fleetbook/cmd/bootstrap/components"
)

var Module = fx.Options(
	ConfigModule,
	DBModule,
	EventsModule,
	components.RepositoryModule,
	components.UseCaseModule,
	components.HandlerModule,
	WorkersModule,
)
