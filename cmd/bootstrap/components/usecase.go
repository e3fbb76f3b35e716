package components

import (
	"log/slog"

	"go.uber.org/fx"

	"fleetbook/internal/domain/booking"
	"fleetbook/internal/domain/schedule"
	"fleetbook/internal/infra/payment"
	"fleetbook/internal/pkg/clock"
	"fleetbook/internal/pkg/keymutex"
	"fleetbook/internal/usecase/commands"
	"fleetbook/internal/usecase/queries"
)

var UseCaseModule = fx.Module("usecase",
	usecaseBaseOption,
	usecaseCommandsModule,
	usecaseQueriesModule,
)

var usecaseBaseOption = fx.Provide(
	clock.NewRealClock,
	keymutex.New,
	schedule.NewIndex,
	booking.NewFactory,
	fx.Annotate(
		func(logger *slog.Logger) *payment.OfflineGateway {
			return payment.NewOfflineGateway(logger)
		},
		fx.As(new(commands.PaymentGateway)),
	),
)

var usecaseCommandsModule = fx.Module("usecase/commands",
	fx.Provide(
		commands.NewReservationCommands,
		commands.NewBookingCommands,
	),
)

var usecaseQueriesModule = fx.Module("usecase/queries",
	fx.Provide(
		queries.NewBookingQueries,
		queries.NewAvailabilityQueries,
	),
)
