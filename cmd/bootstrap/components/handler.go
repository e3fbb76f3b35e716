package components

import (
	"go.uber.org/fx"

	"fleetbook/internal/handler"
	"fleetbook/internal/handler/api"
)

var HandlerModule = fx.Module("handler",
	fx.Provide(
		api.NewBookingHandler,
		api.NewAvailabilityHandler,
	),
	fx.Invoke(handler.NewRouter),
)
