package paymentsession

import "go.uber.org/fx"

// Module exposes the payment session service via Fx.
var Module = fx.Options(
	fx.Provide(NewService),
)
