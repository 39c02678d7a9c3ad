package scheduler

import (
	"context"

	"go.uber.org/fx"
)

func registerLifecycle(lc fx.Lifecycle, s *Scheduler) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			s.Start()
			return nil
		},
		OnStop: s.Stop,
	})
}

// Module exposes the scheduler via Fx. Services register their handlers
// with fx.Invoke before the lifecycle starts the workers.
var Module = fx.Options(
	fx.Provide(New),
	fx.Invoke(registerLifecycle),
)
