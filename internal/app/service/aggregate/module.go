package aggregate

import (
	"go.uber.org/fx"

	"github.com/fatflowers/giveledger/internal/app/service/scheduler"
	"github.com/fatflowers/giveledger/pkg/types"
)

func registerTasks(s *scheduler.Scheduler, svc *Service) {
	s.Register(types.TaskCascadeOrganization, svc.HandleCascadeOrganization)
	s.Register(types.TaskCascadeCampaign, svc.HandleCascadeCampaign)
}

// Module exposes the aggregate cascade service via Fx.
var Module = fx.Options(
	fx.Provide(NewService),
	fx.Invoke(registerTasks),
)
