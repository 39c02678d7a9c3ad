package receipt

import (
	"go.uber.org/fx"

	"github.com/fatflowers/giveledger/internal/app/service/scheduler"
	"github.com/fatflowers/giveledger/pkg/types"
)

func registerTasks(s *scheduler.Scheduler, svc *Service) {
	s.Register(types.TaskReceiptGenerate, svc.HandleGenerate)
}

var Module = fx.Options(
	fx.Provide(NewService),
	fx.Invoke(registerTasks),
)
