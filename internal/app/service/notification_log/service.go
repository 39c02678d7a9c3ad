package notification_log

import (
	"context"
	"sync"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/fatflowers/giveledger/internal/models"
	"github.com/fatflowers/giveledger/internal/store"
	"github.com/fatflowers/giveledger/pkg/logctx"
	"github.com/fatflowers/giveledger/pkg/tool"
)

type Service struct {
	store store.Store
	log   *zap.SugaredLogger
	wg    sync.WaitGroup
}

func New(st store.Store, log *zap.SugaredLogger) *Service { return &Service{store: st, log: log} }

// Save asynchronously persists a payment notification log. Nil input is ignored.
func (s *Service) Save(ctx context.Context, log *models.PaymentNotificationLog) {
	if log == nil {
		return
	}
	if log.ID == "" {
		log.ID = tool.GenerateUUIDV7()
	}
	lg := logctx.FromCtx(ctx, s.log)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		// the request context is gone once the handler returns
		if err := s.store.SaveNotificationLog(context.WithoutCancel(ctx), log); err != nil {
			lg.Errorf("failed to save notification log: %v", err)
		}
	}()
}

// Wait blocks until pending saves have finished.
func (s *Service) Wait() { s.wg.Wait() }

func registerFlush(lc fx.Lifecycle, s *Service) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			done := make(chan struct{})
			go func() { s.Wait(); close(done) }()
			select {
			case <-done:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		},
	})
}

var Module = fx.Options(
	fx.Provide(New),
	fx.Invoke(registerFlush),
)
