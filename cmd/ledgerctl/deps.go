package main

import (
	"fmt"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/fatflowers/giveledger/internal/app"
	"github.com/fatflowers/giveledger/internal/app/service/aggregate"
	"github.com/fatflowers/giveledger/internal/app/service/scheduler"
	"github.com/fatflowers/giveledger/internal/platform/db"
)

type deps struct {
	Log       *zap.SugaredLogger
	Aggregate *aggregate.Service
	Scheduler *scheduler.Scheduler
	DB        *gorm.DB
}

// withDeps builds the service graph without starting it, so no HTTP
// listener or scheduler worker runs alongside the command.
func withDeps(fn func(d *deps) error) error {
	var d deps
	a := fx.New(
		app.Core,
		fx.NopLogger,
		fx.Populate(&d.Log, &d.Aggregate, &d.Scheduler, &d.DB),
	)
	if err := a.Err(); err != nil {
		return fmt.Errorf("failed to build services: %w", err)
	}
	defer func() {
		if err := db.Close(d.DB); err != nil {
			d.Log.Warnw("close database failed", "err", err)
		}
		_ = d.Log.Sync()
	}()
	return fn(&d)
}
