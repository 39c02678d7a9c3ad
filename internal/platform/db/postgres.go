package db

import (
	"context"
	"errors"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/fatflowers/giveledger/internal/models"
	cfgpkg "github.com/fatflowers/giveledger/pkg/config"
	gormzap "github.com/fatflowers/giveledger/pkg/gormlog"
)

var ErrEmptyDSN = errors.New("database DSN is empty")

// Open connects to postgres. TranslateError maps unique violations to
// gorm.ErrDuplicatedKey, which the store relies on for idempotent inserts.
func Open(l *zap.SugaredLogger, cfg *cfgpkg.Config) (*gorm.DB, error) {
	if cfg.Database.DSN == "" {
		l.Error("database DSN is empty")
		return nil, ErrEmptyDSN
	}
	db, err := gorm.Open(postgres.Open(cfg.Database.DSN), &gorm.Config{
		Logger:         gormzap.New(l, cfg.Database.SlowThreshold, !cfg.IsProd()),
		TranslateError: true,
	})
	if err != nil {
		l.Errorf("failed to connect database: %v", err)
		return nil, err
	}
	l.Infow("connected to postgres via DSN")
	return db, nil
}

var Module = fx.Options(
	fx.Provide(Open),
	fx.Invoke(AutoMigrate),
	fx.Invoke(registerDBClose),
)

// Models lists every table the service owns, in migration order.
func Models() []any {
	return []any{
		&models.User{},
		&models.Donor{},
		&models.Organization{},
		&models.Campaign{},
		&models.PaymentSession{},
		&models.Donation{},
		&models.CascadeApplication{},
		&models.Rating{},
		&models.Receipt{},
		&models.Task{},
		&models.PaymentNotificationLog{},
	}
}

// AutoMigrate runs GORM migrations on startup
func AutoMigrate(l *zap.SugaredLogger, db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		l.Errorf("automigrate failed: %v", err)
		return err
	}
	l.Infow("automigrate completed")
	return nil
}

// Close closes the underlying pool. Used by the CLI, which runs outside fx.
func Close(gdb *gorm.DB) error {
	sqlDB, err := gdb.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// registerDBClose ensures the underlying *sql.DB is closed on shutdown
func registerDBClose(lc fx.Lifecycle, l *zap.SugaredLogger, gdb *gorm.DB) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			l.Infow("closing postgres connection pool")
			if err := Close(gdb); err != nil {
				l.Warnw("gorm: close sql.DB failed", "err", err)
			}
			return nil
		},
	})
}
