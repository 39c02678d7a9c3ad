package logger

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/fatflowers/giveledger/pkg/config"
)

func New(cfg *config.Config) (*zap.SugaredLogger, error) {
	zc := zap.NewProductionConfig()
	if cfg != nil && !cfg.IsProd() {
		zc.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zc.EncoderConfig.TimeKey = "time"
	l, err := zc.Build()
	if err != nil {
		return nil, err
	}
	return l.Sugar().With("service", "giveledger"), nil
}

// registerSync flushes buffered log entries on shutdown.
func registerSync(lc fx.Lifecycle, l *zap.SugaredLogger) {
	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			_ = l.Sync()
			return nil
		},
	})
}

var Module = fx.Options(
	fx.Provide(New),
	fx.Invoke(registerSync),
)
