package gormlog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"
)

func TestShortCaller(t *testing.T) {
	require.Equal(t, "internal/store/gormstore/donation.go:38", shortCaller("/srv/app/internal/store/gormstore/donation.go:38"))
	require.Equal(t, "pkg/x/y.go:12", shortCaller(`/home/dev/repo/pkg/x/y.go:12`))
	require.Equal(t, "a/b/c.go:1", shortCaller("/x/y/a/b/c.go:1"))
	require.Equal(t, "", shortCaller(""))
}

func TestNew_LevelsAndDefaults(t *testing.T) {
	l := New(zap.NewNop().Sugar(), 0, false)
	require.Equal(t, 500*time.Millisecond, l.config.SlowThreshold)
	require.Equal(t, gormlogger.Warn, l.config.LogLevel)

	verbose := New(zap.NewNop().Sugar(), time.Second, true)
	require.Equal(t, gormlogger.Info, verbose.config.LogLevel)

	silent := verbose.LogMode(gormlogger.Silent).(*ZapLogger)
	require.Equal(t, gormlogger.Silent, silent.config.LogLevel)
	require.Equal(t, gormlogger.Info, verbose.config.LogLevel)
}
