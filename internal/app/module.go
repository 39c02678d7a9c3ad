package app

import (
	"time"

	"go.uber.org/fx"

	"github.com/fatflowers/giveledger/internal/app/api/server"
	"github.com/fatflowers/giveledger/internal/app/service/aggregate"
	"github.com/fatflowers/giveledger/internal/app/service/ledger"
	notificationhandler "github.com/fatflowers/giveledger/internal/app/service/notification_handler"
	notificationlog "github.com/fatflowers/giveledger/internal/app/service/notification_log"
	"github.com/fatflowers/giveledger/internal/app/service/paymentsession"
	"github.com/fatflowers/giveledger/internal/app/service/popularity"
	"github.com/fatflowers/giveledger/internal/app/service/rating"
	"github.com/fatflowers/giveledger/internal/app/service/receipt"
	"github.com/fatflowers/giveledger/internal/app/service/scheduler"
	"github.com/fatflowers/giveledger/internal/app/service/statistics"
	"github.com/fatflowers/giveledger/internal/platform/archive"
	"github.com/fatflowers/giveledger/internal/platform/db"
	"github.com/fatflowers/giveledger/internal/platform/mail"
	"github.com/fatflowers/giveledger/internal/store/gormstore"
	"github.com/fatflowers/giveledger/pkg/config"
	"github.com/fatflowers/giveledger/pkg/logger"
)

const (
	DefaultStartTimeout = 15 * time.Second
	DefaultStopTimeout  = 10 * time.Second
)

// Core is everything except the HTTP surface. The operator CLI builds on it.
var Core = fx.Options(
	logger.Module,
	config.Module,
	db.Module,
	gormstore.Module,
	mail.Module,
	archive.Module,
	scheduler.Module,
	paymentsession.Module,
	ledger.Module,
	aggregate.Module,
	popularity.Module,
	rating.Module,
	receipt.Module,
	statistics.Module,
	notificationlog.Module,
	notificationhandler.Module,
)

var Module = fx.Options(
	Core,
	server.Module,
)
