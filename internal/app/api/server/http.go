package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/fatflowers/giveledger/docs"
	"github.com/fatflowers/giveledger/internal/app/api/handlers"
	mw "github.com/fatflowers/giveledger/internal/app/api/middleware"
	"github.com/fatflowers/giveledger/internal/app/service/aggregate"
	nh "github.com/fatflowers/giveledger/internal/app/service/notification_handler"
	"github.com/fatflowers/giveledger/internal/app/service/paymentsession"
	"github.com/fatflowers/giveledger/internal/app/service/rating"
	"github.com/fatflowers/giveledger/internal/app/service/statistics"
	"github.com/fatflowers/giveledger/internal/store"
	cfgpkg "github.com/fatflowers/giveledger/pkg/config"
	metrics "github.com/fatflowers/giveledger/pkg/metrics"
)

func newEngine(cfg *cfgpkg.Config) *gin.Engine {
	if cfg.IsProd() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	// Add request tracing middleware only; request logger & access log are attached per group in registerRoutes
	r.Use(mw.TraceMiddleware())
	return r
}

type routeParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Engine    *gin.Engine
	Log       *zap.SugaredLogger
	Config    *cfgpkg.Config
	Store     store.Store
	Notif     *nh.NotificationHandler
	Sessions  *paymentsession.Service
	Rating    *rating.Service
	Aggregate *aggregate.Service
	Stats     *statistics.Service
}

func registerRoutes(p routeParams) {
	r, log, cfg := p.Engine, p.Log, p.Config

	// Prometheus metrics
	if cfg.MetricsAddr != "" {
		prom := metrics.NewPrometheus(metrics.NewPrometheusOptions{
			ReqCntURLLabelMappingFn: func(c *gin.Context) string {
				if fp := c.FullPath(); fp != "" {
					return fp
				}
				return c.Request.URL.Path
			},
			Logger: log,
		})
		if srv := prom.Use(r, cfg.MetricsAddr); srv != nil {
			serve(p.Lifecycle, log, "metrics", srv)
		}
	}

	// Public group: request logger + access log
	pub := r.Group("/")
	pub.Use(mw.RequestLoggerMiddleware(log), mw.AccessLogMiddleware())
	handlers.RegisterHealthRoutes(pub)
	// Swagger UI
	docs.SwaggerInfo.BasePath = "/"
	pub.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	apiV1 := r.Group("/api/v1")
	apiV1.Use(mw.RequestLoggerMiddleware(log), mw.AccessLogMiddleware(), mw.RateLimitMiddleware(cfg.RateLimit))

	// Payment relay callbacks authenticate with the shared secret, not a user token.
	webhook := apiV1.Group("/payment/webhook")
	webhook.Use(mw.WebhookTokenMiddleware(cfg.Webhook.Secret))
	handlers.RegisterPaymentWebhookRoutes(webhook, p.Notif)

	handlers.RegisterPublicStatsRoutes(apiV1, p.Store)

	authed := apiV1.Group("")
	authed.Use(mw.AuthMiddleware(cfg, p.Store, log))
	handlers.RegisterPaymentRoutes(authed.Group("/payment"), p.Sessions)
	handlers.RegisterRatingRoutes(authed, p.Rating)
	handlers.RegisterDonorRoutes(authed, p.Store)

	// Admin APIs sit behind the operator's network boundary.
	handlers.RegisterAdminRoutes(apiV1.Group("/admin"), p.Store, p.Stats, p.Aggregate)
}

func serve(lc fx.Lifecycle, log *zap.SugaredLogger, name string, srv *http.Server) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Infow("starting "+name+" server", "addr", srv.Addr)
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Errorf("%s server error: %v", name, err)
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Infow("stopping " + name + " server")
			shutdownCtx, cancel := context.WithTimeout(ctx, 120*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

func runServer(lc fx.Lifecycle, log *zap.SugaredLogger, cfg *cfgpkg.Config, r *gin.Engine) {
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	serve(lc, log, "HTTP", &http.Server{Addr: addr, Handler: r, ReadHeaderTimeout: 5 * time.Second})
}

var Module = fx.Options(
	fx.Provide(newEngine),
	fx.Invoke(registerRoutes),
	fx.Invoke(runServer),
)
