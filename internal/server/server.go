package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/milkround/milkround/internal/auth"
	authdomain "github.com/milkround/milkround/internal/auth/domain"
	"github.com/milkround/milkround/internal/billing"
	billingdomain "github.com/milkround/milkround/internal/billing/domain"
	"github.com/milkround/milkround/internal/config"
	"github.com/milkround/milkround/internal/customer"
	customerdomain "github.com/milkround/milkround/internal/customer/domain"
	"github.com/milkround/milkround/internal/delivery"
	deliverydomain "github.com/milkround/milkround/internal/delivery/domain"
	"github.com/milkround/milkround/internal/export"
	exportdomain "github.com/milkround/milkround/internal/export/domain"
	obsmiddleware "github.com/milkround/milkround/internal/observability/logger"
	obsmetrics "github.com/milkround/milkround/internal/observability/metrics"
	"github.com/milkround/milkround/internal/providers/pdf"
	"github.com/milkround/milkround/internal/summary"
	summarydomain "github.com/milkround/milkround/internal/summary/domain"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	auth.Module,
	customer.Module,
	delivery.Module,
	billing.Module,
	summary.Module,
	export.Module,
	pdf.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(httpMetrics)
}

func run(lc fx.Lifecycle, log *zap.Logger, cfg config.Config, r *gin.Engine) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("http server starting", zap.String("addr", cfg.HTTPAddr))
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal("http server failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine     *gin.Engine
	cfg        config.Config
	db         *gorm.DB
	genID      *snowflake.Node
	authsvc    authdomain.Service
	customers  customerdomain.Service
	deliveries deliverydomain.Service
	billingSvc billingdomain.Service
	summaries  summarydomain.Service
	exports    exportdomain.Service
	pdfs       pdf.Provider
}

type ServerParams struct {
	fx.In

	Gin        *gin.Engine
	Cfg        config.Config
	DB         *gorm.DB
	GenID      *snowflake.Node
	Authsvc    authdomain.Service
	Customers  customerdomain.Service
	Deliveries deliverydomain.Service
	BillingSvc billingdomain.Service
	Summaries  summarydomain.Service
	Exports    exportdomain.Service
	PDFs       pdf.Provider
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:     p.Gin,
		cfg:        p.Cfg,
		db:         p.DB,
		genID:      p.GenID,
		authsvc:    p.Authsvc,
		customers:  p.Customers,
		deliveries: p.Deliveries,
		billingSvc: p.BillingSvc,
		summaries:  p.Summaries,
		exports:    p.Exports,
		pdfs:       p.PDFs,
	}

	svc.registerAuthRoutes()
	svc.registerCustomerRoutes()
	svc.registerDeliveryRoutes()
	svc.registerSummaryRoutes()
	svc.registerBillRoutes()
	svc.registerExportRoutes()

	return svc
}
