package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/ppmp/internal/audit"
	auditdomain "github.com/smallbiznis/ppmp/internal/audit/domain"
	"github.com/smallbiznis/ppmp/internal/auth"
	authdomain "github.com/smallbiznis/ppmp/internal/auth/domain"
	"github.com/smallbiznis/ppmp/internal/auth/session"
	"github.com/smallbiznis/ppmp/internal/authorization"
	"github.com/smallbiznis/ppmp/internal/config"
	"github.com/smallbiznis/ppmp/internal/disbursement"
	disbursementdomain "github.com/smallbiznis/ppmp/internal/disbursement/domain"
	"github.com/smallbiznis/ppmp/internal/export"
	"github.com/smallbiznis/ppmp/internal/notification"
	notificationdomain "github.com/smallbiznis/ppmp/internal/notification/domain"
	"github.com/smallbiznis/ppmp/internal/observability"
	obslogger "github.com/smallbiznis/ppmp/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/ppmp/internal/observability/metrics"
	obstracing "github.com/smallbiznis/ppmp/internal/observability/tracing"
	"github.com/smallbiznis/ppmp/internal/ppmp"
	ppmpdomain "github.com/smallbiznis/ppmp/internal/ppmp/domain"
	"github.com/smallbiznis/ppmp/internal/purchaserequest"
	purchasedomain "github.com/smallbiznis/ppmp/internal/purchaserequest/domain"
	"github.com/smallbiznis/ppmp/internal/ratelimit"
	"github.com/smallbiznis/ppmp/internal/reference"
	referencedomain "github.com/smallbiznis/ppmp/internal/reference/domain"
	"github.com/smallbiznis/ppmp/internal/reporting"
	reportingdomain "github.com/smallbiznis/ppmp/internal/reporting/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	authorization.Module,
	audit.Module,
	auth.Module,
	notification.Module,
	reference.Module,
	ratelimit.Module,
	ppmp.Module,
	disbursement.Module,
	purchaserequest.Module,
	reporting.Module,
	export.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obslogger.GinMiddleware(obslogger.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	addr := cfg.HTTPAddr
	if addr == "" {
		addr = ":8080"
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Info("http server listening", zap.String("addr", addr))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal("http server stopped", zap.Error(err))
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
	engine          *gin.Engine
	cfg             config.Config
	authsvc         authdomain.Service
	sessions        *session.Manager
	ppmpSvc         ppmpdomain.Service
	disbursementSvc disbursementdomain.Service
	purchaseSvc     purchasedomain.Service
	reportingSvc    reportingdomain.Service
	auditSvc        auditdomain.Service
	notificationSvc notificationdomain.Service
	exportSvc       *export.Service
	refrepo         referencedomain.Repository
	limiter         *ratelimit.MutationLimiter
	obsMetrics      *obsmetrics.Metrics
}

type ServerParams struct {
	fx.In

	Gin             *gin.Engine
	Cfg             config.Config
	Authsvc         authdomain.Service
	Sessions        *session.Manager
	PPMPSvc         ppmpdomain.Service
	DisbursementSvc disbursementdomain.Service
	PurchaseSvc     purchasedomain.Service
	ReportingSvc    reportingdomain.Service
	AuditSvc        auditdomain.Service
	NotificationSvc notificationdomain.Service
	ExportSvc       *export.Service
	Refrepo         referencedomain.Repository
	Limiter         *ratelimit.MutationLimiter `optional:"true"`
	ObsMetrics      *obsmetrics.Metrics        `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:          p.Gin,
		cfg:             p.Cfg,
		authsvc:         p.Authsvc,
		sessions:        p.Sessions,
		ppmpSvc:         p.PPMPSvc,
		disbursementSvc: p.DisbursementSvc,
		purchaseSvc:     p.PurchaseSvc,
		reportingSvc:    p.ReportingSvc,
		auditSvc:        p.AuditSvc,
		notificationSvc: p.NotificationSvc,
		exportSvc:       p.ExportSvc,
		refrepo:         p.Refrepo,
		limiter:         p.Limiter,
		obsMetrics:      p.ObsMetrics,
	}

	svc.registerAPIRoutes()
	svc.registerFallback()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api", s.ActorRequired())

	api.GET("/me", s.Me)

	// -------- PPMP --------
	plans := api.Group("/ppmp")
	plans.GET("", s.ListPlans)
	plans.POST("", s.MutationRateLimit(), s.CreatePlan)
	plans.GET("/stats", s.GetStats)
	plans.GET("/recent", s.ListRecentPlans)
	plans.GET("/pending-approvals", s.ListPendingApprovals)
	plans.GET("/:id", s.GetPlan)
	plans.PATCH("/:id", s.MutationRateLimit(), s.UpdatePlan)
	plans.DELETE("/:id", s.MutationRateLimit(), s.DeletePlan)

	// -------- Lifecycle --------
	plans.POST("/:id/submit", s.MutationRateLimit(), s.SubmitPlan)
	plans.POST("/:id/approve", s.MutationRateLimit(), s.ApprovePlan)
	plans.POST("/:id/reject", s.MutationRateLimit(), s.RejectPlan)

	// -------- Items --------
	plans.GET("/:id/items", s.ListItems)
	plans.POST("/:id/items", s.MutationRateLimit(), s.CreateItem)
	plans.PATCH("/:id/items/:itemId", s.MutationRateLimit(), s.UpdateItem)
	plans.DELETE("/:id/items/:itemId", s.MutationRateLimit(), s.DeleteItem)

	// -------- Budget allocations --------
	plans.GET("/:id/budget", s.ListAllocations)
	plans.POST("/:id/budget", s.MutationRateLimit(), s.CreateAllocation)
	plans.PATCH("/:id/budget/:allocationId", s.MutationRateLimit(), s.UpdateAllocation)
	plans.DELETE("/:id/budget/:allocationId", s.MutationRateLimit(), s.DeleteAllocation)

	// -------- Procurement activities --------
	plans.GET("/:id/activities", s.ListActivities)
	plans.POST("/:id/activities", s.MutationRateLimit(), s.CreateActivity)
	plans.PATCH("/:id/activities/:activityId", s.MutationRateLimit(), s.UpdateActivity)
	plans.DELETE("/:id/activities/:activityId", s.MutationRateLimit(), s.DeleteActivity)

	// -------- Disbursement links --------
	plans.GET("/:id/disbursements", s.ListDisbursementLinks)
	plans.POST("/:id/disbursements", s.MutationRateLimit(), s.LinkDisbursement)
	plans.DELETE("/:id/disbursements/:linkId", s.MutationRateLimit(), s.UnlinkDisbursement)

	plans.GET("/:id/audit", s.ListPlanAuditLogs)
	plans.GET("/:id/export.pdf", s.ExportPlanPDF)

	// -------- Purchase requests --------
	purchases := api.Group("/purchase-requests")
	purchases.GET("", s.ListPurchaseRequests)
	purchases.POST("", s.MutationRateLimit(), s.CreatePurchaseRequest)
	purchases.GET("/:id", s.GetPurchaseRequest)
	purchases.PATCH("/:id", s.MutationRateLimit(), s.UpdatePurchaseRequest)
	purchases.DELETE("/:id", s.MutationRateLimit(), s.DeletePurchaseRequest)
	purchases.GET("/:id/products", s.ListPurchaseRequestProducts)
	purchases.POST("/:id/products", s.MutationRateLimit(), s.AddPurchaseRequestProduct)
	purchases.DELETE("/:id/products/:productId", s.MutationRateLimit(), s.RemovePurchaseRequestProduct)

	api.GET("/disbursements/search", s.SearchDisbursements)
	api.GET("/reports/ppmp", s.GetReport)

	api.GET("/notifications", s.ListNotifications)
	api.POST("/notifications/:id/read", s.MarkNotificationRead)

	api.GET("/departments", s.ListDepartments)
	api.GET("/products", s.ListProducts)
}

func (s *Server) registerFallback() {
	s.engine.NoRoute(func(c *gin.Context) {
		AbortWithError(c, ErrNotFound)
	})
}
