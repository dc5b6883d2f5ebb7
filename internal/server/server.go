package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	actorpackdomain "github.com/actorhub/actorhub/internal/actorpack/domain"
	apikeydomain "github.com/actorhub/actorhub/internal/apikey/domain"
	auditdomain "github.com/actorhub/actorhub/internal/audit/domain"
	"github.com/actorhub/actorhub/internal/authorization"
	"github.com/actorhub/actorhub/internal/config"
	identitydomain "github.com/actorhub/actorhub/internal/identity/domain"
	licensedomain "github.com/actorhub/actorhub/internal/license/domain"
	listingdomain "github.com/actorhub/actorhub/internal/listing/domain"
	notificationdomain "github.com/actorhub/actorhub/internal/notification/domain"
	"github.com/actorhub/actorhub/internal/observability"
	obslogger "github.com/actorhub/actorhub/internal/observability/logger"
	obsmetrics "github.com/actorhub/actorhub/internal/observability/metrics"
	obstracing "github.com/actorhub/actorhub/internal/observability/tracing"
	payoutdomain "github.com/actorhub/actorhub/internal/payout/domain"
	"github.com/actorhub/actorhub/internal/ratelimit"
	"github.com/actorhub/actorhub/internal/reconcile"
	subscriptiondomain "github.com/actorhub/actorhub/internal/subscription/domain"
	transactiondomain "github.com/actorhub/actorhub/internal/transaction/domain"
	usagedomain "github.com/actorhub/actorhub/internal/usage/domain"
	"github.com/actorhub/actorhub/internal/usage/liveevents"
	userdomain "github.com/actorhub/actorhub/internal/user/domain"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Module serves every route group. Domain modules are supplied by the binary.
var Module = fx.Module("http.server",
	fx.Provide(NewEngine),
	fx.Provide(NewServer),
	fx.Invoke(func(s *Server) {
		s.RegisterAPIRoutes()
		s.RegisterAdminRoutes()
	}),
	fx.Invoke(RunHTTP),
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

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func RunHTTP(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal("http server stopped", zap.Error(err))
				}
			}()
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
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
	engine *gin.Engine
	cfg    config.Config
	db     *gorm.DB
	log    *zap.Logger

	userSvc         userdomain.Service
	identitySvc     identitydomain.Service
	listingSvc      listingdomain.Service
	actorPackSvc    actorpackdomain.Service
	licenseSvc      licensedomain.Service
	transactionSvc  transactiondomain.Service
	payoutSvc       payoutdomain.Service
	subscriptionSvc subscriptiondomain.Service
	usageSvc        usagedomain.Service
	apiKeySvc       apikeydomain.Service
	notificationSvc notificationdomain.Service
	auditSvc        auditdomain.Service
	authzSvc        authorization.Service
	reconciler      *reconcile.Service

	liveUsageEvents *liveevents.Hub
	usageLimiter    *ratelimit.UsageIngestLimiter
	obsMetrics      *obsmetrics.Metrics
}

type ServerParams struct {
	fx.In

	Gin *gin.Engine
	Cfg config.Config
	DB  *gorm.DB
	Log *zap.Logger

	UserSvc         userdomain.Service
	IdentitySvc     identitydomain.Service
	ListingSvc      listingdomain.Service
	ActorPackSvc    actorpackdomain.Service
	LicenseSvc      licensedomain.Service
	TransactionSvc  transactiondomain.Service
	PayoutSvc       payoutdomain.Service
	SubscriptionSvc subscriptiondomain.Service
	UsageSvc        usagedomain.Service
	APIKeySvc       apikeydomain.Service
	NotificationSvc notificationdomain.Service
	AuditSvc        auditdomain.Service
	AuthzSvc        authorization.Service
	Reconciler      *reconcile.Service

	LiveUsageEvents *liveevents.Hub               `optional:"true"`
	UsageLimiter    *ratelimit.UsageIngestLimiter `optional:"true"`
	ObsMetrics      *obsmetrics.Metrics           `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	return &Server{
		engine:          p.Gin,
		cfg:             p.Cfg,
		db:              p.DB,
		log:             p.Log.Named("http.server"),
		userSvc:         p.UserSvc,
		identitySvc:     p.IdentitySvc,
		listingSvc:      p.ListingSvc,
		actorPackSvc:    p.ActorPackSvc,
		licenseSvc:      p.LicenseSvc,
		transactionSvc:  p.TransactionSvc,
		payoutSvc:       p.PayoutSvc,
		subscriptionSvc: p.SubscriptionSvc,
		usageSvc:        p.UsageSvc,
		apiKeySvc:       p.APIKeySvc,
		notificationSvc: p.NotificationSvc,
		auditSvc:        p.AuditSvc,
		authzSvc:        p.AuthzSvc,
		reconciler:      p.Reconciler,
		liveUsageEvents: p.LiveUsageEvents,
		usageLimiter:    p.UsageLimiter,
		obsMetrics:      p.ObsMetrics,
	}
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// RegisterAPIRoutes mounts the surface used by the application server and
// API key holders.
func (s *Server) RegisterAPIRoutes() {
	api := s.engine.Group("/api", s.APIKeyRequired())
	authz := s.Authorize

	// -------- Users --------
	api.GET("/users/me", s.GetCurrentUser)
	api.POST("/users", authz(authorization.ObjectUser, authorization.ActionCreate), s.CreateUser)
	api.GET("/users/:id", authz(authorization.ObjectUser, authorization.ActionView), s.GetUser)
	api.PATCH("/users/:id", authz(authorization.ObjectUser, authorization.ActionUpdate), s.UpdateUser)
	api.DELETE("/users/:id", authz(authorization.ObjectUser, authorization.ActionDelete), s.DeleteUser)
	api.GET("/users/:id/identities", authz(authorization.ObjectIdentity, authorization.ActionView), s.ListUserIdentities)
	api.GET("/users/:id/payouts", authz(authorization.ObjectPayout, authorization.ActionView), s.ListUserPayouts)
	api.GET("/users/:id/transactions", authz(authorization.ObjectTransaction, authorization.ActionView), s.ListUserTransactions)
	api.GET("/users/:id/subscriptions", authz(authorization.ObjectSubscription, authorization.ActionView), s.ListUserSubscriptions)
	api.GET("/users/:id/subscriptions/active", authz(authorization.ObjectSubscription, authorization.ActionView), s.GetActiveSubscription)

	// -------- Identities --------
	api.POST("/identities", authz(authorization.ObjectIdentity, authorization.ActionCreate), s.CreateIdentity)
	api.GET("/identities/:id", authz(authorization.ObjectIdentity, authorization.ActionView), s.GetIdentity)
	api.PATCH("/identities/:id", authz(authorization.ObjectIdentity, authorization.ActionUpdate), s.UpdateIdentity)
	api.DELETE("/identities/:id", authz(authorization.ObjectIdentity, authorization.ActionDelete), s.DeleteIdentity)
	api.GET("/identities/:id/licenses", authz(authorization.ObjectLicense, authorization.ActionView), s.ListIdentityLicenses)
	api.GET("/identities/:id/usage/live", authz(authorization.ObjectUsage, authorization.ActionView), s.StreamUsageLiveEvents)

	// -------- Listings --------
	api.POST("/listings", authz(authorization.ObjectListing, authorization.ActionCreate), s.CreateListing)
	api.GET("/listings/:id", authz(authorization.ObjectListing, authorization.ActionView), s.GetListing)
	api.POST("/listings/:id/activate", authz(authorization.ObjectListing, authorization.ActionUpdate), s.ActivateListing)
	api.POST("/listings/:id/deactivate", authz(authorization.ObjectListing, authorization.ActionUpdate), s.DeactivateListing)

	// -------- Actor packs --------
	api.POST("/actor_packs", authz(authorization.ObjectActorPack, authorization.ActionCreate), s.CreateActorPack)
	api.GET("/actor_packs/:id", authz(authorization.ObjectActorPack, authorization.ActionView), s.GetActorPack)
	api.PUT("/actor_packs/:id/availability", authz(authorization.ObjectActorPack, authorization.ActionUpdate), s.SetActorPackAvailability)

	// -------- Licenses --------
	api.POST("/licenses", authz(authorization.ObjectLicense, authorization.ActionCreate), s.CreateLicense)
	api.GET("/licenses/:id", authz(authorization.ObjectLicense, authorization.ActionView), s.GetLicense)
	api.POST("/licenses/:id/deactivate", authz(authorization.ObjectLicense, authorization.ActionUpdate), s.DeactivateLicense)

	// -------- Payouts --------
	api.POST("/payouts", authz(authorization.ObjectPayout, authorization.ActionCreate), s.RequestPayout)
	api.GET("/payouts/:id", authz(authorization.ObjectPayout, authorization.ActionView), s.GetPayout)

	// -------- Subscriptions --------
	api.POST("/subscriptions", authz(authorization.ObjectSubscription, authorization.ActionCreate), s.CreateSubscription)
	api.GET("/subscriptions/:id", authz(authorization.ObjectSubscription, authorization.ActionView), s.GetSubscription)
	api.POST("/subscriptions/:id/cancel", authz(authorization.ObjectSubscription, authorization.ActionUpdate), s.CancelSubscription)

	// -------- Usage --------
	api.POST("/usage", authz(authorization.ObjectUsage, authorization.ActionIngest), s.UsageIngestRateLimit(), s.RecordUsage)
	api.GET("/usage", authz(authorization.ObjectUsage, authorization.ActionView), s.ListUsage)

	// -------- API keys --------
	api.GET("/api_keys", authz(authorization.ObjectAPIKey, authorization.ActionView), s.ListAPIKeys)
	api.POST("/api_keys", authz(authorization.ObjectAPIKey, authorization.ActionCreate), s.CreateAPIKey)
	api.DELETE("/api_keys/:id", authz(authorization.ObjectAPIKey, authorization.ActionDelete), s.RevokeAPIKey)

	// -------- Notifications --------
	api.GET("/notifications", authz(authorization.ObjectNotification, authorization.ActionView), s.ListUnreadNotifications)
	api.POST("/notifications/:id/read", authz(authorization.ObjectNotification, authorization.ActionUpdate), s.MarkNotificationRead)
}

// RegisterAdminRoutes mounts operator endpoints: workflow transitions driven
// by back-office pipelines, purges, the audit trail and reconciliation.
func (s *Server) RegisterAdminRoutes() {
	admin := s.engine.Group("/admin", s.APIKeyRequired())
	authz := s.Authorize

	admin.POST("/users/:id/purge", authz(authorization.ObjectUser, authorization.ActionPurge), s.PurgeUser)
	admin.POST("/identities/:id/status", authz(authorization.ObjectIdentity, authorization.ActionManage), s.TransitionIdentityStatus)
	admin.POST("/identities/:id/purge", authz(authorization.ObjectIdentity, authorization.ActionPurge), s.PurgeIdentity)

	admin.POST("/actor_packs/:id/training", authz(authorization.ObjectActorPack, authorization.ActionManage), s.TransitionActorPackTraining)
	admin.PUT("/actor_packs/:id/progress", authz(authorization.ObjectActorPack, authorization.ActionManage), s.UpdateActorPackProgress)
	admin.PUT("/actor_packs/:id/quality", authz(authorization.ObjectActorPack, authorization.ActionManage), s.SetActorPackQuality)

	admin.PATCH("/licenses/:id", authz(authorization.ObjectLicense, authorization.ActionManage), s.UpdateLicense)

	admin.POST("/transactions", authz(authorization.ObjectTransaction, authorization.ActionCreate), s.RecordTransaction)
	admin.GET("/transactions/:id", authz(authorization.ObjectTransaction, authorization.ActionView), s.GetTransaction)
	admin.POST("/transactions/:id/status", authz(authorization.ObjectTransaction, authorization.ActionUpdate), s.UpdateTransactionStatus)

	admin.POST("/payouts/:id/status", authz(authorization.ObjectPayout, authorization.ActionManage), s.TransitionPayoutStatus)

	admin.POST("/subscriptions/:id/status", authz(authorization.ObjectSubscription, authorization.ActionManage), s.TransitionSubscriptionStatus)
	admin.PUT("/subscriptions/:id/limits", authz(authorization.ObjectSubscription, authorization.ActionManage), s.UpdateSubscriptionLimits)

	admin.POST("/notifications", authz(authorization.ObjectNotification, authorization.ActionCreate), s.CreateNotification)

	admin.GET("/audit_logs", authz(authorization.ObjectAuditLog, authorization.ActionView), s.ListAuditLogs)

	admin.GET("/reconcile/drift", authz(authorization.ObjectReconcile, authorization.ActionView), s.DetectDrift)
	admin.POST("/reconcile/run", authz(authorization.ObjectReconcile, authorization.ActionRun), s.RunReconcile)
	admin.POST("/reconcile/:counter/run", authz(authorization.ObjectReconcile, authorization.ActionRun), s.RunReconcileCounter)

	if !s.cfg.IsProduction() {
		admin.POST("/test/cleanup", authz(authorization.ObjectUser, authorization.ActionPurge), s.TestCleanup)
	}
}
