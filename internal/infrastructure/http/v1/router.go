// Package v1 provides HTTP API version 1.
package v1

import (
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"

	"ordercore/internal/core/security"
	"ordercore/internal/domain/documents/commercial"
	"ordercore/internal/infrastructure/http/v1/dto"
	"ordercore/internal/infrastructure/http/v1/handlers"
	"ordercore/internal/infrastructure/http/v1/middleware"
	"ordercore/internal/infrastructure/storage/postgres"
	"ordercore/pkg/logger"
)

// RouterConfig holds router configuration.
type RouterConfig struct {
	// Service runs every document operation
	Service *commercial.Service

	// Pool is used by readiness checks. Nil when running on the memory store.
	Pool *postgres.Pool

	// Logger for request logging
	Logger *logger.Logger

	// JWTValidator for token validation
	JWTValidator middleware.JWTValidator

	// AuthRequired rejects anonymous calls and enforces permissions
	AuthRequired bool

	// History serves GET /documents/:id/history. Nil leaves the route out.
	History commercial.HistoryReader

	// PaymentLimiter throttles ledger writes. Nil disables throttling.
	PaymentLimiter *limiter.Limiter

	// CORSOrigins lists allowed origins; "*" allows any
	CORSOrigins []string

	// Development keeps gin in debug mode
	Development bool
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Development {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Default()
	}
	if err := dto.RegisterValidators(); err != nil {
		panic(err)
	}

	router := gin.New()

	// Global middleware (order matters: the error renderer must wrap recovery)
	router.Use(corsMiddleware(cfg.CORSOrigins))
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.Recovery())

	base := handlers.NewBaseHandler()

	healthHandler := handlers.NewHealthHandler(cfg.Pool)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
	}

	v1 := router.Group("/api/v1")
	if cfg.AuthRequired {
		v1.Use(middleware.Auth(cfg.JWTValidator))
	} else {
		v1.Use(middleware.OptionalAuth(cfg.JWTValidator))
	}

	registerComputeRoutes(v1, base, cfg)
	registerDocumentRoutes(v1, base, cfg)

	return router
}

func registerComputeRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	compute := handlers.NewComputeHandler(base, cfg.Service.Policies())
	lifecycle := handlers.NewLifecycleHandler(base)

	rg.POST("/compute/line", compute.Line)
	rg.POST("/compute/document", compute.Document)
	rg.GET("/lifecycle/transitions", lifecycle.Transitions)
}

func registerDocumentRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	h := handlers.NewDocumentHandler(base, cfg.Service)

	read := permission(cfg, security.PermissionDocumentsRead)
	write := permission(cfg, security.PermissionDocumentsWrite)
	pay := append(permission(cfg, security.PermissionPaymentsWrite), rateLimit(cfg)...)

	docs := rg.Group("/documents")
	{
		docs.GET("", with(read, h.List)...)
		docs.POST("", with(write, h.Create)...)
		docs.GET("/:id", with(read, h.Get)...)
		docs.PUT("/:id", with(write, h.Update)...)
		docs.POST("/:id/transition", with(write, h.Transition)...)
		docs.GET("/:id/actions", with(read, h.Actions)...)
		docs.GET("/:id/position", with(read, h.Position)...)
		docs.POST("/:id/payments", with(pay, h.RecordPayment)...)
		docs.POST("/:id/payments/:paymentId/reverse", with(pay, h.ReversePayment)...)
		docs.POST("/:id/advance-transfer", with(pay, h.TransferAdvance)...)
	}

	if cfg.History != nil {
		history := handlers.NewHistoryHandler(base, cfg.Service, cfg.History)
		docs.GET("/:id/history", with(read, history.List)...)
	}
}

func with(mw []gin.HandlerFunc, h gin.HandlerFunc) []gin.HandlerFunc {
	return append(slices.Clip(mw), h)
}

// permission returns the permission check when auth is enforced.
func permission(cfg RouterConfig, perm security.Permission) []gin.HandlerFunc {
	if !cfg.AuthRequired {
		return nil
	}
	return []gin.HandlerFunc{middleware.RequirePermission(perm)}
}

func rateLimit(cfg RouterConfig) []gin.HandlerFunc {
	if cfg.PaymentLimiter == nil {
		return nil
	}
	return []gin.HandlerFunc{middleware.RateLimit(cfg.PaymentLimiter)}
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", handlers.HeaderIdempotencyKey, middleware.HeaderRequestID, middleware.HeaderTraceID},
		ExposeHeaders:    []string{"Content-Length", middleware.HeaderRequestID, middleware.HeaderTraceID},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = origins
	}
	return cors.New(corsCfg)
}
