package router

import (
	"net/http"

	"github.com/crm/backend/internal/infrastructure/config"
	"github.com/crm/backend/internal/infrastructure/logger"
	"github.com/crm/backend/internal/interfaces/http/handler"
	"github.com/crm/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// Handlers bundles the HTTP handlers mounted by NewEngine
type Handlers struct {
	Customers *handler.CustomerHandler
	Orders    *handler.OrderHandler
	Campaigns *handler.CampaignHandler
	Auth      *handler.AuthHandler
	Health    *handler.HealthHandler
}

// MetricsExporter observes requests and serves the scrape endpoint
type MetricsExporter interface {
	middleware.HTTPObserver
	Handler() http.Handler
}

// Options configures NewEngine
type Options struct {
	Config   *config.Config
	Logger   *zap.Logger
	Sessions middleware.SessionResolver
	// Metrics may be nil; /metrics is then not served
	Metrics MetricsExporter
	// RateLimiter may be nil; requests are then not limited
	RateLimiter *middleware.RateLimiter
}

// NewEngine builds the gin engine with the middleware stack and every route
func NewEngine(opts Options, h Handlers) *gin.Engine {
	cfg := opts.Config
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Middleware order matters: request id first so every later layer can
	// log it, sessions before the span marker so user_id reaches the span.
	engine.Use(middleware.RequestID())
	engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     cfg.Telemetry.Enabled,
		SkipPaths:   []string{"/health", metricsPath(cfg)},
	}))
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORS(cfg.HTTP))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))
	if opts.RateLimiter != nil {
		engine.Use(middleware.RateLimit(opts.RateLimiter))
	}
	if opts.Metrics != nil {
		engine.Use(middleware.HTTPMetrics(middleware.HTTPMetricsConfig{
			Observer:  opts.Metrics,
			SkipPaths: []string{metricsPath(cfg)},
		}))
	}
	if cfg.Profiling.Enabled {
		engine.Use(middleware.Profiling())
	}
	engine.Use(middleware.SessionLoader(middleware.SessionConfig{
		Resolver:   opts.Sessions,
		CookieName: cfg.Session.CookieName,
		Logger:     log,
	}))
	if cfg.Telemetry.Enabled {
		engine.Use(middleware.SpanErrorMarker())
	}

	engine.GET("/health", h.Health.Health)
	if opts.Metrics != nil {
		engine.GET(metricsPath(cfg), gin.WrapH(opts.Metrics.Handler()))
	}

	// Swagger documentation endpoint
	engine.GET("/swagger/*any",
		middleware.SwaggerProtection(middleware.SwaggerConfig{
			Enabled:     cfg.Swagger.Enabled,
			RequireAuth: cfg.Swagger.RequireAuth,
			AllowedIPs:  cfg.Swagger.AllowedIPs,
		}, middleware.RequireSession()),
		ginSwagger.WrapHandler(swaggerFiles.Handler),
	)

	registerAuthRoutes(engine, cfg, h.Auth, log)

	r := NewRouter(engine)
	if cfg.Session.RequireAuth {
		r.Use(middleware.RequireSession())
	}
	r.Register(customerRoutes(h.Customers)).
		Register(orderRoutes(h.Orders)).
		Register(campaignRoutes(h.Campaigns)).
		Register(segmentRoutes(h.Customers)).
		Register(uploadRoutes(h.Campaigns))
	r.Setup()

	return engine
}

func registerAuthRoutes(engine *gin.Engine, cfg *config.Config, auth *handler.AuthHandler, log *zap.Logger) {
	if auth == nil {
		return
	}
	authGroup := engine.Group("/auth")
	if cfg.OAuth.Enabled() {
		authGroup.GET("/google", auth.Login)
		authGroup.GET("/google/callback", auth.Callback)
	} else {
		log.Warn("Google sign-in is not configured; /auth/google is disabled")
	}
	authGroup.GET("/session", auth.Session)
	engine.GET("/logout", auth.Logout)
}

func customerRoutes(h *handler.CustomerHandler) *DomainGroup {
	g := NewDomainGroup("customers", "/customers")
	g.GET("/", h.List)
	g.POST("/addCustomer", h.Create)
	g.GET("/:id", h.GetByID)
	g.PUT("/updateCustomer/:id", h.Update)
	g.DELETE("/:id", h.Delete)
	g.POST("/:id/visits", h.RecordVisit)
	g.POST("/:id/reconcile", h.Reconcile)
	return g
}

func orderRoutes(h *handler.OrderHandler) *DomainGroup {
	g := NewDomainGroup("orders", "/orders")
	g.GET("/", h.List)
	g.POST("/createOrder", h.Create)
	g.GET("/:id", h.GetByID)
	g.PUT("/updateOrder/:id", h.Update)
	g.DELETE("/:id", h.Delete)
	return g
}

func campaignRoutes(h *handler.CampaignHandler) *DomainGroup {
	g := NewDomainGroup("campaigns", "/campaigns")
	g.GET("/", h.List)
	g.POST("/", h.Create)
	g.GET("/:id", h.GetByID)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
	return g
}

func segmentRoutes(h *handler.CustomerHandler) *DomainGroup {
	return NewDomainGroup("segments", "/segments").POST("/preview", h.PreviewSegment)
}

func uploadRoutes(h *handler.CampaignHandler) *DomainGroup {
	return NewDomainGroup("uploads", "/uploads").GET("/generate-upload-url", h.GenerateUploadURL)
}

func metricsPath(cfg *config.Config) string {
	if cfg.Metrics.Path == "" {
		return "/metrics"
	}
	return cfg.Metrics.Path
}
