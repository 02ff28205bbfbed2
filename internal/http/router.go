// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns:
// tracing, correlation IDs, logging with secret scrubbing, panic recovery,
// metrics, rate limiting, CORS, and security headers.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. Logger: structured logs with credential masking
//  4. Recovery: capture panics after the logger
//  5. Body size limiter and gzip
//  6. Metrics
//  7. Rate limiter (per user/IP)
//  8. CORS and security headers
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/xiaohuihuib/Rin/internal/ai"
	"github.com/xiaohuihuib/Rin/internal/auth"
	"github.com/xiaohuihuib/Rin/internal/config"
	"github.com/xiaohuihuib/Rin/internal/domain"
	"github.com/xiaohuihuib/Rin/internal/http/handlers"
	"github.com/xiaohuihuib/Rin/internal/http/middleware"
	"github.com/xiaohuihuib/Rin/internal/kv"
	"github.com/xiaohuihuib/Rin/internal/repo"
	"github.com/xiaohuihuib/Rin/internal/services"
)

// userResolverShim adapts the repository free functions to the
// middleware.UserResolver interface. This keeps the middleware decoupled
// from the concrete repo package while reusing existing functions.
type userResolverShim struct{ db *gorm.DB }

// GetUser proxies repo.GetUser.
func (s userResolverShim) GetUser(ctx context.Context, id uint) (*domain.User, error) {
	return repo.GetUser(ctx, s.db, id)
}

// Deps carries everything RegisterRoutes needs. The cache may be SQLite- or
// Redis-backed; the config namespaces always come from the info table.
type Deps struct {
	DB           *gorm.DB
	Cache        kv.Cache
	ServerConfig kv.Store
	ClientConfig kv.Store
	Verifier     *auth.Manager
	Cfg          config.Config
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given
// Gin engine.
func RegisterRoutes(r *gin.Engine, d Deps) {
	cfg := d.Cfg
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging with credential masking
	r.Use(middleware.Logger(middleware.LogOptions{}))

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit (1 MiB) and response compression
	r.Use(limitBody(1 << 20))
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	// 6) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 7) Token-bucket rate limiter per user/IP
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP())
	r.Use(rl.Handler())

	// 8) CORS posture (allow all when no origins configured)
	corsConf := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.CORS.AllowedOrigins) == 0 {
		corsConf.AllowAllOrigins = true
	} else {
		corsConf.AllowOrigins = cfg.CORS.AllowedOrigins
	}
	r.Use(cors.New(corsConf))

	// Security headers (HSTS only when enabled and request is HTTPS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS: cfg.Security.EnableHSTS,
		HSTSMaxAge: cfg.Security.HSTSMaxAge,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// Swagger UI (generated docs must be imported by the binary that enables this)
	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Dependency injection: services ← stores/db
	cfgSvc := services.NewConfigService(d.ServerConfig, d.ClientConfig, d.Cache, ai.NewClient(cfg.AITestTimeout))
	momentSvc := services.NewMomentService(d.DB, d.Cache)
	h := handlers.New(cfgSvc, momentSvc)

	users := userResolverShim{db: d.DB}
	authed := middleware.Auth(d.Verifier, users)
	admin := middleware.RequireAdmin()
	optional := middleware.OptionalAuth(d.Verifier, users)

	api := groupWithPrefix(r, cfg.APIBasePath)
	{
		// Config. Reads go through OptionalAuth because the client
		// namespace is public while the server namespace is admin-gated
		// inside the handler (one :type route serves both).
		api.GET("/config/:type", optional, h.GetConfig)
		api.POST("/config/test-ai", authed, admin, h.TestAI)
		api.POST("/config/:type", authed, admin, h.UpdateConfig)
		api.DELETE("/config/cache", authed, admin, h.ClearCache)

		// Moments
		api.GET("/moments", h.ListMoments)
		api.POST("/moments", authed, admin, h.CreateMoment)
		api.POST("/moments/:id", authed, admin, h.UpdateMoment)
		api.DELETE("/moments/:id", authed, admin, h.DeleteMoment)
	}
}

// limitBody caps the request body size for all endpoints using
// http.MaxBytesReader. Requests exceeding the cap error on body read.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
