// Command server runs the Rin site backend: the namespaced configuration
// API and the moments micro-blog API over a SQLite store.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/xiaohuihuib/Rin/internal/auth"
	"github.com/xiaohuihuib/Rin/internal/config"
	"github.com/xiaohuihuib/Rin/internal/domain"
	httpapi "github.com/xiaohuihuib/Rin/internal/http"
	"github.com/xiaohuihuib/Rin/internal/kv"
	"github.com/xiaohuihuib/Rin/internal/observability"
	"github.com/xiaohuihuib/Rin/internal/repo"
	"github.com/xiaohuihuib/Rin/internal/sysutil"
)

// version is stamped at build time via -ldflags.
var version = "dev"

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.MustLoad()

	sysutil.SetLogLevel(cfg.LogLevel)
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("otel setup failed")
	}
	defer func() {
		c, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownOTel(c)
	}()

	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("open database failed")
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrate failed")
	}
	if err := seedAdmin(ctx, db, cfg.Auth); err != nil {
		log.Fatal().Err(err).Msg("admin seed failed")
	}

	cache := buildCache(db, cfg.Redis)

	deps := httpapi.Deps{
		DB:           db,
		Cache:        cache,
		ServerConfig: kv.NewNamespace(db, domain.NamespaceServerConfig),
		ClientConfig: kv.NewNamespace(db, domain.NamespaceClientConfig),
		Verifier:     auth.NewManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL),
		Cfg:          cfg,
	}

	gin.SetMode(cfg.GinMode)
	r := gin.New()
	httpapi.RegisterRoutes(r, deps)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Str("version", version).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}

// buildCache selects the cache backend: Redis when configured, otherwise
// the cache namespace of the SQLite info table.
func buildCache(db *gorm.DB, rc config.RedisConfig) kv.Cache {
	if rc.Addr == "" {
		return kv.NewNamespace(db, domain.NamespaceCache)
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     rc.Addr,
		Password: rc.Password,
		DB:       rc.DB,
	})
	log.Info().Str("addr", rc.Addr).Msg("using redis cache backend")
	return kv.NewRedisCache(rdb, domain.NamespaceCache)
}

// seedAdmin creates the initial admin user when ADMIN_OPENID is set and the
// users table is still empty. Account creation is otherwise out-of-band.
func seedAdmin(ctx context.Context, db *gorm.DB, ac config.AuthConfig) error {
	if ac.AdminOpenID == "" {
		return nil
	}
	total, err := repo.CountUsers(ctx, db)
	if err != nil {
		return err
	}
	if total > 0 {
		return nil
	}
	u := &domain.User{
		Username:   ac.AdminUsername,
		OpenID:     ac.AdminOpenID,
		Permission: 1,
	}
	if err := repo.CreateUser(ctx, db, u); err != nil {
		return err
	}
	log.Info().Uint("uid", u.ID).Str("username", u.Username).Msg("seeded admin user")
	return nil
}
