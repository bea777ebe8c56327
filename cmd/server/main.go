package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"coupon-drop/internal/api"
	"coupon-drop/internal/api/middleware"
	"coupon-drop/internal/auth"
	"coupon-drop/internal/repository"
	"coupon-drop/internal/service"
	"coupon-drop/pkg/config"
	"coupon-drop/pkg/database"
	"coupon-drop/pkg/logger"
	"coupon-drop/pkg/ratelimit"
	"coupon-drop/pkg/sentry"
	"coupon-drop/pkg/stats"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func init() {
	time.Local = time.UTC
}

func main() {
	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLog, err := logger.NewLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = appLog.Sync() }()

	reporter, err := sentry.NewSentryService(cfg.Sentry, appLog)
	if err != nil {
		appLog.Fatalw("Failed to initialize Sentry", "error", err)
	}
	defer reporter.Flush()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mongoDB, err := database.Connect(ctx, cfg.Mongo)
	if err != nil {
		appLog.Fatalw("Failed to connect to MongoDB", "error", err)
	}
	defer func() {
		if err := mongoDB.Disconnect(context.Background()); err != nil {
			appLog.Errorw("Error disconnecting from MongoDB", "error", err)
		}
	}()
	appLog.Infow("Connected to MongoDB", "database", cfg.Mongo.Database)

	var tx database.Transactor = database.Direct{}
	if cfg.Mongo.Transactions {
		tx = database.NewUnitOfWork(mongoDB.Client)
	}

	var statsStore stats.Store = stats.NewMemoryStore()
	if cfg.Redis.Enabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer func() { _ = rdb.Close() }()

		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		_, err := rdb.Ping(pingCtx).Result()
		cancel()
		if err != nil {
			appLog.Fatalw("Redis stats ping failed", "addr", cfg.Redis.Addr, "error", err)
		}

		statsStore = stats.NewRedisStore(rdb, stats.WithPrefix(cfg.Redis.Prefix), stats.WithTTL(cfg.Redis.TTL))
	}

	authProvider, err := auth.NewSupabaseAuth(cfg.Auth.Supabase)
	if err != nil {
		appLog.Fatalw("Failed to create auth provider", "error", err)
	}

	// Initialize repositories
	couponRepo := repository.NewCouponRepository(mongoDB.Database)
	claimRepo := repository.NewClaimRepository(mongoDB.Database)
	cooldownRepo := repository.NewCooldownRepository(mongoDB.Database)

	couponSvc := service.NewCouponService(couponRepo, claimRepo, cooldownRepo,
		service.WithTransactor(tx),
		service.WithStats(statsStore),
		service.WithLogger(appLog),
		service.WithCooldown(cfg.Claim.Cooldown),
		service.WithCooldownCache(cfg.Claim.CacheCooldown),
	)
	adminSvc := service.NewAdminService(couponRepo, claimRepo, statsStore, appLog)
	authSvc := service.NewAuthService(authProvider, cfg.Auth.AdminEmails, appLog)

	limiter := ratelimit.NewStore(cfg.Claim.RateRPS, cfg.Claim.RateBurst)
	limiter.StartJanitor(ctx)

	if cfg.Server.GinMode != "" {
		gin.SetMode(cfg.Server.GinMode)
	}
	router, err := api.SetupRouter(api.Dependencies{
		CouponService: couponSvc,
		AdminService:  adminSvc,
		AuthService:   authSvc,
		ClaimLimiter:  limiter,
		Stats:         statsStore,
		DB:            mongoDB,
		Logger:        appLog,
		Sentry:        reporter,
		Browser: middleware.BrowserOptions{
			MaxAge: cfg.Claim.CookieMaxAge,
			Secure: cfg.Claim.CookieSecure,
		},
		Cookie: api.CookieOptions{
			Name:   cfg.Auth.CookieName,
			Secure: cfg.Auth.CookieSecure,
		},
		TrustedProxies: cfg.Server.TrustedProxies,
	})
	if err != nil {
		appLog.Fatalw("Failed to set up router", "error", err)
	}

	srv := &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       90 * time.Second,
	}

	go func() {
		appLog.Infow("Server starting",
			"address", cfg.Server.Address,
			"cooldown", cfg.Claim.Cooldown,
			"transactions", cfg.Mongo.Transactions,
			"redis_stats", cfg.Redis.Enabled,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLog.Fatalw("Failed to start server", "error", err)
		}
	}()

	<-ctx.Done()
	appLog.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLog.Errorw("Server forced to shutdown", "error", err)
	}

	appLog.Info("Server exited")
}
