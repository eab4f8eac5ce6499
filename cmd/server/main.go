// ===========================================
// SmartShort - Main Entry Point
// ===========================================
// RESPONSIBILITY:
// 1. Load and validate configuration
// 2. Initialize dependencies (storage, Redis, Kafka, Razorpay)
// 3. Set up the HTTP router
// 4. Start background jobs
// 5. Handle graceful shutdown
//
// Fail fast at startup: a required dependency that is down stops the
// process before it serves traffic. Redis and Kafka are optional.
// ===========================================

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/user/smartshort/internal/config"
	"github.com/user/smartshort/internal/database"
	"github.com/user/smartshort/internal/events"
	"github.com/user/smartshort/internal/fraud"
	"github.com/user/smartshort/internal/handler"
	"github.com/user/smartshort/internal/lock"
	"github.com/user/smartshort/internal/logger"
	"github.com/user/smartshort/internal/middleware"
	"github.com/user/smartshort/internal/payment"
	"github.com/user/smartshort/internal/ratelimit"
	"github.com/user/smartshort/internal/repository"
	"github.com/user/smartshort/internal/repository/memstore"
	"github.com/user/smartshort/internal/service"
)

// Version is set at build time using ldflags.
// go build -ldflags "-X main.Version=1.0.0"
var Version = "dev"

// linkStore is what the services and the reconciler need from links.
type linkStore interface {
	service.LinkStore
	service.CounterReconciler
}

// stores is the storage backend selected by STORAGE_DRIVER.
type stores struct {
	links    linkStore
	clicks   service.ClickStore
	earnings service.EarningStore
	wallet   service.WalletStore
	settings service.SettingsStore
}

func main() {
	// .env is optional; production sets real environment variables.
	_ = godotenv.Load()

	// ===========================================
	// Step 1: Configuration and logging
	// ===========================================
	cfg := config.Load()
	log := logger.SetupLogger(cfg.Log.Level)
	if err := cfg.Validate(); err != nil {
		log.WithError(err).Fatal("Invalid configuration")
	}
	log.WithFields(logrus.Fields{"version": Version, "port": cfg.Server.Port}).Info("Starting SmartShort")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	checks := map[string]handler.Checker{}

	// ===========================================
	// Step 2: Storage
	// ===========================================
	var st stores
	switch cfg.Database.Driver {
	case "memory":
		log.Warn("Using in-memory storage; data is lost on restart")
		mem := memstore.New()
		st = stores{links: mem.Links, clicks: mem.Clicks, earnings: mem.Earnings, wallet: mem.Wallet, settings: mem.Settings}
	default:
		if cfg.Database.AutoMigrate {
			if err := database.Migrate(cfg.Database.URL); err != nil {
				log.WithError(err).Fatal("Failed to run migrations")
			}
			log.Info("Database migrations applied")
		}

		postgres, err := database.NewPostgresDB(ctx, cfg.Database)
		if err != nil {
			log.WithError(err).Fatal("Failed to connect to PostgreSQL")
		}
		defer postgres.Close()
		checks["postgres"] = postgres
		log.Info("PostgreSQL connected")

		st = stores{
			links:    repository.NewLinkRepository(postgres.Pool),
			clicks:   repository.NewClickRepository(postgres.Pool),
			earnings: repository.NewEarningRepository(postgres.Pool),
			wallet:   repository.NewWalletRepository(postgres.Pool),
			settings: repository.NewSettingsRepository(postgres.Pool),
		}
	}

	// ===========================================
	// Step 3: Redis (optional)
	// ===========================================
	// Without Redis the link cache is local only, the payout lock is
	// per-process and rate limits are per-instance.
	var redisDB *database.RedisDB
	var locker lock.Locker = lock.NewLocalLocker()
	var limiter ratelimit.Limiter = ratelimit.NewMemoryLimiter()
	if cfg.Redis.URL != "" {
		var err error
		redisDB, err = database.NewRedisDB(ctx, cfg.Redis)
		if err != nil {
			log.WithError(err).Fatal("Failed to connect to Redis")
		}
		defer redisDB.Close()
		checks["redis"] = redisDB
		locker = lock.NewRedisLocker(redisDB.Client)
		if cfg.RateLimit.Backend == "redis" {
			limiter = ratelimit.NewRedisLimiter(redisDB.Client)
		}
		log.Info("Redis connected")
	}

	// ===========================================
	// Step 4: Event stream (optional)
	// ===========================================
	var publisher events.Publisher = events.NopPublisher{}
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaPublisher := events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, log)
		defer func() {
			if err := kafkaPublisher.Close(); err != nil {
				log.WithError(err).Warn("Failed to flush events")
			}
		}()
		publisher = kafkaPublisher
		log.WithField("topic", cfg.Kafka.Topic).Info("Publishing events to Kafka")
	}

	if cfg.Razorpay.KeyID == "" || cfg.Razorpay.KeySecret == "" {
		log.Warn("Razorpay credentials missing; payout requests will fail")
	}
	if cfg.Auth.JWTSecret == "" {
		log.Warn("AUTH_JWT_SECRET is empty; owner API requests will be rejected")
	}
	razorpay := payment.NewRazorpayClient(cfg.Razorpay.BaseURL, cfg.Razorpay.KeyID, cfg.Razorpay.KeySecret, cfg.Razorpay.Timeout)

	// ===========================================
	// Step 5: Services
	// ===========================================
	settingsService := service.NewSettingsService(st.settings, log)
	linkService := service.NewLinkService(st.links, database.NewCache(redisDB), cfg.Shortener, cfg.Redis.CacheTTL, log)
	throttle := fraud.NewThrottleGate(st.clicks, log)
	clickService := service.NewClickService(linkService, st.links, st.clicks, throttle, settingsService, publisher, cfg.Fraud.ThrottleWindow, log)
	minter := service.NewEarningsMinter(service.NewAdGate(st.clicks), st.earnings, settingsService, publisher, log)
	payoutService := service.NewPayoutService(st.links, st.wallet, locker, razorpay, cfg.Payout, cfg.Razorpay.WebhookSecret, publisher, log)
	earningsService := service.NewEarningsService(st.links, st.earnings, st.wallet, payoutService)
	analyticsService := service.NewAnalyticsService(st.links, st.clicks)
	reconciler := service.NewReconciler(st.links, log)

	// ===========================================
	// Step 6: Router
	// ===========================================
	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	pages := handler.NewPageHandler(cfg.Shortener.AppURL)
	router := handler.NewRouter(handler.Router{
		Clicks:      handler.NewClickHandler(clickService, minter, pages, cfg.Shortener.AppURL, log),
		Links:       handler.NewLinkHandler(linkService, log),
		Payouts:     handler.NewPayoutHandler(payoutService, earningsService, log),
		Analytics:   handler.NewAnalyticsHandler(analyticsService, log),
		Health:      handler.NewHealthHandler(checks, Version),
		Pages:       pages,
		Auth:        middleware.NewJWTAuth(cfg.Auth.JWTSecret, log),
		RateLimiter: middleware.NewRateLimiter(limiter, cfg.RateLimit.Requests, cfg.RateLimit.Window, log),
		CORS:        middleware.DefaultCORSConfig(cfg.Shortener.AppURL),
		Logger:      log,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// ===========================================
	// Step 7: Background jobs
	// ===========================================
	jobs := cron.New()
	if err := reconciler.Register(jobs, cfg.Jobs.ReconcileSchedule); err != nil {
		log.WithError(err).Fatal("Failed to schedule counter reconciliation")
	}
	jobs.Start()

	// ===========================================
	// Step 8: Serve until signalled
	// ===========================================
	go func() {
		log.WithField("addr", srv.Addr).Info("Server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("Server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Server forced to shutdown")
	}

	// Wait for a running reconciliation to finish.
	<-jobs.Stop().Done()

	log.Info("Server stopped")
}
