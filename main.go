package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"go.uber.org/zap"

	"frontend/internal/cache"
	"frontend/internal/config"
	"frontend/internal/crypto"
	"frontend/internal/handler"
	"frontend/internal/market_client"
	"frontend/internal/notify"
	"frontend/internal/repository"
	"frontend/internal/server"
	"frontend/internal/service"
)

func main() {
	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logger.Warn("Failed to load .env file", zap.Error(err))
	}

	// Load configuration
	cfg, err := config.LoadConfig(config.Path())
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}
	gin.SetMode(cfg.Server.Mode)
	logger.Info("Configuration loaded",
		zap.String("environment", cfg.Environment),
		zap.String("api_url", cfg.API.URL),
		zap.String("database", cfg.Database.Type),
	)

	// Database connection
	db, err := repository.NewDB(cfg.Database.Type, cfg.Database.URL, logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := repository.MigrateDB(db, cfg.Database.Type, logger); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	keyManager, err := crypto.NewKeyManager()
	if err != nil {
		logger.Fatal("Failed to initialize KeyManager", zap.Error(err))
	}
	if keyManager.Ephemeral() {
		logger.Warn("SESSION_KEY is not set, using an ephemeral key; wallet sessions will not survive a restart")
	}

	// Context for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var catalogCache cache.Cache = cache.NopCache{}
	if cfg.Cache.Enabled {
		client, err := cache.Connect(ctx, cfg.Cache.RedisURL)
		if err != nil {
			logger.Warn("Redis unavailable, continuing without cache", zap.Error(err))
		} else if redisCache := cache.NewRedisCache(client, "marketplace:"); redisCache.Ping(ctx) != nil {
			logger.Warn("Redis did not answer ping, continuing without cache", zap.String("redis_url", cfg.Cache.RedisURL))
			_ = redisCache.Close()
		} else {
			defer redisCache.Close()
			catalogCache = redisCache
			logger.Info("Catalog cache enabled")
		}
	}

	// Initialize repositories
	bidRepo := repository.NewBidRepository(db, logger)
	activityRepo := repository.NewActivityRepository(db, logger)

	client := market_client.NewClient(cfg.API.URL, cfg.APITimeout(), logger)
	wallets := service.NewWalletService(keyManager, cfg.SessionTTL(), logger)

	h := handler.New(handler.Deps{
		Client:       client,
		Catalog:      service.NewCatalog(client, catalogCache, cfg.CacheTTL(), logger),
		Bidding:      service.NewBiddingService(bidRepo, activityRepo, logger),
		Wallets:      wallets,
		Activity:     activityRepo,
		Notifier:     notify.NewFromConfig(cfg, logger),
		PaymentDelay: cfg.PaymentDelay(),
		Currency:     cfg.Payment.Currency,
		CookieName:   cfg.Session.CookieName,
		SessionTTL:   cfg.SessionTTL(),
		Logger:       logger,
	})

	accessLog := logrus.New()
	accessLog.SetFormatter(&logrus.JSONFormatter{})

	srv, err := server.NewServer(h, server.Options{
		Addr:       ":" + cfg.Server.Port,
		Sessions:   wallets,
		CookieName: cfg.Session.CookieName,
		Logger:     logger,
	}, accessLog)
	if err != nil {
		logger.Fatal("Failed to build server", zap.Error(err))
	}

	if err := srv.Run(ctx); err != nil {
		logger.Error("Server error", zap.Error(err))
	}
	logger.Info("Application stopped.")
}
