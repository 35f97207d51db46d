package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/nekogravitycat/mentor-booking-backend/internal/app"
	"github.com/nekogravitycat/mentor-booking-backend/internal/cache"
	"github.com/nekogravitycat/mentor-booking-backend/internal/config"
	"github.com/nekogravitycat/mentor-booking-backend/internal/db"
	"github.com/nekogravitycat/mentor-booking-backend/internal/logger"
	"github.com/nekogravitycat/mentor-booking-backend/internal/metrics"
	"github.com/nekogravitycat/mentor-booking-backend/internal/notification"
	"github.com/nekogravitycat/mentor-booking-backend/internal/pkg/storage"
)

func main() {
	// For receiving Ctrl+C / SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load config
	cfg, err := config.Load()
	if err != nil {
		logger.New("info", false).Fatal("failed to load config", logger.Error(err))
	}

	log := logger.New(cfg.LogLevel, cfg.PrettyLog)
	defer func() { _ = log.Sync() }()

	metrics.Register()

	// Connect DB
	pool, err := db.NewPool(ctx, cfg.DBDSN, db.PoolOptions{
		MaxConns: int32(cfg.DBMaxConns),
		MinConns: int32(cfg.DBMinConns),
	})
	if err != nil {
		log.Fatal("failed to connect to db", logger.Error(err))
	}
	defer pool.Close()

	// Redis is optional
	var redisClient *redis.Client
	var store *cache.Store
	if cfg.RedisAddr != "" {
		redisClient, err = cache.Connect(ctx, cache.ConnectOptions{
			Addr:           cfg.RedisAddr,
			Password:       cfg.RedisPassword,
			DB:             cfg.RedisDB,
			ConnectTimeout: cfg.RedisConnectTimeout,
		}, log)
		if err != nil {
			log.Fatal("failed to connect to redis", logger.Error(err))
		}
		store = cache.NewStore(redisClient)
	} else {
		log.Warn("REDIS_ADDR not set; availability cache and dead-letter list disabled")
	}

	fileStorage, err := storage.NewLocalStorage(cfg.StoragePath)
	if err != nil {
		log.Fatal("failed to init storage", logger.Error(err))
	}

	var sender notification.Sender
	if cfg.SMTPHost != "" {
		sender, err = notification.NewSMTPSender(notification.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
		})
		if err != nil {
			log.Fatal("failed to init smtp sender", logger.Error(err))
		}
	} else {
		log.Warn("SMTP_HOST not set; notification emails are only logged")
		sender = notification.NewLogSender(log)
	}

	container := app.NewContainer(app.Config{
		IsProduction:   cfg.IsProduction,
		ProdOrigins:    cfg.ProdOrigins,
		DBPool:         pool,
		JWTSecret:      cfg.JWTSecret,
		JWTTTL:         cfg.JWTAccessTokenTTL,
		JWTAudience:    cfg.JWTAudience,
		Logger:         log,
		Cache:          store,
		Storage:        fileStorage,
		Sender:         sender,
		PublicBaseURL:  cfg.PublicBaseURL,
		MaxUploadBytes: cfg.MaxUploadBytes,
		Notify: notification.Options{
			QueueSize:      cfg.NotifyQueueSize,
			MaxAttempts:    cfg.NotifyMaxAttempts,
			InitialBackoff: cfg.NotifyInitialBackoff,
			MaxBackoff:     cfg.NotifyMaxBackoff,
		},
		AvailabilityCacheTTL: cfg.AvailabilityCacheTTL,
		Policy:               cfg.Policy,
	})
	container.Dispatcher.Start()

	// Use http.Server for graceful shutdown
	server := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: container.Router,
	}

	// Run server in separate goroutine
	go func() {
		log.Info("server running", logger.String("addr", cfg.HTTPAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server error", logger.Error(err))
		}
	}()

	// Wait for Ctrl+C
	<-ctx.Done()
	log.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	// Stop accepting requests first so no new notifications are queued
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", logger.Error(err))
	}

	container.Dispatcher.Stop(shutdownCtx)

	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			log.Warn("failed to close redis", logger.Error(err))
		}
	}

	log.Info("server exited gracefully")
}
