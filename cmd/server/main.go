package main

import (
	"context"   // context package is needed for Redis operations and shutdown
	"errors"    // errors package is needed to detect server close
	"net/http"  // HTTP server
	"os"        // Process signals
	"os/signal" // Signal notification
	"syscall"   // SIGTERM
	"time"      // Shutdown timeout

	"invest_platform/internal/api"     // Custom package for API handlers
	"invest_platform/internal/config"  // Custom package for configuration
	"invest_platform/internal/db"      // Database connection and migrations
	"invest_platform/internal/jobs"    // Background jobs
	"invest_platform/internal/metrics" // Prometheus metrics
	"invest_platform/internal/notify"  // User and admin notifications
	"invest_platform/internal/service" // Business logic

	"github.com/gin-gonic/gin"                       // Gin web framework
	"github.com/prometheus/client_golang/prometheus" // Metrics registry
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logrus for structured logging
)

// Main function to set up and run the server
func main() {
	cfg := config.LoadConfig() // Load configuration

	// Setup logger
	if cfg.IsProd {
		logrus.SetFormatter(&logrus.JSONFormatter{})
		gin.SetMode(gin.ReleaseMode)
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	gdb, err := db.Open(cfg)
	if err != nil {
		logrus.Fatalf("failed to connect to DB: %v", err) // Fatal error if DB connection fails
	}
	if err := db.Migrate(gdb); err != nil {
		logrus.Fatalf("failed to migrate DB: %v", err)
	}

	// Setup Redis client
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr, // Redis server address
		Password: cfg.RedisPass, // Redis password
		DB:       cfg.RedisDB,   // Redis database number
	})
	if _, err := redisClient.Ping(context.Background()).Result(); err != nil {
		logrus.Fatalf("failed to connect to Redis: %v", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	settings := service.NewSettingsProvider(gdb, service.Bands{
		MinDeposit:    cfg.MinDeposit,
		MaxDeposit:    cfg.MaxDeposit,
		MinWithdrawal: cfg.MinWithdrawal,
		MaxWithdrawal: cfg.MaxWithdrawal,
	})
	if err := settings.Load(ctx); err != nil {
		logrus.Fatalf("failed to load settings: %v", err)
	}

	sinks := []notify.Sink{notify.NewRedisSink(redisClient, notify.DefaultChannel)}
	if cfg.TelegramBotToken != "" && cfg.TelegramAdminChatID != 0 {
		tg, err := notify.NewTelegramSink(cfg.TelegramBotToken, cfg.TelegramAdminChatID)
		if err != nil {
			logrus.WithError(err).Warn("Telegram notifications disabled")
		} else {
			sinks = append(sinks, tg)
		}
	}
	dispatcher := notify.NewDispatcher(cfg.NotifyTimeout, m, sinks...)

	recorder := service.NewRecorder(gdb, redisClient)
	referrals := service.NewReferralService(gdb, settings, m)
	deps := api.Deps{
		DB:          gdb,
		JWTSecret:   cfg.JWTSecret,
		Logger:      logrus.StandardLogger(),
		Metrics:     m,
		Settings:    settings,
		Users:       service.NewUserService(gdb, redisClient, settings, referrals, recorder, cfg.JWTSecret, cfg.JWTTTL),
		Deposits:    service.NewDepositService(gdb, settings, recorder, referrals, dispatcher, m),
		Withdrawals: service.NewWithdrawalService(gdb, settings, recorder, dispatcher, m),
		Referrals:   referrals,
		Recorder:    recorder,
	}

	syncJob := jobs.NewReferralSyncJob(referrals, m, cfg.ReferralSyncInterval)
	go syncJob.Start(ctx)

	r := api.NewRouter(deps)
	// Set trusted proxies for Gin
	if err := r.SetTrustedProxies([]string{"127.0.0.1"}); err != nil {
		logrus.Fatalf("failed to set trusted proxies: %v", err)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logrus.Info("Server running on " + cfg.AppPort) // Log server start
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()
	logrus.Info("Shutting down")
	syncJob.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Error("Server shutdown failed")
	}
	dispatcher.Wait()
	if err := redisClient.Close(); err != nil {
		logrus.WithError(err).Warn("Redis close failed")
	}
	if sqlDB, err := gdb.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
