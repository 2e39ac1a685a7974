package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/skillcompass/skillcompass/internal/api"
	"github.com/skillcompass/skillcompass/internal/assessment"
	"github.com/skillcompass/skillcompass/internal/auth"
	"github.com/skillcompass/skillcompass/internal/cache"
	"github.com/skillcompass/skillcompass/internal/content"
	"github.com/skillcompass/skillcompass/internal/database"
	"github.com/skillcompass/skillcompass/internal/llm"
	"github.com/skillcompass/skillcompass/internal/notifications"
	"github.com/skillcompass/skillcompass/internal/report"
	"github.com/skillcompass/skillcompass/pkg/config"
	"github.com/skillcompass/skillcompass/pkg/health"
	"github.com/skillcompass/skillcompass/pkg/logging"
	"github.com/skillcompass/skillcompass/pkg/metrics"
	"github.com/skillcompass/skillcompass/pkg/tracing"
)

func main() {
	// Load .env when present; real deployments use environment variables.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := logging.NewLogger(&logging.Config{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		Output:      cfg.Logging.Output,
		ServiceName: "skillcompass-api",
		Version:     "1.0.0",
	})
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	logging.SetGlobalLogger(logger)

	db, err := database.New(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := db.Health(ctx); err != nil {
		log.Fatalf("Database health check failed: %v", err)
	}
	cancel()
	logger.Info("database connection established")

	migrator, err := database.NewMigrator(db, "migrations")
	if err != nil {
		log.Fatalf("Failed to create migrator: %v", err)
	}
	if err := migrator.Up(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	logger.Info("database migrations applied")

	// Redis is optional: without it caching and rate limiting are skipped.
	var redis *cache.RedisClient
	if r, err := cache.NewRedisClient(&cfg.Redis); err != nil {
		logger.Warn("redis unavailable, caching disabled", "error", err.Error())
	} else {
		redis = r
		defer redis.Close()
		logger.Info("redis connection established")
	}

	var cacheService *cache.Service
	if redis != nil {
		cacheService = cache.NewService(redis, cache.DefaultConfig())
	}

	m := metrics.NewMetrics(metrics.DefaultConfig())

	tracer, err := tracing.NewService(&tracing.Config{
		ServiceName:    "skillcompass-api",
		ServiceVersion: "1.0.0",
		Environment:    os.Getenv("ENVIRONMENT"),
		JaegerEndpoint: os.Getenv("JAEGER_ENDPOINT"),
		SamplingRate:   1.0,
		Enabled:        os.Getenv("JAEGER_ENDPOINT") != "",
	})
	if err != nil {
		logger.Warn("tracing disabled", "error", err.Error())
	}

	// Without a provider API key the gateway serves fallback content only.
	var provider llm.Provider
	if cfg.AIEnabled() {
		p, err := llm.NewGeminiProvider(context.Background(), &cfg.AI)
		if err != nil {
			logger.Warn("generative provider unavailable, serving fallback content", "error", err.Error())
		} else {
			provider = p
			logger.Info("generative provider configured", "model", cfg.AI.Model)
		}
	} else {
		logger.Info("no generative provider configured, serving fallback content")
	}

	repos := database.NewRepositories(db)
	gateway := content.NewGateway(provider, cacheService, m, &cfg.AI)

	zapLogger, _ := zap.NewProduction()
	if zapLogger == nil {
		zapLogger = zap.NewNop()
	}
	var channels []notifications.Channel
	email := notifications.NewEmailChannel(cfg.Email, zapLogger)
	if email.Configured() {
		channels = append(channels, email)
	} else {
		channels = append(channels, notifications.NewLogChannel(zapLogger))
	}
	notifier := notifications.NewService(repos, zapLogger, channels...)

	authService := auth.NewService(cfg, repos, m)
	assessments := assessment.NewService(repos, gateway, m)
	reports := report.NewService(repos, assessments, gateway, cacheService, m, notifier)

	healthService := health.NewService()
	healthService.Register("database", health.NewDatabaseChecker(db))
	healthService.Register("redis", health.NewRedisChecker(redis))
	healthService.Register("content_provider", health.NewContentProviderChecker(gateway))

	router := api.NewRouter(cfg, redis, api.Services{
		Auth:        authService,
		Assessments: assessments,
		Reports:     reports,
		Health:      healthService,
		Metrics:     m,
		Tracing:     tracer,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info("starting API server", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Periodically clear out expired refresh sessions.
	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	defer cleanupCancel()
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-cleanupCtx.Done():
				return
			case <-ticker.C:
				if n, err := authService.CleanupExpiredSessions(cleanupCtx); err != nil {
					logger.Warn("session cleanup failed", "error", err.Error())
				} else if n > 0 {
					logger.Info("expired sessions removed", "count", n)
				}
			}
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}
	if tracer != nil {
		_ = tracer.Shutdown(shutdownCtx)
	}

	logger.Info("server exited")
}
