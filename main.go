package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/SAP-F-2025/enrollment-service/internal/config"
	"github.com/SAP-F-2025/enrollment-service/internal/events"
	"github.com/SAP-F-2025/enrollment-service/internal/handlers"
	"github.com/SAP-F-2025/enrollment-service/internal/repositories"
	"github.com/SAP-F-2025/enrollment-service/internal/repositories/memory"
	"github.com/SAP-F-2025/enrollment-service/internal/repositories/mongodb"
	"github.com/SAP-F-2025/enrollment-service/internal/repositories/postgres"
	"github.com/SAP-F-2025/enrollment-service/internal/services"
	"github.com/SAP-F-2025/enrollment-service/internal/utils"
	"github.com/SAP-F-2025/enrollment-service/internal/validator"
	"github.com/SAP-F-2025/enrollment-service/pkg"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	slogLogger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	slog.SetDefault(slogLogger)
	logger := utils.NewSlogLogger(slogLogger)

	rootCtx, stop := context.WithCancel(context.Background())
	defer stop()

	// Initialize Redis (if configured); the course cache is optional
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = pkg.NewRedisClient(cfg)
		if err != nil {
			logger.Warn("Redis unavailable, course cache disabled", "error", err)
			redisClient = nil
		}
	}

	// Initialize repositories
	repoManager, err := newRepositoryManager(rootCtx, cfg, redisClient)
	if err != nil {
		log.Fatalf("Failed to configure storage: %v", err)
	}
	if err := repoManager.Initialize(); err != nil {
		log.Fatalf("Failed to initialize repositories: %v", err)
	}
	logger.Info("Storage initialized", "driver", cfg.StorageDriver)

	// Initialize event publisher
	publisher, err := newEventPublisher(rootCtx, cfg, slogLogger)
	if err != nil {
		log.Fatalf("Failed to initialize event publisher: %v", err)
	}

	validator := validator.New()

	// Initialize services
	serviceManager := services.NewServiceManager(repoManager, publisher, slogLogger, validator, services.ServiceManagerConfig{
		BcryptCost:  cfg.BcryptCost,
		ExportUsers: true,
	})
	if err := serviceManager.Initialize(rootCtx); err != nil {
		log.Fatalf("Failed to initialize services: %v", err)
	}

	handlerManager := handlers.NewHandlerManager(serviceManager, logger)

	// Setup Gin router
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	handlers.SetupMiddleware(router, logger, cfg.RequestTimeout)
	handlerManager.SetupRoutes(router)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Starting server", "port", cfg.Port, "environment", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	// Closes the publisher and the storage driver
	if err := serviceManager.Shutdown(ctx); err != nil {
		logger.Error("Failed to shutdown services", "error", err)
	}
	stop()

	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			logger.Error("Failed to close Redis", "error", err)
		}
	}

	logger.Info("Server exited")
}

func newRepositoryManager(ctx context.Context, cfg *config.Config, redisClient *redis.Client) (repositories.RepositoryManager, error) {
	switch cfg.StorageDriver {
	case config.DriverMongo:
		client, err := pkg.ConnectMongoDB(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return mongodb.NewRepositoryManager(mongodb.RepositoryConfig{
			Client:         client,
			Database:       cfg.MongoDatabase,
			RedisClient:    redisClient,
			CourseCacheTTL: cfg.CourseCacheTTL,
		}), nil
	case config.DriverPostgres:
		db, err := pkg.InitDatabase(cfg)
		if err != nil {
			return nil, err
		}
		return postgres.NewRepositoryManager(postgres.RepositoryConfig{
			DB:             db,
			RedisClient:    redisClient,
			CourseCacheTTL: cfg.CourseCacheTTL,
			AutoMigrate:    !cfg.IsProduction(),
		}), nil
	case config.DriverMemory:
		return memory.NewRepositoryManager(), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}

// newEventPublisher publishes to Kafka when brokers are configured, otherwise to an in-process audit log
func newEventPublisher(ctx context.Context, cfg *config.Config, logger *slog.Logger) (events.EventPublisher, error) {
	if len(cfg.KafkaBrokers) > 0 {
		publisher, err := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.EventsTopic, logger)
		if err != nil {
			return nil, err
		}
		return publisher, nil
	}

	publisher, pubSub := events.NewGoChannelPublisher(cfg.EventsTopic, logger)
	if err := events.RunAuditLog(ctx, pubSub, cfg.EventsTopic, logger); err != nil {
		_ = publisher.Close()
		return nil, err
	}
	return publisher, nil
}
