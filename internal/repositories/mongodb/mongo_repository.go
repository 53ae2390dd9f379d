package mongodb

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/SAP-F-2025/enrollment-service/internal/cache"
	"github.com/SAP-F-2025/enrollment-service/internal/repositories"
)

// MongoRepository implements the main Repository interface on MongoDB
type MongoRepository struct {
	client       *mongo.Client
	redisClient  *redis.Client
	cacheManager *cache.CacheManager

	user   repositories.UserRepository
	course repositories.CourseRepository
}

// RepositoryConfig holds configuration for repository initialization
type RepositoryConfig struct {
	Client         *mongo.Client
	Database       string
	RedisClient    *redis.Client
	CourseCacheTTL time.Duration
}

func NewMongoRepository(config RepositoryConfig) repositories.Repository {
	db := config.Client.Database(config.Database)
	cacheManager := cache.NewCacheManager(config.RedisClient, config.CourseCacheTTL)

	return &MongoRepository{
		client:       config.Client,
		redisClient:  config.RedisClient,
		cacheManager: cacheManager,
		user:         NewUserMongo(db),
		course:       NewCourseMongo(db, cacheManager),
	}
}

func (r *MongoRepository) User() repositories.UserRepository {
	return r.user
}

func (r *MongoRepository) Course() repositories.CourseRepository {
	return r.course
}

// Ping checks the health of database and cache connections
func (r *MongoRepository) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	if r.redisClient != nil {
		if err := r.cacheManager.HealthCheck(ctx); err != nil {
			return fmt.Errorf("cache ping failed: %w", err)
		}
	}

	return nil
}

// Close disconnects from MongoDB. The Redis client is owned by the caller.
func (r *MongoRepository) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := r.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("failed to disconnect from MongoDB: %w", err)
	}
	return nil
}

// RepositoryManager implements the RepositoryManager interface
type RepositoryManager struct {
	config RepositoryConfig
	repo   repositories.Repository
}

func NewRepositoryManager(config RepositoryConfig) repositories.RepositoryManager {
	return &RepositoryManager{config: config}
}

// Initialize verifies connectivity and creates indexes
func (rm *RepositoryManager) Initialize() error {
	if rm.config.Client == nil {
		return fmt.Errorf("mongo client is required")
	}
	if rm.config.Database == "" {
		return fmt.Errorf("mongo database name is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := rm.config.Client.Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}

	if rm.config.RedisClient != nil {
		if _, err := rm.config.RedisClient.Ping(ctx).Result(); err != nil {
			return fmt.Errorf("redis connection failed: %w", err)
		}
	}

	if err := EnsureUserIndexes(ctx, rm.config.Client.Database(rm.config.Database)); err != nil {
		return err
	}

	rm.repo = NewMongoRepository(rm.config)
	return nil
}

func (rm *RepositoryManager) GetRepository() repositories.Repository {
	return rm.repo
}

func (rm *RepositoryManager) HealthCheck(ctx context.Context) error {
	if rm.repo == nil {
		return repositories.ErrNotInitialized
	}
	return rm.repo.Ping(ctx)
}

func (rm *RepositoryManager) Shutdown(ctx context.Context) error {
	if rm.repo == nil {
		return nil
	}
	return rm.repo.Close()
}
