package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/fxshorts1-beep/ExamZen123/internal/cache"
	"github.com/fxshorts1-beep/ExamZen123/internal/repositories"
	"github.com/fxshorts1-beep/ExamZen123/internal/repositories/casdoor"
)

// PostgreSQLRepository implements the main Repository interface
type PostgreSQLRepository struct {
	db           *gorm.DB
	redisClient  *redis.Client
	cacheManager *cache.CacheManager

	// Repository instances
	test       repositories.TestRepository
	question   repositories.QuestionRepository
	submission repositories.SubmissionRepository
	answer     repositories.AnswerRepository
	user       repositories.UserRepository
}

// RepositoryConfig holds configuration for repository initialization
type RepositoryConfig struct {
	DB            *gorm.DB
	RedisClient   *redis.Client
	CasdoorConfig casdoor.CasdoorConfig
}

// NewPostgreSQLRepository creates a new repository with all sub-repositories
func NewPostgreSQLRepository(config RepositoryConfig) repositories.Repository {
	cacheManager := cache.NewCacheManager(config.RedisClient)

	repo := &PostgreSQLRepository{
		db:           config.DB,
		redisClient:  config.RedisClient,
		cacheManager: cacheManager,
	}

	// Initialize sub-repositories with caching
	repo.test = NewTestPostgreSQL(config.DB, config.RedisClient)
	repo.question = NewQuestionPostgreSQL(config.DB, config.RedisClient)
	repo.submission = NewSubmissionPostgreSQL(config.DB, config.RedisClient)
	repo.answer = NewAnswerPostgreSQL(config.DB, config.RedisClient)

	// User repository uses Casdoor
	repo.user = casdoor.NewUserCasdoor(config.CasdoorConfig, config.RedisClient)

	return repo
}

// Test returns the test repository
func (r *PostgreSQLRepository) Test() repositories.TestRepository {
	return r.test
}

// Question returns the question repository
func (r *PostgreSQLRepository) Question() repositories.QuestionRepository {
	return r.question
}

// Submission returns the submission repository
func (r *PostgreSQLRepository) Submission() repositories.SubmissionRepository {
	return r.submission
}

// Answer returns the answer repository
func (r *PostgreSQLRepository) Answer() repositories.AnswerRepository {
	return r.answer
}

// User returns the user repository
func (r *PostgreSQLRepository) User() repositories.UserRepository {
	return r.user
}

// WithTransaction executes a function within a database transaction
func (r *PostgreSQLRepository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Create a new repository instance bound to the transaction
		txRepo := &PostgreSQLRepository{
			db:           tx,
			redisClient:  r.redisClient,
			cacheManager: r.cacheManager,
		}

		txRepo.test = NewTestPostgreSQL(tx, r.redisClient)
		txRepo.question = NewQuestionPostgreSQL(tx, r.redisClient)
		txRepo.submission = NewSubmissionPostgreSQL(tx, r.redisClient)
		txRepo.answer = NewAnswerPostgreSQL(tx, r.redisClient)

		// User repository doesn't need transaction (it's external)
		txRepo.user = r.user

		return fn(txRepo)
	})
}

// Ping checks the health of database and cache connections
func (r *PostgreSQLRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	if r.redisClient != nil {
		if err := r.cacheManager.HealthCheck(ctx); err != nil {
			return fmt.Errorf("cache ping failed: %w", err)
		}
	}

	return nil
}

// Close closes all connections
func (r *PostgreSQLRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}

	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	if r.redisClient != nil {
		if err := r.redisClient.Close(); err != nil {
			return fmt.Errorf("failed to close Redis: %w", err)
		}
	}

	return nil
}

// RepositoryManager implements the RepositoryManager interface
type RepositoryManager struct {
	config RepositoryConfig
	repo   repositories.Repository
}

// NewRepositoryManager creates a new repository manager
func NewRepositoryManager(config RepositoryConfig) repositories.RepositoryManager {
	return &RepositoryManager{
		config: config,
	}
}

// Initialize initializes all repositories and connections
func (rm *RepositoryManager) Initialize() error {
	if rm.config.DB == nil {
		return fmt.Errorf("database connection is required")
	}

	sqlDB, err := rm.config.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("database connection test failed: %w", err)
	}

	rm.repo = NewPostgreSQLRepository(rm.config)
	return nil
}

// GetRepository returns the repository instance
func (rm *RepositoryManager) GetRepository() repositories.Repository {
	return rm.repo
}

// HealthCheck verifies all repository connections
func (rm *RepositoryManager) HealthCheck(ctx context.Context) error {
	if rm.repo == nil {
		return fmt.Errorf("repository not initialized")
	}
	return rm.repo.Ping(ctx)
}

// Shutdown gracefully closes all connections
func (rm *RepositoryManager) Shutdown(ctx context.Context) error {
	if rm.repo == nil {
		return nil
	}
	return rm.repo.Close()
}
