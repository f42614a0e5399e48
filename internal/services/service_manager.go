package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/fxshorts1-beep/ExamZen123/internal/events"
	"github.com/fxshorts1-beep/ExamZen123/internal/repositories"
	"github.com/fxshorts1-beep/ExamZen123/internal/validator"
)

// ServiceManagerConfig holds configuration for the service manager
type ServiceManagerConfig struct {
	EnableDebugLogging bool
	LogLevel           slog.Level

	Submission ServiceConfig
	Evaluation ServiceConfig
	Test       ServiceConfig

	DefaultTimeout time.Duration
}

type ServiceConfig struct {
	Enabled      bool
	CacheEnabled bool
	CacheTTL     time.Duration
}

// serviceManager implements ServiceManager interface
type serviceManager struct {
	db        *gorm.DB
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
	publisher events.EventPublisher
	config    ServiceManagerConfig

	submissionService SubmissionService
	evaluationService EvaluationService
	testService       TestService

	initialized bool
	shutdown    bool
	mu          sync.RWMutex
}

// NewServiceManager creates a new service manager with all dependencies
func NewServiceManager(db *gorm.DB, repo repositories.Repository, logger *slog.Logger, validator *validator.Validator, publisher events.EventPublisher, config ServiceManagerConfig) ServiceManager {
	return &serviceManager{
		db:        db,
		repo:      repo,
		logger:    logger,
		validator: validator,
		publisher: publisher,
		config:    config,
	}
}

// NewDefaultServiceManager creates a service manager with default configuration
func NewDefaultServiceManager(db *gorm.DB, repo repositories.Repository, logger *slog.Logger, validator *validator.Validator, publisher events.EventPublisher) ServiceManager {
	config := ServiceManagerConfig{
		EnableDebugLogging: false,
		LogLevel:           slog.LevelInfo,

		Submission: ServiceConfig{
			Enabled:      true,
			CacheEnabled: true,
			CacheTTL:     2 * time.Minute,
		},
		Evaluation: ServiceConfig{
			Enabled:      true,
			CacheEnabled: true,
			CacheTTL:     5 * time.Minute,
		},
		Test: ServiceConfig{
			Enabled:      true,
			CacheEnabled: true,
			CacheTTL:     10 * time.Minute,
		},

		DefaultTimeout: 30 * time.Second,
	}

	return NewServiceManager(db, repo, logger, validator, publisher, config)
}

// Initialize sets up all services and their dependencies
func (sm *serviceManager) Initialize(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.initialized {
		return nil
	}

	sm.logger.Info("Initializing service manager")

	if sm.config.Submission.Enabled {
		sm.submissionService = NewSubmissionService(sm.repo, sm.db, sm.logger, sm.validator, sm.publisher)
		sm.logger.Info("Submission service initialized")
	}

	if sm.config.Evaluation.Enabled {
		sm.evaluationService = NewEvaluationService(sm.repo, sm.db, sm.logger, sm.validator)
		sm.logger.Info("Evaluation service initialized")
	}

	if sm.config.Test.Enabled {
		sm.testService = NewTestService(sm.repo, sm.db, sm.logger, sm.validator, sm.publisher)
		sm.logger.Info("Test service initialized")
	}

	sm.initialized = true
	sm.logger.Info("Service manager initialized successfully")

	return nil
}

// Service getters
func (sm *serviceManager) Submission() SubmissionService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}

	if sm.config.Submission.Enabled && sm.submissionService != nil {
		return sm.submissionService
	}

	panic("submission service not enabled or not initialized")
}

func (sm *serviceManager) Evaluation() EvaluationService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}

	if sm.config.Evaluation.Enabled && sm.evaluationService != nil {
		return sm.evaluationService
	}

	panic("evaluation service not enabled or not initialized")
}

func (sm *serviceManager) Test() TestService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}

	if sm.config.Test.Enabled && sm.testService != nil {
		return sm.testService
	}

	panic("test service not enabled or not initialized")
}

// Health and lifecycle
func (sm *serviceManager) HealthCheck(ctx context.Context) error {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		return fmt.Errorf("service manager not initialized")
	}

	if sm.shutdown {
		return fmt.Errorf("service manager is shut down")
	}

	if err := sm.repo.Ping(ctx); err != nil {
		return fmt.Errorf("repository health check failed: %w", err)
	}

	return nil
}

func (sm *serviceManager) Shutdown(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.shutdown {
		return nil
	}

	sm.logger.Info("Shutting down service manager")

	if sm.publisher != nil {
		if err := sm.publisher.Close(); err != nil {
			sm.logger.Error("Failed to close event publisher", "error", err)
		}
	}

	if err := sm.repo.Close(); err != nil {
		sm.logger.Error("Failed to close repository", "error", err)
	}

	sm.shutdown = true
	sm.logger.Info("Service manager shut down completed")

	return nil
}

// IsInitialized returns whether the service manager has been initialized
func (sm *serviceManager) IsInitialized() bool {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	return sm.initialized
}

// WithTimeout creates a context with the default timeout
func (sm *serviceManager) WithTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, sm.config.DefaultTimeout)
}
