package repositories

import "context"

// Repository aggregates all entity repositories behind one access point.
type Repository interface {
	// Test domain
	Test() TestRepository
	Question() QuestionRepository

	// Submission domain
	Submission() SubmissionRepository
	Answer() AnswerRepository

	// User domain (read-only, owned by the identity provider)
	User() UserRepository

	// Transaction support
	WithTransaction(ctx context.Context, fn func(Repository) error) error

	// Health check
	Ping(ctx context.Context) error

	// Close connections
	Close() error
}

// RepositoryManager interface for managing repository lifecycle
type RepositoryManager interface {
	Initialize() error
	GetRepository() Repository
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
