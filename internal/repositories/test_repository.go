package repositories

import (
	"context"

	"github.com/fxshorts1-beep/ExamZen123/internal/models"
	"gorm.io/gorm"
)

// TestRepository interface for test-specific operations
type TestRepository interface {
	// Basic CRUD operations
	Create(ctx context.Context, tx *gorm.DB, test *models.Test) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Test, error)
	GetByIDWithQuestions(ctx context.Context, tx *gorm.DB, id uint) (*models.Test, error)
	Delete(ctx context.Context, tx *gorm.DB, id uint) error

	// Query operations
	List(ctx context.Context, tx *gorm.DB, filters TestFilters) ([]*models.Test, int64, error)
	GetByTeacher(ctx context.Context, tx *gorm.DB, teacherID string, filters TestFilters) ([]*models.Test, int64, error)

	// Validation and checks
	ExistsByID(ctx context.Context, tx *gorm.DB, id uint) (bool, error)

	// Statistics
	GetStats(ctx context.Context, tx *gorm.DB, id uint) (*TestStats, error)
}

// QuestionRepository interface for question catalog operations.
// The catalog is read-only from the grading core's perspective; writes happen
// only through test administration.
type QuestionRepository interface {
	CreateBatch(ctx context.Context, tx *gorm.DB, questions []*models.Question) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Question, error)
	GetByTest(ctx context.Context, tx *gorm.DB, testID uint) ([]*models.Question, error)
	DeleteByTest(ctx context.Context, tx *gorm.DB, testID uint) error
	CountByTest(ctx context.Context, tx *gorm.DB, testID uint) (int64, error)
}
