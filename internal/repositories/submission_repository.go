package repositories

import (
	"context"

	"github.com/fxshorts1-beep/ExamZen123/internal/models"
	"gorm.io/gorm"
)

// SubmissionRepository interface for submission lifecycle operations
type SubmissionRepository interface {
	// Basic CRUD operations
	Create(ctx context.Context, tx *gorm.DB, submission *models.Submission) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Submission, error)
	GetByIDWithAnswers(ctx context.Context, tx *gorm.DB, id uint) (*models.Submission, error)
	Update(ctx context.Context, tx *gorm.DB, submission *models.Submission) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error

	// Query operations
	List(ctx context.Context, tx *gorm.DB, filters SubmissionFilters) ([]*models.Submission, int64, error)
	GetByTest(ctx context.Context, tx *gorm.DB, testID uint, filters SubmissionFilters) ([]*models.Submission, int64, error)
	GetByStudent(ctx context.Context, tx *gorm.DB, studentID string, filters SubmissionFilters) ([]*models.Submission, int64, error)

	// Cascade support
	DeleteByTest(ctx context.Context, tx *gorm.DB, testID uint) error
	CountByTest(ctx context.Context, tx *gorm.DB, testID uint) (int64, error)
}

// AnswerRepository interface for answer operations. Answers are written once
// with their submission and only ever read afterward.
type AnswerRepository interface {
	CreateBatch(ctx context.Context, tx *gorm.DB, answers []*models.Answer) error
	GetBySubmission(ctx context.Context, tx *gorm.DB, submissionID uint) ([]*models.Answer, error)

	// GetByTest fetches every answer of every submission to a test in one
	// query, for cohort-wide statistics.
	GetByTest(ctx context.Context, tx *gorm.DB, testID uint) ([]*models.Answer, error)

	// Cascade support
	DeleteBySubmission(ctx context.Context, tx *gorm.DB, submissionID uint) error
	DeleteByTest(ctx context.Context, tx *gorm.DB, testID uint) error
}
