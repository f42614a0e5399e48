package services

import (
	"context"

	"github.com/fxshorts1-beep/ExamZen123/internal/models"
)

// ===== SUBMISSION DTOs =====

// SubmissionListItem joins a submission with its student and test for list
// views. Student or Test may be dropped by the lenient list reads; the
// service filters such rows out before returning.
type SubmissionListItem struct {
	Submission *models.Submission `json:"submission"`
	Student    *models.User       `json:"student"`
	Test       *models.Test       `json:"test"`
}

// ===== EVALUATION DTOs =====

// EvaluationView is the complete grading view for one submission.
type EvaluationView struct {
	Submission    *models.Submission     `json:"submission"`
	Student       *models.User           `json:"student"`
	Test          *models.Test           `json:"test"`
	Questions     []*models.Question     `json:"questions"`
	Answers       []*models.Answer       `json:"answers"`
	QuestionStats []*models.QuestionStat `json:"question_stats"`
}

// ===== SERVICE INTERFACES =====

// SubmissionService owns the submission lifecycle: creation with auto-scoring
// and the manual grading step.
type SubmissionService interface {
	Create(ctx context.Context, req *models.SubmitTestRequest, studentID string) (*models.Submission, error)
	Grade(ctx context.Context, submissionID uint, req *models.GradeSubmissionRequest, graderID string) (*models.Submission, error)
	GetByID(ctx context.Context, submissionID uint, userID string) (*models.Submission, error)
	ListByTest(ctx context.Context, testID uint, params models.ListSubmissionsParams, userID string) ([]*SubmissionListItem, int64, error)
	ListByStudent(ctx context.Context, studentID string, params models.ListSubmissionsParams) ([]*SubmissionListItem, int64, error)
}

// EvaluationService assembles grading views and cohort exports.
type EvaluationService interface {
	GetEvaluation(ctx context.Context, submissionID uint, graderID string) (*EvaluationView, error)
	ExportTestResults(ctx context.Context, testID uint, userID string) ([]byte, error)
}

// TestService covers test administration: authoring and the deletion cascade.
type TestService interface {
	Create(ctx context.Context, req *models.TestCreateRequest, teacherID string) (*models.Test, error)
	GetByID(ctx context.Context, testID uint) (*models.Test, error)
	ListByTeacher(ctx context.Context, teacherID string, params models.ListSubmissionsParams) ([]*models.Test, int64, error)
	Delete(ctx context.Context, testID uint, userID string) error
}

// ServiceManager provides access to all services with lifecycle management
type ServiceManager interface {
	Submission() SubmissionService
	Evaluation() EvaluationService
	Test() TestService

	Initialize(ctx context.Context) error
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
