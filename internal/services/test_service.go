package services

import (
	"context"
	"log/slog"

	"gorm.io/gorm"

	"github.com/fxshorts1-beep/ExamZen123/internal/events"
	"github.com/fxshorts1-beep/ExamZen123/internal/models"
	"github.com/fxshorts1-beep/ExamZen123/internal/repositories"
	"github.com/fxshorts1-beep/ExamZen123/internal/validator"
)

type testService struct {
	db        *gorm.DB
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
	publisher events.EventPublisher
}

func NewTestService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator, publisher events.EventPublisher) TestService {
	return &testService{
		db:        db,
		repo:      repo,
		logger:    logger,
		validator: validator,
		publisher: publisher,
	}
}

// Create persists a test and its question catalog in one transaction.
func (s *testService) Create(ctx context.Context, req *models.TestCreateRequest, teacherID string) (*models.Test, error) {
	if errs := s.validator.GetBusinessValidator().ValidateTestCreate(req); len(errs) > 0 {
		return nil, errs
	}

	teacher, err := s.repo.User().GetByID(ctx, teacherID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, NewPersistenceError("resolve teacher", err)
	}
	if !teacher.CanGrade() {
		return nil, NewPermissionError(teacherID, "test", "create", "test authoring requires teacher or admin role")
	}

	test := &models.Test{
		Title:       req.Title,
		Description: req.Description,
		TeacherID:   teacherID,
	}

	err = s.repo.WithTransaction(ctx, func(r repositories.Repository) error {
		if err := r.Test().Create(ctx, nil, test); err != nil {
			return NewPersistenceError("create test", err)
		}

		questions := make([]*models.Question, 0, len(req.Questions))
		for i, qReq := range req.Questions {
			question := &models.Question{
				TestID:        test.ID,
				Kind:          qReq.Kind,
				Prompt:        qReq.Prompt,
				Points:        qReq.Points,
				Order:         i,
				CorrectAnswer: qReq.CorrectAnswer,
				AnswerFormat:  qReq.AnswerFormat,
			}
			if len(qReq.Options) > 0 {
				if err := question.SetOptionList(qReq.Options); err != nil {
					return NewValidationError("options", "could not be encoded", qReq.Options)
				}
			}
			questions = append(questions, question)
		}

		if err := r.Question().CreateBatch(ctx, nil, questions); err != nil {
			return NewPersistenceError("create questions", err)
		}

		test.Questions = make([]models.Question, 0, len(questions))
		for _, q := range questions {
			test.Questions = append(test.Questions, *q)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("test created",
		"test_id", test.ID, "teacher_id", teacherID, "question_count", len(req.Questions))

	return test, nil
}

func (s *testService) GetByID(ctx context.Context, testID uint) (*models.Test, error) {
	test, err := s.repo.Test().GetByIDWithQuestions(ctx, nil, testID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrTestNotFound
		}
		return nil, NewPersistenceError("load test", err)
	}

	test.QuestionCount = len(test.Questions)

	// Stats are decoration on the read; a counting failure must not hide
	// the test itself.
	if stats, err := s.repo.Test().GetStats(ctx, nil, testID); err != nil {
		s.logger.Warn("failed to load test stats", "test_id", testID, "error", err)
	} else {
		test.SubmissionCount = stats.TotalSubmissions
	}

	return test, nil
}

func (s *testService) ListByTeacher(ctx context.Context, teacherID string, params models.ListSubmissionsParams) ([]*models.Test, int64, error) {
	if err := s.validator.Validate(&params); err != nil {
		return nil, 0, err
	}

	filters := repositories.TestFilters{
		TeacherID: &teacherID,
		Limit:     params.Size,
		Offset:    params.Page * params.Size,
		SortBy:    params.SortBy,
		SortOrder: params.SortDir,
	}

	tests, total, err := s.repo.Test().GetByTeacher(ctx, nil, teacherID, filters)
	if err != nil {
		return nil, 0, NewPersistenceError("list tests", err)
	}
	return tests, total, nil
}

// Delete removes a test together with its submissions, answers, and
// questions. The cascade is best effort and runs child-first so a failure
// partway leaves no orphan rows pointing at deleted parents; each failed
// step is logged and the cascade continues.
func (s *testService) Delete(ctx context.Context, testID uint, userID string) error {
	user, err := s.repo.User().GetByID(ctx, userID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrUserNotFound
		}
		return NewPersistenceError("resolve user", err)
	}

	test, err := s.repo.Test().GetByID(ctx, nil, testID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrTestNotFound
		}
		return NewPersistenceError("load test", err)
	}

	if user.Role != models.RoleAdmin && test.TeacherID != userID {
		return NewPermissionError(userID, "test", "delete", "not the owner of this test")
	}

	submissionCount, err := s.repo.Submission().CountByTest(ctx, nil, testID)
	if err != nil {
		s.logger.Warn("failed to count submissions before test deletion",
			"test_id", testID, "error", err)
		submissionCount = 0
	}

	if err := s.repo.Answer().DeleteByTest(ctx, nil, testID); err != nil {
		s.logger.Error("test deletion cascade: failed to delete answers",
			"test_id", testID, "error", err)
	}
	if err := s.repo.Submission().DeleteByTest(ctx, nil, testID); err != nil {
		s.logger.Error("test deletion cascade: failed to delete submissions",
			"test_id", testID, "error", err)
	}
	if err := s.repo.Question().DeleteByTest(ctx, nil, testID); err != nil {
		s.logger.Error("test deletion cascade: failed to delete questions",
			"test_id", testID, "error", err)
	}
	if err := s.repo.Test().Delete(ctx, nil, testID); err != nil {
		return NewPersistenceError("delete test", err)
	}

	s.logger.Info("test deleted",
		"test_id", testID, "deleted_by", userID, "deleted_submissions", submissionCount)

	if s.publisher != nil {
		event := events.NewEvent(events.TestDeleted, &events.TestDeletedEvent{
			TestID:             testID,
			DeletedBy:          userID,
			DeletedSubmissions: submissionCount,
		})
		if err := s.publisher.Publish(ctx, events.SubmissionsTopic, event); err != nil {
			s.logger.Error("failed to publish event",
				"event_type", event.Type, "event_id", event.ID, "error", err)
		}
	}

	return nil
}
