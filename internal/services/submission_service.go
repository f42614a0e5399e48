package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/fxshorts1-beep/ExamZen123/internal/events"
	"github.com/fxshorts1-beep/ExamZen123/internal/models"
	"github.com/fxshorts1-beep/ExamZen123/internal/repositories"
	"github.com/fxshorts1-beep/ExamZen123/internal/validator"
)

type submissionService struct {
	db        *gorm.DB
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
	publisher events.EventPublisher
}

func NewSubmissionService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator, publisher events.EventPublisher) SubmissionService {
	return &submissionService{
		db:        db,
		repo:      repo,
		logger:    logger,
		validator: validator,
		publisher: publisher,
	}
}

// Create records a submission and its answers as one unit of work. Objective
// answers are auto-scored; the submission lands Graded when the test has no
// subjective questions and Pending otherwise. No idempotency is guaranteed:
// submitting twice creates two submissions.
func (s *submissionService) Create(ctx context.Context, req *models.SubmitTestRequest, studentID string) (*models.Submission, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	if studentID == "" {
		return nil, NewValidationError("student_id", "is required", studentID)
	}

	// Unresolvable test or student is a caller mistake, not a missing
	// resource: the submission itself doesn't exist yet.
	if _, err := s.repo.Test().GetByID(ctx, nil, req.TestID); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, NewValidationError("test_id", "test does not exist", req.TestID)
		}
		return nil, NewPersistenceError("load test", err)
	}

	exists, err := s.repo.User().ExistsByID(ctx, studentID)
	if err != nil {
		return nil, NewPersistenceError("resolve student", err)
	}
	if !exists {
		return nil, NewValidationError("student_id", "student does not exist", studentID)
	}

	questions, err := s.repo.Question().GetByTest(ctx, nil, req.TestID)
	if err != nil {
		return nil, NewPersistenceError("load question catalog", err)
	}

	catalog := make(map[uint]*models.Question, len(questions))
	hasSubjective := false
	for _, q := range questions {
		catalog[q.ID] = q
		if q.Kind == models.QuestionKindSubjective {
			hasSubjective = true
		}
	}

	if errs := s.validator.GetBusinessValidator().ValidateSubmittedAnswers(req.Answers, catalog); len(errs) > 0 {
		return nil, errs
	}

	scoring := ScoreAnswers(req.Answers, catalog)

	submission := &models.Submission{
		TestID:         req.TestID,
		StudentID:      studentID,
		SubmittedAt:    time.Now().UTC(),
		ObjectiveScore: scoring.ObjectiveScore,
		Status:         models.SubmissionPending,
	}

	// A test with no subjective questions is fully auto-graded at creation.
	if !hasSubjective {
		submission.Status = models.SubmissionGraded
		submission.FinalScore = scoring.ObjectiveScore
		now := time.Now().UTC()
		submission.GradedAt = &now
	}

	err = s.repo.WithTransaction(ctx, func(r repositories.Repository) error {
		if err := r.Submission().Create(ctx, nil, submission); err != nil {
			return NewPersistenceError("create submission", err)
		}

		answers := make([]*models.Answer, 0, len(scoring.Answers))
		for _, scored := range scoring.Answers {
			answers = append(answers, &models.Answer{
				SubmissionID: submission.ID,
				QuestionID:   scored.QuestionID,
				Text:         scored.Text,
				ImageURL:     scored.ImageURL,
				IsCorrect:    scored.IsCorrect,
			})
		}

		if err := r.Answer().CreateBatch(ctx, nil, answers); err != nil {
			// Compensating deletes keep the store free of half-written
			// submissions even when the backend cannot roll back.
			if delErr := r.Answer().DeleteBySubmission(ctx, nil, submission.ID); delErr != nil {
				s.logger.Error("failed to delete answers after answer write failure",
					"submission_id", submission.ID, "error", delErr)
			}
			if delErr := r.Submission().Delete(ctx, nil, submission.ID); delErr != nil {
				s.logger.Error("failed to delete submission after answer write failure",
					"submission_id", submission.ID, "error", delErr)
			}
			return NewPersistenceError("create answers", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("submission created",
		"submission_id", submission.ID,
		"test_id", submission.TestID,
		"student_id", studentID,
		"status", submission.Status,
		"answer_count", len(req.Answers))

	s.publishEvent(ctx, events.NewEvent(events.SubmissionCreated, &events.SubmissionCreatedEvent{
		SubmissionID:   submission.ID,
		TestID:         submission.TestID,
		StudentID:      studentID,
		Status:         string(submission.Status),
		ObjectiveScore: submission.ObjectiveScore,
		AnswerCount:    len(req.Answers),
	}))

	return submission, nil
}

// Grade sets the final score and marks the submission Graded. Re-grading an
// already graded submission is allowed and last-write-wins; it emits a
// distinct audit event so callers can layer a policy on top later.
func (s *submissionService) Grade(ctx context.Context, submissionID uint, req *models.GradeSubmissionRequest, graderID string) (*models.Submission, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	grader, err := s.repo.User().GetByID(ctx, graderID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, NewPersistenceError("resolve grader", err)
	}
	if !grader.CanGrade() {
		return nil, NewPermissionError(graderID, "submission", "grade", "grading requires teacher or admin role")
	}

	submission, err := s.repo.Submission().GetByID(ctx, nil, submissionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrSubmissionNotFound
		}
		return nil, NewPersistenceError("load submission", err)
	}

	if grader.Role != models.RoleAdmin {
		test, err := s.repo.Test().GetByID(ctx, nil, submission.TestID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return nil, ErrTestNotFound
			}
			return nil, NewPersistenceError("load test", err)
		}
		if test.TeacherID != graderID {
			return nil, NewPermissionError(graderID, "submission", "grade", "not the owner of this test")
		}
	}

	regrade := submission.IsGraded()
	previousScore := submission.FinalScore

	now := time.Now().UTC()
	submission.FinalScore = &req.FinalScore
	submission.Status = models.SubmissionGraded
	submission.GradedAt = &now
	submission.GradedBy = &graderID

	if err := s.repo.Submission().Update(ctx, nil, submission); err != nil {
		return nil, NewPersistenceError("update submission", err)
	}

	payload := &events.SubmissionGradedEvent{
		SubmissionID: submission.ID,
		TestID:       submission.TestID,
		StudentID:    submission.StudentID,
		GraderID:     graderID,
		FinalScore:   req.FinalScore,
	}

	if regrade {
		payload.PreviousScore = previousScore
		s.logger.Warn("submission regraded",
			"submission_id", submission.ID,
			"grader_id", graderID,
			"previous_score", scoreForLog(previousScore),
			"final_score", req.FinalScore)
		s.publishEvent(ctx, events.NewEvent(events.SubmissionRegraded, payload))
	} else {
		s.logger.Info("submission graded",
			"submission_id", submission.ID,
			"grader_id", graderID,
			"final_score", req.FinalScore)
		s.publishEvent(ctx, events.NewEvent(events.SubmissionGraded, payload))
	}

	return submission, nil
}

// GetByID returns one submission with its answers. Unlike list reads this
// lookup fails loudly on any missing record.
func (s *submissionService) GetByID(ctx context.Context, submissionID uint, userID string) (*models.Submission, error) {
	submission, err := s.repo.Submission().GetByIDWithAnswers(ctx, nil, submissionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrSubmissionNotFound
		}
		return nil, NewPersistenceError("load submission", err)
	}

	if submission.StudentID != userID {
		user, err := s.repo.User().GetByID(ctx, userID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return nil, ErrUserNotFound
			}
			return nil, NewPersistenceError("resolve user", err)
		}
		if !user.CanGrade() {
			return nil, NewPermissionError(userID, "submission", "read", "not the owner of this submission")
		}
	}

	return submission, nil
}

// ListByTest returns the grader's submission list for one test. Rows whose
// student record cannot be resolved are dropped and logged instead of
// failing the listing.
func (s *submissionService) ListByTest(ctx context.Context, testID uint, params models.ListSubmissionsParams, userID string) ([]*SubmissionListItem, int64, error) {
	if err := s.validator.Validate(&params); err != nil {
		return nil, 0, err
	}

	test, err := s.repo.Test().GetByID(ctx, nil, testID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, 0, ErrTestNotFound
		}
		return nil, 0, NewPersistenceError("load test", err)
	}

	if test.TeacherID != userID {
		user, err := s.repo.User().GetByID(ctx, userID)
		if err != nil || user.Role != models.RoleAdmin {
			return nil, 0, NewPermissionError(userID, "test", "view_submissions", "not the owner of this test")
		}
	}

	submissions, total, err := s.repo.Submission().GetByTest(ctx, nil, testID, s.toFilters(params))
	if err != nil {
		return nil, 0, NewPersistenceError("list submissions", err)
	}

	studentIDs := make([]string, 0, len(submissions))
	seen := make(map[string]bool, len(submissions))
	for _, sub := range submissions {
		if !seen[sub.StudentID] {
			studentIDs = append(studentIDs, sub.StudentID)
			seen[sub.StudentID] = true
		}
	}

	students, err := s.repo.User().GetByIDs(ctx, studentIDs)
	if err != nil {
		return nil, 0, NewPersistenceError("resolve students", err)
	}
	studentsByID := make(map[string]*models.User, len(students))
	for _, student := range students {
		studentsByID[student.ID] = student
	}

	items := make([]*SubmissionListItem, 0, len(submissions))
	for _, sub := range submissions {
		student, ok := studentsByID[sub.StudentID]
		if !ok {
			s.logger.Warn("dropping submission with unresolvable student from listing",
				"submission_id", sub.ID, "student_id", sub.StudentID)
			continue
		}
		items = append(items, &SubmissionListItem{
			Submission: sub,
			Student:    student,
			Test:       test,
		})
	}

	return items, total, nil
}

// ListByStudent returns a student's own submissions. Rows whose test has
// been deleted are dropped and logged.
func (s *submissionService) ListByStudent(ctx context.Context, studentID string, params models.ListSubmissionsParams) ([]*SubmissionListItem, int64, error) {
	if err := s.validator.Validate(&params); err != nil {
		return nil, 0, err
	}

	submissions, total, err := s.repo.Submission().GetByStudent(ctx, nil, studentID, s.toFilters(params))
	if err != nil {
		return nil, 0, NewPersistenceError("list submissions", err)
	}

	student, err := s.repo.User().GetByID(ctx, studentID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, 0, ErrStudentNotFound
		}
		return nil, 0, NewPersistenceError("resolve student", err)
	}

	testsByID := make(map[uint]*models.Test)
	items := make([]*SubmissionListItem, 0, len(submissions))
	for _, sub := range submissions {
		test, ok := testsByID[sub.TestID]
		if !ok {
			test, err = s.repo.Test().GetByID(ctx, nil, sub.TestID)
			if err != nil {
				if repositories.IsNotFoundError(err) {
					s.logger.Warn("dropping submission with unresolvable test from listing",
						"submission_id", sub.ID, "test_id", sub.TestID)
					continue
				}
				return nil, 0, NewPersistenceError("resolve test", err)
			}
			testsByID[sub.TestID] = test
		}
		items = append(items, &SubmissionListItem{
			Submission: sub,
			Student:    student,
			Test:       test,
		})
	}

	return items, total, nil
}

func (s *submissionService) toFilters(params models.ListSubmissionsParams) repositories.SubmissionFilters {
	filters := repositories.SubmissionFilters{
		Limit:     params.Size,
		Offset:    params.Page * params.Size,
		SortBy:    params.SortBy,
		SortOrder: params.SortDir,
	}
	if params.Status != nil {
		status := models.SubmissionStatus(*params.Status)
		filters.Status = &status
	}
	return filters
}

// publishEvent sends a lifecycle event; failures are logged and never fail
// the request.
func (s *submissionService) publishEvent(ctx context.Context, event *events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, events.SubmissionsTopic, event); err != nil {
		s.logger.Error("failed to publish event",
			"event_type", event.Type, "event_id", event.ID, "error", err)
	}
}

func scoreForLog(score *float64) string {
	if score == nil {
		return "null"
	}
	return fmt.Sprintf("%.2f", *score)
}
