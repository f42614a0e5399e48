package services

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"github.com/fxshorts1-beep/ExamZen123/internal/models"
	"github.com/fxshorts1-beep/ExamZen123/internal/repositories"
	"github.com/fxshorts1-beep/ExamZen123/internal/validator"
)

type evaluationService struct {
	db        *gorm.DB
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
}

func NewEvaluationService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator) EvaluationService {
	return &evaluationService{
		db:        db,
		repo:      repo,
		logger:    logger,
		validator: validator,
	}
}

// GetEvaluation assembles everything a grader needs on one screen: the
// submission, its student and test, the question catalog, the answers, and
// cohort-wide skip rates per question. Every lookup here fails loudly; a
// grading view with silently missing pieces is worse than an error.
func (s *evaluationService) GetEvaluation(ctx context.Context, submissionID uint, graderID string) (*EvaluationView, error) {
	grader, err := s.repo.User().GetByID(ctx, graderID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, NewPersistenceError("resolve grader", err)
	}
	if !grader.CanGrade() {
		return nil, NewPermissionError(graderID, "submission", "evaluate", "evaluation requires teacher or admin role")
	}

	submission, err := s.repo.Submission().GetByID(ctx, nil, submissionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrSubmissionNotFound
		}
		return nil, NewPersistenceError("load submission", err)
	}

	student, err := s.repo.User().GetByID(ctx, submission.StudentID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrStudentNotFound
		}
		return nil, NewPersistenceError("resolve student", err)
	}

	test, err := s.repo.Test().GetByID(ctx, nil, submission.TestID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrTestNotFound
		}
		return nil, NewPersistenceError("load test", err)
	}

	if grader.Role != models.RoleAdmin && test.TeacherID != graderID {
		return nil, NewPermissionError(graderID, "submission", "evaluate", "not the owner of this test")
	}

	questions, err := s.repo.Question().GetByTest(ctx, nil, submission.TestID)
	if err != nil {
		return nil, NewPersistenceError("load questions", err)
	}

	answers, err := s.repo.Answer().GetBySubmission(ctx, nil, submissionID)
	if err != nil {
		return nil, NewPersistenceError("load answers", err)
	}

	stats, err := s.computeQuestionStats(ctx, submission.TestID, questions)
	if err != nil {
		return nil, err
	}

	return &EvaluationView{
		Submission:    submission,
		Student:       student,
		Test:          test,
		Questions:     questions,
		Answers:       answers,
		QuestionStats: stats,
	}, nil
}

// computeQuestionStats derives per-question skip rates across the whole
// cohort from a single answer query plus a submission count. A question is
// skipped by a submission when it has no answer row at all or a row with
// neither text nor image.
func (s *evaluationService) computeQuestionStats(ctx context.Context, testID uint, questions []*models.Question) ([]*models.QuestionStat, error) {
	total, err := s.repo.Submission().CountByTest(ctx, nil, testID)
	if err != nil {
		return nil, NewPersistenceError("count submissions", err)
	}

	answered := make(map[uint]int64, len(questions))
	if total > 0 {
		allAnswers, err := s.repo.Answer().GetByTest(ctx, nil, testID)
		if err != nil {
			return nil, NewPersistenceError("load cohort answers", err)
		}
		// Count distinct submissions per question, not rows: duplicate rows
		// from older data must not push a skip count negative.
		counted := make(map[[2]uint]bool, len(allAnswers))
		for _, answer := range allAnswers {
			if answer.IsSkipped() {
				continue
			}
			key := [2]uint{answer.SubmissionID, answer.QuestionID}
			if counted[key] {
				continue
			}
			counted[key] = true
			answered[answer.QuestionID]++
		}
	}

	stats := make([]*models.QuestionStat, 0, len(questions))
	for _, q := range questions {
		skipCount := total - answered[q.ID]
		percentage := 0.0
		if total > 0 {
			percentage = math.Round(float64(skipCount)/float64(total)*100*100) / 100
		}
		stats = append(stats, &models.QuestionStat{
			QuestionID:       q.ID,
			SkipCount:        skipCount,
			TotalSubmissions: total,
			SkipPercentage:   percentage,
		})
	}

	return stats, nil
}

// ExportTestResults renders the test's submissions as an xlsx grade sheet.
func (s *evaluationService) ExportTestResults(ctx context.Context, testID uint, userID string) ([]byte, error) {
	user, err := s.repo.User().GetByID(ctx, userID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, NewPersistenceError("resolve user", err)
	}
	if !user.CanGrade() {
		return nil, NewPermissionError(userID, "test", "export_results", "export requires teacher or admin role")
	}

	test, err := s.repo.Test().GetByID(ctx, nil, testID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrTestNotFound
		}
		return nil, NewPersistenceError("load test", err)
	}
	if user.Role != models.RoleAdmin && test.TeacherID != userID {
		return nil, NewPermissionError(userID, "test", "export_results", "not the owner of this test")
	}

	submissions, _, err := s.repo.Submission().GetByTest(ctx, nil, testID, repositories.SubmissionFilters{
		SortBy:    "submitted_at",
		SortOrder: "asc",
	})
	if err != nil {
		return nil, NewPersistenceError("list submissions", err)
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
		return nil, NewPersistenceError("resolve students", err)
	}
	studentsByID := make(map[string]*models.User, len(students))
	for _, student := range students {
		studentsByID[student.ID] = student
	}

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			s.logger.Warn("failed to close workbook", "error", err)
		}
	}()

	const sheet = "Results"
	f.SetSheetName(f.GetSheetName(0), sheet)

	headers := []string{"Submission ID", "Student", "Email", "Submitted At", "Status", "Objective Score", "Final Score", "Graded At"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return nil, fmt.Errorf("failed to write header: %w", err)
		}
	}

	row := 2
	for _, sub := range submissions {
		name, email := "(unknown)", ""
		if student, ok := studentsByID[sub.StudentID]; ok {
			name, email = student.FullName, student.Email
		} else {
			s.logger.Warn("exporting submission with unresolvable student",
				"submission_id", sub.ID, "student_id", sub.StudentID)
		}

		values := []interface{}{
			sub.ID,
			name,
			email,
			sub.SubmittedAt.Format("2006-01-02 15:04:05"),
			string(sub.Status),
			scoreCell(sub.ObjectiveScore),
			scoreCell(sub.FinalScore),
			gradedAtCell(sub),
		}
		for i, value := range values {
			cell, _ := excelize.CoordinatesToCellName(i+1, row)
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return nil, fmt.Errorf("failed to write row %d: %w", row, err)
			}
		}
		row++
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to render workbook: %w", err)
	}

	s.logger.Info("exported test results",
		"test_id", testID, "rows", len(submissions), "exported_by", userID)

	return buf.Bytes(), nil
}

func scoreCell(score *float64) interface{} {
	if score == nil {
		return ""
	}
	return *score
}

func gradedAtCell(sub *models.Submission) string {
	if sub.GradedAt == nil {
		return ""
	}
	return sub.GradedAt.Format("2006-01-02 15:04:05")
}
