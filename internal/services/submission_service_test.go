package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/fxshorts1-beep/ExamZen123/internal/events"
	"github.com/fxshorts1-beep/ExamZen123/internal/models"
	"github.com/fxshorts1-beep/ExamZen123/internal/validator"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestSubmissionService(repo *mockRepository) (SubmissionService, *events.MockEventPublisher) {
	logger := testLogger()
	publisher := events.NewMockEventPublisher(logger)
	return NewSubmissionService(repo, nil, logger, validator.New(), publisher), publisher
}

// seedObjectiveTest creates a teacher, a student, and a test with two
// objective questions (correct answers "A" and "B").
func seedObjectiveTest(repo *mockRepository) (teacherID, studentID string, testID uint) {
	teacher := repo.addUser(&models.User{ID: "teacher-1", FullName: "Ada", Role: models.RoleTeacher})
	student := repo.addUser(&models.User{ID: "student-1", FullName: "Linus", Role: models.RoleStudent})
	test := repo.addTest(&models.Test{Title: "Basics", TeacherID: teacher.ID})
	repo.addQuestion(objectiveQuestionForTest(test.ID, 0, "A"))
	repo.addQuestion(objectiveQuestionForTest(test.ID, 1, "B"))
	return teacher.ID, student.ID, test.ID
}

func objectiveQuestionForTest(testID uint, order int, correct string) *models.Question {
	return &models.Question{
		TestID:        testID,
		Kind:          models.QuestionKindObjective,
		Prompt:        "prompt",
		Points:        10,
		Order:         order,
		CorrectAnswer: strPtr(correct),
	}
}

func subjectiveQuestionForTest(testID uint, order int) *models.Question {
	format := models.AnswerFormatText
	return &models.Question{
		TestID:       testID,
		Kind:         models.QuestionKindSubjective,
		Prompt:       "essay prompt",
		Points:       20,
		Order:        order,
		AnswerFormat: &format,
	}
}

func TestSubmissionCreateAutoGrades(t *testing.T) {
	repo := newMockRepository()
	_, studentID, testID := seedObjectiveTest(repo)
	svc, publisher := newTestSubmissionService(repo)

	questions, _ := repo.Question().GetByTest(context.Background(), nil, testID)

	req := &models.SubmitTestRequest{
		TestID: testID,
		Answers: []models.SubmittedAnswerDTO{
			{QuestionID: questions[0].ID, Text: strPtr("A")},
			{QuestionID: questions[1].ID, Text: strPtr("wrong")},
		},
	}

	submission, err := svc.Create(context.Background(), req, studentID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// No subjective questions: the submission is fully graded at creation.
	if submission.Status != models.SubmissionGraded {
		t.Errorf("expected status %q, got %q", models.SubmissionGraded, submission.Status)
	}
	if submission.ObjectiveScore == nil || *submission.ObjectiveScore != 50 {
		t.Errorf("expected objective score 50, got %v", submission.ObjectiveScore)
	}
	if submission.FinalScore == nil || *submission.FinalScore != 50 {
		t.Errorf("expected final score 50, got %v", submission.FinalScore)
	}
	if submission.GradedAt == nil {
		t.Error("expected graded_at to be set")
	}

	answers, _ := repo.Answer().GetBySubmission(context.Background(), nil, submission.ID)
	if len(answers) != 2 {
		t.Fatalf("expected 2 stored answers, got %d", len(answers))
	}

	published := publisher.GetPublishedEvents()
	if len(published) != 1 || published[0].Type != events.SubmissionCreated {
		t.Fatalf("expected one %s event, got %+v", events.SubmissionCreated, published)
	}
}

func TestSubmissionCreateCountsOmittedObjectiveAsWrong(t *testing.T) {
	repo := newMockRepository()
	_, studentID, testID := seedObjectiveTest(repo)
	svc, _ := newTestSubmissionService(repo)

	questions, _ := repo.Question().GetByTest(context.Background(), nil, testID)

	// Only the first of the two objective questions is answered; the
	// untouched one still counts against the score.
	req := &models.SubmitTestRequest{
		TestID: testID,
		Answers: []models.SubmittedAnswerDTO{
			{QuestionID: questions[0].ID, Text: strPtr("A")},
		},
	}

	submission, err := svc.Create(context.Background(), req, studentID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if submission.ObjectiveScore == nil || *submission.ObjectiveScore != 50 {
		t.Errorf("expected objective score 50, got %v", submission.ObjectiveScore)
	}
	if submission.Status != models.SubmissionGraded {
		t.Errorf("expected status %q, got %q", models.SubmissionGraded, submission.Status)
	}
	if submission.FinalScore == nil || *submission.FinalScore != 50 {
		t.Errorf("expected final score 50, got %v", submission.FinalScore)
	}
}

func TestSubmissionCreateWithNoAnswersScoresZero(t *testing.T) {
	repo := newMockRepository()
	_, studentID, testID := seedObjectiveTest(repo)
	svc, _ := newTestSubmissionService(repo)

	submission, err := svc.Create(context.Background(), &models.SubmitTestRequest{TestID: testID}, studentID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// A fully-objective test graded at creation always carries a score,
	// even when nothing was answered.
	if submission.Status != models.SubmissionGraded {
		t.Errorf("expected status %q, got %q", models.SubmissionGraded, submission.Status)
	}
	if submission.ObjectiveScore == nil || *submission.ObjectiveScore != 0 {
		t.Errorf("expected objective score 0, got %v", submission.ObjectiveScore)
	}
	if submission.FinalScore == nil || *submission.FinalScore != 0 {
		t.Errorf("expected final score 0, got %v", submission.FinalScore)
	}
}

func TestSubmissionCreateRejectsDuplicateAnswers(t *testing.T) {
	repo := newMockRepository()
	_, studentID, testID := seedObjectiveTest(repo)
	svc, _ := newTestSubmissionService(repo)

	questions, _ := repo.Question().GetByTest(context.Background(), nil, testID)

	req := &models.SubmitTestRequest{
		TestID: testID,
		Answers: []models.SubmittedAnswerDTO{
			{QuestionID: questions[0].ID, Text: strPtr("A")},
			{QuestionID: questions[0].ID, Text: strPtr("A")},
			{QuestionID: questions[1].ID, Text: strPtr("B")},
		},
	}

	_, err := svc.Create(context.Background(), req, studentID)

	var validationErrors ValidationErrors
	if !errors.As(err, &validationErrors) {
		t.Fatalf("expected validation error for duplicate answers, got %v", err)
	}
	if len(repo.submissions) != 0 {
		t.Errorf("expected no stored submissions, got %d", len(repo.submissions))
	}
}

func TestSubmissionCreateStaysPendingWithSubjectiveQuestions(t *testing.T) {
	repo := newMockRepository()
	_, studentID, testID := seedObjectiveTest(repo)
	essay := repo.addQuestion(subjectiveQuestionForTest(testID, 2))
	svc, _ := newTestSubmissionService(repo)

	questions, _ := repo.Question().GetByTest(context.Background(), nil, testID)

	req := &models.SubmitTestRequest{
		TestID: testID,
		Answers: []models.SubmittedAnswerDTO{
			{QuestionID: questions[0].ID, Text: strPtr("A")},
			{QuestionID: questions[1].ID, Text: strPtr("B")},
			{QuestionID: essay.ID, Text: strPtr("my essay")},
		},
	}

	submission, err := svc.Create(context.Background(), req, studentID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if submission.Status != models.SubmissionPending {
		t.Errorf("expected status %q, got %q", models.SubmissionPending, submission.Status)
	}
	if submission.ObjectiveScore == nil || *submission.ObjectiveScore != 100 {
		t.Errorf("expected objective score 100, got %v", submission.ObjectiveScore)
	}
	if submission.FinalScore != nil {
		t.Errorf("expected nil final score while pending, got %v", *submission.FinalScore)
	}
	if submission.GradedAt != nil {
		t.Error("expected graded_at to be unset while pending")
	}
}

func TestSubmissionCreateUnknownTest(t *testing.T) {
	repo := newMockRepository()
	repo.addUser(&models.User{ID: "student-1", Role: models.RoleStudent})
	svc, _ := newTestSubmissionService(repo)

	req := &models.SubmitTestRequest{TestID: 999}
	_, err := svc.Create(context.Background(), req, "student-1")

	var validationErrors ValidationErrors
	if !errors.As(err, &validationErrors) {
		t.Fatalf("expected validation error for unknown test, got %v", err)
	}
}

func TestSubmissionCreateUnknownStudent(t *testing.T) {
	repo := newMockRepository()
	teacher := repo.addUser(&models.User{ID: "teacher-1", Role: models.RoleTeacher})
	test := repo.addTest(&models.Test{Title: "T", TeacherID: teacher.ID})
	svc, _ := newTestSubmissionService(repo)

	req := &models.SubmitTestRequest{TestID: test.ID}
	_, err := svc.Create(context.Background(), req, "ghost")

	var validationErrors ValidationErrors
	if !errors.As(err, &validationErrors) {
		t.Fatalf("expected validation error for unknown student, got %v", err)
	}
}

func TestSubmissionCreateAnswerForWrongTestRejected(t *testing.T) {
	repo := newMockRepository()
	_, studentID, testID := seedObjectiveTest(repo)
	otherTest := repo.addTest(&models.Test{Title: "Other", TeacherID: "teacher-1"})
	foreign := repo.addQuestion(objectiveQuestionForTest(otherTest.ID, 0, "X"))
	svc, _ := newTestSubmissionService(repo)

	req := &models.SubmitTestRequest{
		TestID: testID,
		Answers: []models.SubmittedAnswerDTO{
			{QuestionID: foreign.ID, Text: strPtr("X")},
		},
	}

	_, err := svc.Create(context.Background(), req, studentID)

	var validationErrors ValidationErrors
	if !errors.As(err, &validationErrors) {
		t.Fatalf("expected validation error for foreign question, got %v", err)
	}
}

func TestSubmissionCreateCompensatesOnAnswerFailure(t *testing.T) {
	repo := newMockRepository()
	_, studentID, testID := seedObjectiveTest(repo)
	repo.failAnswerCreate = true
	svc, publisher := newTestSubmissionService(repo)

	questions, _ := repo.Question().GetByTest(context.Background(), nil, testID)

	req := &models.SubmitTestRequest{
		TestID: testID,
		Answers: []models.SubmittedAnswerDTO{
			{QuestionID: questions[0].ID, Text: strPtr("A")},
		},
	}

	_, err := svc.Create(context.Background(), req, studentID)

	var persistenceError *PersistenceError
	if !errors.As(err, &persistenceError) {
		t.Fatalf("expected persistence error, got %v", err)
	}

	// The partially written submission must have been deleted again.
	if len(repo.deletedSubmissions) != 1 {
		t.Errorf("expected one compensating delete, got %d", len(repo.deletedSubmissions))
	}
	if len(repo.deletedAnswerSubmissions) != 1 {
		t.Errorf("expected one compensating answer delete, got %d", len(repo.deletedAnswerSubmissions))
	}
	if len(repo.submissions) != 0 {
		t.Errorf("expected no stored submissions, got %d", len(repo.submissions))
	}
	if len(publisher.GetPublishedEvents()) != 0 {
		t.Error("expected no events after failed creation")
	}
}

func TestSubmissionGrade(t *testing.T) {
	repo := newMockRepository()
	teacherID, studentID, testID := seedObjectiveTest(repo)
	repo.addQuestion(subjectiveQuestionForTest(testID, 2))
	svc, publisher := newTestSubmissionService(repo)

	questions, _ := repo.Question().GetByTest(context.Background(), nil, testID)
	req := &models.SubmitTestRequest{
		TestID: testID,
		Answers: []models.SubmittedAnswerDTO{
			{QuestionID: questions[0].ID, Text: strPtr("A")},
		},
	}
	submission, err := svc.Create(context.Background(), req, studentID)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	publisher.ClearEvents()

	graded, err := svc.Grade(context.Background(), submission.ID, &models.GradeSubmissionRequest{FinalScore: 88}, teacherID)
	if err != nil {
		t.Fatalf("grade failed: %v", err)
	}

	if graded.Status != models.SubmissionGraded {
		t.Errorf("expected status %q, got %q", models.SubmissionGraded, graded.Status)
	}
	if graded.FinalScore == nil || *graded.FinalScore != 88 {
		t.Errorf("expected final score 88, got %v", graded.FinalScore)
	}
	if graded.GradedBy == nil || *graded.GradedBy != teacherID {
		t.Errorf("expected graded_by %q, got %v", teacherID, graded.GradedBy)
	}
	if graded.GradedAt == nil {
		t.Error("expected graded_at to be set")
	}

	published := publisher.GetPublishedEvents()
	if len(published) != 1 || published[0].Type != events.SubmissionGraded {
		t.Fatalf("expected one %s event, got %+v", events.SubmissionGraded, published)
	}
}

func TestSubmissionRegradeLastWriteWins(t *testing.T) {
	repo := newMockRepository()
	teacherID, studentID, testID := seedObjectiveTest(repo)
	repo.addQuestion(subjectiveQuestionForTest(testID, 2))
	svc, publisher := newTestSubmissionService(repo)

	questions, _ := repo.Question().GetByTest(context.Background(), nil, testID)
	req := &models.SubmitTestRequest{
		TestID: testID,
		Answers: []models.SubmittedAnswerDTO{
			{QuestionID: questions[0].ID, Text: strPtr("A")},
		},
	}
	submission, err := svc.Create(context.Background(), req, studentID)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if _, err := svc.Grade(context.Background(), submission.ID, &models.GradeSubmissionRequest{FinalScore: 70}, teacherID); err != nil {
		t.Fatalf("first grade failed: %v", err)
	}
	publisher.ClearEvents()

	regraded, err := svc.Grade(context.Background(), submission.ID, &models.GradeSubmissionRequest{FinalScore: 95}, teacherID)
	if err != nil {
		t.Fatalf("re-grade failed: %v", err)
	}

	if regraded.FinalScore == nil || *regraded.FinalScore != 95 {
		t.Errorf("expected final score 95 after re-grade, got %v", regraded.FinalScore)
	}

	published := publisher.GetPublishedEvents()
	if len(published) != 1 || published[0].Type != events.SubmissionRegraded {
		t.Fatalf("expected one %s event, got %+v", events.SubmissionRegraded, published)
	}

	payload, ok := published[0].Data.(*events.SubmissionGradedEvent)
	if !ok {
		t.Fatalf("unexpected payload type %T", published[0].Data)
	}
	if payload.PreviousScore == nil || *payload.PreviousScore != 70 {
		t.Errorf("expected previous score 70 in re-grade event, got %v", payload.PreviousScore)
	}
	if payload.FinalScore != 95 {
		t.Errorf("expected final score 95 in re-grade event, got %v", payload.FinalScore)
	}
}

func TestSubmissionGradeNotFound(t *testing.T) {
	repo := newMockRepository()
	repo.addUser(&models.User{ID: "teacher-1", Role: models.RoleTeacher})
	svc, _ := newTestSubmissionService(repo)

	_, err := svc.Grade(context.Background(), 404, &models.GradeSubmissionRequest{FinalScore: 50}, "teacher-1")
	if !errors.Is(err, ErrSubmissionNotFound) {
		t.Fatalf("expected ErrSubmissionNotFound, got %v", err)
	}
}

func TestSubmissionGradeScoreOutOfRange(t *testing.T) {
	repo := newMockRepository()
	teacherID, studentID, testID := seedObjectiveTest(repo)
	svc, _ := newTestSubmissionService(repo)

	questions, _ := repo.Question().GetByTest(context.Background(), nil, testID)
	req := &models.SubmitTestRequest{
		TestID:  testID,
		Answers: []models.SubmittedAnswerDTO{{QuestionID: questions[0].ID, Text: strPtr("A")}},
	}
	submission, err := svc.Create(context.Background(), req, studentID)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	for _, score := range []float64{-1, 101, 250} {
		_, err := svc.Grade(context.Background(), submission.ID, &models.GradeSubmissionRequest{FinalScore: score}, teacherID)
		var validationErrors ValidationErrors
		if !errors.As(err, &validationErrors) {
			t.Errorf("score %v: expected validation error, got %v", score, err)
		}
	}
}

func TestSubmissionGradeRequiresGraderRole(t *testing.T) {
	repo := newMockRepository()
	_, studentID, testID := seedObjectiveTest(repo)
	svc, _ := newTestSubmissionService(repo)

	questions, _ := repo.Question().GetByTest(context.Background(), nil, testID)
	req := &models.SubmitTestRequest{
		TestID:  testID,
		Answers: []models.SubmittedAnswerDTO{{QuestionID: questions[0].ID, Text: strPtr("A")}},
	}
	submission, err := svc.Create(context.Background(), req, studentID)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	_, err = svc.Grade(context.Background(), submission.ID, &models.GradeSubmissionRequest{FinalScore: 50}, studentID)
	var permissionError *PermissionError
	if !errors.As(err, &permissionError) {
		t.Fatalf("expected permission error for student grader, got %v", err)
	}
}

func TestListByTestDropsUnresolvableStudents(t *testing.T) {
	repo := newMockRepository()
	teacherID, studentID, testID := seedObjectiveTest(repo)
	svc, _ := newTestSubmissionService(repo)

	questions, _ := repo.Question().GetByTest(context.Background(), nil, testID)
	req := &models.SubmitTestRequest{
		TestID:  testID,
		Answers: []models.SubmittedAnswerDTO{{QuestionID: questions[0].ID, Text: strPtr("A")}},
	}
	if _, err := svc.Create(context.Background(), req, studentID); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	// A second submission whose student has since vanished from the
	// identity provider.
	repo.addUser(&models.User{ID: "ghost", Role: models.RoleStudent})
	if _, err := svc.Create(context.Background(), req, "ghost"); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	delete(repo.users, "ghost")

	items, total, err := svc.ListByTest(context.Background(), testID, models.ListSubmissionsParams{Size: 20}, teacherID)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}

	if len(items) != 1 {
		t.Fatalf("expected 1 listed item after dropping the orphan, got %d", len(items))
	}
	if items[0].Student.ID != studentID {
		t.Errorf("expected surviving item to belong to %q, got %q", studentID, items[0].Student.ID)
	}
	// Total still reflects the stored rows, not the drop.
	if total != 2 {
		t.Errorf("expected total 2, got %d", total)
	}
}

func TestGetByIDOwnerAndGraderAccess(t *testing.T) {
	repo := newMockRepository()
	teacherID, studentID, testID := seedObjectiveTest(repo)
	other := repo.addUser(&models.User{ID: "student-2", Role: models.RoleStudent})
	svc, _ := newTestSubmissionService(repo)

	questions, _ := repo.Question().GetByTest(context.Background(), nil, testID)
	req := &models.SubmitTestRequest{
		TestID:  testID,
		Answers: []models.SubmittedAnswerDTO{{QuestionID: questions[0].ID, Text: strPtr("A")}},
	}
	submission, err := svc.Create(context.Background(), req, studentID)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if _, err := svc.GetByID(context.Background(), submission.ID, studentID); err != nil {
		t.Errorf("owner read failed: %v", err)
	}
	if _, err := svc.GetByID(context.Background(), submission.ID, teacherID); err != nil {
		t.Errorf("grader read failed: %v", err)
	}

	_, err = svc.GetByID(context.Background(), submission.ID, other.ID)
	var permissionError *PermissionError
	if !errors.As(err, &permissionError) {
		t.Errorf("expected permission error for unrelated student, got %v", err)
	}

	if _, err := svc.GetByID(context.Background(), 404, studentID); !errors.Is(err, ErrSubmissionNotFound) {
		t.Errorf("expected ErrSubmissionNotFound, got %v", err)
	}
}
