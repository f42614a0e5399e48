package services

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"gorm.io/gorm"

	"github.com/fxshorts1-beep/ExamZen123/internal/models"
	"github.com/fxshorts1-beep/ExamZen123/internal/repositories"
)

// mockRepository is an in-memory repositories.Repository for service tests.
// Failure injection flags let tests exercise the error paths.
type mockRepository struct {
	mu sync.Mutex

	tests       map[uint]*models.Test
	questions   map[uint]*models.Question
	submissions map[uint]*models.Submission
	answers     []*models.Answer
	users       map[string]*models.User

	nextTestID       uint
	nextQuestionID   uint
	nextSubmissionID uint
	nextAnswerID     uint

	failAnswerCreate     bool
	failSubmissionCreate bool
	failSubmissionUpdate bool

	deletedSubmissions       []uint
	deletedAnswerSubmissions []uint
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		tests:            make(map[uint]*models.Test),
		questions:        make(map[uint]*models.Question),
		submissions:      make(map[uint]*models.Submission),
		users:            make(map[string]*models.User),
		nextTestID:       1,
		nextQuestionID:   1,
		nextSubmissionID: 1,
		nextAnswerID:     1,
	}
}

func (m *mockRepository) addUser(user *models.User) *models.User {
	m.users[user.ID] = user
	return user
}

func (m *mockRepository) addTest(test *models.Test) *models.Test {
	test.ID = m.nextTestID
	m.nextTestID++
	m.tests[test.ID] = test
	return test
}

func (m *mockRepository) addQuestion(q *models.Question) *models.Question {
	q.ID = m.nextQuestionID
	m.nextQuestionID++
	m.questions[q.ID] = q
	return q
}

func (m *mockRepository) Test() repositories.TestRepository             { return &mockTestRepo{m} }
func (m *mockRepository) Question() repositories.QuestionRepository     { return &mockQuestionRepo{m} }
func (m *mockRepository) Submission() repositories.SubmissionRepository { return &mockSubmissionRepo{m} }
func (m *mockRepository) Answer() repositories.AnswerRepository         { return &mockAnswerRepo{m} }
func (m *mockRepository) User() repositories.UserRepository             { return &mockUserRepo{m} }

func (m *mockRepository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return fn(m)
}

func (m *mockRepository) Ping(ctx context.Context) error { return nil }
func (m *mockRepository) Close() error                   { return nil }

// ===== TEST REPO =====

type mockTestRepo struct{ m *mockRepository }

func (r *mockTestRepo) Create(ctx context.Context, tx *gorm.DB, test *models.Test) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	test.ID = r.m.nextTestID
	r.m.nextTestID++
	r.m.tests[test.ID] = test
	return nil
}

func (r *mockTestRepo) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Test, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	test, ok := r.m.tests[id]
	if !ok {
		return nil, fmt.Errorf("test %d: %w", id, repositories.ErrNotFound)
	}
	return test, nil
}

func (r *mockTestRepo) GetByIDWithQuestions(ctx context.Context, tx *gorm.DB, id uint) (*models.Test, error) {
	test, err := r.GetByID(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	test.Questions = nil
	for _, q := range r.m.questions {
		if q.TestID == id {
			test.Questions = append(test.Questions, *q)
		}
	}
	sort.Slice(test.Questions, func(i, j int) bool {
		return test.Questions[i].Order < test.Questions[j].Order
	})
	return test, nil
}

func (r *mockTestRepo) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.tests[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(r.m.tests, id)
	return nil
}

func (r *mockTestRepo) List(ctx context.Context, tx *gorm.DB, filters repositories.TestFilters) ([]*models.Test, int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var tests []*models.Test
	for _, t := range r.m.tests {
		if filters.TeacherID != nil && t.TeacherID != *filters.TeacherID {
			continue
		}
		tests = append(tests, t)
	}
	sort.Slice(tests, func(i, j int) bool { return tests[i].ID < tests[j].ID })
	return tests, int64(len(tests)), nil
}

func (r *mockTestRepo) GetByTeacher(ctx context.Context, tx *gorm.DB, teacherID string, filters repositories.TestFilters) ([]*models.Test, int64, error) {
	filters.TeacherID = &teacherID
	return r.List(ctx, tx, filters)
}

func (r *mockTestRepo) ExistsByID(ctx context.Context, tx *gorm.DB, id uint) (bool, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	_, ok := r.m.tests[id]
	return ok, nil
}

func (r *mockTestRepo) GetStats(ctx context.Context, tx *gorm.DB, id uint) (*repositories.TestStats, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	stats := &repositories.TestStats{}
	for _, q := range r.m.questions {
		if q.TestID == id {
			stats.QuestionCount++
		}
	}
	var scoreSum float64
	for _, s := range r.m.submissions {
		if s.TestID != id {
			continue
		}
		stats.TotalSubmissions++
		if s.IsGraded() && s.FinalScore != nil {
			stats.GradedSubmissions++
			scoreSum += *s.FinalScore
		}
	}
	if stats.GradedSubmissions > 0 {
		stats.AverageScore = scoreSum / float64(stats.GradedSubmissions)
	}
	return stats, nil
}

// ===== QUESTION REPO =====

type mockQuestionRepo struct{ m *mockRepository }

func (r *mockQuestionRepo) CreateBatch(ctx context.Context, tx *gorm.DB, questions []*models.Question) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, q := range questions {
		q.ID = r.m.nextQuestionID
		r.m.nextQuestionID++
		r.m.questions[q.ID] = q
	}
	return nil
}

func (r *mockQuestionRepo) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Question, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	q, ok := r.m.questions[id]
	if !ok {
		return nil, fmt.Errorf("question %d: %w", id, repositories.ErrNotFound)
	}
	return q, nil
}

func (r *mockQuestionRepo) GetByTest(ctx context.Context, tx *gorm.DB, testID uint) ([]*models.Question, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var questions []*models.Question
	for _, q := range r.m.questions {
		if q.TestID == testID {
			questions = append(questions, q)
		}
	}
	sort.Slice(questions, func(i, j int) bool { return questions[i].Order < questions[j].Order })
	return questions, nil
}

func (r *mockQuestionRepo) DeleteByTest(ctx context.Context, tx *gorm.DB, testID uint) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for id, q := range r.m.questions {
		if q.TestID == testID {
			delete(r.m.questions, id)
		}
	}
	return nil
}

func (r *mockQuestionRepo) CountByTest(ctx context.Context, tx *gorm.DB, testID uint) (int64, error) {
	questions, _ := r.GetByTest(ctx, tx, testID)
	return int64(len(questions)), nil
}

// ===== SUBMISSION REPO =====

type mockSubmissionRepo struct{ m *mockRepository }

func (r *mockSubmissionRepo) Create(ctx context.Context, tx *gorm.DB, submission *models.Submission) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.failSubmissionCreate {
		return fmt.Errorf("injected submission create failure")
	}
	submission.ID = r.m.nextSubmissionID
	r.m.nextSubmissionID++
	r.m.submissions[submission.ID] = submission
	return nil
}

func (r *mockSubmissionRepo) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Submission, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	sub, ok := r.m.submissions[id]
	if !ok {
		return nil, fmt.Errorf("submission %d: %w", id, repositories.ErrNotFound)
	}
	return sub, nil
}

func (r *mockSubmissionRepo) GetByIDWithAnswers(ctx context.Context, tx *gorm.DB, id uint) (*models.Submission, error) {
	sub, err := r.GetByID(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	sub.Answers = nil
	for _, a := range r.m.answers {
		if a.SubmissionID == id {
			sub.Answers = append(sub.Answers, *a)
		}
	}
	return sub, nil
}

func (r *mockSubmissionRepo) Update(ctx context.Context, tx *gorm.DB, submission *models.Submission) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.failSubmissionUpdate {
		return fmt.Errorf("injected submission update failure")
	}
	if _, ok := r.m.submissions[submission.ID]; !ok {
		return repositories.ErrNotFound
	}
	r.m.submissions[submission.ID] = submission
	return nil
}

func (r *mockSubmissionRepo) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	delete(r.m.submissions, id)
	r.m.deletedSubmissions = append(r.m.deletedSubmissions, id)
	return nil
}

func (r *mockSubmissionRepo) List(ctx context.Context, tx *gorm.DB, filters repositories.SubmissionFilters) ([]*models.Submission, int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var subs []*models.Submission
	for _, s := range r.m.submissions {
		if filters.TestID != nil && s.TestID != *filters.TestID {
			continue
		}
		if filters.StudentID != nil && s.StudentID != *filters.StudentID {
			continue
		}
		if filters.Status != nil && s.Status != *filters.Status {
			continue
		}
		subs = append(subs, s)
	}
	sort.Slice(subs, func(i, j int) bool { return subs[i].ID < subs[j].ID })
	return subs, int64(len(subs)), nil
}

func (r *mockSubmissionRepo) GetByTest(ctx context.Context, tx *gorm.DB, testID uint, filters repositories.SubmissionFilters) ([]*models.Submission, int64, error) {
	filters.TestID = &testID
	return r.List(ctx, tx, filters)
}

func (r *mockSubmissionRepo) GetByStudent(ctx context.Context, tx *gorm.DB, studentID string, filters repositories.SubmissionFilters) ([]*models.Submission, int64, error) {
	filters.StudentID = &studentID
	return r.List(ctx, tx, filters)
}

func (r *mockSubmissionRepo) DeleteByTest(ctx context.Context, tx *gorm.DB, testID uint) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for id, s := range r.m.submissions {
		if s.TestID == testID {
			delete(r.m.submissions, id)
		}
	}
	return nil
}

func (r *mockSubmissionRepo) CountByTest(ctx context.Context, tx *gorm.DB, testID uint) (int64, error) {
	_, count, err := r.GetByTest(ctx, tx, testID, repositories.SubmissionFilters{})
	return count, err
}

// ===== ANSWER REPO =====

type mockAnswerRepo struct{ m *mockRepository }

func (r *mockAnswerRepo) CreateBatch(ctx context.Context, tx *gorm.DB, answers []*models.Answer) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.failAnswerCreate {
		return fmt.Errorf("injected answer create failure")
	}
	for _, a := range answers {
		a.ID = r.m.nextAnswerID
		r.m.nextAnswerID++
		r.m.answers = append(r.m.answers, a)
	}
	return nil
}

func (r *mockAnswerRepo) GetBySubmission(ctx context.Context, tx *gorm.DB, submissionID uint) ([]*models.Answer, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var answers []*models.Answer
	for _, a := range r.m.answers {
		if a.SubmissionID == submissionID {
			answers = append(answers, a)
		}
	}
	return answers, nil
}

func (r *mockAnswerRepo) GetByTest(ctx context.Context, tx *gorm.DB, testID uint) ([]*models.Answer, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var answers []*models.Answer
	for _, a := range r.m.answers {
		sub, ok := r.m.submissions[a.SubmissionID]
		if ok && sub.TestID == testID {
			answers = append(answers, a)
		}
	}
	return answers, nil
}

func (r *mockAnswerRepo) DeleteBySubmission(ctx context.Context, tx *gorm.DB, submissionID uint) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	kept := r.m.answers[:0]
	for _, a := range r.m.answers {
		if a.SubmissionID != submissionID {
			kept = append(kept, a)
		}
	}
	r.m.answers = kept
	r.m.deletedAnswerSubmissions = append(r.m.deletedAnswerSubmissions, submissionID)
	return nil
}

func (r *mockAnswerRepo) DeleteByTest(ctx context.Context, tx *gorm.DB, testID uint) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	kept := r.m.answers[:0]
	for _, a := range r.m.answers {
		sub, ok := r.m.submissions[a.SubmissionID]
		if ok && sub.TestID == testID {
			continue
		}
		kept = append(kept, a)
	}
	r.m.answers = kept
	return nil
}

// ===== USER REPO =====

type mockUserRepo struct{ m *mockRepository }

func (r *mockUserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	user, ok := r.m.users[id]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, repositories.ErrNotFound)
	}
	return user, nil
}

func (r *mockUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, u := range r.m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *mockUserRepo) GetByIDs(ctx context.Context, ids []string) ([]*models.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var users []*models.User
	for _, id := range ids {
		if u, ok := r.m.users[id]; ok {
			users = append(users, u)
		}
	}
	return users, nil
}

func (r *mockUserRepo) ExistsByID(ctx context.Context, id string) (bool, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	_, ok := r.m.users[id]
	return ok, nil
}
