package repositories

import (
	"time"

	"github.com/fxshorts1-beep/ExamZen123/internal/models"
)

// ===== SHARED FILTER STRUCTS =====

type TestFilters struct {
	TeacherID *string    `json:"teacher_id"`
	DateFrom  *time.Time `json:"date_from"`
	DateTo    *time.Time `json:"date_to"`
	Limit     int        `json:"limit"`
	Offset    int        `json:"offset"`
	SortBy    string     `json:"sort_by"`    // "created_at", "title"
	SortOrder string     `json:"sort_order"` // "asc", "desc"
}

type SubmissionFilters struct {
	Status    *models.SubmissionStatus `json:"status"`
	StudentID *string                  `json:"student_id"`
	TestID    *uint                    `json:"test_id"`
	DateFrom  *time.Time               `json:"date_from"`
	DateTo    *time.Time               `json:"date_to"`
	Limit     int                      `json:"limit"`
	Offset    int                      `json:"offset"`
	SortBy    string                   `json:"sort_by"`    // "submitted_at", "status", "final_score"
	SortOrder string                   `json:"sort_order"` // "asc", "desc"
}

type UserFilters struct {
	Query  string
	Limit  int
	Offset int
}

// ===== SHARED STATISTICS STRUCTS =====

// TestStats summarizes a test's submission cohort.
type TestStats struct {
	TotalSubmissions  int     `json:"total_submissions"`
	GradedSubmissions int     `json:"graded_submissions"`
	AverageScore      float64 `json:"average_score"`
	QuestionCount     int     `json:"question_count"`
}
