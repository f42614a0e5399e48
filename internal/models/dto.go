package models

import (
	"time"
)

// ===== REQUEST DTOs =====

type SubmitTestRequest struct {
	TestID  uint                 `json:"test_id" validate:"required"`
	Answers []SubmittedAnswerDTO `json:"answers" validate:"dive"`
}

// SubmittedAnswerDTO is one (question, response) tuple. Both Text and
// ImageURL nil means the student skipped the question.
type SubmittedAnswerDTO struct {
	QuestionID uint    `json:"question_id" validate:"required"`
	Text       *string `json:"text"`
	ImageURL   *string `json:"image_url" validate:"omitempty,url"`
}

type GradeSubmissionRequest struct {
	FinalScore float64 `json:"final_score" validate:"final_score"`
}

type TestCreateRequest struct {
	Title       string                  `json:"title" validate:"required,min=3,max=255"`
	Description *string                 `json:"description" validate:"omitempty,max=1000"`
	Questions   []QuestionCreateRequest `json:"questions" validate:"required,min=1,dive"`
}

type QuestionCreateRequest struct {
	Kind          QuestionKind  `json:"kind" validate:"required,question_kind"`
	Prompt        string        `json:"prompt" validate:"required"`
	Points        int           `json:"points" validate:"points_range"`
	Options       []string      `json:"options"`
	CorrectAnswer *string       `json:"correct_answer"`
	AnswerFormat  *AnswerFormat `json:"answer_format" validate:"omitempty,answer_format"`
}

// ===== LIST PARAMS =====

type ListSubmissionsParams struct {
	Page    int     `json:"page" validate:"min=0"`
	Size    int     `json:"size" validate:"min=1,max=100"`
	Status  *string `json:"status" validate:"omitempty,oneof=pending graded"`
	SortBy  string  `json:"sort_by"`
	SortDir string  `json:"sort_dir" validate:"omitempty,oneof=asc desc"`
}

type PaginatedResponse struct {
	Content       interface{} `json:"content"`
	TotalElements int64       `json:"total_elements"`
	TotalPages    int         `json:"total_pages"`
	Size          int         `json:"size"`
	Page          int         `json:"page"`
}

// ===== EVALUATION VIEW DTOs =====

// QuestionStat carries the cohort-wide skip statistics for one question.
type QuestionStat struct {
	QuestionID       uint    `json:"question_id"`
	SkipCount        int64   `json:"skip_count"`
	TotalSubmissions int64   `json:"total_submissions"`
	SkipPercentage   float64 `json:"skip_percentage"`
}

// ===== ERROR RESPONSES =====

type ValidationErrorResponse struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Value   string `json:"value"`
	Code    string `json:"code"`
}

type ErrorResponse struct {
	Error            string                    `json:"error"`
	Message          string                    `json:"message"`
	Details          interface{}               `json:"details,omitempty"`
	Timestamp        time.Time                 `json:"timestamp"`
	Path             string                    `json:"path,omitempty"`
	ValidationErrors []ValidationErrorResponse `json:"validation_errors,omitempty"`
}

type SuccessResponse struct {
	Message   string      `json:"message"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}
