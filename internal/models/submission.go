package models

import (
	"time"
)

type SubmissionStatus string

const (
	SubmissionPending SubmissionStatus = "pending"
	SubmissionGraded  SubmissionStatus = "graded"
)

type Submission struct {
	ID        uint   `json:"id" gorm:"primaryKey"`
	TestID    uint   `json:"test_id" gorm:"not null;index"`
	StudentID string `json:"student_id" gorm:"not null;index;size:255"`

	SubmittedAt time.Time `json:"submitted_at" gorm:"not null"`

	// Percentages in [0,100]. ObjectiveScore is null when the test has no
	// objective questions; FinalScore is null until grading completes.
	ObjectiveScore *float64         `json:"objective_score"`
	FinalScore     *float64         `json:"final_score"`
	Status         SubmissionStatus `json:"status" gorm:"not null;default:pending;index"`

	GradedAt *time.Time `json:"graded_at"`
	GradedBy *string    `json:"graded_by" gorm:"size:255"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Answers []Answer `json:"answers,omitempty" gorm:"foreignKey:SubmissionID"`
	Test    *Test    `json:"test,omitempty" gorm:"foreignKey:TestID"`
}

func (Submission) TableName() string {
	return "submissions"
}

func (s *Submission) IsGraded() bool {
	return s.Status == SubmissionGraded
}

// Answer is written once with its submission and never mutated afterward.
type Answer struct {
	ID           uint `json:"id" gorm:"primaryKey"`
	SubmissionID uint `json:"submission_id" gorm:"not null;index"`
	QuestionID   uint `json:"question_id" gorm:"not null;index"`

	Text     *string `json:"text" gorm:"type:text"`
	ImageURL *string `json:"image_url" gorm:"size:500"`

	// Set for objective questions only; stays null for subjective answers.
	IsCorrect *bool `json:"is_correct"`

	CreatedAt time.Time `json:"created_at"`
}

func (Answer) TableName() string {
	return "answers"
}

// IsSkipped reports whether the answer counts as skipped: no text and no
// image reference. A missing answer row counts as skipped too, at the
// aggregation layer.
func (a *Answer) IsSkipped() bool {
	return (a.Text == nil || *a.Text == "") && (a.ImageURL == nil || *a.ImageURL == "")
}
