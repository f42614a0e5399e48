package models

import (
	"time"
)

type Test struct {
	ID          uint    `json:"id" gorm:"primaryKey"`
	Title       string  `json:"title" gorm:"not null;size:255" validate:"required,min=3,max=255"`
	Description *string `json:"description" gorm:"type:text"`
	TeacherID   string  `json:"teacher_id" gorm:"not null;index;size:255"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Questions []Question `json:"questions,omitempty" gorm:"foreignKey:TestID"`

	// Statistics (computed)
	QuestionCount   int `json:"question_count" gorm:"-"`
	SubmissionCount int `json:"submission_count" gorm:"-"`
}

func (Test) TableName() string {
	return "tests"
}

// HasSubjectiveQuestions reports whether any loaded question needs human grading.
func (t *Test) HasSubjectiveQuestions() bool {
	for _, q := range t.Questions {
		if q.Kind == QuestionKindSubjective {
			return true
		}
	}
	return false
}
