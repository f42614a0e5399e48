package models

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"
)

type QuestionKind string

const (
	QuestionKindObjective  QuestionKind = "objective"
	QuestionKindSubjective QuestionKind = "subjective"
)

type AnswerFormat string

const (
	AnswerFormatText  AnswerFormat = "text"
	AnswerFormatImage AnswerFormat = "image"
)

// Question is a tagged variant: objective questions carry Options and
// CorrectAnswer, subjective questions carry AnswerFormat. The unused fields
// of the other variant stay null.
type Question struct {
	ID     uint         `json:"id" gorm:"primaryKey"`
	TestID uint         `json:"test_id" gorm:"not null;index"`
	Kind   QuestionKind `json:"kind" gorm:"not null;index" validate:"required,question_kind"`
	Prompt string       `json:"prompt" gorm:"type:text;not null" validate:"required"`
	Points int          `json:"points" gorm:"default:10" validate:"points_range"`
	Order  int          `json:"order" gorm:"default:0"`

	// Objective variant: ordered option list stored as JSONB.
	Options       datatypes.JSON `json:"options,omitempty" gorm:"type:jsonb"`
	CorrectAnswer *string        `json:"correct_answer,omitempty" gorm:"type:text"`

	// Subjective variant.
	AnswerFormat *AnswerFormat `json:"answer_format,omitempty" gorm:"size:20"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Question) TableName() string {
	return "questions"
}

// OptionList decodes the JSONB option column into its ordered string form.
func (q *Question) OptionList() ([]string, error) {
	if len(q.Options) == 0 {
		return nil, nil
	}
	var options []string
	if err := json.Unmarshal(q.Options, &options); err != nil {
		return nil, fmt.Errorf("failed to decode question %d options: %w", q.ID, err)
	}
	return options, nil
}

// SetOptionList encodes an ordered option list into the JSONB column.
func (q *Question) SetOptionList(options []string) error {
	data, err := json.Marshal(options)
	if err != nil {
		return fmt.Errorf("failed to encode question options: %w", err)
	}
	q.Options = data
	return nil
}

// ValidateVariant enforces the per-kind field constraints:
// objective questions need at least two distinct options and a correct answer
// equal to one of them; subjective questions need an answer format and must
// not carry options or a correct answer.
func (q *Question) ValidateVariant() error {
	switch q.Kind {
	case QuestionKindObjective:
		options, err := q.OptionList()
		if err != nil {
			return err
		}
		if len(options) < 2 {
			return fmt.Errorf("objective question requires at least 2 options, got %d", len(options))
		}
		seen := make(map[string]bool, len(options))
		for _, opt := range options {
			if seen[opt] {
				return fmt.Errorf("objective question options must be distinct, %q repeats", opt)
			}
			seen[opt] = true
		}
		if q.CorrectAnswer == nil {
			return fmt.Errorf("objective question requires a correct answer")
		}
		if !seen[*q.CorrectAnswer] {
			return fmt.Errorf("correct answer %q is not one of the options", *q.CorrectAnswer)
		}
		if q.AnswerFormat != nil {
			return fmt.Errorf("objective question must not carry an answer format")
		}
	case QuestionKindSubjective:
		if q.AnswerFormat == nil {
			return fmt.Errorf("subjective question requires an answer format")
		}
		if *q.AnswerFormat != AnswerFormatText && *q.AnswerFormat != AnswerFormatImage {
			return fmt.Errorf("invalid answer format %q", *q.AnswerFormat)
		}
		if len(q.Options) != 0 || q.CorrectAnswer != nil {
			return fmt.Errorf("subjective question must not carry options or a correct answer")
		}
	default:
		return fmt.Errorf("invalid question kind %q", q.Kind)
	}
	if q.Points <= 0 {
		return fmt.Errorf("question points must be positive, got %d", q.Points)
	}
	return nil
}
