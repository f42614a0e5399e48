package validator

import (
	"fmt"
	"strings"

	"github.com/fxshorts1-beep/ExamZen123/internal/models"
	"github.com/go-playground/validator/v10"
)

// BusinessValidator handles domain rules that struct tags cannot express.
type BusinessValidator struct {
	validate *validator.Validate
}

// registerCustomRules registers the custom tag validators.
func registerCustomRules(validate *validator.Validate) {
	// Final score validation (0-100 percentage)
	validate.RegisterValidation("final_score", func(fl validator.FieldLevel) bool {
		score := fl.Field().Float()
		return score >= 0 && score <= 100
	})

	// Points range validation
	validate.RegisterValidation("points_range", func(fl validator.FieldLevel) bool {
		points := fl.Field().Int()
		return points >= 1 && points <= 100
	})

	// question kind validation
	validate.RegisterValidation("question_kind", func(fl validator.FieldLevel) bool {
		kind := models.QuestionKind(fl.Field().String())
		return kind == models.QuestionKindObjective || kind == models.QuestionKindSubjective
	})

	// answer format validation
	validate.RegisterValidation("answer_format", func(fl validator.FieldLevel) bool {
		format := models.AnswerFormat(fl.Field().String())
		return format == models.AnswerFormatText || format == models.AnswerFormatImage
	})
}

// ValidateTestCreate validates test creation including every question variant.
func (bv *BusinessValidator) ValidateTestCreate(req *models.TestCreateRequest) ValidationErrors {
	var errors ValidationErrors

	if err := bv.validate.Struct(req); err != nil {
		errors = append(errors, ToValidationErrors(err)...)
	}

	for i := range req.Questions {
		errors = append(errors, bv.validateQuestionCreate(i, &req.Questions[i])...)
	}

	return errors
}

// validateQuestionCreate enforces the per-kind question rules: objective
// questions need at least two distinct options with the correct answer among
// them, subjective questions need an answer format and nothing else.
func (bv *BusinessValidator) validateQuestionCreate(index int, req *models.QuestionCreateRequest) ValidationErrors {
	var errors ValidationErrors
	field := func(name string) string { return fmt.Sprintf("questions[%d].%s", index, name) }

	switch req.Kind {
	case models.QuestionKindObjective:
		if len(req.Options) < 2 {
			errors = append(errors, ValidationError{
				Field:   field("options"),
				Message: "objective question requires at least 2 options",
				Value:   len(req.Options),
				Rule:    "business_logic",
			})
		}

		seen := make(map[string]bool, len(req.Options))
		for _, opt := range req.Options {
			if strings.TrimSpace(opt) == "" {
				errors = append(errors, ValidationError{
					Field:   field("options"),
					Message: "option cannot be empty",
					Value:   opt,
					Rule:    "business_logic",
				})
				continue
			}
			if seen[opt] {
				errors = append(errors, ValidationError{
					Field:   field("options"),
					Message: fmt.Sprintf("duplicate option %q", opt),
					Value:   opt,
					Rule:    "business_logic",
				})
			}
			seen[opt] = true
		}

		if req.CorrectAnswer == nil {
			errors = append(errors, ValidationError{
				Field:   field("correct_answer"),
				Message: "objective question requires a correct answer",
				Rule:    "business_logic",
			})
		} else if !seen[*req.CorrectAnswer] {
			errors = append(errors, ValidationError{
				Field:   field("correct_answer"),
				Message: "correct answer must be one of the options",
				Value:   *req.CorrectAnswer,
				Rule:    "business_logic",
			})
		}

		if req.AnswerFormat != nil {
			errors = append(errors, ValidationError{
				Field:   field("answer_format"),
				Message: "objective question must not set an answer format",
				Rule:    "business_logic",
			})
		}

	case models.QuestionKindSubjective:
		if req.AnswerFormat == nil {
			errors = append(errors, ValidationError{
				Field:   field("answer_format"),
				Message: "subjective question requires an answer format",
				Rule:    "business_logic",
			})
		}
		if len(req.Options) > 0 || req.CorrectAnswer != nil {
			errors = append(errors, ValidationError{
				Field:   field("options"),
				Message: "subjective question must not set options or a correct answer",
				Rule:    "business_logic",
			})
		}
	}

	return errors
}

// ValidateSubmittedAnswers checks every answered question belongs to the
// test's catalog, each question is answered at most once, and image answers
// only go to image-format questions.
func (bv *BusinessValidator) ValidateSubmittedAnswers(answers []models.SubmittedAnswerDTO, catalog map[uint]*models.Question) ValidationErrors {
	var errors ValidationErrors

	answeredQuestions := make(map[uint]bool, len(answers))
	for i, answer := range answers {
		if answeredQuestions[answer.QuestionID] {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("answers[%d].question_id", i),
				Message: "question answered more than once",
				Value:   answer.QuestionID,
				Rule:    "business_logic",
			})
			continue
		}
		answeredQuestions[answer.QuestionID] = true

		question, ok := catalog[answer.QuestionID]
		if !ok {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("answers[%d].question_id", i),
				Message: "question does not belong to this test",
				Value:   answer.QuestionID,
				Rule:    "business_logic",
			})
			continue
		}

		if answer.ImageURL != nil && *answer.ImageURL != "" {
			if question.Kind != models.QuestionKindSubjective ||
				question.AnswerFormat == nil || *question.AnswerFormat != models.AnswerFormatImage {
				errors = append(errors, ValidationError{
					Field:   fmt.Sprintf("answers[%d].image_url", i),
					Message: "image answers are only accepted for image-format subjective questions",
					Value:   answer.QuestionID,
					Rule:    "business_logic",
				})
			}
		}
	}

	return errors
}
