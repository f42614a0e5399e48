package validator

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Validator wraps struct validation plus the registered business rules.
type Validator struct {
	validate *validator.Validate
	business *BusinessValidator
}

// New creates a validator with all custom rules registered.
func New() *Validator {
	validate := validator.New()
	registerCustomRules(validate)

	return &Validator{
		validate: validate,
		business: &BusinessValidator{validate: validate},
	}
}

// Validate validates a struct's tags; returns ValidationErrors or nil.
func (v *Validator) Validate(s interface{}) error {
	if err := v.validate.Struct(s); err != nil {
		return ToValidationErrors(err)
	}
	return nil
}

// GetBusinessValidator exposes the rule validator for domain checks beyond
// struct tags.
func (v *Validator) GetBusinessValidator() *BusinessValidator {
	return v.business
}

// ValidationError represents a single field validation failure
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
	Rule    string      `json:"rule,omitempty"`
}

type ValidationErrors []ValidationError

func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "validation failed"
	}
	if len(ve) == 1 {
		return fmt.Sprintf("validation failed: %s %s", ve[0].Field, ve[0].Message)
	}
	return fmt.Sprintf("validation failed: %d field errors", len(ve))
}

// ToValidationErrors converts validator/v10 errors into the shared form.
func ToValidationErrors(err error) ValidationErrors {
	var errs ValidationErrors

	fieldErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return ValidationErrors{{Field: "request", Message: err.Error()}}
	}

	for _, fe := range fieldErrors {
		errs = append(errs, ValidationError{
			Field:   fe.Field(),
			Message: errorMessage(fe),
			Value:   fe.Value(),
			Rule:    fe.Tag(),
		})
	}
	return errs
}

func errorMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "url":
		return "must be a valid URL"
	case "final_score":
		return "must be between 0 and 100"
	case "question_kind":
		return "must be 'objective' or 'subjective'"
	case "answer_format":
		return "must be 'text' or 'image'"
	case "points_range":
		return "must be between 1 and 100"
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}
