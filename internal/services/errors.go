package services

import (
	"errors"
	"fmt"

	"github.com/fxshorts1-beep/ExamZen123/internal/validator"
)

// Sentinel errors surfaced to callers.
var (
	ErrSubmissionNotFound = errors.New("submission not found")
	ErrTestNotFound       = errors.New("test not found")
	ErrStudentNotFound    = errors.New("student not found")
	ErrQuestionNotFound   = errors.New("question not found")
	ErrUserNotFound       = errors.New("user not found")

	ErrValidationFailed        = errors.New("validation failed")
	ErrUnauthorized            = errors.New("unauthorized")
	ErrForbidden               = errors.New("forbidden")
	ErrInsufficientPermissions = errors.New("insufficient permissions")
)

// ValidationErrors is re-exported so handlers can errors.As against the
// services package alone.
type ValidationErrors = validator.ValidationErrors

// NewValidationError builds a single-field validation failure.
func NewValidationError(field, message string, value interface{}) ValidationErrors {
	return ValidationErrors{{
		Field:   field,
		Message: message,
		Value:   value,
	}}
}

// BusinessRuleError describes a domain rule violation.
type BusinessRuleError struct {
	Rule    string
	Message string
	Context map[string]interface{}
}

func (e *BusinessRuleError) Error() string {
	return fmt.Sprintf("business rule %s violated: %s", e.Rule, e.Message)
}

func NewBusinessRuleError(rule, message string, context map[string]interface{}) *BusinessRuleError {
	return &BusinessRuleError{
		Rule:    rule,
		Message: message,
		Context: context,
	}
}

// PermissionError describes a denied action on a resource.
type PermissionError struct {
	UserID   string
	Resource string
	Action   string
	Reason   string
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("user %s cannot %s %s: %s", e.UserID, e.Action, e.Resource, e.Reason)
}

func NewPermissionError(userID, resource, action, reason string) *PermissionError {
	return &PermissionError{
		UserID:   userID,
		Resource: resource,
		Action:   action,
		Reason:   reason,
	}
}

// PersistenceError wraps a failed store operation. The cause is preserved
// for logging; callers treat it as a 500-class failure and never retry here.
type PersistenceError struct {
	Op    string
	Cause error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failure during %s: %v", e.Op, e.Cause)
}

func (e *PersistenceError) Unwrap() error {
	return e.Cause
}

func NewPersistenceError(op string, cause error) *PersistenceError {
	return &PersistenceError{Op: op, Cause: cause}
}
