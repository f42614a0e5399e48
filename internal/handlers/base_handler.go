package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/fxshorts1-beep/ExamZen123/internal/models"
	"github.com/fxshorts1-beep/ExamZen123/internal/services"
	"github.com/fxshorts1-beep/ExamZen123/internal/utils"
)

type ErrorResponse = models.ErrorResponse
type SuccessResponse = models.SuccessResponse

// BaseHandler carries the pieces every handler needs: logging and the shared
// service-error to HTTP-status translation.
type BaseHandler struct {
	logger utils.Logger
}

func NewBaseHandler(logger utils.Logger) BaseHandler {
	return BaseHandler{logger: logger}
}

func (h *BaseHandler) LogRequest(c *gin.Context, msg string, args ...interface{}) {
	args = append(args, "method", c.Request.Method, "path", c.Request.URL.Path)
	h.requestLogger(c).Info(msg, args...)
}

func (h *BaseHandler) LogError(c *gin.Context, err error, msg string, args ...interface{}) {
	args = append(args, "error", err, "method", c.Request.Method, "path", c.Request.URL.Path)
	h.requestLogger(c).Error(msg, args...)
}

func (h *BaseHandler) requestLogger(c *gin.Context) utils.Logger {
	if logger := utils.LoggerFromContext(c.Request.Context()); logger != nil {
		return logger
	}
	return h.logger
}

// parseIDParam parses a numeric path parameter. On failure it writes the 400
// response itself and returns 0; IDs start at 1 so 0 is never valid.
func (h *BaseHandler) parseIDParam(c *gin.Context, param string) uint {
	idStr := c.Param(param)
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid " + param,
		})
		return 0
	}
	return uint(id)
}

func (h *BaseHandler) parseIntQuery(c *gin.Context, param string, defaultValue int) int {
	valueStr := c.Query(param)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func (h *BaseHandler) getUserID(c *gin.Context) string {
	userID, exists := c.Get("user_id")
	if !exists {
		return ""
	}
	if id, ok := userID.(string); ok {
		return id
	}
	return ""
}

func (h *BaseHandler) parseListParams(c *gin.Context) models.ListSubmissionsParams {
	params := models.ListSubmissionsParams{
		Page:    h.parseIntQuery(c, "page", 0),
		Size:    h.parseIntQuery(c, "size", 20),
		SortBy:  c.Query("sort_by"),
		SortDir: c.Query("sort_dir"),
	}
	if status := c.Query("status"); status != "" {
		params.Status = &status
	}
	return params
}

// handleServiceError maps the service error taxonomy to HTTP statuses.
func (h *BaseHandler) handleServiceError(c *gin.Context, err error) {
	var validationErrors services.ValidationErrors
	if errors.As(err, &validationErrors) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: validationErrors,
		})
		return
	}

	var businessRuleError *services.BusinessRuleError
	if errors.As(err, &businessRuleError) {
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Message: businessRuleError.Message,
			Details: map[string]interface{}{
				"rule":    businessRuleError.Rule,
				"context": businessRuleError.Context,
			},
		})
		return
	}

	var permissionError *services.PermissionError
	if errors.As(err, &permissionError) {
		c.JSON(http.StatusForbidden, ErrorResponse{
			Message: "Access denied",
			Details: map[string]interface{}{
				"resource": permissionError.Resource,
				"action":   permissionError.Action,
				"reason":   permissionError.Reason,
			},
		})
		return
	}

	var persistenceError *services.PersistenceError
	if errors.As(err, &persistenceError) {
		h.LogError(c, err, "Persistence failure")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Message: "Internal server error",
		})
		return
	}

	switch {
	case errors.Is(err, services.ErrSubmissionNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "Submission not found",
		})
	case errors.Is(err, services.ErrTestNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "Test not found",
		})
	case errors.Is(err, services.ErrStudentNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "Student not found",
		})
	case errors.Is(err, services.ErrQuestionNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "Question not found",
		})
	case errors.Is(err, services.ErrUserNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "User not found",
		})
	case errors.Is(err, services.ErrValidationFailed):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: err.Error(),
		})
	case errors.Is(err, services.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "Unauthorized access",
		})
	case errors.Is(err, services.ErrForbidden), errors.Is(err, services.ErrInsufficientPermissions):
		c.JSON(http.StatusForbidden, ErrorResponse{
			Message: "Forbidden - insufficient permissions",
		})
	default:
		h.LogError(c, err, "Unexpected service error")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Message: "Internal server error",
		})
	}
}
