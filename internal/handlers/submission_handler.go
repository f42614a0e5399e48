package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fxshorts1-beep/ExamZen123/internal/models"
	"github.com/fxshorts1-beep/ExamZen123/internal/services"
	"github.com/fxshorts1-beep/ExamZen123/internal/utils"
	"github.com/fxshorts1-beep/ExamZen123/internal/validator"
)

type SubmissionHandler struct {
	BaseHandler
	submissionService services.SubmissionService
	validator         *validator.Validator
}

func NewSubmissionHandler(
	submissionService services.SubmissionService,
	validator *validator.Validator,
	logger utils.Logger,
) *SubmissionHandler {
	return &SubmissionHandler{
		BaseHandler:       NewBaseHandler(logger),
		submissionService: submissionService,
		validator:         validator,
	}
}

// SubmitTest records a test submission for the authenticated student
// @Summary Submit test
// @Description Records a submission with its answers, auto-scoring the objective ones
// @Tags submissions
// @Accept json
// @Produce json
// @Param submission body models.SubmitTestRequest true "Submission data"
// @Success 201 {object} models.Submission
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /submissions [post]
func (h *SubmissionHandler) SubmitTest(c *gin.Context) {
	h.LogRequest(c, "Submitting test")

	var req models.SubmitTestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	userID := h.getUserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "User not authenticated",
		})
		return
	}

	submission, err := h.submissionService.Create(c.Request.Context(), &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, submission)
}

// GradeSubmission assigns the final score to a submission
// @Summary Grade submission
// @Description Sets the final score and marks the submission graded; re-grading overwrites
// @Tags submissions
// @Accept json
// @Produce json
// @Param id path uint true "Submission ID"
// @Param grade body models.GradeSubmissionRequest true "Grade data"
// @Success 200 {object} models.Submission
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /submissions/{id}/grade [post]
func (h *SubmissionHandler) GradeSubmission(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Grading submission", "submission_id", id)

	var req models.GradeSubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	userID := h.getUserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "User not authenticated",
		})
		return
	}

	submission, err := h.submissionService.Grade(c.Request.Context(), id, &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, submission)
}

// GetSubmission retrieves a submission with its answers
// @Summary Get submission
// @Description Retrieves a submission by ID, including its answers
// @Tags submissions
// @Produce json
// @Param id path uint true "Submission ID"
// @Success 200 {object} models.Submission
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /submissions/{id} [get]
func (h *SubmissionHandler) GetSubmission(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Getting submission", "submission_id", id)

	userID := h.getUserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "User not authenticated",
		})
		return
	}

	submission, err := h.submissionService.GetByID(c.Request.Context(), id, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, submission)
}

// ListTestSubmissions lists submissions to a test for its owner
// @Summary List test submissions
// @Description Lists submissions to a test, joined with student info
// @Tags submissions
// @Produce json
// @Param id path uint true "Test ID"
// @Success 200 {object} models.PaginatedResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /tests/{id}/submissions [get]
func (h *SubmissionHandler) ListTestSubmissions(c *gin.Context) {
	testID := h.parseIDParam(c, "id")
	if testID == 0 {
		return
	}

	h.LogRequest(c, "Listing test submissions", "test_id", testID)

	userID := h.getUserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "User not authenticated",
		})
		return
	}

	params := h.parseListParams(c)
	items, total, err := h.submissionService.ListByTest(c.Request.Context(), testID, params, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, paginate(items, total, params))
}

// ListMySubmissions lists the authenticated student's own submissions
// @Summary List my submissions
// @Description Lists the authenticated student's submissions across tests
// @Tags submissions
// @Produce json
// @Success 200 {object} models.PaginatedResponse
// @Failure 401 {object} ErrorResponse
// @Router /students/me/submissions [get]
func (h *SubmissionHandler) ListMySubmissions(c *gin.Context) {
	h.LogRequest(c, "Listing own submissions")

	userID := h.getUserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "User not authenticated",
		})
		return
	}

	params := h.parseListParams(c)
	items, total, err := h.submissionService.ListByStudent(c.Request.Context(), userID, params)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, paginate(items, total, params))
}

func paginate(content interface{}, total int64, params models.ListSubmissionsParams) models.PaginatedResponse {
	totalPages := 0
	if params.Size > 0 {
		totalPages = int((total + int64(params.Size) - 1) / int64(params.Size))
	}
	return models.PaginatedResponse{
		Content:       content,
		TotalElements: total,
		TotalPages:    totalPages,
		Size:          params.Size,
		Page:          params.Page,
	}
}
