package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fxshorts1-beep/ExamZen123/internal/services"
	"github.com/fxshorts1-beep/ExamZen123/internal/utils"
)

type EvaluationHandler struct {
	BaseHandler
	evaluationService services.EvaluationService
}

func NewEvaluationHandler(evaluationService services.EvaluationService, logger utils.Logger) *EvaluationHandler {
	return &EvaluationHandler{
		BaseHandler:       NewBaseHandler(logger),
		evaluationService: evaluationService,
	}
}

// GetEvaluation retrieves the full grading view for a submission
// @Summary Get evaluation view
// @Description Returns the submission, student, test, questions, answers and cohort skip stats
// @Tags evaluation
// @Produce json
// @Param id path uint true "Submission ID"
// @Success 200 {object} services.EvaluationView
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /submissions/{id}/evaluation [get]
func (h *EvaluationHandler) GetEvaluation(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Getting evaluation view", "submission_id", id)

	userID := h.getUserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "User not authenticated",
		})
		return
	}

	view, err := h.evaluationService.GetEvaluation(c.Request.Context(), id, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// ExportTestResults downloads the test's grade sheet as xlsx
// @Summary Export test results
// @Description Renders all submissions to a test as an xlsx grade sheet
// @Tags evaluation
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param id path uint true "Test ID"
// @Success 200 {file} binary
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /tests/{id}/results/export [get]
func (h *EvaluationHandler) ExportTestResults(c *gin.Context) {
	testID := h.parseIDParam(c, "id")
	if testID == 0 {
		return
	}

	h.LogRequest(c, "Exporting test results", "test_id", testID)

	userID := h.getUserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "User not authenticated",
		})
		return
	}

	data, err := h.evaluationService.ExportTestResults(c.Request.Context(), testID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	filename := fmt.Sprintf("test-%d-results.xlsx", testID)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}
