package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fxshorts1-beep/ExamZen123/internal/models"
	"github.com/fxshorts1-beep/ExamZen123/internal/services"
	"github.com/fxshorts1-beep/ExamZen123/internal/utils"
	"github.com/fxshorts1-beep/ExamZen123/internal/validator"
)

type TestHandler struct {
	BaseHandler
	testService services.TestService
	validator   *validator.Validator
}

func NewTestHandler(testService services.TestService, validator *validator.Validator, logger utils.Logger) *TestHandler {
	return &TestHandler{
		BaseHandler: NewBaseHandler(logger),
		testService: testService,
		validator:   validator,
	}
}

// CreateTest creates a test with its question catalog
// @Summary Create test
// @Description Creates a test and its questions in one transaction
// @Tags tests
// @Accept json
// @Produce json
// @Param test body models.TestCreateRequest true "Test data"
// @Success 201 {object} models.Test
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /tests [post]
func (h *TestHandler) CreateTest(c *gin.Context) {
	h.LogRequest(c, "Creating test")

	var req models.TestCreateRequest
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

	test, err := h.testService.Create(c.Request.Context(), &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, test)
}

// GetTest retrieves a test and its questions
// @Summary Get test
// @Description Retrieves a test by ID with its question catalog
// @Tags tests
// @Produce json
// @Param id path uint true "Test ID"
// @Success 200 {object} models.Test
// @Failure 404 {object} ErrorResponse
// @Router /tests/{id} [get]
func (h *TestHandler) GetTest(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Getting test", "test_id", id)

	test, err := h.testService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, test)
}

// ListMyTests lists the authenticated teacher's tests
// @Summary List my tests
// @Description Lists the tests owned by the authenticated teacher
// @Tags tests
// @Produce json
// @Success 200 {object} models.PaginatedResponse
// @Failure 401 {object} ErrorResponse
// @Router /tests [get]
func (h *TestHandler) ListMyTests(c *gin.Context) {
	h.LogRequest(c, "Listing own tests")

	userID := h.getUserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "User not authenticated",
		})
		return
	}

	params := h.parseListParams(c)
	tests, total, err := h.testService.ListByTeacher(c.Request.Context(), userID, params)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, paginate(tests, total, params))
}

// DeleteTest deletes a test and everything hanging off it
// @Summary Delete test
// @Description Deletes a test together with its submissions, answers and questions
// @Tags tests
// @Produce json
// @Param id path uint true "Test ID"
// @Success 200 {object} SuccessResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /tests/{id} [delete]
func (h *TestHandler) DeleteTest(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Deleting test", "test_id", id)

	userID := h.getUserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "User not authenticated",
		})
		return
	}

	if err := h.testService.Delete(c.Request.Context(), id, userID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Test deleted successfully",
	})
}
