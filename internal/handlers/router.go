package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/fxshorts1-beep/ExamZen123/internal/config"
	"github.com/fxshorts1-beep/ExamZen123/internal/models"
	"github.com/fxshorts1-beep/ExamZen123/internal/repositories"
	"github.com/fxshorts1-beep/ExamZen123/internal/services"
	"github.com/fxshorts1-beep/ExamZen123/internal/utils"
	"github.com/fxshorts1-beep/ExamZen123/internal/validator"
)

type HandlerManager struct {
	submissionHandler *SubmissionHandler
	evaluationHandler *EvaluationHandler
	testHandler       *TestHandler
	authMiddleware    *CasdoorAuthMiddleware
	serviceManager    services.ServiceManager
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	validator *validator.Validator,
	logger utils.Logger,
	casdoorConfig config.CasdoorConfig,
	userRepo repositories.UserRepository,
) *HandlerManager {
	authMiddleware := NewCasdoorAuthMiddleware(casdoorConfig, userRepo)

	return &HandlerManager{
		submissionHandler: NewSubmissionHandler(serviceManager.Submission(), validator, logger),
		evaluationHandler: NewEvaluationHandler(serviceManager.Evaluation(), logger),
		testHandler:       NewTestHandler(serviceManager.Test(), validator, logger),
		authMiddleware:    authMiddleware,
		serviceManager:    serviceManager,
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	v1 := router.Group("/api/v1")
	v1.Use(hm.authMiddleware.AuthMiddleware())
	{
		// Submission routes
		submissions := v1.Group("/submissions")
		{
			// Submitting is for students; admins pass through the role check
			submissions.POST("", hm.authMiddleware.RequireRoleMiddleware(models.RoleStudent), hm.submissionHandler.SubmitTest)

			// Owner-or-grader access enforced in the service
			submissions.GET("/:id", hm.submissionHandler.GetSubmission)

			// Grading surface - Teachers and Admins only
			submissions.POST("/:id/grade", hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher, models.RoleAdmin), hm.submissionHandler.GradeSubmission)
			submissions.GET("/:id/evaluation", hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher, models.RoleAdmin), hm.evaluationHandler.GetEvaluation)
		}

		// Test routes
		tests := v1.Group("/tests")
		{
			// Authoring and administration - Teachers and Admins only
			tests.POST("", hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher, models.RoleAdmin), hm.testHandler.CreateTest)
			tests.GET("", hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher, models.RoleAdmin), hm.testHandler.ListMyTests)
			tests.DELETE("/:id", hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher, models.RoleAdmin), hm.testHandler.DeleteTest)

			tests.GET("/:id", hm.testHandler.GetTest)

			// Submission listing and export - Teachers and Admins only
			tests.GET("/:id/submissions", hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher, models.RoleAdmin), hm.submissionHandler.ListTestSubmissions)
			tests.GET("/:id/results/export", hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher, models.RoleAdmin), hm.evaluationHandler.ExportTestResults)
		}

		// Student routes - Students only
		students := v1.Group("/students")
		students.Use(hm.authMiddleware.RequireRoleMiddleware(models.RoleStudent))
		{
			students.GET("/me/submissions", hm.submissionHandler.ListMySubmissions)
		}
	}

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		if err := hm.serviceManager.HealthCheck(c.Request.Context()); err != nil {
			c.JSON(503, gin.H{
				"status":  "unhealthy",
				"service": "examzen-grading-service",
				"error":   err.Error(),
			})
			return
		}
		c.JSON(200, gin.H{
			"status":  "healthy",
			"service": "examzen-grading-service",
		})
	})
}
