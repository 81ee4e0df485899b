package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/cupuri/portal-backend/internal/app/controllers"
	"github.com/cupuri/portal-backend/internal/app/models"
	"github.com/cupuri/portal-backend/internal/middleware"
)

// SetupRouter configures all application routes
func SetupRouter(
	router *gin.Engine,
	examController *controllers.ExamController,
	authMiddleware *middleware.AuthMiddleware,
) {
	// API version group
	v1 := router.Group("/api/v1")

	// All exam routes require authentication
	exams := v1.Group("/exams")
	exams.Use(authMiddleware.JWTAuth())
	{
		exams.GET("", examController.GetAllExams)
		exams.GET("/:id", examController.GetExamByID)
		exams.GET("/:id/download", examController.DownloadExam)

		// Any authenticated member of the university may share exams
		exams.POST("/upload",
			authMiddleware.RoleRequired(models.RoleAdmin, models.RoleStudent),
			examController.UploadExam)

		// Metadata changes and deletion are moderation actions
		examsAdmin := exams.Group("")
		examsAdmin.Use(authMiddleware.RoleRequired(models.RoleAdmin))
		{
			examsAdmin.PUT("/:id", examController.UpdateExam)
			examsAdmin.DELETE("/:id", examController.DeleteExam)
		}
	}
}
