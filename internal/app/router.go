package app

import (
	"mentorship_backend/docs"
	"mentorship_backend/internal/config"
	"mentorship_backend/internal/middleware"
	"mentorship_backend/internal/model"
	"mentorship_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, repos *repositories, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 公共路由(无需登录)
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/register", c.auth.Register)
		public.POST("/login", c.auth.Login)
	}

	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg), middleware.ActivityMiddleware(repos.user))
	{
		authGroup.GET("/profile", c.auth.GetProfile)

		// 报名：学员自助 + 经理/导师查看
		authGroup.POST("/enrollments/auto", c.enrollment.AutoEnroll)
		authGroup.POST("/enrollments", c.enrollment.Enroll)
		authGroup.GET("/enrollments/mine", c.enrollment.MyEnrollments)
		authGroup.GET("/enrollments/:id", c.enrollment.GetEnrollment)
		authGroup.PUT("/enrollments/:id/status", c.enrollment.SetStatus)

		// 任务与提交
		authGroup.POST("/assignments/:id/start", c.submission.StartTask)
		authGroup.POST("/assignments/:id/submissions", c.submission.Submit)
		authGroup.GET("/assignments/:id/submissions", c.submission.ListSubmissions)
		authGroup.GET("/submissions/:id", c.submission.GetSubmission)
		authGroup.PUT("/submissions/:id", c.submission.UpdateSubmission)
		authGroup.DELETE("/submissions/:id", c.submission.DeleteSubmission)
		authGroup.POST("/submissions/:id/feedback", c.submission.AddFeedback)
		authGroup.PUT("/feedback/:feedbackId", c.submission.UpdateFeedback)
		authGroup.DELETE("/feedback/:feedbackId", c.submission.DeleteFeedback)

		// 评审：导师/经理
		staff := authGroup.Group("")
		staff.Use(middleware.RoleMiddleware(model.Mentor))
		{
			staff.GET("/review-queue", c.submission.ReviewQueue)
			staff.POST("/submissions/:id/claim", c.submission.ClaimReview)
			staff.POST("/submissions/:id/approve", c.submission.Approve)
			staff.POST("/submissions/:id/request-revision", c.submission.RequestRevision)
			staff.POST("/submissions/:id/reject", c.submission.Reject)
		}

		// 课程编写与运维：仅经理
		manager := authGroup.Group("")
		manager.Use(middleware.RoleMiddleware(model.Manager))
		{
			manager.POST("/curricula", c.curriculum.CreateCurriculum)
			manager.PUT("/curricula/:id", c.curriculum.UpdateCurriculum)
			manager.POST("/curricula/:id/publish", c.curriculum.PublishCurriculum)
			manager.POST("/curricula/:id/archive", c.curriculum.ArchiveCurriculum)
			manager.POST("/curricula/:id/weeks", c.curriculum.AddWeek)
			manager.PUT("/weeks/:weekId", c.curriculum.UpdateWeek)
			manager.DELETE("/weeks/:weekId", c.curriculum.DeleteWeek)
			manager.POST("/weeks/:weekId/tasks", c.curriculum.AddTaskTemplate)
			manager.PUT("/tasks/:taskId", c.curriculum.UpdateTaskTemplate)
			manager.DELETE("/tasks/:taskId", c.curriculum.DeleteTaskTemplate)
			manager.POST("/enrollments/:id/repair", c.enrollment.RepairProgress)
			manager.PUT("/users/:id/mentor", c.auth.AssignMentor)
		}

		// 课程浏览：登录即可
		authGroup.GET("/curricula", c.curriculum.ListCurricula)
		authGroup.GET("/curricula/:id", c.curriculum.GetCurriculum)
	}
}
