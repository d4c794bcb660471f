package api

import (
	"net/http"

	"alcyxob/plan-tracker/internal/domain"
	"alcyxob/plan-tracker/internal/service"

	"github.com/gin-gonic/gin"
)

// Services bundles what the HTTP layer calls into.
type Services struct {
	Auth         service.AuthService
	Professional service.ProfessionalService
	Plan         service.PlanService
	Expiry       service.ExpiryService
	Media        service.MediaService
}

// SetupRoutes registers every route on router. services.Auth also verifies bearer tokens.
// metricsHandler serves /metrics when non-nil.
func SetupRoutes(router *gin.Engine, services Services, metricsHandler http.Handler) {
	authHandler := NewAuthHandler(services.Auth)
	professionalHandler := NewProfessionalHandler(services.Professional)
	planHandler := NewPlanHandler(services.Plan)
	assignmentHandler := NewAssignmentHandler(services.Plan, services.Expiry)
	mediaHandler := NewMediaHandler(services.Media)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	if metricsHandler != nil {
		router.GET("/metrics", gin.WrapH(metricsHandler))
	}

	apiV1 := router.Group("/api/v1")
	{
		authGroup := apiV1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
		}
	}

	protected := apiV1.Group("")
	protected.Use(AuthMiddleware(services.Auth))
	{
		protected.GET("/me", authHandler.Me)

		professionalGroup := protected.Group("/professional")
		professionalGroup.Use(RoleMiddleware(domain.RoleProfessional))
		{
			professionalGroup.POST("/clients", professionalHandler.AddClientByEmail)
			professionalGroup.GET("/clients", professionalHandler.GetManagedClients)
		}

		planGroup := protected.Group("/plans")
		{
			planGroup.POST("", planHandler.CreatePlan)
			planGroup.GET("/public", planHandler.GetPublicPlans)
			planGroup.GET("/public/count", planHandler.CountPublicPlans)
			planGroup.GET("/by-professional", planHandler.GetProfessionalPlans)
			planGroup.GET("/:planId", planHandler.GetPlan)
			planGroup.PATCH("/:planId", planHandler.UpdatePlan)
			planGroup.DELETE("/:planId", planHandler.DeletePlan)

			planGroup.POST("/:planId/images/upload-url", mediaHandler.RequestUploadURL)
			planGroup.POST("/:planId/images/confirm", mediaHandler.ConfirmUpload)
			planGroup.GET("/:planId/images", mediaHandler.ListImages)
			planGroup.GET("/:planId/images/:imageId/url", mediaHandler.GetDownloadURL)
			planGroup.DELETE("/:planId/images/:imageId", mediaHandler.DeleteImage)
		}

		assignmentGroup := protected.Group("/assignments")
		{
			assignmentGroup.GET("/:kind/current", assignmentHandler.GetCurrent)
			assignmentGroup.GET("/:kind/actual-previous", assignmentHandler.GetActualPrevious)
			assignmentGroup.GET("/:kind/period", assignmentHandler.GetPeriod)
			assignmentGroup.GET("/:kind/finished", assignmentHandler.GetFinished)
			assignmentGroup.GET("/:kind/last-finished", assignmentHandler.GetLastFinished)
			assignmentGroup.GET("/:kind/expiring", RoleMiddleware(domain.RoleProfessional), assignmentHandler.GetExpiring)

			assignmentGroup.PATCH("/workout/finish-daily/:unit", assignmentHandler.FinishDailyWorkout)
			assignmentGroup.PATCH("/diet/:assignmentId/complete", assignmentHandler.CompleteDiet)
		}
	}
}
