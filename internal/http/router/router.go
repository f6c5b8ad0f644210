package router

import (
	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/incident-backend/internal/config"
	"github.com/ignatzorin/incident-backend/internal/http/handlers"
	"github.com/ignatzorin/incident-backend/internal/http/middleware"
	"github.com/ignatzorin/incident-backend/internal/service"
)

func SetupRouter(
	cfg *config.Config,
	authHandler *handlers.AuthHandler,
	profileHandler *handlers.ProfileHandler,
	reportHandler *handlers.ReportHandler,
	attachmentHandler *handlers.AttachmentHandler,
	adminHandler *handlers.AdminHandler,
	healthHandler *handlers.HealthHandler,
	tokenManager *service.TokenManager,
) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	r.GET("/health", healthHandler.Health)

	api := r.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.Use(middleware.RateLimitMiddleware(cfg.RateLimitLimit, cfg.RateLimitPeriod))
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
	}

	protected := api.Group("")
	protected.Use(middleware.AuthMiddleware(tokenManager))
	{
		protected.GET("/users/me", profileHandler.Me)
		protected.PUT("/users/me", profileHandler.Update)

		reports := protected.Group("/reports")
		{
			reports.POST("", reportHandler.Create)
			reports.GET("/user/:userId", middleware.IDValidator("userId"), reportHandler.ListForUser)
			reports.POST("/attachment", attachmentHandler.Upload)
			reports.GET("/download/:filename", attachmentHandler.Download)
			reports.DELETE("/attachment/:attachmentId", middleware.IDValidator("attachmentId"), attachmentHandler.Delete)
			reports.GET("/:reportId", middleware.IDValidator("reportId"), reportHandler.Get)
			reports.PUT("/:reportId", middleware.IDValidator("reportId"), reportHandler.Update)
			reports.DELETE("/:reportId", middleware.IDValidator("reportId"), reportHandler.Delete)
			reports.PATCH("/:reportId/status", middleware.IDValidator("reportId"), middleware.AdminOnly(), reportHandler.SetStatus)
		}

		admin := protected.Group("/admin")
		admin.Use(middleware.AdminOnly())
		{
			admin.GET("/reports", adminHandler.ListReports)
			admin.GET("/reports/:reportId", middleware.IDValidator("reportId"), adminHandler.GetReport)
			admin.POST("/reports/:reportId/comment", middleware.IDValidator("reportId"), adminHandler.SetComment)
		}
	}

	return r
}
