package api

import (
	"github.com/gin-gonic/gin"

	"github.com/skillcompass/skillcompass/internal/assessment"
	"github.com/skillcompass/skillcompass/internal/auth"
	"github.com/skillcompass/skillcompass/internal/cache"
	"github.com/skillcompass/skillcompass/internal/report"
	"github.com/skillcompass/skillcompass/pkg/config"
	"github.com/skillcompass/skillcompass/pkg/health"
	"github.com/skillcompass/skillcompass/pkg/metrics"
	"github.com/skillcompass/skillcompass/pkg/tracing"
)

// Services bundles the domain services the router depends on
type Services struct {
	Auth        *auth.Service
	Assessments *assessment.Service
	Reports     *report.Service
	Health      *health.Service
	Metrics     *metrics.Metrics
	Tracing     *tracing.Service
}

// NewRouter creates the HTTP router with all middleware and routes.
func NewRouter(cfg *config.Config, redis *cache.RedisClient, services Services) *gin.Engine {
	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(RequestIDMiddleware())
	router.Use(LoggingMiddleware())
	router.Use(ErrorHandlingMiddleware())
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))
	router.Use(SecurityHeadersMiddleware())
	if services.Metrics != nil {
		router.Use(services.Metrics.GinMiddleware())
	}
	if services.Tracing != nil {
		router.Use(services.Tracing.GinMiddleware())
	}
	router.Use(RateLimitMiddleware(redis))

	if services.Health != nil {
		router.GET("/health", services.Health.Handler())
		router.GET("/health/live", services.Health.LivenessHandler())
	}
	router.GET("/metrics", metrics.Handler())

	authHandler := NewAuthHandler(services.Auth)
	assessmentHandler := NewAssessmentHandler(services.Assessments)
	reportHandler := NewReportHandler(services.Reports)
	catalogHandler := NewCatalogHandler()

	v1 := router.Group("/api/v1")
	{
		v1.GET("", func(c *gin.Context) {
			SuccessResponse(c, gin.H{
				"name":    "skillcompass-api",
				"version": "v1",
			})
		})

		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			authGroup.GET("/github/url", authHandler.GitHubURL)
			authGroup.POST("/github/callback", authHandler.GitHubCallback)
			authGroup.POST("/refresh", authHandler.Refresh)
			authGroup.POST("/logout", authHandler.Logout)
		}

		catalog := v1.Group("/catalog")
		{
			catalog.GET("/fields", catalogHandler.Fields)
			catalog.GET("/skills", catalogHandler.Skills)
		}

		protected := v1.Group("")
		protected.Use(AuthMiddleware(services.Auth))
		{
			protected.GET("/user/me", authHandler.Me)

			assessments := protected.Group("/assessments")
			{
				assessments.POST("", assessmentHandler.Create)
				assessments.GET("", assessmentHandler.List)
				assessments.GET("/:id", assessmentHandler.Get)
				assessments.GET("/:id/questions", assessmentHandler.Questions)
				assessments.POST("/:id/answers", assessmentHandler.SubmitAnswer)
				assessments.GET("/:id/progress", assessmentHandler.Progress)
				assessments.GET("/:id/report", reportHandler.Get)
				assessments.GET("/:id/report/pdf", reportHandler.PDF)
			}
		}
	}

	router.NoRoute(func(c *gin.Context) {
		NotFoundResponse(c, "Endpoint not found")
	})

	return router
}
