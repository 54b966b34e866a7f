package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/insightpath-backend/internal/http/handlers"
	httpMW "github.com/yungbote/insightpath-backend/internal/http/middleware"
	"github.com/yungbote/insightpath-backend/internal/observability"
	"github.com/yungbote/insightpath-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	Metrics        *observability.Metrics
	ServiceName    string
	AllowedOrigins []string

	AuthMiddleware *httpMW.AuthMiddleware

	LearningHandler *httpH.LearningHandler
	DomainHandler   *httpH.DomainHandler
	HealthHandler   *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.AllowedOrigins...))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	api := r.Group("/api")

	// Catalog (public)
	if cfg.DomainHandler != nil {
		api.GET("/domains", cfg.DomainHandler.ListDomains)
		api.GET("/domains/:id/assessment", cfg.DomainHandler.GetAssessmentQuestions)
	}

	protected := api.Group("/learning")
	{
		if cfg.AuthMiddleware != nil {
			protected.Use(cfg.AuthMiddleware.RequireAuth())
		}

		if cfg.LearningHandler != nil {
			protected.GET("/domains", cfg.LearningHandler.ListDomainsWithStatus)
			protected.POST("/domains/:id/start", cfg.LearningHandler.StartDomain)
			protected.GET("/domains/:id/overview", cfg.LearningHandler.GetDomainOverview)
			protected.POST("/domains/:id/topic", cfg.LearningHandler.SelectTopic)
			protected.GET("/domains/:id/next-insight", cfg.LearningHandler.GetNextInsight)
			protected.GET("/domains/:id/progress", cfg.LearningHandler.GetTopicProgress)
			protected.GET("/domains/:id/review", cfg.LearningHandler.GetReview)
			protected.POST("/domains/:id/review/complete", cfg.LearningHandler.CompleteReview)

			protected.POST("/answers", cfg.LearningHandler.SubmitAnswer)
			protected.GET("/insights/completed-count", cfg.LearningHandler.CountCompletedInsights)
		}
	}

	return r
}
