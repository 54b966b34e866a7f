package app

import (
	"context"

	"gorm.io/gorm"

	apphttp "github.com/yungbote/insightpath-backend/internal/http"
	httpH "github.com/yungbote/insightpath-backend/internal/http/handlers"
	httpMW "github.com/yungbote/insightpath-backend/internal/http/middleware"
	"github.com/yungbote/insightpath-backend/internal/observability"
	"github.com/yungbote/insightpath-backend/internal/platform/logger"
)

type Middleware struct {
	Auth *httpMW.AuthMiddleware
}

type Handlers struct {
	Health   *httpH.HealthHandler
	Learning *httpH.LearningHandler
	Domain   *httpH.DomainHandler
}

func wireHandlers(log *logger.Logger, db *gorm.DB, services Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:   httpH.NewHealthHandler(pingDB(db)),
		Learning: httpH.NewLearningHandler(log, services.Engine),
		Domain:   httpH.NewDomainHandler(log, services.Engine),
	}
}

func wireMiddleware(log *logger.Logger, cfg Config) Middleware {
	log.Info("Wiring middleware...")
	if cfg.Auth.JWTSecret == "" {
		log.Warn("auth.jwt_secret is empty; every learning request will be rejected")
	}
	return Middleware{
		Auth: httpMW.NewAuthMiddleware(log, httpMW.NewTokenVerifier(cfg.Auth.JWTSecret, cfg.Auth.Issuer)),
	}
}

func wireRouterConfig(log *logger.Logger, cfg Config, metrics *observability.Metrics, handlers Handlers, middleware Middleware) apphttp.RouterConfig {
	serviceName := ""
	if cfg.Otel.Enabled {
		serviceName = cfg.Otel.ServiceName
	}
	return apphttp.RouterConfig{
		Log:             log,
		Metrics:         metrics,
		ServiceName:     serviceName,
		AllowedOrigins:  cfg.Server.AllowedOrigins,
		AuthMiddleware:  middleware.Auth,
		LearningHandler: handlers.Learning,
		DomainHandler:   handlers.Domain,
		HealthHandler:   handlers.Health,
	}
}

func pingDB(db *gorm.DB) func(ctx context.Context) error {
	if db == nil {
		return nil
	}
	return func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	}
}
