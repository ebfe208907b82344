package app

import (
	"github.com/gin-gonic/gin"

	"github.com/noteflow/noteflow-backend/internal/config"
	noteflowhttp "github.com/noteflow/noteflow-backend/internal/http"
	httpH "github.com/noteflow/noteflow-backend/internal/http/handlers"
	httpMW "github.com/noteflow/noteflow-backend/internal/http/middleware"
	"github.com/noteflow/noteflow-backend/internal/platform/logger"
)

type Middleware struct {
	Auth      *httpMW.AuthMiddleware
	RateLimit *httpMW.IPRateLimiter
}

type Handlers struct {
	Health *httpH.HealthHandler
	Auth   *httpH.AuthHandler
	File   *httpH.FileHandler
	Job    *httpH.JobHandler
}

func wireHandlers(log *logger.Logger, cfg *config.Config, services Services, repos Repos) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health: httpH.NewHealthHandler(),
		Auth:   httpH.NewAuthHandler(log, services.Auth, services.MicrosoftOAuth, repos.User, cfg.Web.FrontendURL),
		File:   httpH.NewFileHandler(log, services.FileStorage),
		Job:    httpH.NewJobHandler(log, services.Job),
	}
}

func wireMiddleware(log *logger.Logger, cfg *config.Config, services Services, repos Repos) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Auth:      httpMW.NewAuthMiddleware(log, services.Token, repos.User),
		RateLimit: httpMW.NewIPRateLimiter(cfg.RateLimit.PerMinute, cfg.RateLimit.Burst, log),
	}
}

func wireServer(log *logger.Logger, cfg *config.Config, handlers Handlers, middleware Middleware) *noteflowhttp.Server {
	return noteflowhttp.NewServer(log, noteflowhttp.RouterConfig{
		Log:            log,
		Mode:           ginMode(cfg.Server.Mode),
		AllowOrigins:   cfg.CORSOrigins,
		AuthHandler:    handlers.Auth,
		AuthMiddleware: middleware.Auth,
		RateLimiter:    middleware.RateLimit,
		FileHandler:    handlers.File,
		JobHandler:     handlers.Job,
		HealthHandler:  handlers.Health,
	}, cfg.Server.Port, cfg.ShutdownTimeout)
}

func ginMode(mode string) string {
	switch mode {
	case "prod", "production":
		return gin.ReleaseMode
	case "test":
		return gin.TestMode
	default:
		return gin.DebugMode
	}
}
