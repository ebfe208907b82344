package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	types "github.com/noteflow/noteflow-backend/internal/domain"
	httpH "github.com/noteflow/noteflow-backend/internal/http/handlers"
	httpMW "github.com/noteflow/noteflow-backend/internal/http/middleware"
	"github.com/noteflow/noteflow-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log          *logger.Logger
	Mode         string
	AllowOrigins []string

	AuthHandler    *httpH.AuthHandler
	AuthMiddleware *httpMW.AuthMiddleware
	RateLimiter    *httpMW.IPRateLimiter

	FileHandler *httpH.FileHandler
	JobHandler  *httpH.JobHandler

	HealthHandler *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware("noteflow-backend"))
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.CORS(cfg.AllowOrigins))
	if cfg.RateLimiter != nil {
		r.Use(cfg.RateLimiter.Handler())
	}

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	// Auth (public)
	if cfg.AuthHandler != nil {
		r.GET("/oauth2/authorization/microsoft", cfg.AuthHandler.Authorize)
		r.GET("/login/oauth2/code/microsoft", cfg.AuthHandler.Callback)
		r.POST("/auth/oidc/nonce", cfg.AuthHandler.Nonce)
		r.POST("/auth/oidc/microsoft", cfg.AuthHandler.ExchangeMicrosoft)
	}

	// Auth (protected)
	if cfg.AuthHandler != nil && cfg.AuthMiddleware != nil {
		r.GET("/auth/me", cfg.AuthMiddleware.RequireAuth(), cfg.AuthHandler.Me)
	}

	api := r.Group("/api")
	if cfg.AuthMiddleware != nil {
		api.Use(cfg.AuthMiddleware.RequireAuth())
	}
	{
		// Files
		if cfg.FileHandler != nil {
			api.POST("/files/upload/video", cfg.FileHandler.Upload(types.FileTypeVideo, "Video File Uploaded Successfully"))
			api.POST("/files/upload/audio", cfg.FileHandler.Upload(types.FileTypeAudio, "Audio File Uploaded Successfully"))
			api.POST("/files/upload/document", cfg.FileHandler.Upload(types.FileTypeDocument, "Document File Uploaded Successfully"))
			api.GET("/files/:id", cfg.FileHandler.GetMetadata)
			api.DELETE("/files/:id", cfg.FileHandler.Delete)
			api.GET("/files/download/:id", cfg.FileHandler.Download)
		}
	}

	jobs := r.Group("/jobs")
	if cfg.AuthMiddleware != nil {
		jobs.Use(cfg.AuthMiddleware.RequireAuth())
	}
	{
		// Jobs
		if cfg.JobHandler != nil {
			jobs.POST("", cfg.JobHandler.Create)
			jobs.GET("", cfg.JobHandler.List)
			jobs.GET("/:id", cfg.JobHandler.Get)
			jobs.DELETE("/:id", cfg.JobHandler.Delete)
		}
	}

	return r
}
