package api

import (
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	_ "github.com/d60-Lab/fan-platform/docs"

	"github.com/d60-Lab/fan-platform/config"
	"github.com/d60-Lab/fan-platform/internal/api/handler"
	"github.com/d60-Lab/fan-platform/internal/middleware"
	"github.com/d60-Lab/fan-platform/internal/service"
)

// NewRouter assembles the gin engine: recovery, tracing, sentry, gzip and
// rate limiting ahead of the versioned API routes.
func NewRouter(cfg *config.Config, h *handler.Handler, authSvc service.AuthService, sentryEnabled bool) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware("fan-platform"))
	if sentryEnabled {
		r.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}
	r.Use(gzip.Gzip(gzip.DefaultCompression))
	r.Use(middleware.RateLimit(cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst))

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	r.GET("/uploads/:filename", h.ServeUpload)

	v1 := r.Group("/api/v1")
	{
		v1.POST("/auth/register", h.Register)
		v1.POST("/auth/login", h.Login)
		v1.GET("/creators/public", h.ListPublicCreators)
		v1.GET("/creators/check-name/:name", h.CheckCreatorName)
		v1.GET("/creators/:creator_id", h.GetCreator)
		v1.GET("/files/public", h.ListPublicFiles)
		v1.GET("/platform/info", h.PlatformInfo)

		authed := v1.Group("")
		authed.Use(middleware.Auth(authSvc))
		{
			authed.GET("/profile", h.Profile)
			authed.GET("/profile/points", h.Points)

			authed.POST("/creators", h.CreateCreator)
			authed.GET("/creators", h.ListMyCreators)
			authed.PUT("/creators/:creator_id", h.UpdateCreator)

			authed.POST("/support", h.Support)
			authed.GET("/support/history", h.SupportHistory)

			authed.POST("/files", h.UploadFiles)
			authed.GET("/files", h.ListFiles)
			authed.GET("/files/stats", h.FileStats)
			authed.GET("/files/:file_id", h.GetFile)
			authed.PUT("/files/:file_id", h.UpdateFile)
			authed.DELETE("/files/:file_id", h.DeleteFile)

			authed.GET("/stats", h.PlatformStats)

			if cfg.Server.Mode != "release" {
				authed.POST("/test/add-points", h.AddTestPoints)
			}
		}
	}
	return r
}
