package core

import (
	"net/http"
	"time"

	"github.com/anoixa/pixly/api/common"
	handlerPhotos "github.com/anoixa/pixly/api/handler/photos"
	"github.com/anoixa/pixly/api/middleware"
	"github.com/anoixa/pixly/cache"
	"github.com/anoixa/pixly/config"
	photosvc "github.com/anoixa/pixly/internal/photos"
	"github.com/anoixa/pixly/storage"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// RouterDependencies 路由注册依赖
type RouterDependencies struct {
	DB               *gorm.DB
	Storage          storage.Provider
	CacheProvider    cache.Provider
	Photos           *photosvc.Service
	APIRateLimiter   *middleware.IPRateLimiter
	ImageRateLimiter *middleware.IPRateLimiter
	EditLimiter      *middleware.ConcurrencyLimiter // 编辑与还原的并发上限，nil 不限制
	EditWaitTimeout  time.Duration
	Config           *config.Config
}

// RegisterRoutes 注册所有路由
func RegisterRoutes(router *gin.Engine, deps *RouterDependencies) {
	photoHandler := handlerPhotos.NewHandler(deps.Photos, deps.Storage, deps.CacheProvider, deps.Config)

	registerBasicRoutes(router, deps)
	registerPublicRoutes(router, deps, photoHandler)
	registerAPIRoutes(router, deps, photoHandler)
}

// registerBasicRoutes 注册基础路由
func registerBasicRoutes(router *gin.Engine, deps *RouterDependencies) {
	healthHandler := NewHealthHandler(deps.DB, deps.Storage, deps.CacheProvider)
	router.GET("/health", healthHandler.Handle)

	router.GET("/version", func(context *gin.Context) {
		common.RespondSuccess(context, gin.H{
			"version": config.Version,
			"commit":  config.CommitHash,
		})
	})

	router.GET("/metrics", func(context *gin.Context) {
		context.JSON(http.StatusOK, middleware.GetMetrics())
	})
}

// registerPublicRoutes 注册图片访问路由
func registerPublicRoutes(router *gin.Engine, deps *RouterDependencies, h *handlerPhotos.Handler) {
	publicGroup := router.Group("/images")
	publicGroup.Use(deps.ImageRateLimiter.Middleware())
	{
		publicGroup.GET("/:id", h.GetImage) // GET /images/{id}
	}
}

// registerAPIRoutes 注册 API 路由
func registerAPIRoutes(router *gin.Engine, deps *RouterDependencies, h *handlerPhotos.Handler) {
	apiGroup := router.Group("/api")
	apiGroup.Use(func(context *gin.Context) {
		context.Header("Cache-Control", "no-store")
		context.Next()
	})

	v1 := apiGroup.Group("/v1")
	v1.Use(deps.APIRateLimiter.Middleware())
	{
		photosGroup := v1.Group("/photos")
		readGroup := photosGroup.Group("")
		readGroup.Use(middleware.ResponseCache(deps.CacheProvider, responseTTL(deps.Config)))
		{
			readGroup.GET("", h.ListPhotos)   // GET /api/v1/photos?q=&make=&model=
			readGroup.GET("/:id", h.GetPhoto) // GET /api/v1/photos/{id}
		}

		photosGroup.POST("", h.UploadPhoto)       // POST /api/v1/photos
		photosGroup.DELETE("/:id", h.DeletePhoto) // DELETE /api/v1/photos/{id}

		// 编辑需要解码整张图片，排队等待而不是直接拒绝
		editGroup := photosGroup.Group("/:id")
		if deps.EditLimiter != nil {
			editGroup.Use(deps.EditLimiter.MiddlewareWithBlock(editWaitTimeout(deps)))
		}
		{
			editGroup.POST("/edit", h.EditPhoto)     // POST /api/v1/photos/{id}/edit
			editGroup.POST("/revert", h.RevertPhoto) // POST /api/v1/photos/{id}/revert
		}
	}
}

func editWaitTimeout(deps *RouterDependencies) time.Duration {
	if deps.EditWaitTimeout > 0 {
		return deps.EditWaitTimeout
	}
	return 10 * time.Second
}

func responseTTL(cfg *config.Config) time.Duration {
	if cfg == nil || cfg.CacheResponseTTL <= 0 {
		return 10 * time.Minute
	}
	return cfg.CacheResponseTTL
}
