package core

import (
	"net/http"
	"runtime"
	"time"

	"github.com/anoixa/pixly/api/middleware"
	"github.com/anoixa/pixly/cache"
	"github.com/anoixa/pixly/config"
	photosvc "github.com/anoixa/pixly/internal/photos"
	"github.com/anoixa/pixly/storage"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ServerDependencies 服务器依赖项
type ServerDependencies struct {
	DB            *gorm.DB
	Storage       storage.Provider
	CacheProvider cache.Provider
	Photos        *photosvc.Service
}

// setupRouter 启动gin
func setupRouter(cfg *config.Config, deps *ServerDependencies) (*gin.Engine, func()) {
	if !config.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	// 仅在开发版本时启用 gin 日志
	if config.IsDevelopment() {
		router.Use(gin.Logger())
	}
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.BaseURL()},
		AllowMethods:     []string{"GET", "POST", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", middleware.RequestIDHeader},
		ExposeHeaders:    []string{middleware.RequestIDHeader, middleware.CacheStatusHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	_ = router.SetTrustedProxies(nil)

	// 限制上传文件大小
	router.MaxMultipartMemory = cfg.MaxUploadBytes()

	concurrencyLimiter := middleware.NewConcurrencyLimiter(cfg.MaxConcurrency)
	router.Use(concurrencyLimiter.Middleware())

	// 请求体上限留出 multipart 表单字段的余量
	router.Use(middleware.MaxBytesReader(cfg.MaxUploadBytes() + 1<<20))

	router.Use(middleware.RequestID())
	router.Use(middleware.Metrics())

	apiRateLimiter := middleware.NewIPRateLimiter(cfg.RateLimitApiRPS, cfg.RateLimitApiBurst, cfg.RateLimitExpireTime)
	imageRateLimiter := middleware.NewIPRateLimiter(cfg.RateLimitImageRPS, cfg.RateLimitImageBurst, cfg.RateLimitExpireTime)
	editLimiter := middleware.NewConcurrencyLimiter(editConcurrency(cfg))
	cleanup := func() {
		apiRateLimiter.StopCleanup()
		imageRateLimiter.StopCleanup()
	}

	RegisterRoutes(router, &RouterDependencies{
		DB:               deps.DB,
		Storage:          deps.Storage,
		CacheProvider:    deps.CacheProvider,
		Photos:           deps.Photos,
		APIRateLimiter:   apiRateLimiter,
		ImageRateLimiter: imageRateLimiter,
		EditLimiter:      editLimiter,
		EditWaitTimeout:  cfg.ServerWriteTimeout / 2,
		Config:           cfg,
	})

	return router, cleanup
}

// editConcurrency 编辑并发上限，未配置时按 CPU 数
func editConcurrency(cfg *config.Config) int64 {
	if cfg.EditMaxConcurrency > 0 {
		return cfg.EditMaxConcurrency
	}
	return int64(runtime.NumCPU())
}

// StartServer 创建 http.Server
func StartServer(cfg *config.Config, deps *ServerDependencies) (*http.Server, func()) {
	router, clean := setupRouter(cfg, deps)

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  cfg.ServerIdleTimeout,
	}

	return srv, clean
}
