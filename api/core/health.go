package core

import (
	"context"
	"net/http"
	"time"

	"github.com/anoixa/pixly/cache"
	"github.com/anoixa/pixly/storage"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

var startTime = time.Now()

// HealthHandler 健康检查
type HealthHandler struct {
	db      *gorm.DB
	storage storage.Provider
	cache   cache.Provider
}

// NewHealthHandler 创建健康检查处理器
func NewHealthHandler(db *gorm.DB, storageProvider storage.Provider, cacheProvider cache.Provider) *HealthHandler {
	return &HealthHandler{db: db, storage: storageProvider, cache: cacheProvider}
}

// Handle GET /health
func (h *HealthHandler) Handle(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	checks := gin.H{
		"database": h.checkDatabase(ctx),
		"storage":  h.checkStorage(ctx),
		"cache":    h.checkCache(ctx),
	}

	httpStatus := http.StatusOK
	status := "ok"
	for _, result := range checks {
		if result != "ok" {
			httpStatus = http.StatusServiceUnavailable
			status = "degraded"
			break
		}
	}

	c.JSON(httpStatus, gin.H{
		"status": status,
		"uptime": time.Since(startTime).Round(time.Second).String(),
		"checks": checks,
	})
}

func (h *HealthHandler) checkDatabase(ctx context.Context) string {
	if h.db == nil {
		return "not initialized"
	}
	sqlDB, err := h.db.DB()
	if err != nil {
		return "error: " + err.Error()
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return "unavailable: " + err.Error()
	}
	return "ok"
}

func (h *HealthHandler) checkStorage(ctx context.Context) string {
	if h.storage == nil {
		return "not initialized"
	}
	if err := h.storage.Health(ctx); err != nil {
		return "error: " + err.Error()
	}
	return "ok"
}

func (h *HealthHandler) checkCache(ctx context.Context) string {
	if h.cache == nil {
		return "not initialized"
	}
	if _, err := h.cache.Exists(ctx, "health"); err != nil {
		return "error: " + err.Error()
	}
	return "ok"
}
