package photos

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/anoixa/pixly/api/common"
	"github.com/anoixa/pixly/cache"
	"github.com/anoixa/pixly/config"
	photosvc "github.com/anoixa/pixly/internal/photos"
	"github.com/anoixa/pixly/storage"
	"github.com/gin-gonic/gin"
)

// ImageSource 读取工作副本
type ImageSource interface {
	GetWithContext(ctx context.Context, key string) (*storage.ImageStream, error)
}

// Handler 照片处理器
type Handler struct {
	service        *photosvc.Service
	images         ImageSource
	cacheProvider  cache.Provider
	cacheTTL       time.Duration
	maxCacheItem   int64
	maxUploadBytes int64
}

// NewHandler 照片处理器，cacheProvider 可以为 nil
func NewHandler(service *photosvc.Service, images ImageSource, cacheProvider cache.Provider, cfg *config.Config) *Handler {
	maxCacheItem := int64(cfg.CacheMaxItemMB) << 20
	if maxCacheItem <= 0 {
		maxCacheItem = 10 << 20
	}

	return &Handler{
		service:        service,
		images:         images,
		cacheProvider:  cacheProvider,
		cacheTTL:       cfg.CacheResponseTTL,
		maxCacheItem:   maxCacheItem,
		maxUploadBytes: cfg.MaxUploadBytes(),
	}
}

// parseID 解析路径中的照片 id
func parseID(c *gin.Context) (uint, error) {
	raw := c.Param("id")
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, &photosvc.ValidationError{Field: "id", Message: "must be a positive integer"}
	}
	return uint(id), nil
}

// respondServiceError 将服务层错误映射为 HTTP 状态码
func respondServiceError(c *gin.Context, err error) {
	var (
		validationErr *photosvc.ValidationError
		storageErr    *storage.Error
	)

	switch {
	case errors.As(err, &validationErr):
		common.RespondError(c, http.StatusBadRequest, validationErr.Error())
	case errors.Is(err, photosvc.ErrNotFound):
		common.RespondError(c, http.StatusNotFound, "Photo not found")
	case errors.Is(err, photosvc.ErrDecode):
		common.RespondError(c, http.StatusUnprocessableEntity, "Unsupported or corrupt image")
	case storage.IsNotFound(err):
		common.RespondError(c, http.StatusNotFound, "Image file not found")
	case errors.As(err, &storageErr):
		log.Printf("[Photos] Storage failure: %v", err)
		common.RespondError(c, http.StatusBadGateway, "Storage backend failed")
	default:
		log.Printf("[Photos] Internal error: %v", err)
		common.RespondError(c, http.StatusInternalServerError, "Internal server error")
	}
}
