package photos

import (
	"context"
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/anoixa/pixly/cache"
	photosvc "github.com/anoixa/pixly/internal/photos"
	"github.com/anoixa/pixly/utils"
	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"golang.org/x/sync/singleflight"
)

var imageGroup singleflight.Group

// GetImage 输出工作副本
// GET /images/:id
func (h *Handler) GetImage(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	key := cache.Image.BuildID(id)
	if entry, ok := h.cachedImage(c.Request.Context(), key); ok {
		c.Header("X-Cache", "HIT")
		h.writeImage(c, entry)
		return
	}

	// 同一张图的并发读取只访问一次存储
	ctx := context.WithoutCancel(c.Request.Context())
	v, err, _ := imageGroup.Do(key, func() (interface{}, error) {
		gen := cache.GenerationOf(h.cacheProvider)
		if entry, ok := h.cachedImage(ctx, key); ok {
			return entry, nil
		}
		return h.loadImage(ctx, key, id, gen)
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.Header("X-Cache", "MISS")
	h.writeImage(c, v.(cache.Entry))
}

func (h *Handler) cachedImage(ctx context.Context, key string) (cache.Entry, bool) {
	var entry cache.Entry
	if h.cacheProvider == nil {
		return entry, false
	}
	if err := h.cacheProvider.Get(ctx, key, &entry); err != nil {
		if !cache.IsCacheMiss(err) {
			log.Printf("[GetImage] Cache read failed for %s: %v", key, err)
		}
		return entry, false
	}
	return entry, true
}

// loadImage 从存储读取工作副本并写入缓存
// 读取期间缓存被清空时不回填，gen 为读取前的清空代数
func (h *Handler) loadImage(ctx context.Context, key string, id uint, gen uint64) (cache.Entry, error) {
	stream, err := h.images.GetWithContext(ctx, photosvc.WorkingKey(id))
	if err != nil {
		return cache.Entry{}, err
	}
	defer stream.Reader.Close()

	data, err := io.ReadAll(stream.Reader)
	if err != nil {
		return cache.Entry{}, err
	}

	contentType := stream.ContentType
	if contentType == "" {
		contentType = mimetype.Detect(data).String()
	}
	entry := cache.Entry{Status: http.StatusOK, ContentType: contentType, Body: data}

	if h.cacheProvider != nil && int64(len(data)) <= h.maxCacheItem {
		if _, err := cache.SetIfCurrent(ctx, h.cacheProvider, key, entry, h.cacheTTL, gen); err != nil {
			log.Printf("[GetImage] Cache write failed for %s: %v", key, err)
		}
	}
	return entry, nil
}

func (h *Handler) writeImage(c *gin.Context, entry cache.Entry) {
	c.Header("Cache-Control", "no-cache")
	c.Header("Content-Type", entry.ContentType)
	c.Header("Content-Length", strconv.Itoa(len(entry.Body)))
	c.Writer.WriteHeader(http.StatusOK)
	if _, err := c.Writer.Write(entry.Body); err != nil && !utils.IsClientDisconnect(err) {
		log.Printf("[GetImage] Failed to write response: %v", err)
	}
}
