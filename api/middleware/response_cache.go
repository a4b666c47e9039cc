package middleware

import (
	"bytes"
	"log"
	"net/http"
	"time"

	"github.com/anoixa/pixly/cache"
	"github.com/gin-gonic/gin"
)

// CacheStatusHeader 标记响应是否来自缓存
const CacheStatusHeader = "X-Cache"

type bodyWriter struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *bodyWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *bodyWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// ResponseCache 缓存 GET 请求的 200 响应，键为完整请求 URI
// provider 为 nil 时直接放行
func ResponseCache(provider cache.Provider, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if provider == nil || c.Request.Method != http.MethodGet {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		key := cache.Response.Build(c.Request.URL.RequestURI())
		gen := cache.GenerationOf(provider)

		var entry cache.Entry
		if err := provider.Get(ctx, key, &entry); err == nil {
			c.Header(CacheStatusHeader, "HIT")
			c.Data(entry.Status, entry.ContentType, entry.Body)
			c.Abort()
			return
		} else if !cache.IsCacheMiss(err) {
			log.Printf("[Cache] Failed to read %s: %v", key, err)
		}

		c.Header(CacheStatusHeader, "MISS")
		writer := &bodyWriter{ResponseWriter: c.Writer}
		c.Writer = writer

		c.Next()

		if writer.Status() != http.StatusOK {
			return
		}
		entry = cache.Entry{
			Status:      writer.Status(),
			ContentType: writer.Header().Get("Content-Type"),
			Body:        writer.body.Bytes(),
		}
		if _, err := cache.SetIfCurrent(ctx, provider, key, entry, ttl, gen); err != nil {
			log.Printf("[Cache] Failed to store %s: %v", key, err)
		}
	}
}
