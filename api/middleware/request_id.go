package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// RequestIDHeader 请求 ID 响应头
	RequestIDHeader = "X-Request-ID"

	// ContextRequestIDKey gin 上下文中的请求 ID
	ContextRequestIDKey = "request_id"
)

// RequestID 为每个请求分配 ID，已携带合法 ID 时沿用
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}

		c.Set(ContextRequestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// GetRequestID 从上下文取出请求 ID
func GetRequestID(c *gin.Context) string {
	return c.GetString(ContextRequestIDKey)
}
