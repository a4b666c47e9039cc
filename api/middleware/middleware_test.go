package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/anoixa/pixly/cache"
	"github.com/anoixa/pixly/cache/memory"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(router *gin.Engine, method, target string, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	var req *http.Request
	if body != "" {
		req, _ = http.NewRequest(method, target, strings.NewReader(body))
	} else {
		req, _ = http.NewRequest(method, target, nil)
	}
	router.ServeHTTP(w, req)
	return w
}

func TestRequestID(t *testing.T) {
	router := gin.New()
	router.Use(RequestID())
	router.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, GetRequestID(c))
	})

	w := serve(router, http.MethodGet, "/", "")
	id := w.Header().Get(RequestIDHeader)
	_, err := uuid.Parse(id)
	require.NoError(t, err)
	assert.Equal(t, id, w.Body.String())

	existing := uuid.NewString()
	req, _ := http.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, existing)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, existing, w.Header().Get(RequestIDHeader))

	// 非法 ID 被替换
	req, _ = http.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "<script>")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.NotEqual(t, "<script>", w.Header().Get(RequestIDHeader))
}

func TestMetrics(t *testing.T) {
	ResetMetrics()
	t.Cleanup(ResetMetrics)

	router := gin.New()
	router.Use(Metrics())
	router.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/missing", func(c *gin.Context) { c.Status(http.StatusNotFound) })
	router.GET("/boom", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	serve(router, http.MethodGet, "/ok", "")
	serve(router, http.MethodGet, "/missing", "")
	serve(router, http.MethodGet, "/boom", "")

	m := GetMetrics()
	assert.Equal(t, int64(3), m["request_count"])
	assert.Equal(t, int64(1), m["client_errors"])
	assert.Equal(t, int64(1), m["server_errors"])
}

func TestIPRateLimiter(t *testing.T) {
	rl := NewIPRateLimiter(1, 2, time.Minute)
	t.Cleanup(rl.StopCleanup)

	router := gin.New()
	router.Use(rl.Middleware())
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/", "").Code)
	assert.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/", "").Code)

	w := serve(router, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "Too many requests")
}

func TestIPRateLimiter_Disabled(t *testing.T) {
	rl := NewIPRateLimiter(0, 0, time.Minute)
	t.Cleanup(rl.StopCleanup)

	router := gin.New()
	router.Use(rl.Middleware())
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/", "").Code)
	}
}

func TestIPRateLimiter_Evict(t *testing.T) {
	rl := NewIPRateLimiter(1, 1, time.Minute)
	rl.StopCleanup()
	rl.StopCleanup()

	now := time.Now()
	assert.True(t, rl.allow("10.0.0.1", now))
	assert.False(t, rl.allow("10.0.0.1", now))
	assert.True(t, rl.allow("10.0.0.2", now.Add(50*time.Second)))

	assert.Equal(t, 1, rl.evict(now.Add(90*time.Second)))
	assert.True(t, rl.allow("10.0.0.1", now.Add(90*time.Second)))
}

func TestConcurrencyLimiter(t *testing.T) {
	cl := NewConcurrencyLimiter(1)

	entered := make(chan struct{})
	release := make(chan struct{})

	router := gin.New()
	router.Use(cl.Middleware())
	router.GET("/slow", func(c *gin.Context) {
		close(entered)
		<-release
		c.Status(http.StatusOK)
	})
	router.GET("/fast", func(c *gin.Context) { c.Status(http.StatusOK) })

	var wg sync.WaitGroup
	wg.Add(1)
	var slowCode int
	go func() {
		defer wg.Done()
		slowCode = serve(router, http.MethodGet, "/slow", "").Code
	}()

	<-entered
	assert.Equal(t, http.StatusServiceUnavailable, serve(router, http.MethodGet, "/fast", "").Code)

	close(release)
	wg.Wait()
	assert.Equal(t, http.StatusOK, slowCode)
	assert.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/fast", "").Code)
}

func TestConcurrencyLimiter_BlockTimeout(t *testing.T) {
	cl := NewConcurrencyLimiter(1)
	require.NoError(t, cl.sem.Acquire(context.Background(), 1))

	router := gin.New()
	router.Use(cl.MiddlewareWithBlock(20 * time.Millisecond))
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusServiceUnavailable, serve(router, http.MethodGet, "/", "").Code)

	cl.sem.Release(1)
	assert.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/", "").Code)
}

func TestMaxBytesReader(t *testing.T) {
	router := gin.New()
	router.Use(MaxBytesReader(8))
	router.POST("/", func(c *gin.Context) {
		data, err := c.GetRawData()
		if err != nil {
			c.Status(http.StatusRequestEntityTooLarge)
			return
		}
		c.String(http.StatusOK, string(data))
	})

	w := serve(router, http.MethodPost, "/", "small")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "small", w.Body.String())

	w = serve(router, http.MethodPost, "/", "definitely too large")
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func newMemoryCache(t *testing.T) cache.Provider {
	t.Helper()
	p, err := memory.NewMemory(memory.Config{NumCounters: 1000, MaxCost: 1 << 20, BufferItems: 64})
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })
	return cache.NewVersioned(p)
}

func TestResponseCache(t *testing.T) {
	provider := newMemoryCache(t)

	calls := 0
	router := gin.New()
	router.Use(ResponseCache(provider, time.Minute))
	router.GET("/photos", func(c *gin.Context) {
		calls++
		c.JSON(http.StatusOK, gin.H{"q": c.Query("q"), "calls": calls})
	})
	router.GET("/missing", func(c *gin.Context) {
		calls++
		c.Status(http.StatusNotFound)
	})
	router.POST("/photos", func(c *gin.Context) {
		calls++
		c.Status(http.StatusCreated)
	})

	w := serve(router, http.MethodGet, "/photos?q=a", "")
	assert.Equal(t, "MISS", w.Header().Get(CacheStatusHeader))
	first := w.Body.String()

	w = serve(router, http.MethodGet, "/photos?q=a", "")
	assert.Equal(t, "HIT", w.Header().Get(CacheStatusHeader))
	assert.Equal(t, first, w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Type"), "application/json")
	assert.Equal(t, 1, calls)

	// 不同查询串使用不同键
	w = serve(router, http.MethodGet, "/photos?q=b", "")
	assert.Equal(t, "MISS", w.Header().Get(CacheStatusHeader))
	assert.Equal(t, 2, calls)

	// 清空后重新生成
	require.NoError(t, cache.NewClearAll(provider).Invalidate(context.Background(), cache.ScopeUpload))
	w = serve(router, http.MethodGet, "/photos?q=a", "")
	assert.Equal(t, "MISS", w.Header().Get(CacheStatusHeader))
	assert.Equal(t, 3, calls)

	serve(router, http.MethodGet, "/missing", "")
	serve(router, http.MethodGet, "/missing", "")
	assert.Equal(t, 5, calls)

	serve(router, http.MethodPost, "/photos", "x")
	serve(router, http.MethodPost, "/photos", "x")
	assert.Equal(t, 7, calls)
}

func TestResponseCache_ClearDuringRequestIsNotStored(t *testing.T) {
	provider := newMemoryCache(t)
	inv := cache.NewClearAll(provider)

	calls := 0
	router := gin.New()
	router.Use(ResponseCache(provider, time.Minute))
	router.GET("/photos/1", func(c *gin.Context) {
		calls++
		if calls == 1 {
			// 响应生成期间照片被删除
			require.NoError(t, inv.Invalidate(c.Request.Context(), cache.ScopeDelete))
		}
		c.JSON(http.StatusOK, gin.H{"calls": calls})
	})

	w := serve(router, http.MethodGet, "/photos/1", "")
	assert.Equal(t, "MISS", w.Header().Get(CacheStatusHeader))

	w = serve(router, http.MethodGet, "/photos/1", "")
	assert.Equal(t, "MISS", w.Header().Get(CacheStatusHeader))
	assert.Equal(t, 2, calls)

	w = serve(router, http.MethodGet, "/photos/1", "")
	assert.Equal(t, "HIT", w.Header().Get(CacheStatusHeader))
	assert.Equal(t, 2, calls)
}

func TestResponseCache_NilProvider(t *testing.T) {
	router := gin.New()
	router.Use(ResponseCache(nil, time.Minute))
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := serve(router, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get(CacheStatusHeader))
}
