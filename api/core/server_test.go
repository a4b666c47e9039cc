package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/anoixa/pixly/api/middleware"
	"github.com/anoixa/pixly/cache"
	"github.com/anoixa/pixly/cache/memory"
	"github.com/anoixa/pixly/config"
	"github.com/anoixa/pixly/database/models"
	photorepo "github.com/anoixa/pixly/database/repo/photos"
	photosvc "github.com/anoixa/pixly/internal/photos"
	"github.com/anoixa/pixly/internal/testutil"
	"github.com/anoixa/pixly/storage"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Photo{}))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	local, err := storage.NewLocalStorage(filepath.Join(t.TempDir(), "photos"))
	require.NoError(t, err)

	mem, err := memory.NewMemory(memory.Config{NumCounters: 1000, MaxCost: 16 << 20, BufferItems: 64})
	require.NoError(t, err)
	t.Cleanup(func() { _ = mem.Close() })
	provider := cache.NewVersioned(mem)

	cfg := &config.Config{
		ServerHost:          "127.0.0.1",
		ServerPort:          8080,
		TempDir:             t.TempDir(),
		UploadMaxSizeMB:     4,
		CacheMaxItemMB:      1,
		CacheResponseTTL:    time.Minute,
		RateLimitApiRPS:     1000,
		RateLimitApiBurst:   1000,
		RateLimitImageRPS:   1000,
		RateLimitImageBurst: 1000,
		RateLimitExpireTime: time.Minute,
		MaxConcurrency:      10,
	}

	service := photosvc.NewService(photorepo.NewRepository(db), storage.NewGateway(local), cache.NewClearAll(provider), cfg)
	router, cleanup := setupRouter(cfg, &ServerDependencies{
		DB:            db,
		Storage:       local,
		CacheProvider: provider,
		Photos:        service,
	})
	t.Cleanup(cleanup)
	return router
}

func do(router *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHealthCheck(t *testing.T) {
	router := newTestRouter(t)

	req, _ := http.NewRequest(http.MethodGet, "/health", nil)
	w := do(router, req)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, map[string]string{"database": "ok", "storage": "ok", "cache": "ok"}, body.Checks)
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))
}

func TestHealthCheck_Degraded(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/health", NewHealthHandler(nil, nil, nil).Handle)

	req, _ := http.NewRequest(http.MethodGet, "/health", nil)
	w := do(router, req)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "degraded")
}

func TestVersionAndMetrics(t *testing.T) {
	router := newTestRouter(t)

	req, _ := http.NewRequest(http.MethodGet, "/version", nil)
	w := do(router, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), config.Version)

	req, _ = http.NewRequest(http.MethodGet, "/metrics", nil)
	w = do(router, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "request_count")
}

func TestPhotoRoutes(t *testing.T) {
	router := newTestRouter(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "r5.jpg")
	require.NoError(t, err)
	_, err = part.Write(testutil.CameraJPEG("Canon", "EOS R5"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req, _ := http.NewRequest(http.MethodPost, "/api/v1/photos", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := do(router, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))

	req, _ = http.NewRequest(http.MethodGet, "/api/v1/photos?q=untitled", nil)
	w = do(router, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "MISS", w.Header().Get(middleware.CacheStatusHeader))
	assert.Contains(t, w.Body.String(), `"makes":["Canon"]`)

	req, _ = http.NewRequest(http.MethodGet, "/api/v1/photos?q=untitled", nil)
	w = do(router, req)
	assert.Equal(t, "HIT", w.Header().Get(middleware.CacheStatusHeader))

	req, _ = http.NewRequest(http.MethodPost, "/api/v1/photos/1/edit", strings.NewReader(`{"operation":"flip"}`))
	req.Header.Set("Content-Type", "application/json")
	w = do(router, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// 编辑清空响应缓存
	req, _ = http.NewRequest(http.MethodGet, "/api/v1/photos?q=untitled", nil)
	w = do(router, req)
	assert.Equal(t, "MISS", w.Header().Get(middleware.CacheStatusHeader))

	req, _ = http.NewRequest(http.MethodGet, "/images/1", nil)
	w = do(router, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/jpeg", w.Header().Get("Content-Type"))

	req, _ = http.NewRequest(http.MethodDelete, "/api/v1/photos/1", nil)
	w = do(router, req)
	require.Equal(t, http.StatusOK, w.Code)

	req, _ = http.NewRequest(http.MethodGet, "/api/v1/photos/1", nil)
	w = do(router, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCORSPreflight(t *testing.T) {
	router := newTestRouter(t)

	req, _ := http.NewRequest(http.MethodOptions, "/api/v1/photos", nil)
	req.Header.Set("Origin", "http://127.0.0.1:8080")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := do(router, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://127.0.0.1:8080", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestStartServer(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{
		ServerHost:         "0.0.0.0",
		ServerPort:         9090,
		ServerReadTimeout:  5 * time.Second,
		ServerWriteTimeout: 10 * time.Second,
	}

	srv, cleanup := StartServer(cfg, &ServerDependencies{})
	defer cleanup()

	assert.Equal(t, "0.0.0.0:9090", srv.Addr)
	assert.Equal(t, 5*time.Second, srv.ReadTimeout)
	assert.NotNil(t, srv.Handler)
}

func TestEditRoutes_WaitForEditSlot(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{TempDir: t.TempDir(), RateLimitApiRPS: 0, RateLimitImageRPS: 0}

	apiLimiter := middleware.NewIPRateLimiter(0, 0, time.Minute)
	imageLimiter := middleware.NewIPRateLimiter(0, 0, time.Minute)
	t.Cleanup(func() {
		apiLimiter.StopCleanup()
		imageLimiter.StopCleanup()
	})

	limiter := middleware.NewConcurrencyLimiter(1)
	router := gin.New()
	RegisterRoutes(router, &RouterDependencies{
		APIRateLimiter:   apiLimiter,
		ImageRateLimiter: imageLimiter,
		EditLimiter:      limiter,
		EditWaitTimeout:  20 * time.Millisecond,
		Config:           cfg,
	})

	// 占用唯一的编辑名额
	held := make(chan struct{})
	release := make(chan struct{})
	hold := gin.New()
	hold.GET("/hold", limiter.Middleware(), func(c *gin.Context) {
		close(held)
		<-release
		c.Status(http.StatusOK)
	})
	go do(hold, httptest.NewRequest(http.MethodGet, "/hold", nil))
	<-held

	for _, path := range []string{"/api/v1/photos/1/edit", "/api/v1/photos/1/revert"} {
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(`{"operation":"flip"}`))
		req.Header.Set("Content-Type", "application/json")
		assert.Equal(t, http.StatusServiceUnavailable, do(router, req).Code, path)
	}

	close(release)
}

func TestEditConcurrency(t *testing.T) {
	assert.Equal(t, int64(3), editConcurrency(&config.Config{EditMaxConcurrency: 3}))
	assert.Positive(t, editConcurrency(&config.Config{}))
}
