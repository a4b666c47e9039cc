package storage

import (
	"bytes"
	"context"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/webdav"
)

func newWebDAVServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(&webdav.Handler{
		FileSystem: webdav.NewMemFS(),
		LockSystem: webdav.NewMemLS(),
	})
	t.Cleanup(srv.Close)
	return srv
}

func TestWebDAVStorage_RoundTrip(t *testing.T) {
	srv := newWebDAVServer(t)

	store, err := NewWebDAVStorage(WebDAVConfig{URL: srv.URL, RootPath: "/pixly/", Timeout: 5 * time.Second})
	require.NoError(t, err)
	assert.Equal(t, "webdav:"+srv.URL+"/pixly", store.Name())

	ctx := context.Background()
	require.NoError(t, store.PutWithContext(ctx, "7-original", bytes.NewReader(tinyPNG), int64(len(tinyPNG)), "image/png"))

	ok, err := store.Exists(ctx, "7-original")
	require.NoError(t, err)
	assert.True(t, ok)

	stream, err := store.GetWithContext(ctx, "7-original")
	require.NoError(t, err)
	defer stream.Reader.Close()

	data, err := io.ReadAll(stream.Reader)
	require.NoError(t, err)
	assert.Equal(t, tinyPNG, data)
	assert.Equal(t, int64(len(tinyPNG)), stream.Size)
	assert.Equal(t, "image/png", stream.ContentType)

	require.NoError(t, store.Health(ctx))
}

func TestWebDAVStorage_Missing(t *testing.T) {
	srv := newWebDAVServer(t)

	store, err := NewWebDAVStorage(WebDAVConfig{URL: srv.URL, RootPath: "pixly"})
	require.NoError(t, err)

	ctx := context.Background()

	_, err = store.GetWithContext(ctx, "404")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))

	ok, err := store.Exists(ctx, "404")
	require.NoError(t, err)
	assert.False(t, ok)

	// 删除不存在的对象视为成功
	assert.NoError(t, store.DeleteWithContext(ctx, "404"))
}

func TestWebDAVStorage_Delete(t *testing.T) {
	srv := newWebDAVServer(t)

	store, err := NewWebDAVStorage(WebDAVConfig{URL: srv.URL, RootPath: "pixly"})
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, store.PutWithContext(ctx, "3", bytes.NewReader([]byte("x")), 1, ""))
	require.NoError(t, store.DeleteWithContext(ctx, "3"))

	ok, err := store.Exists(ctx, "3")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestWebDAVStorage_InvalidKey(t *testing.T) {
	srv := newWebDAVServer(t)

	store, err := NewWebDAVStorage(WebDAVConfig{URL: srv.URL})
	require.NoError(t, err)

	ctx := context.Background()
	err = store.PutWithContext(ctx, "../escape", bytes.NewReader(nil), 0, "")
	require.Error(t, err)

	var se *Error
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "put", se.Op)
}

func TestWebDAVStorage_CanceledContext(t *testing.T) {
	srv := newWebDAVServer(t)

	store, err := NewWebDAVStorage(WebDAVConfig{URL: srv.URL})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = store.GetWithContext(ctx, "1")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewWebDAVStorage_RequiresURL(t *testing.T) {
	_, err := NewWebDAVStorage(WebDAVConfig{})
	assert.Error(t, err)
}
