package app

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/anoixa/pixly/config"
	"github.com/anoixa/pixly/database"
	"github.com/anoixa/pixly/internal/photos"
	"github.com/anoixa/pixly/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	dir := t.TempDir()
	return &config.Config{
		DBType:           "sqlite",
		DBFilePath:       filepath.Join(dir, "pixly.db"),
		StorageType:      "local",
		StorageLocalPath: filepath.Join(dir, "photos"),
		CacheType:        "memory",
		CacheMaxItemMB:   1,
		TempDir:          filepath.Join(dir, "temp"),
	}
}

func TestContainer_Init(t *testing.T) {
	c := NewContainer(testConfig(t))
	require.NoError(t, c.Init())
	t.Cleanup(func() { _ = c.Close() })

	require.NoError(t, database.AutoMigrate(c.DB()))

	assert.NotNil(t, c.Storage())
	assert.NotNil(t, c.Cache())
	require.NotNil(t, c.Photos())

	ctx := context.Background()
	photo, err := c.Photos().Upload(ctx, photos.UploadInput{Filename: "a.png", Data: testutil.PNG(2, 2)})
	require.NoError(t, err)

	got, err := c.Photos().Get(ctx, photo.ID)
	require.NoError(t, err)
	assert.Equal(t, photo.ID, got.ID)
}

func TestContainer_UnsupportedStorage(t *testing.T) {
	cfg := testConfig(t)
	cfg.StorageType = "ftp"

	c := NewContainer(cfg)
	err := c.Init()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported storage type")
	assert.NoError(t, c.Close())
}

func TestContainer_UnsupportedCache(t *testing.T) {
	cfg := testConfig(t)
	cfg.CacheType = "memcached"

	c := NewContainer(cfg)
	require.Error(t, c.Init())
	assert.NoError(t, c.Close())
}
