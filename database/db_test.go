package database

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/anoixa/pixly/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDB_SQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "pixly.db")

	db, err := NewDB(&config.Config{DBType: "sqlite", DBFilePath: path, DBMaxOpenConns: 4})
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(db) })

	require.NoError(t, AutoMigrate(db))
	assert.True(t, db.Migrator().HasTable("photos"))
	assert.FileExists(t, path)
}

func TestNewDB_Unsupported(t *testing.T) {
	_, err := NewDB(&config.Config{DBType: "oracle"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported database type")
}

func TestDialectorFor_PostgresHidesPassword(t *testing.T) {
	d, desc, err := dialectorFor(&config.Config{
		DBType:     "postgres",
		DBHost:     "db",
		DBPort:     5432,
		DBUsername: "pixly",
		DBPassword: "secret",
		DBName:     "pixly",
	})
	require.NoError(t, err)
	assert.Equal(t, "postgres", d.Name())
	assert.Equal(t, "postgres pixly@db:5432/pixly", desc)
	assert.NotContains(t, desc, "secret")
}

type recordingPool struct {
	open, idle int
	lifetime   time.Duration
}

func (p *recordingPool) SetMaxOpenConns(n int)              { p.open = n }
func (p *recordingPool) SetMaxIdleConns(n int)              { p.idle = n }
func (p *recordingPool) SetConnMaxLifetime(d time.Duration) { p.lifetime = d }

func TestApplyPool(t *testing.T) {
	p := &recordingPool{}
	applyPool(p, &config.Config{DBMaxOpenConns: 10, DBMaxIdleConns: 2, DBConnMaxLifetime: 60})
	assert.Equal(t, 10, p.open)
	assert.Equal(t, 2, p.idle)
	assert.Equal(t, time.Minute, p.lifetime)

	zero := &recordingPool{}
	applyPool(zero, &config.Config{})
	assert.Equal(t, recordingPool{}, *zero)
}
