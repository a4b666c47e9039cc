// Package photos 实现照片的上传、编辑、还原与删除流程
package photos

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/anoixa/pixly/cache"
	"github.com/anoixa/pixly/config"
	"github.com/anoixa/pixly/database/models"
	"github.com/google/uuid"
)

// Store 照片记录存储
type Store interface {
	Create(ctx context.Context, fields models.PhotoFields, exif models.Exif) (uint, error)
	Get(ctx context.Context, id uint) (*models.Photo, error)
	List(ctx context.Context, query string) ([]*models.Photo, error)
	ListIDs(ctx context.Context) ([]uint, error)
	ListIDsCreatedBefore(ctx context.Context, cutoff time.Time) ([]uint, error)
	Delete(ctx context.Context, id uint) error
	DeleteIDs(ctx context.Context, ids []uint) (int64, error)
	SanitizeExif(ctx context.Context) (int64, error)
}

// BlobStore 以本地文件为单位读写对象存储
type BlobStore interface {
	Put(ctx context.Context, localPath, key, contentType string) error
	Get(ctx context.Context, key, localPath string) (string, error)
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// Service 照片服务
type Service struct {
	repo             Store
	blobs            BlobStore
	invalidator      cache.Invalidator
	tempDir          string
	legacyExifRepair bool
	orphanGrace      time.Duration
}

// NewService 创建照片服务
func NewService(repo Store, blobs BlobStore, invalidator cache.Invalidator, cfg *config.Config) *Service {
	if invalidator == nil {
		invalidator = cache.Noop{}
	}

	tempDir := cfg.TempDir
	if tempDir == "" {
		tempDir = os.TempDir()
	}

	return &Service{
		repo:             repo,
		blobs:            blobs,
		invalidator:      invalidator,
		tempDir:          tempDir,
		legacyExifRepair: cfg.DBLegacyExifRepair,
		orphanGrace:      cfg.CleanOrphanGrace,
	}
}

// WorkingKey 工作副本的对象 key
func WorkingKey(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

// OriginalKey 原图的对象 key
func OriginalKey(id uint) string {
	return WorkingKey(id) + "-original"
}

// Get 获取照片记录
func (s *Service) Get(ctx context.Context, id uint) (*models.Photo, error) {
	return s.repo.Get(ctx, id)
}

// scratchPath 生成临时文件路径，同一 id 的并发请求互不冲突
func (s *Service) scratchPath(prefix string) (string, error) {
	if err := os.MkdirAll(s.tempDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create temp dir: %w", err)
	}
	return filepath.Join(s.tempDir, prefix+"-"+uuid.NewString()), nil
}

func removeScratch(paths ...string) {
	for _, p := range paths {
		if p == "" {
			continue
		}
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			log.Printf("[Photos] Failed to remove scratch file %s: %v", p, err)
		}
	}
}

// invalidate 使缓存失效，失败只记录日志
func (s *Service) invalidate(ctx context.Context, scope string) {
	if err := s.invalidator.Invalidate(ctx, scope); err != nil {
		log.Printf("[Cache] %v", err)
	}
}
