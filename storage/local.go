package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
)

const localBackend = "local"

// LocalStorage 本地文件存储实现
// 文件系统不保存 content type，读取时根据内容嗅探
type LocalStorage struct {
	absBasePath string
}

// NewLocalStorage 创建本地存储提供者
func NewLocalStorage(basePath string) (*LocalStorage, error) {
	absPath, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path for '%s': %w", basePath, err)
	}

	if err := os.MkdirAll(absPath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create local storage directory '%s': %w", absPath, err)
	}

	testFile := filepath.Join(absPath, ".write_test_"+strconv.FormatInt(time.Now().UnixNano(), 10))
	f, err := os.Create(testFile)
	if err != nil {
		return nil, fmt.Errorf("local storage directory '%s' is not writable: %w", absPath, err)
	}
	_ = f.Close()
	_ = os.Remove(testFile)

	return &LocalStorage{
		absBasePath: absPath + string(os.PathSeparator),
	}, nil
}

// resolve 校验 key 并返回完整路径
func (s *LocalStorage) resolve(key string) (string, error) {
	if !IsValidKey(key) {
		return "", fmt.Errorf("invalid storage key: %s", key)
	}

	fullPath := filepath.Join(s.absBasePath, key)

	// 防止目录遍历攻击
	if !strings.HasPrefix(fullPath, s.absBasePath) {
		return "", fmt.Errorf("invalid file path, potential directory traversal: %s", key)
	}
	return fullPath, nil
}

// PutWithContext 保存对象到本地存储
func (s *LocalStorage) PutWithContext(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	dstPath, err := s.resolve(key)
	if err != nil {
		return newError(localBackend, "put", key, err)
	}

	if err := os.MkdirAll(filepath.Dir(dstPath), 0755); err != nil {
		return newError(localBackend, "put", key, fmt.Errorf("failed to create directory: %w", err))
	}

	// 先写临时文件再 rename，避免读到半截文件
	tmpPath := dstPath + ".tmp-" + strconv.FormatInt(time.Now().UnixNano(), 10)
	dst, err := os.Create(tmpPath)
	if err != nil {
		return newError(localBackend, "put", key, fmt.Errorf("failed to create destination file: %w", err))
	}

	if _, err := io.Copy(dst, r); err != nil {
		_ = dst.Close()
		_ = os.Remove(tmpPath)
		return newError(localBackend, "put", key, fmt.Errorf("failed to copy file content: %w", err))
	}
	if err := dst.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return newError(localBackend, "put", key, err)
	}

	if err := os.Rename(tmpPath, dstPath); err != nil {
		_ = os.Remove(tmpPath)
		return newError(localBackend, "put", key, err)
	}
	return nil
}

// GetWithContext 从本地存储获取对象
func (s *LocalStorage) GetWithContext(ctx context.Context, key string) (*ImageStream, error) {
	fullPath, err := s.resolve(key)
	if err != nil {
		return nil, newError(localBackend, "get", key, err)
	}

	file, err := os.Open(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, notFound(localBackend, "get", key)
		}
		return nil, newError(localBackend, "get", key, err)
	}

	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, newError(localBackend, "get", key, err)
	}

	mtype, err := mimetype.DetectReader(file)
	if err != nil {
		_ = file.Close()
		return nil, newError(localBackend, "get", key, err)
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		_ = file.Close()
		return nil, newError(localBackend, "get", key, err)
	}

	return &ImageStream{
		Reader:      file,
		ContentType: mtype.String(),
		Size:        info.Size(),
	}, nil
}

// DeleteWithContext 从本地存储删除对象
func (s *LocalStorage) DeleteWithContext(ctx context.Context, key string) error {
	fullPath, err := s.resolve(key)
	if err != nil {
		return newError(localBackend, "delete", key, err)
	}

	if err := os.Remove(fullPath); err != nil && !os.IsNotExist(err) {
		return newError(localBackend, "delete", key, err)
	}
	return nil
}

// Exists 检查对象是否存在
func (s *LocalStorage) Exists(ctx context.Context, key string) (bool, error) {
	fullPath, err := s.resolve(key)
	if err != nil {
		return false, newError(localBackend, "stat", key, err)
	}

	_, err = os.Stat(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, newError(localBackend, "stat", key, err)
	}
	return true, nil
}

// Health 检查存储健康状态
func (s *LocalStorage) Health(ctx context.Context) error {
	_, err := os.ReadDir(s.absBasePath)
	return err
}

// Name 返回存储名称
func (s *LocalStorage) Name() string {
	return localBackend
}

// BasePath 返回存储的基础路径
func (s *LocalStorage) BasePath() string {
	return s.absBasePath
}

// IsValidKey 校验对象 key 是否合法
func IsValidKey(key string) bool {
	if key == "" {
		return false
	}

	// 不允许绝对路径
	if filepath.IsAbs(key) {
		return false
	}

	// 防止目录遍历
	if strings.Contains(key, "..") {
		return false
	}

	// 只允许安全字符
	for _, r := range key {
		if (r < 'a' || r > 'z') &&
			(r < 'A' || r > 'Z') &&
			(r < '0' || r > '9') &&
			r != '-' && r != '_' && r != '.' && r != '/' {
			return false
		}
	}

	return true
}
