package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
	"time"

	"github.com/studio-b12/gowebdav"
)

const webdavBackend = "webdav"

// WebDAVConfig WebDAV 配置结构
type WebDAVConfig struct {
	URL      string
	Username string
	Password string
	RootPath string
	Timeout  time.Duration
}

// WebDAVStorage WebDAV 存储实现
// content type 由服务端根据 PROPFIND 返回
type WebDAVStorage struct {
	client   *gowebdav.Client
	baseURL  string
	rootPath string
}

// NewWebDAVStorage 创建 WebDAV 存储提供者
func NewWebDAVStorage(cfg WebDAVConfig) (*WebDAVStorage, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("webdav URL is required")
	}

	rootPath := strings.Trim(cfg.RootPath, "/")
	if rootPath != "" {
		rootPath = "/" + rootPath
	}

	client := gowebdav.NewClient(cfg.URL, cfg.Username, cfg.Password)
	if cfg.Timeout > 0 {
		client.SetTimeout(cfg.Timeout)
	}

	s := &WebDAVStorage{
		client:   client,
		rootPath: rootPath,
		baseURL:  strings.TrimRight(cfg.URL, "/"),
	}

	// 验证连接并确保根目录存在
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if rootPath != "" {
		if err := s.run(ctx, func() error { return client.MkdirAll(rootPath, os.FileMode(0755)) }); err != nil {
			return nil, fmt.Errorf("webdav connection test failed: %w", err)
		}
	} else if err := s.Health(ctx); err != nil {
		return nil, fmt.Errorf("webdav connection test failed: %w", err)
	}

	return s, nil
}

// run 在 goroutine 中执行阻塞调用，支持 ctx 取消
func (s *WebDAVStorage) run(ctx context.Context, fn func() error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	done := make(chan error, 1)
	go func() {
		done <- fn()
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		return err
	}
}

// fullPath 生成完整的 WebDAV 路径
func (s *WebDAVStorage) fullPath(key string) string {
	key = strings.TrimLeft(key, "/")
	if s.rootPath != "" {
		return s.rootPath + "/" + key
	}
	return "/" + key
}

// PutWithContext 保存对象到 WebDAV
func (s *WebDAVStorage) PutWithContext(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	if !IsValidKey(key) {
		return newError(webdavBackend, "put", key, fmt.Errorf("invalid storage key: %s", key))
	}

	fullPath := s.fullPath(key)
	parent := path.Dir(fullPath)

	err := s.run(ctx, func() error {
		if parent != "/" && parent != "." {
			if err := s.client.MkdirAll(parent, os.FileMode(0755)); err != nil {
				return err
			}
		}
		return s.client.WriteStream(fullPath, r, 0644)
	})
	return newError(webdavBackend, "put", key, err)
}

// GetWithContext 从 WebDAV 获取对象
func (s *WebDAVStorage) GetWithContext(ctx context.Context, key string) (*ImageStream, error) {
	if !IsValidKey(key) {
		return nil, newError(webdavBackend, "get", key, fmt.Errorf("invalid storage key: %s", key))
	}

	fullPath := s.fullPath(key)

	var stream *ImageStream
	err := s.run(ctx, func() error {
		info, err := s.client.Stat(fullPath)
		if err != nil {
			return err
		}

		reader, err := s.client.ReadStream(fullPath)
		if err != nil {
			return err
		}

		stream = &ImageStream{Reader: reader, Size: info.Size()}
		if f, ok := info.(*gowebdav.File); ok {
			stream.ContentType = f.ContentType()
		}
		return nil
	})
	if err != nil {
		if gowebdav.IsErrNotFound(err) {
			return nil, notFound(webdavBackend, "get", key)
		}
		return nil, newError(webdavBackend, "get", key, err)
	}
	return stream, nil
}

// DeleteWithContext 从 WebDAV 删除对象
func (s *WebDAVStorage) DeleteWithContext(ctx context.Context, key string) error {
	if !IsValidKey(key) {
		return newError(webdavBackend, "delete", key, fmt.Errorf("invalid storage key: %s", key))
	}

	err := s.run(ctx, func() error {
		return s.client.Remove(s.fullPath(key))
	})
	if err != nil && !gowebdav.IsErrNotFound(err) {
		return newError(webdavBackend, "delete", key, err)
	}
	return nil
}

// Exists 检查对象是否存在
func (s *WebDAVStorage) Exists(ctx context.Context, key string) (bool, error) {
	if !IsValidKey(key) {
		return false, newError(webdavBackend, "stat", key, fmt.Errorf("invalid storage key: %s", key))
	}

	err := s.run(ctx, func() error {
		_, err := s.client.Stat(s.fullPath(key))
		return err
	})
	if err != nil {
		if gowebdav.IsErrNotFound(err) {
			return false, nil
		}
		return false, newError(webdavBackend, "stat", key, err)
	}
	return true, nil
}

// Health 检查存储健康状态
func (s *WebDAVStorage) Health(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	root := s.rootPath
	if root == "" {
		root = "/"
	}
	return s.run(ctx, func() error {
		_, err := s.client.ReadDir(root)
		return err
	})
}

// Name 返回存储名称
func (s *WebDAVStorage) Name() string {
	if s.baseURL == "" {
		return webdavBackend
	}
	return fmt.Sprintf("webdav:%s%s", s.baseURL, s.rootPath)
}
