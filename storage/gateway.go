package storage

import (
	"context"
	"fmt"
	"io"
	"os"
)

// Gateway 以本地文件为单位读写对象存储
type Gateway struct {
	provider Provider
}

// NewGateway 创建存储网关
func NewGateway(provider Provider) *Gateway {
	return &Gateway{provider: provider}
}

// Provider 返回底层存储提供者
func (g *Gateway) Provider() Provider {
	return g.provider
}

// Put 将本地文件上传到 key，contentType 随对象一起保存
func (g *Gateway) Put(ctx context.Context, localPath, key, contentType string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return newError(g.provider.Name(), "put", key, fmt.Errorf("open local file: %w", err))
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return newError(g.provider.Name(), "put", key, fmt.Errorf("stat local file: %w", err))
	}

	return newError(g.provider.Name(), "put", key, g.provider.PutWithContext(ctx, key, f, info.Size(), contentType))
}

// Get 将 key 对应的对象下载到 localPath，返回对象的 content type
// 下载失败时删除写了一半的本地文件
func (g *Gateway) Get(ctx context.Context, key, localPath string) (string, error) {
	stream, err := g.provider.GetWithContext(ctx, key)
	if err != nil {
		return "", newError(g.provider.Name(), "get", key, err)
	}
	defer stream.Reader.Close()

	dst, err := os.Create(localPath)
	if err != nil {
		return "", newError(g.provider.Name(), "get", key, fmt.Errorf("create local file: %w", err))
	}

	if _, err := io.Copy(dst, stream.Reader); err != nil {
		_ = dst.Close()
		_ = os.Remove(localPath)
		return "", newError(g.provider.Name(), "get", key, fmt.Errorf("download: %w", err))
	}
	if err := dst.Close(); err != nil {
		_ = os.Remove(localPath)
		return "", newError(g.provider.Name(), "get", key, err)
	}

	return stream.ContentType, nil
}

// Delete 删除 key 对应的对象，对象不存在时视为成功
func (g *Gateway) Delete(ctx context.Context, key string) error {
	return newError(g.provider.Name(), "delete", key, g.provider.DeleteWithContext(ctx, key))
}

// Exists 检查 key 对应的对象是否存在
func (g *Gateway) Exists(ctx context.Context, key string) (bool, error) {
	ok, err := g.provider.Exists(ctx, key)
	if err != nil {
		return false, newError(g.provider.Name(), "stat", key, err)
	}
	return ok, nil
}
