package storage

import (
	"context"
	"io"
)

// ImageStream 读取到的对象流
type ImageStream struct {
	Reader      io.ReadCloser
	ContentType string
	Size        int64
}

// Provider 存储提供者接口 - 依赖倒置的核心抽象
// 以对象 key 寻址，所有后端实现必须遵循此接口
type Provider interface {
	// PutWithContext 上传对象，size 未知时传 -1
	PutWithContext(ctx context.Context, key string, r io.Reader, size int64, contentType string) error

	// GetWithContext 读取对象，调用方负责关闭 Reader
	GetWithContext(ctx context.Context, key string) (*ImageStream, error)

	// DeleteWithContext 删除对象，对象不存在时视为成功
	DeleteWithContext(ctx context.Context, key string) error

	// Exists 检查对象是否存在
	Exists(ctx context.Context, key string) (bool, error)

	// Health 检查存储健康状态
	Health(ctx context.Context) error

	// Name 返回存储名称
	Name() string
}
