package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/anoixa/pixly/cache/types"
	"github.com/dgraph-io/ristretto"
)

// Memory 基于 ristretto 的进程内缓存
// 值以 JSON 编码后保存，读取语义与 Redis 后端一致
type Memory struct {
	client *ristretto.Cache
}

// Config 内存缓存配置，MaxCost 以字节计
type Config struct {
	NumCounters int64
	MaxCost     int64
	BufferItems int64
	Metrics     bool
}

func NewMemory(config Config) (*Memory, error) {
	client, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: config.NumCounters,
		MaxCost:     config.MaxCost,
		BufferItems: config.BufferItems,
		Metrics:     config.Metrics,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create memory cache: %w", err)
	}
	return &Memory{client: client}, nil
}

// cost 计算缓存项占用，Sizer 优先于编码长度
func cost(value interface{}, encoded []byte) int64 {
	if s, ok := value.(types.Sizer); ok && s.Size() > 0 {
		return s.Size()
	}
	return int64(len(encoded))
}

// Set 写入缓存项，超出容量的项会被 ristretto 丢弃而不报错
func (m *Memory) Set(_ context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	if m.client.SetWithTTL(key, data, cost(value, data), expiration) {
		m.client.Wait()
	}
	return nil
}

// Get 读取缓存项并解码到 dest
func (m *Memory) Get(_ context.Context, key string, dest interface{}) error {
	value, found := m.client.Get(key)
	if !found {
		return types.ErrCacheMiss
	}

	data, ok := value.([]byte)
	if !ok {
		m.client.Del(key)
		return types.ErrCacheMiss
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("failed to decode cached value %q: %w", key, err)
	}
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.client.Del(key)
	return nil
}

func (m *Memory) Exists(_ context.Context, key string) (bool, error) {
	_, found := m.client.Get(key)
	return found, nil
}

// Clear 清空全部缓存项
func (m *Memory) Clear(_ context.Context) error {
	m.client.Clear()
	return nil
}

func (m *Memory) Close() error {
	m.client.Close()
	return nil
}

func (m *Memory) Name() string {
	return "memory"
}
