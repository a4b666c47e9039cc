package cache

import (
	"fmt"
	"log"
	"strings"

	"github.com/anoixa/pixly/cache/memory"
	"github.com/anoixa/pixly/cache/redis"
	"github.com/anoixa/pixly/config"
)

// NewProvider 根据配置创建缓存提供者，返回值带清空代数
func NewProvider(cfg *config.Config) (Provider, error) {
	cacheType := strings.ToLower(strings.TrimSpace(cfg.CacheType))

	switch cacheType {
	case "", "memory":
		// 最多容纳 32 个最大尺寸的条目
		maxCost := int64(cfg.CacheMaxItemMB) * 32 << 20
		if maxCost <= 0 {
			maxCost = 256 << 20
		}
		provider, err := memory.NewMemory(memory.Config{
			NumCounters: 100000,
			MaxCost:     maxCost,
			BufferItems: 64,
			Metrics:     false,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create memory cache: %w", err)
		}
		log.Printf("[Cache] Using memory cache, max cost %d bytes", maxCost)
		return NewVersioned(provider), nil

	case "redis":
		provider, err := redis.NewRedisFromConfig(&redis.Config{
			Address:      cfg.CacheRedisAddr,
			Password:     cfg.CacheRedisPassword,
			DB:           cfg.CacheRedisDB,
			PoolSize:     10,
			MinIdleConns: 2,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create redis cache: %w", err)
		}
		log.Printf("[Cache] Using redis cache at %s", cfg.CacheRedisAddr)
		return NewVersioned(provider), nil

	default:
		return nil, fmt.Errorf("unsupported cache type: %s", cfg.CacheType)
	}
}
