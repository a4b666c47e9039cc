package cache

import (
	"context"
	"sync/atomic"
	"time"
)

// Versioned 为 Provider 增加清空代数
// 回源前记下代数，写入时若期间发生过 Clear 则丢弃这次写入
type Versioned struct {
	Provider
	gen atomic.Uint64
}

// NewVersioned 包装缓存提供者，已包装的直接返回
func NewVersioned(p Provider) *Versioned {
	if v, ok := p.(*Versioned); ok {
		return v
	}
	return &Versioned{Provider: p}
}

// Generation 当前清空代数
func (v *Versioned) Generation() uint64 {
	return v.gen.Load()
}

// Clear 先推进代数再清空
func (v *Versioned) Clear(ctx context.Context) error {
	v.gen.Add(1)
	return v.Provider.Clear(ctx)
}

// SetAt 仅在代数仍为 gen 时写入，返回是否保留了这次写入
func (v *Versioned) SetAt(ctx context.Context, key string, value interface{}, expiration time.Duration, gen uint64) (bool, error) {
	if v.gen.Load() != gen {
		return false, nil
	}
	if err := v.Provider.Set(ctx, key, value, expiration); err != nil {
		return false, err
	}
	// 写入与 Clear 交错时撤销写入
	if v.gen.Load() != gen {
		return false, v.Provider.Delete(ctx, key)
	}
	return true, nil
}

// GenerationOf 返回 p 的清空代数，未包装的 Provider 恒为 0
func GenerationOf(p Provider) uint64 {
	if v, ok := p.(*Versioned); ok {
		return v.Generation()
	}
	return 0
}

// SetIfCurrent 在代数未变化时写入缓存，未包装的 Provider 直接写入
func SetIfCurrent(ctx context.Context, p Provider, key string, value interface{}, expiration time.Duration, gen uint64) (bool, error) {
	if v, ok := p.(*Versioned); ok {
		return v.SetAt(ctx, key, value, expiration, gen)
	}
	return true, p.Set(ctx, key, value, expiration)
}
