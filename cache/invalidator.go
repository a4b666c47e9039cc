package cache

import (
	"context"
	"fmt"
	"log"
)

// 失效范围，目前所有范围都会清空整个缓存
const (
	ScopeUpload = "upload"
	ScopeEdit   = "edit"
	ScopeRevert = "revert"
	ScopeDelete = "delete"
	ScopeAll    = "all"
)

// Invalidator 在数据变更前后使缓存失效
type Invalidator interface {
	Invalidate(ctx context.Context, scope string) error
}

// ClearAll 每次失效都清空整个缓存
type ClearAll struct {
	provider Provider
}

// NewClearAll 创建清空式失效器
func NewClearAll(provider Provider) *ClearAll {
	return &ClearAll{provider: provider}
}

// Invalidate 清空缓存
func (c *ClearAll) Invalidate(ctx context.Context, scope string) error {
	if c == nil || c.provider == nil {
		return nil
	}
	if err := c.provider.Clear(ctx); err != nil {
		return fmt.Errorf("failed to invalidate cache (%s): %w", scope, err)
	}
	log.Printf("[Cache] Cleared %s cache (%s)", c.provider.Name(), scope)
	return nil
}

// Noop 不做任何事的失效器
type Noop struct{}

// Invalidate 直接返回
func (Noop) Invalidate(context.Context, string) error { return nil }
