package photos

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/anoixa/pixly/cache"
)

// FindOrphans 返回工作副本已不存在的记录 id
// 创建时间仍在 orphanGrace 窗口内的记录可能正在上传，不参与检查
func (s *Service) FindOrphans(ctx context.Context) ([]uint, error) {
	var (
		ids []uint
		err error
	)
	if s.orphanGrace > 0 {
		ids, err = s.repo.ListIDsCreatedBefore(ctx, time.Now().Add(-s.orphanGrace))
	} else {
		ids, err = s.repo.ListIDs(ctx)
	}
	if err != nil {
		return nil, err
	}

	var orphans []uint
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return orphans, err
		}
		ok, err := s.blobs.Exists(ctx, WorkingKey(id))
		if err != nil {
			return orphans, fmt.Errorf("failed to check photo %d: %w", id, err)
		}
		if !ok {
			orphans = append(orphans, id)
		}
	}
	return orphans, nil
}

// RemoveOrphans 删除孤立记录及其残留的原图，返回删除的记录数
func (s *Service) RemoveOrphans(ctx context.Context, ids []uint) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	n, err := s.repo.DeleteIDs(ctx, ids)
	if err != nil {
		return 0, err
	}
	s.invalidate(ctx, cache.ScopeDelete)

	for _, id := range ids {
		if err := s.blobs.Delete(ctx, OriginalKey(id)); err != nil {
			log.Printf("[Clean] Failed to delete original of photo %d: %v", id, err)
		}
	}
	return n, nil
}

// RepairExif 修复历史 exif 数据中的 NUL 转义
func (s *Service) RepairExif(ctx context.Context) (int64, error) {
	n, err := s.repo.SanitizeExif(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.invalidate(ctx, cache.ScopeAll)
	}
	return n, nil
}
