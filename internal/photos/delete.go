package photos

import (
	"context"
	"errors"
	"log"

	"github.com/anoixa/pixly/cache"
)

// Delete 依次删除数据库记录、工作副本与原图
// 任一阶段失败立即返回 *DeleteError，不回滚已完成的阶段
func (s *Service) Delete(ctx context.Context, id uint) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return &DeleteError{Stage: StageDeleteRow, PhotoID: id, Err: err}
	}
	s.invalidate(ctx, cache.ScopeDelete)

	if err := s.blobs.Delete(ctx, WorkingKey(id)); err != nil {
		derr := &DeleteError{Stage: StageDeleteWorking, PhotoID: id, Err: err}
		log.Printf("[Delete] %v", derr)
		return derr
	}

	if err := s.blobs.Delete(ctx, OriginalKey(id)); err != nil {
		derr := &DeleteError{Stage: StageDeleteOriginal, PhotoID: id, Err: err}
		log.Printf("[Delete] %v", derr)
		return derr
	}

	log.Printf("[Delete] Photo %d removed", id)
	return nil
}

// IsNotFound 判断错误是否表示照片不存在
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
