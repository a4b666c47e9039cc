package photos

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/anoixa/pixly/cache"
	"github.com/anoixa/pixly/internal/editor"
	"github.com/gabriel-vasile/mimetype"
)

// Edit 对工作副本执行编辑操作并覆盖写回，原图不变
// OpNone 只检查记录是否存在，不改写工作副本
func (s *Service) Edit(ctx context.Context, id uint, op editor.Operation) error {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return err
	}
	if op == editor.OpNone {
		return nil
	}

	s.invalidate(ctx, cache.ScopeEdit)
	defer s.invalidate(ctx, cache.ScopeEdit)

	prefix := WorkingKey(id)
	src, err := s.scratchPath(prefix)
	if err != nil {
		return err
	}
	dst, err := s.scratchPath(prefix)
	if err != nil {
		return err
	}
	defer removeScratch(src, dst)

	if _, err := s.blobs.Get(ctx, WorkingKey(id), src); err != nil {
		return err
	}

	format, err := transformFile(src, dst, op)
	if err != nil {
		return err
	}

	if err := s.blobs.Put(ctx, dst, WorkingKey(id), editor.ContentType(format)); err != nil {
		return err
	}

	log.Printf("[Edit] Applied %s to photo %d", op, id)
	return nil
}

// transformFile 解码 src，执行编辑并编码到 dst，返回实际编码格式
func transformFile(src, dst string, op editor.Operation) (string, error) {
	in, err := os.Open(src)
	if err != nil {
		return "", fmt.Errorf("failed to open scratch file: %w", err)
	}
	defer in.Close()

	img, format, err := editor.Decode(in)
	if err != nil {
		return "", err
	}

	out, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("failed to create scratch file: %w", err)
	}

	format = editor.EncodeFormat(format)
	if err := editor.Encode(out, editor.Apply(img, op), format); err != nil {
		_ = out.Close()
		return "", err
	}
	if err := out.Close(); err != nil {
		return "", fmt.Errorf("failed to write scratch file: %w", err)
	}
	return format, nil
}

// Revert 用原图覆盖工作副本
func (s *Service) Revert(ctx context.Context, id uint) error {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return err
	}

	s.invalidate(ctx, cache.ScopeRevert)
	defer s.invalidate(ctx, cache.ScopeRevert)

	scratch, err := s.scratchPath(WorkingKey(id))
	if err != nil {
		return err
	}
	defer removeScratch(scratch)

	if _, err := s.blobs.Get(ctx, OriginalKey(id), scratch); err != nil {
		return err
	}

	mtype, err := mimetype.DetectFile(scratch)
	if err != nil {
		return fmt.Errorf("failed to detect content type: %w", err)
	}

	if err := s.blobs.Put(ctx, scratch, WorkingKey(id), mtype.String()); err != nil {
		return err
	}

	log.Printf("[Edit] Reverted photo %d to original", id)
	return nil
}
