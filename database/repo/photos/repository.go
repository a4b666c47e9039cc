package photos

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/anoixa/pixly/database/models"
	"gorm.io/gorm"
)

// ErrNotFound 照片记录不存在
var ErrNotFound = errors.New("photo not found")

// likeEscaper 转义 LIKE 通配符
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Repository 照片仓库
type Repository struct {
	db *gorm.DB
}

// NewRepository 创建照片仓库
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// DB 返回底层连接
func (r *Repository) DB() *gorm.DB {
	return r.db
}

// Create 写入新记录，空白字段使用占位值，返回数据库分配的 id
func (r *Repository) Create(ctx context.Context, fields models.PhotoFields, exif models.Exif) (uint, error) {
	fields = fields.WithPlaceholders()
	if exif == nil {
		exif = models.Exif{}
	}

	photo := &models.Photo{
		Title:   fields.Title,
		Caption: fields.Caption,
		By:      fields.By,
		Exif:    exif,
	}
	if err := r.db.WithContext(ctx).Create(photo).Error; err != nil {
		return 0, fmt.Errorf("failed to create photo: %w", err)
	}
	return photo.ID, nil
}

// Get 按 id 获取记录
func (r *Repository) Get(ctx context.Context, id uint) (*models.Photo, error) {
	var photo models.Photo
	err := r.db.WithContext(ctx).First(&photo, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get photo %d: %w", id, err)
	}
	return &photo, nil
}

// List 按 id 升序返回全部记录
// query 非空时只保留 title、caption 或 by 包含 query 的记录，不区分大小写
func (r *Repository) List(ctx context.Context, query string) ([]*models.Photo, error) {
	tx := r.db.WithContext(ctx).Model(&models.Photo{})

	if query != "" {
		pattern := "%" + likeEscaper.Replace(strings.ToLower(query)) + "%"
		tx = tx.Where(
			`LOWER(title) LIKE ? ESCAPE '\' OR LOWER(caption) LIKE ? ESCAPE '\' OR LOWER("by") LIKE ? ESCAPE '\'`,
			pattern, pattern, pattern,
		)
	}

	var photos []*models.Photo
	if err := tx.Order("id ASC").Find(&photos).Error; err != nil {
		return nil, fmt.Errorf("failed to list photos: %w", err)
	}
	return photos, nil
}

// ListIDs 返回全部记录 id
func (r *Repository) ListIDs(ctx context.Context) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Model(&models.Photo{}).Order("id ASC").Pluck("id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list photo ids: %w", err)
	}
	return ids, nil
}

// ListIDsCreatedBefore 返回创建时间早于 cutoff 的记录 id
func (r *Repository) ListIDsCreatedBefore(ctx context.Context, cutoff time.Time) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Model(&models.Photo{}).
		Where("created_at < ?", cutoff).
		Order("id ASC").
		Pluck("id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list photo ids: %w", err)
	}
	return ids, nil
}

// Delete 硬删除记录，不级联
func (r *Repository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Photo{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete photo %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteIDs 批量删除记录，返回删除行数
func (r *Repository) DeleteIDs(ctx context.Context, ids []uint) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).Where("id IN ?", ids).Delete(&models.Photo{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete photos: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// SanitizeExif 修复历史数据中 exif 文本里残留的 \u0000 转义，返回修复行数
func (r *Repository) SanitizeExif(ctx context.Context) (int64, error) {
	const nul = `\u0000`

	var result *gorm.DB
	db := r.db.WithContext(ctx)
	switch db.Dialector.Name() {
	case "postgres":
		result = db.Exec(
			`UPDATE photos SET exif = REPLACE(exif::text, ?, '')::jsonb WHERE strpos(exif::text, ?) > 0`,
			nul, nul,
		)
	default:
		result = db.Exec(
			`UPDATE photos SET exif = REPLACE(exif, ?, '') WHERE instr(exif, ?) > 0`,
			nul, nul,
		)
	}
	if result.Error != nil {
		return 0, fmt.Errorf("failed to sanitize exif: %w", result.Error)
	}
	return result.RowsAffected, nil
}
