package photos

import (
	"context"

	"github.com/anoixa/pixly/database/models"
	"github.com/anoixa/pixly/internal/gallery"
)

// Gallery 图库查询结果
type Gallery struct {
	Photos []*models.Photo `json:"photos"`
	Makes  []string        `json:"makes"`
	Models []string        `json:"models"`
}

// ListGallery 按关键字搜索后再按相机过滤
// 品牌与型号列表取自搜索结果，不受相机过滤影响
func (s *Service) ListGallery(ctx context.Context, query, cameraMake, cameraModel string) (*Gallery, error) {
	photos, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, err
	}

	makes, cameraModels := gallery.MakesAndModels(photos)
	filtered := gallery.FilterByMakeAndModel(photos, cameraMake, cameraModel)
	if filtered == nil {
		filtered = []*models.Photo{}
	}

	return &Gallery{
		Photos: filtered,
		Makes:  makes,
		Models: cameraModels,
	}, nil
}
