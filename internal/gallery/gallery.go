package gallery

import (
	"sort"

	"github.com/anoixa/pixly/database/models"
	"github.com/mitchellh/mapstructure"
)

// Any 不限制相机品牌或型号
const Any = "Any"

// CameraInfo 照片 EXIF 中的相机信息
type CameraInfo struct {
	Make  string `mapstructure:"Make"`
	Model string `mapstructure:"Model"`
}

// Camera 从照片 EXIF 中解码相机信息，无法解码的字段视为空
func Camera(photo *models.Photo) CameraInfo {
	var info CameraInfo
	if photo == nil || len(photo.Exif) == 0 {
		return info
	}

	if err := mapstructure.WeakDecode(map[string]any(photo.Exif), &info); err != nil {
		// 单个字段出错时只丢弃该字段
		return CameraInfo{
			Make:  decodeField(photo.Exif, "Make"),
			Model: decodeField(photo.Exif, "Model"),
		}
	}
	return info
}

func decodeField(exif models.Exif, key string) string {
	var s string
	if err := mapstructure.WeakDecode(exif[key], &s); err != nil {
		return ""
	}
	return s
}

// MakesAndModels 返回所有照片中出现过的相机品牌与型号，去重并排序
func MakesAndModels(photos []*models.Photo) (makes, cameraModels []string) {
	makeSet := map[string]struct{}{}
	modelSet := map[string]struct{}{}

	for _, p := range photos {
		info := Camera(p)
		if info.Make != "" {
			makeSet[info.Make] = struct{}{}
		}
		if info.Model != "" {
			modelSet[info.Model] = struct{}{}
		}
	}

	return sortedKeys(makeSet), sortedKeys(modelSet)
}

// FilterByMakeAndModel 按品牌与型号过滤，Any 或空值表示不过滤
func FilterByMakeAndModel(photos []*models.Photo, cameraMake, cameraModel string) []*models.Photo {
	filterMake := cameraMake != "" && cameraMake != Any
	filterModel := cameraModel != "" && cameraModel != Any
	if !filterMake && !filterModel {
		return photos
	}

	out := make([]*models.Photo, 0, len(photos))
	for _, p := range photos {
		info := Camera(p)
		if filterModel && info.Model != cameraModel {
			continue
		}
		if filterMake && info.Make != cameraMake {
			continue
		}
		out = append(out, p)
	}
	return out
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
