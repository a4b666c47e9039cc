// Package validator 校验上传文件
package validator

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

var (
	// ErrExtension 扩展名不在允许列表中
	ErrExtension = errors.New("file extension is not allowed")

	// ErrNotImage 文件内容不是图片
	ErrNotImage = errors.New("file content is not an image")
)

// allowedExtensions 允许上传的扩展名
var allowedExtensions = map[string]bool{
	"jpg":  true,
	"jpeg": true,
	"png":  true,
	"gif":  true,
	"bmp":  true,
	"tif":  true,
	"tiff": true,
	"webp": true,
}

// AllowedExtensions 返回排序后的允许扩展名
func AllowedExtensions() []string {
	return []string{"bmp", "gif", "jpeg", "jpg", "png", "tif", "tiff", "webp"}
}

// CheckExtension 检查文件名扩展名，大小写不敏感
// 返回的错误包含允许的扩展名列表，可用 errors.Is(err, ErrExtension) 判断
func CheckExtension(filename string) error {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	if !allowedExtensions[ext] {
		return fmt.Errorf("%w (allowed: %s)", ErrExtension, strings.Join(AllowedExtensions(), ", "))
	}
	return nil
}

// SniffImage 嗅探内容类型，非图片返回 ErrNotImage
func SniffImage(data []byte) (string, error) {
	detected := mimetype.Detect(data)
	for m := detected; m != nil; m = m.Parent() {
		if strings.HasPrefix(m.String(), "image/") {
			return detected.String(), nil
		}
	}
	return "", ErrNotImage
}

// Validate 依次检查扩展名与内容，返回嗅探到的 content type
func Validate(filename string, data []byte) (string, error) {
	if err := CheckExtension(filename); err != nil {
		return "", err
	}
	return SniffImage(data)
}
