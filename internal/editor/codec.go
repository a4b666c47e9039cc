package editor

import (
	"errors"
	"fmt"
	"image"
	"io"

	// 注册解码器
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ErrDecode 图片无法解码或格式不受支持
var ErrDecode = errors.New("unsupported or corrupt image")

var contentTypes = map[string]string{
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"gif":  "image/gif",
	"bmp":  "image/bmp",
	"tiff": "image/tiff",
	"webp": "image/webp",
}

// encodeFormats 可以无损重新编码的格式，其余格式编辑后保存为 png
var encodeFormats = map[string]imaging.Format{
	"png":  imaging.PNG,
	"bmp":  imaging.BMP,
	"tiff": imaging.TIFF,
}

// Decode 解码图片，返回图片与格式名 (jpeg/png/gif/bmp/tiff/webp)
func Decode(r io.Reader) (image.Image, string, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return img, format, nil
}

// EncodeFormat 返回编辑结果的编码格式
// jpeg、gif、webp 等有损或需要量化的格式改用 png，重复编辑不会累积损失
func EncodeFormat(format string) string {
	if _, ok := encodeFormats[format]; ok {
		return format
	}
	return "png"
}

// Encode 按 EncodeFormat(format) 编码图片
func Encode(w io.Writer, img image.Image, format string) error {
	f := encodeFormats[EncodeFormat(format)]
	if err := imaging.Encode(w, img, f); err != nil {
		return fmt.Errorf("failed to encode %s: %w", EncodeFormat(format), err)
	}
	return nil
}

// ContentType 返回格式对应的 MIME 类型
func ContentType(format string) string {
	if ct, ok := contentTypes[format]; ok {
		return ct
	}
	return "application/octet-stream"
}
