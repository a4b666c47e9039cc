// Package metadata 从图片中提取 EXIF 标签并转换为可 JSON 序列化的值
package metadata

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"
)

// Rational EXIF 有理数
type Rational struct {
	Num int64
	Den int64
}

// Extract 读取图片中的 EXIF 块，只保留可识别的标签
// 没有 EXIF 时返回空 map，不视为错误
func Extract(r io.Reader) (map[string]any, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	return ExtractBytes(data), nil
}

// ExtractBytes 同 Extract，输入为内存中的图片字节
func ExtractBytes(data []byte) map[string]any {
	tags := map[string]any{}

	// 解析出错时 x 仍可能带有出错前读到的标签
	x, _ := exif.Decode(bytes.NewReader(data))
	if x == nil {
		return tags
	}

	_ = x.Walk(walker(func(name exif.FieldName, tag *tiff.Tag) error {
		key := string(name)
		if key == "" || strings.HasPrefix(key, exif.UnknownPrefix) {
			return nil
		}
		v, ok := tagValue(tag)
		if !ok {
			return nil
		}
		tags[key] = Normalize(v)
		return nil
	}))

	return tags
}

type walker func(name exif.FieldName, tag *tiff.Tag) error

func (w walker) Walk(name exif.FieldName, tag *tiff.Tag) error {
	return w(name, tag)
}

// tagValue 将 tiff 标签转换为 Go 值，count 为 1 时返回标量
func tagValue(tag *tiff.Tag) (any, bool) {
	switch tag.Format() {
	case tiff.StringVal:
		s, err := tag.StringVal()
		if err != nil {
			return nil, false
		}
		return s, true

	case tiff.UndefVal:
		return append([]byte(nil), tag.Val...), true

	case tiff.IntVal:
		return collect(tag, func(i int) (any, error) { return tag.Int64(i) })

	case tiff.FloatVal:
		return collect(tag, func(i int) (any, error) { return tag.Float(i) })

	case tiff.RatVal:
		return collect(tag, func(i int) (any, error) {
			num, den, err := tag.Rat2(i)
			if err != nil {
				return nil, err
			}
			return Rational{Num: num, Den: den}, nil
		})

	default:
		return append([]byte(nil), tag.Val...), true
	}
}

func collect(tag *tiff.Tag, at func(i int) (any, error)) (any, bool) {
	n := int(tag.Count)
	if n == 1 {
		v, err := at(0)
		return v, err == nil
	}

	values := make([]any, 0, n)
	for i := 0; i < n; i++ {
		v, err := at(i)
		if err != nil {
			return nil, false
		}
		values = append(values, v)
	}
	return values, true
}

// Normalize 递归转换 EXIF 值，保证结果可以 JSON 序列化
//   - Rational 转为 float64，分母为 0 时为 nil
//   - []byte 按 UTF-8 解码，无法解码的字节替换为 U+FFFD
//   - 切片逐元素转换
//   - map 原地逐 key 转换
func Normalize(v any) any {
	switch val := v.(type) {
	case Rational:
		if val.Den == 0 {
			return nil
		}
		return float64(val.Num) / float64(val.Den)
	case []byte:
		return decodeText(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = Normalize(item)
		}
		return out
	case []Rational:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = Normalize(item)
		}
		return out
	case map[string]any:
		for k, item := range val {
			val[k] = Normalize(item)
		}
		return val
	default:
		return v
	}
}

// decodeText 每个非法 UTF-8 字节都替换为 U+FFFD
func decodeText(b []byte) string {
	return string([]rune(string(b)))
}
