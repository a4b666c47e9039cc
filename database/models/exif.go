package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// Exif 照片 EXIF 标签，tag 名 -> JSON 值
// 写入数据库前会递归移除所有 NUL 字符，PostgreSQL 的 JSONB 不接受 \u0000
type Exif map[string]any

// Value 实现 driver.Valuer
func (e Exif) Value() (driver.Value, error) {
	if e == nil {
		return "{}", nil
	}
	data, err := json.Marshal(stripNUL(map[string]any(e)))
	if err != nil {
		return nil, fmt.Errorf("failed to encode exif: %w", err)
	}
	return string(data), nil
}

// Scan 实现 sql.Scanner
func (e *Exif) Scan(value any) error {
	var data []byte
	switch v := value.(type) {
	case nil:
		*e = Exif{}
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported exif column type %T", value)
	}

	if len(data) == 0 {
		*e = Exif{}
		return nil
	}

	m := map[string]any{}
	if err := json.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("failed to decode exif: %w", err)
	}
	*e = m
	return nil
}

// GormDataType 通用数据类型
func (Exif) GormDataType() string {
	return "json"
}

// GormDBDataType 按方言选择列类型
func (Exif) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	switch db.Dialector.Name() {
	case "postgres":
		return "JSONB"
	default:
		return "JSON"
	}
}

// stripNUL 递归移除 key 与字符串值中的 NUL
func stripNUL(v any) any {
	switch val := v.(type) {
	case string:
		return strings.ReplaceAll(val, "\x00", "")
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[strings.ReplaceAll(k, "\x00", "")] = stripNUL(item)
		}
		return out
	case Exif:
		return stripNUL(map[string]any(val))
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = stripNUL(item)
		}
		return out
	case []string:
		out := make([]string, len(val))
		for i, item := range val {
			out[i] = strings.ReplaceAll(item, "\x00", "")
		}
		return out
	default:
		return v
	}
}
