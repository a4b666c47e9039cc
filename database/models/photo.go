package models

import "time"

// 字段缺省时的占位值
const (
	DefaultTitle   = "Untitled"
	DefaultCaption = "No caption"
	DefaultBy      = "Unknown"
)

// Photo 照片记录，图片本体保存在对象存储中
// 工作副本 key 为 "{id}"，原图 key 为 "{id}-original"
type Photo struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	Title     string    `gorm:"type:text;not null;default:Untitled" json:"title"`
	Caption   string    `gorm:"type:text;not null;default:No caption" json:"caption"`
	By        string    `gorm:"column:by;type:text;not null;default:Unknown" json:"by"`
	Exif      Exif      `gorm:"not null" json:"exif"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName 指定表名
func (Photo) TableName() string {
	return "photos"
}
