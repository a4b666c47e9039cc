package models

import "strings"

// PhotoFields 上传时用户填写的文本字段，均为可选
type PhotoFields struct {
	Title   string
	Caption string
	By      string
}

// WithPlaceholders 返回空白字段替换为占位值后的副本
func (f PhotoFields) WithPlaceholders() PhotoFields {
	return PhotoFields{
		Title:   orDefault(f.Title, DefaultTitle),
		Caption: orDefault(f.Caption, DefaultCaption),
		By:      orDefault(f.By, DefaultBy),
	}
}

func orDefault(v, def string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return def
	}
	return v
}
