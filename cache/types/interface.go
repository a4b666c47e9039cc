package types

import (
	"errors"
)

// ErrCacheMiss 缓存未命中错误
var ErrCacheMiss = &cacheMissError{}

type cacheMissError struct{}

func (e *cacheMissError) Error() string {
	return "cache miss"
}

// IsCacheMiss 判断是否为缓存未命中错误
func IsCacheMiss(err error) bool {
	var cacheMissError *cacheMissError
	ok := errors.As(err, &cacheMissError)
	return ok
}

// Sizer 可报告自身占用字节数的缓存值，用于内存缓存的 cost 计算
type Sizer interface {
	Size() int64
}
