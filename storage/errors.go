package storage

import (
	"errors"
	"fmt"
)

// ErrNotFound 对象不存在
var ErrNotFound = errors.New("object not found")

// Error 存储层错误，包含操作、key 与后端名称
type Error struct {
	Backend string
	Op      string
	Key     string
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("storage %s: %s %q: %v", e.Backend, e.Op, e.Key, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsNotFound 判断是否为对象不存在错误
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func newError(backend, op, key string, err error) error {
	if err == nil {
		return nil
	}
	var se *Error
	if errors.As(err, &se) {
		return err
	}
	return &Error{Backend: backend, Op: op, Key: key, Err: err}
}

func notFound(backend, op, key string) error {
	return &Error{Backend: backend, Op: op, Key: key, Err: ErrNotFound}
}
