package cache

// Entry 缓存的 HTTP 响应体
type Entry struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

// Size 内存缓存按响应体大小计费
func (e Entry) Size() int64 {
	return int64(len(e.Body))
}
