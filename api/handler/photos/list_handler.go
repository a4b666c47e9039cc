package photos

import (
	"github.com/anoixa/pixly/api/common"
	"github.com/gin-gonic/gin"
)

// ListPhotos 按关键字搜索并按相机过滤
// GET /api/v1/photos?q=&make=&model=
func (h *Handler) ListPhotos(c *gin.Context) {
	g, err := h.service.ListGallery(c.Request.Context(), c.Query("q"), c.Query("make"), c.Query("model"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	common.RespondSuccess(c, g)
}

// GetPhoto 获取单条照片记录
func (h *Handler) GetPhoto(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	photo, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	common.RespondSuccess(c, photo)
}
