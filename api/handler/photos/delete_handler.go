package photos

import (
	"errors"

	"github.com/anoixa/pixly/api/common"
	photosvc "github.com/anoixa/pixly/internal/photos"
	"github.com/gin-gonic/gin"
)

// DeletePhoto 删除照片记录与两份文件
func (h *Handler) DeletePhoto(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		var derr *photosvc.DeleteError
		if errors.As(err, &derr) && len(derr.Removed()) > 0 {
			// 记录已删除，只有文件清理失败
			c.Header("X-Partial-Delete", derr.Stage.String())
		}
		respondServiceError(c, err)
		return
	}

	common.RespondSuccessMessage(c, "Photo deleted", nil)
}
