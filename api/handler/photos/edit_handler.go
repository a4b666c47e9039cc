package photos

import (
	"github.com/anoixa/pixly/api/common"
	"github.com/anoixa/pixly/internal/editor"
	photosvc "github.com/anoixa/pixly/internal/photos"
	"github.com/gin-gonic/gin"
)

type EditRequestBody struct {
	Operation string `json:"operation" binding:"required"`
}

// EditPhoto 对工作副本执行编辑，未知操作保持原样
func (h *Handler) EditPhoto(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	var body EditRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		respondServiceError(c, &photosvc.ValidationError{Field: "operation", Message: "operation is required"})
		return
	}

	op := editor.ParseOperation(body.Operation)
	if err := h.service.Edit(c.Request.Context(), id, op); err != nil {
		respondServiceError(c, err)
		return
	}

	common.RespondSuccessMessage(c, "Photo edited", gin.H{
		"id":        id,
		"operation": op.String(),
	})
}

// RevertPhoto 用原图覆盖工作副本
func (h *Handler) RevertPhoto(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	if err := h.service.Revert(c.Request.Context(), id); err != nil {
		respondServiceError(c, err)
		return
	}

	common.RespondSuccessMessage(c, "Photo reverted", gin.H{"id": id})
}
