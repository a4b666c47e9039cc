package photos

import (
	"fmt"
	"io"
	"net/http"

	"github.com/anoixa/pixly/api/common"
	"github.com/anoixa/pixly/database/models"
	photosvc "github.com/anoixa/pixly/internal/photos"
	"github.com/anoixa/pixly/utils/validator"
	"github.com/gin-gonic/gin"
)

// UploadPhoto 处理单图片上传
func (h *Handler) UploadPhoto(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		respondServiceError(c, &photosvc.ValidationError{Field: "file", Message: "file is required"})
		return
	}

	if fileHeader.Size > h.maxUploadBytes {
		common.RespondError(c, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("File exceeds maximum allowed size (%d MB)", h.maxUploadBytes>>20))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respondServiceError(c, &photosvc.ValidationError{Field: "file", Message: "cannot read uploaded file"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.maxUploadBytes+1))
	if err != nil {
		respondServiceError(c, &photosvc.ValidationError{Field: "file", Message: "cannot read uploaded file"})
		return
	}

	contentType, err := validator.Validate(fileHeader.Filename, data)
	if err != nil {
		respondServiceError(c, &photosvc.ValidationError{Field: "file", Message: err.Error()})
		return
	}

	photo, err := h.service.Upload(c.Request.Context(), photosvc.UploadInput{
		Filename:    fileHeader.Filename,
		ContentType: contentType,
		Data:        data,
		Fields: models.PhotoFields{
			Title:   c.PostForm("title"),
			Caption: c.PostForm("caption"),
			By:      c.PostForm("by"),
		},
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	common.RespondCreated(c, photo)
}
