package photos

import (
	"fmt"

	photorepo "github.com/anoixa/pixly/database/repo/photos"
	"github.com/anoixa/pixly/internal/editor"
)

var (
	// ErrNotFound 照片记录不存在
	ErrNotFound = photorepo.ErrNotFound

	// ErrDecode 图片无法解码
	ErrDecode = editor.ErrDecode
)

// ValidationError 请求参数校验失败
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// UploadState 上传流水线状态
type UploadState int

const (
	StateReceived UploadState = iota
	StateDecoded
	StateMetadataExtracted
	StatePersistedRecord
	StateOriginalUploaded
	StateWorkingCopyUploaded
	StateDone
)

func (s UploadState) String() string {
	switch s {
	case StateReceived:
		return "received"
	case StateDecoded:
		return "decoded"
	case StateMetadataExtracted:
		return "metadata_extracted"
	case StatePersistedRecord:
		return "persisted_record"
	case StateOriginalUploaded:
		return "original_uploaded"
	case StateWorkingCopyUploaded:
		return "working_copy_uploaded"
	case StateDone:
		return "done"
	default:
		return fmt.Sprintf("upload_state(%d)", int(s))
	}
}

// UploadError 上传失败，State 为失败前最后到达的状态
// PhotoID 非 0 时数据库记录已经写入且不会回滚
type UploadError struct {
	State   UploadState
	PhotoID uint
	Err     error
}

func (e *UploadError) Error() string {
	if e.PhotoID != 0 {
		return fmt.Sprintf("upload failed after %s (photo %d): %v", e.State, e.PhotoID, e.Err)
	}
	return fmt.Sprintf("upload failed after %s: %v", e.State, e.Err)
}

func (e *UploadError) Unwrap() error {
	return e.Err
}

// RecordPersisted 记录是否已写入数据库
func (e *UploadError) RecordPersisted() bool {
	return e.State >= StatePersistedRecord
}

// DeleteStage 删除流程阶段
type DeleteStage int

const (
	StageDeleteRow DeleteStage = iota
	StageDeleteWorking
	StageDeleteOriginal
)

func (s DeleteStage) String() string {
	switch s {
	case StageDeleteRow:
		return "delete_row"
	case StageDeleteWorking:
		return "delete_working"
	case StageDeleteOriginal:
		return "delete_original"
	default:
		return fmt.Sprintf("delete_stage(%d)", int(s))
	}
}

// DeleteError 删除失败，Stage 为失败的阶段，之前的阶段都已完成
type DeleteError struct {
	Stage   DeleteStage
	PhotoID uint
	Err     error
}

func (e *DeleteError) Error() string {
	return fmt.Sprintf("delete photo %d failed at %s: %v", e.PhotoID, e.Stage, e.Err)
}

func (e *DeleteError) Unwrap() error {
	return e.Err
}

// Removed 返回失败前已经删除的内容
func (e *DeleteError) Removed() []string {
	switch e.Stage {
	case StageDeleteWorking:
		return []string{"record"}
	case StageDeleteOriginal:
		return []string{"record", WorkingKey(e.PhotoID)}
	default:
		return nil
	}
}
