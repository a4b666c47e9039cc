package photos

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"os"

	"github.com/anoixa/pixly/cache"
	"github.com/anoixa/pixly/database/models"
	"github.com/anoixa/pixly/internal/editor"
	"github.com/anoixa/pixly/internal/metadata"
	"github.com/anoixa/pixly/utils"
)

// UploadInput 一次上传请求
// ContentType 为调用方嗅探到的类型，非空时必须与解码得到的格式一致
type UploadInput struct {
	Filename    string
	ContentType string
	Data        []byte
	Fields      models.PhotoFields
}

// Upload 执行上传流水线
// Received -> Decoded -> MetadataExtracted -> PersistedRecord -> OriginalUploaded -> WorkingCopyUploaded -> Done
func (s *Service) Upload(ctx context.Context, in UploadInput) (*models.Photo, error) {
	state := StateReceived
	var id uint

	fail := func(err error) error {
		uerr := &UploadError{State: state, PhotoID: id, Err: err}
		log.Printf("[Upload] %s: %v", utils.SanitizeLogFilename(in.Filename), uerr)
		return uerr
	}

	// Decoded
	_, format, err := editor.Decode(bytes.NewReader(in.Data))
	if err != nil {
		return nil, fail(err)
	}
	contentType := editor.ContentType(format)
	if in.ContentType != "" && in.ContentType != contentType {
		return nil, fail(&ValidationError{
			Field:   "file",
			Message: fmt.Sprintf("declared type %s does not match decoded %s", in.ContentType, contentType),
		})
	}
	state = StateDecoded

	// MetadataExtracted
	exif := metadata.ExtractBytes(in.Data)
	state = StateMetadataExtracted

	// PersistedRecord
	id, err = s.repo.Create(ctx, in.Fields, models.Exif(exif))
	if err != nil {
		return nil, fail(err)
	}
	state = StatePersistedRecord
	defer s.invalidate(ctx, cache.ScopeUpload)

	if s.legacyExifRepair {
		if n, err := s.repo.SanitizeExif(ctx); err != nil {
			log.Printf("[Upload] Legacy exif repair failed for photo %d: %v", id, err)
		} else if n > 0 {
			log.Printf("[Upload] Legacy exif repair patched %d rows", n)
		}
	}

	scratch, err := s.scratchPath(WorkingKey(id))
	if err != nil {
		return nil, fail(err)
	}
	defer removeScratch(scratch)
	if err := os.WriteFile(scratch, in.Data, 0644); err != nil {
		return nil, fail(fmt.Errorf("failed to write scratch file: %w", err))
	}

	// OriginalUploaded
	if err := s.blobs.Put(ctx, scratch, OriginalKey(id), contentType); err != nil {
		return nil, fail(err)
	}
	state = StateOriginalUploaded

	// WorkingCopyUploaded
	if err := s.blobs.Put(ctx, scratch, WorkingKey(id), contentType); err != nil {
		return nil, fail(err)
	}
	state = StateWorkingCopyUploaded

	// Done
	photo, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fail(err)
	}

	log.Printf("[Upload] Photo %d stored (%s, %d bytes)", id, contentType, len(in.Data))
	return photo, nil
}
