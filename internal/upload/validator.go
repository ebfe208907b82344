package upload

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"

	types "github.com/noteflow/noteflow-backend/internal/domain"
	"github.com/noteflow/noteflow-backend/internal/platform/apierr"
)

const MaxFileSize = 500 * 1024 * 1024

var (
	AllowedVideoTypes = []string{
		"video/mp4",
		"video/mpeg",
		"video/quicktime",
		"video/x-msvideo",
		"video/x-matroska",
	}
	AllowedAudioTypes = []string{
		"audio/mpeg",
		"audio/mp3",
		"audio/wav",
		"audio/x-wav",
		"audio/ogg",
		"audio/mp4",
		"audio/aac",
	}
	AllowedDocumentTypes = []string{
		"application/pdf",
		"text/plain",
	}
)

// ValidateFileHeader runs the pre-storage checks for one multipart upload:
// presence, size cap, name hygiene and the per-category content-type
// allowlist. It never reads file bytes.
func ValidateFileHeader(fh *multipart.FileHeader, fileType types.FileType) error {
	if fh == nil || fh.Size == 0 {
		return validationErr("file is required and cannot be empty")
	}
	if fh.Size > MaxFileSize {
		return validationErr(fmt.Sprintf("file size exceeds maximum allowed size of %d MB", MaxFileSize/(1024*1024)))
	}
	name := strings.TrimSpace(fh.Filename)
	if name == "" {
		return validationErr("file must have a valid name")
	}
	if strings.Contains(name, "..") || strings.Contains(name, "/") || strings.Contains(name, "\\") {
		return validationErr("file name contains invalid characters")
	}
	contentType := strings.ToLower(strings.TrimSpace(fh.Header.Get("Content-Type")))
	switch fileType {
	case types.FileTypeVideo:
		if !containsType(AllowedVideoTypes, contentType) {
			return validationErr("Invalid video file type. Allowed types: " + strings.Join(AllowedVideoTypes, ", "))
		}
	case types.FileTypeAudio:
		if !containsType(AllowedAudioTypes, contentType) {
			return validationErr("Invalid audio file type. Allowed types: " + strings.Join(AllowedAudioTypes, ", "))
		}
	case types.FileTypeDocument:
		if !containsType(AllowedDocumentTypes, contentType) {
			return validationErr("Invalid document file type. Allowed types: " + strings.Join(AllowedDocumentTypes, ", "))
		}
	default:
		return validationErr(fmt.Sprintf("unknown file category %q", string(fileType)))
	}
	return nil
}

func containsType(allowed []string, contentType string) bool {
	for _, t := range allowed {
		if t == contentType {
			return true
		}
	}
	return false
}

func validationErr(msg string) error {
	return apierr.New(http.StatusBadRequest, "validation_failed", errors.New(msg))
}
