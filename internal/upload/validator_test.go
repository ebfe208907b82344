package upload

import (
	"mime/multipart"
	"net/textproto"
	"strings"
	"testing"

	types "github.com/noteflow/noteflow-backend/internal/domain"
	"github.com/noteflow/noteflow-backend/internal/platform/apierr"
)

func header(name, contentType string, size int64) *multipart.FileHeader {
	h := textproto.MIMEHeader{}
	if contentType != "" {
		h.Set("Content-Type", contentType)
	}
	return &multipart.FileHeader{
		Filename: name,
		Size:     size,
		Header:   h,
	}
}

func TestValidateFileHeaderAcceptsVideo(t *testing.T) {
	t.Parallel()

	if err := ValidateFileHeader(header("test-video.mp4", "video/mp4", 19), types.FileTypeVideo); err != nil {
		t.Fatalf("ValidateFileHeader: %v", err)
	}
}

func TestValidateFileHeaderContentTypeCaseInsensitive(t *testing.T) {
	t.Parallel()

	if err := ValidateFileHeader(header("talk.MP4", "Video/MP4", 1024), types.FileTypeVideo); err != nil {
		t.Fatalf("ValidateFileHeader: %v", err)
	}
}

func TestValidateFileHeaderRejections(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		fh      *multipart.FileHeader
		ft      types.FileType
		wantMsg string
	}{
		{"nil header", nil, types.FileTypeVideo, "file is required and cannot be empty"},
		{"empty file", header("a.mp4", "video/mp4", 0), types.FileTypeVideo, "file is required and cannot be empty"},
		{"oversize", header("a.mp4", "video/mp4", MaxFileSize+1), types.FileTypeVideo, "file size exceeds maximum allowed size of 500 MB"},
		{"blank name", header("   ", "video/mp4", 10), types.FileTypeVideo, "file must have a valid name"},
		{"traversal dots", header("../../../etc/passwd", "video/mp4", 10), types.FileTypeVideo, "file name contains invalid characters"},
		{"backslash", header(`evil\name.mp4`, "video/mp4", 10), types.FileTypeVideo, "file name contains invalid characters"},
		{"wrong type for video", header("notes.txt", "text/plain", 10), types.FileTypeVideo, "Invalid video file type"},
		{"wrong type for audio", header("clip.mp4", "video/mp4", 10), types.FileTypeAudio, "Invalid audio file type"},
		{"wrong type for document", header("clip.mp3", "audio/mpeg", 10), types.FileTypeDocument, "Invalid document file type"},
		{"missing content type", header("clip.mp4", "", 10), types.FileTypeVideo, "Invalid video file type"},
	}

	for _, tc := range cases {
		err := ValidateFileHeader(tc.fh, tc.ft)
		if err == nil {
			t.Errorf("%s: expected error, got nil", tc.name)
			continue
		}
		if !strings.Contains(err.Error(), tc.wantMsg) {
			t.Errorf("%s: expected message containing %q got %q", tc.name, tc.wantMsg, err.Error())
		}
		ae, ok := apierr.From(err)
		if !ok {
			t.Errorf("%s: expected *apierr.Error got %T", tc.name, err)
			continue
		}
		if ae.Status != 400 {
			t.Errorf("%s: expected status 400 got %d", tc.name, ae.Status)
		}
	}
}

func TestValidateFileHeaderAllowlists(t *testing.T) {
	t.Parallel()

	for _, ct := range AllowedAudioTypes {
		if err := ValidateFileHeader(header("clip.bin", ct, 10), types.FileTypeAudio); err != nil {
			t.Errorf("audio %s: %v", ct, err)
		}
	}
	for _, ct := range AllowedDocumentTypes {
		if err := ValidateFileHeader(header("doc.bin", ct, 10), types.FileTypeDocument); err != nil {
			t.Errorf("document %s: %v", ct, err)
		}
	}
}
