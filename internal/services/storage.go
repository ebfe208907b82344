package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"

	filerepos "github.com/noteflow/noteflow-backend/internal/data/repos/files"
	types "github.com/noteflow/noteflow-backend/internal/domain"
	"github.com/noteflow/noteflow-backend/internal/platform/apierr"
	"github.com/noteflow/noteflow-backend/internal/platform/logger"
)

type Upload struct {
	Reader       io.Reader
	OriginalName string
	ContentType  string
	Size         int64
}

// FileStorageService owns the upload directory and the files collection.
// Ownership checks live in the HTTP layer; callers here are trusted.
type FileStorageService interface {
	Store(ctx context.Context, up Upload, owner *types.User, fileType types.FileType) (*types.FileMetadata, error)
	LoadAsReader(ctx context.Context, fileID string) (io.ReadCloser, error)
	FilePath(ctx context.Context, fileID string) (string, error)
	Delete(ctx context.Context, fileID string) error
	MarkProcessed(ctx context.Context, fileID string) error
	Metadata(ctx context.Context, fileID string) (*types.FileMetadata, error)
}

type fileStorageService struct {
	log       *logger.Logger
	files     filerepos.FileMetadataRepo
	uploadDir string
}

func NewFileStorageService(baseLog *logger.Logger, files filerepos.FileMetadataRepo, uploadDir string) (FileStorageService, error) {
	dir, err := filepath.Abs(uploadDir)
	if err != nil {
		return nil, fmt.Errorf("could not resolve upload directory: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("could not create the directory for file uploads: %w", err)
	}
	return &fileStorageService{
		log:       baseLog.With("service", "FileStorageService"),
		files:     files,
		uploadDir: dir,
	}, nil
}

func (s *fileStorageService) Store(ctx context.Context, up Upload, owner *types.User, fileType types.FileType) (*types.FileMetadata, error) {
	if owner == nil || owner.ID == "" {
		return nil, apierr.New(http.StatusBadRequest, "validation_failed", fmt.Errorf("missing owner"))
	}
	if up.Reader == nil {
		return nil, apierr.New(http.StatusBadRequest, "validation_failed", fmt.Errorf("missing file content"))
	}

	cleanName := filepath.Clean(strings.TrimSpace(up.OriginalName))
	if strings.Contains(cleanName, "..") {
		return nil, storageErr(fmt.Errorf("filename contains invalid path sequence: %s", cleanName))
	}

	storedName := uuid.New().String() + "_" + cleanName
	target := filepath.Join(s.uploadDir, storedName)

	if err := writeFile(target, up.Reader); err != nil {
		return nil, storageErr(fmt.Errorf("could not store file %s: %w", cleanName, err))
	}

	meta, err := s.files.Create(ctx, &types.FileMetadata{
		OriginalFileName: cleanName,
		StoredFileName:   storedName,
		FileType:         fileType,
		LocalFilePath:    target,
		FileSize:         up.Size,
		ContentType:      up.ContentType,
		UploadedBy:       owner.ID,
		Processed:        false,
	})
	if err != nil {
		if rmErr := os.Remove(target); rmErr != nil {
			s.log.Warn("failed to remove orphaned upload", "path", target, "error", rmErr)
		}
		return nil, storageErr(fmt.Errorf("could not store file %s: %w", cleanName, err))
	}

	s.log.Info("stored file", "file_id", meta.ID, "file_type", string(fileType), "size", up.Size)
	return meta, nil
}

func (s *fileStorageService) LoadAsReader(ctx context.Context, fileID string) (io.ReadCloser, error) {
	meta, err := s.getMetadata(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if meta.StoredInCloud() {
		return nil, storageErr(fmt.Errorf("cloud file download not yet implemented"))
	}
	f, err := os.Open(meta.LocalFilePath)
	if err != nil {
		return nil, storageErr(fmt.Errorf("file not found or not readable: %s", meta.OriginalFileName))
	}
	return f, nil
}

func (s *fileStorageService) FilePath(ctx context.Context, fileID string) (string, error) {
	meta, err := s.getMetadata(ctx, fileID)
	if err != nil {
		return "", err
	}
	if meta.StoredInCloud() {
		return meta.CloudURL, nil
	}
	return meta.LocalFilePath, nil
}

// Delete removes the physical file first and the metadata record last, so
// a failure can never leave a record pointing at deleted bytes unnoticed.
func (s *fileStorageService) Delete(ctx context.Context, fileID string) error {
	meta, err := s.getMetadata(ctx, fileID)
	if err != nil {
		return err
	}

	if meta.StoredInCloud() {
		// Cloud removal is a placeholder until a bucket backend exists.
		s.log.Info("skipping cloud object removal", "file_id", meta.ID, "cloud_object_id", meta.CloudObjectID)
	} else if meta.LocalFilePath != "" {
		if err := os.Remove(meta.LocalFilePath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return storageErr(fmt.Errorf("could not delete file with id %s: %w", fileID, err))
		}
	}

	if err := s.files.Delete(ctx, fileID); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return apierr.New(http.StatusNotFound, "file_not_found", fmt.Errorf("File not found"))
		}
		return storageErr(fmt.Errorf("could not delete file with id %s: %w", fileID, err))
	}
	s.log.Info("deleted file", "file_id", fileID)
	return nil
}

func (s *fileStorageService) MarkProcessed(ctx context.Context, fileID string) error {
	err := s.files.UpdateFields(ctx, fileID, map[string]interface{}{"processed": true})
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return apierr.New(http.StatusNotFound, "file_not_found", fmt.Errorf("File not found"))
		}
		return storageErr(err)
	}
	return nil
}

func (s *fileStorageService) Metadata(ctx context.Context, fileID string) (*types.FileMetadata, error) {
	return s.getMetadata(ctx, fileID)
}

func (s *fileStorageService) getMetadata(ctx context.Context, fileID string) (*types.FileMetadata, error) {
	meta, err := s.files.GetByID(ctx, fileID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apierr.New(http.StatusNotFound, "file_not_found", fmt.Errorf("File not found"))
		}
		return nil, storageErr(err)
	}
	return meta, nil
}

func writeFile(target string, r io.Reader) error {
	out, err := os.Create(target)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		os.Remove(target)
		return err
	}
	return out.Close()
}

func storageErr(err error) error {
	return apierr.New(http.StatusInternalServerError, "file_storage_error", err)
}
