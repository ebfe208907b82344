package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	types "github.com/noteflow/noteflow-backend/internal/domain"
	"github.com/noteflow/noteflow-backend/internal/http/middleware"
	"github.com/noteflow/noteflow-backend/internal/http/response"
	"github.com/noteflow/noteflow-backend/internal/platform/apierr"
	"github.com/noteflow/noteflow-backend/internal/platform/logger"
	"github.com/noteflow/noteflow-backend/internal/services"
	"github.com/noteflow/noteflow-backend/internal/upload"
)

type FileHandler struct {
	log     *logger.Logger
	storage services.FileStorageService
}

func NewFileHandler(baseLog *logger.Logger, storage services.FileStorageService) *FileHandler {
	return &FileHandler{
		log:     baseLog.With("handler", "FileHandler"),
		storage: storage,
	}
}

// Upload returns the handler for one typed upload route. The three routes
// differ only in declared type and success message.
func (fh *FileHandler) Upload(fileType types.FileType, successMessage string) gin.HandlerFunc {
	return func(c *gin.Context) {
		u := middleware.CurrentUser(c)
		if u == nil {
			response.RespondError(c, apierr.New(http.StatusUnauthorized, "unauthenticated", errors.New("missing authenticated user")))
			return
		}

		fileHeader, err := c.FormFile("file")
		if err != nil {
			response.RespondError(c, apierr.New(http.StatusBadRequest, "validation_failed", errors.New("file is required and cannot be empty")))
			return
		}
		if err := upload.ValidateFileHeader(fileHeader, fileType); err != nil {
			response.RespondError(c, err)
			return
		}

		f, err := fileHeader.Open()
		if err != nil {
			response.RespondError(c, apierr.New(http.StatusInternalServerError, "file_storage_error", err))
			return
		}
		defer f.Close()

		meta, err := fh.storage.Store(c.Request.Context(), services.Upload{
			Reader:       f,
			OriginalName: fileHeader.Filename,
			ContentType:  fileHeader.Header.Get("Content-Type"),
			Size:         fileHeader.Size,
		}, u, fileType)
		if err != nil {
			response.RespondError(c, err)
			return
		}

		fh.log.Info("handled upload", "file_id", meta.ID, "file_type", string(fileType), "user_id", u.ID)
		response.RespondCreated(c, successMessage, toFilePayload(meta))
	}
}

func (fh *FileHandler) GetMetadata(c *gin.Context) {
	meta, err := fh.loadOwned(c)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, "File metadata retrieved successfully", toFilePayload(meta))
}

func (fh *FileHandler) Delete(c *gin.Context) {
	meta, err := fh.loadOwned(c)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	if err := fh.storage.Delete(c.Request.Context(), meta.ID); err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, "File deleted successfully", nil)
}

func (fh *FileHandler) Download(c *gin.Context) {
	meta, err := fh.loadOwned(c)
	if err != nil {
		response.RespondError(c, err)
		return
	}

	rc, err := fh.storage.LoadAsReader(c.Request.Context(), meta.ID)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	defer rc.Close()

	contentType := meta.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.DataFromReader(http.StatusOK, meta.FileSize, contentType, rc, map[string]string{
		"Content-Disposition": `attachment; filename="` + meta.OriginalFileName + `"`,
	})
}

// loadOwned fetches the addressed file and enforces that the requesting
// user uploaded it.
func (fh *FileHandler) loadOwned(c *gin.Context) (*types.FileMetadata, error) {
	u := middleware.CurrentUser(c)
	if u == nil {
		return nil, apierr.New(http.StatusUnauthorized, "unauthenticated", errors.New("missing authenticated user"))
	}
	meta, err := fh.storage.Metadata(c.Request.Context(), c.Param("id"))
	if err != nil {
		return nil, err
	}
	if meta.UploadedBy != u.ID {
		return nil, apierr.New(http.StatusForbidden, "permission_denied", errors.New("not the file owner"))
	}
	return meta, nil
}
