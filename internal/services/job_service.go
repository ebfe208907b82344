package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	filerepos "github.com/noteflow/noteflow-backend/internal/data/repos/files"
	jobrepos "github.com/noteflow/noteflow-backend/internal/data/repos/jobs"
	types "github.com/noteflow/noteflow-backend/internal/domain"
	"github.com/noteflow/noteflow-backend/internal/platform/apierr"
	"github.com/noteflow/noteflow-backend/internal/platform/logger"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// CreateJobRequest is the raw client payload before source validation.
type CreateJobRequest struct {
	SourceType  string
	FileID      string
	URL         string
	TextContent string
	Title       string
	Notes       string
}

// JobService manages note-generation jobs. Read and delete operations take
// the requesting user and enforce ownership; UpdateStatus and MarkFailed are
// worker-side and deliberately skip the ownership check.
type JobService interface {
	Create(ctx context.Context, req CreateJobRequest, requestingUser *types.User) (*types.Job, error)
	GetByID(ctx context.Context, jobID string, requestingUser *types.User) (*types.Job, error)
	ListForUser(ctx context.Context, requestingUser *types.User, page, size int) ([]*types.Job, error)
	ListForUserByStatus(ctx context.Context, requestingUser *types.User, status types.JobStatus, page, size int) ([]*types.Job, error)
	UpdateStatus(ctx context.Context, jobID string, status types.JobStatus, progress int) (*types.Job, error)
	MarkFailed(ctx context.Context, jobID string, message string) (*types.Job, error)
	Delete(ctx context.Context, jobID string, requestingUser *types.User) error
}

type jobService struct {
	log   *logger.Logger
	jobs  jobrepos.JobRepo
	files filerepos.FileMetadataRepo
}

func NewJobService(baseLog *logger.Logger, jobs jobrepos.JobRepo, files filerepos.FileMetadataRepo) JobService {
	return &jobService{
		log:   baseLog.With("service", "JobService"),
		jobs:  jobs,
		files: files,
	}
}

func (s *jobService) Create(ctx context.Context, req CreateJobRequest, requestingUser *types.User) (*types.Job, error) {
	if requestingUser == nil || requestingUser.ID == "" {
		return nil, apierr.New(http.StatusUnauthorized, "unauthenticated", errors.New("missing authenticated user"))
	}

	src, err := s.resolveSource(ctx, req, requestingUser)
	if err != nil {
		return nil, err
	}

	job := &types.Job{
		UserID:     requestingUser.ID,
		SourceType: src.Type(),
		Title:      strings.TrimSpace(req.Title),
		Notes:      strings.TrimSpace(req.Notes),
		Status:     types.JobPending,
		Progress:   0,
	}
	switch v := src.(type) {
	case types.FileSource:
		job.FileID = v.FileID
	case types.LinkSource:
		job.URL = v.URL
	case types.TextSource:
		job.TextContent = v.Content
	}

	created, err := s.jobs.Create(ctx, job)
	if err != nil {
		return nil, apierr.New(http.StatusInternalServerError, "job_create_failed", err)
	}
	s.log.Info("created job", "job_id", created.ID, "source_type", string(created.SourceType), "user_id", requestingUser.ID)
	return created, nil
}

// resolveSource turns the raw payload into a validated JobSource. File-backed
// sources must reference a file the requesting user uploaded.
func (s *jobService) resolveSource(ctx context.Context, req CreateJobRequest, requestingUser *types.User) (types.JobSource, error) {
	st, ok := types.ParseSourceType(strings.TrimSpace(req.SourceType))
	if !ok {
		return nil, jobValidation("Unknown source type: %s", req.SourceType)
	}

	switch st {
	case types.SourceVideoFile, types.SourceAudioFile, types.SourcePDFFile:
		if strings.TrimSpace(req.FileID) == "" {
			return nil, jobValidation("%s source requires a fileId", sourceLabel(st))
		}
		meta, err := s.files.GetByID(ctx, req.FileID)
		if err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return nil, apierr.New(http.StatusNotFound, "file_not_found", errors.New("File not found"))
			}
			return nil, apierr.New(http.StatusInternalServerError, "unexpected", err)
		}
		if meta.UploadedBy != requestingUser.ID {
			return nil, apierr.New(http.StatusForbidden, "permission_denied", errors.New("You don't have permission to use this file"))
		}
		return types.FileSource{Kind: st, FileID: req.FileID}, nil

	case types.SourceYouTube:
		if strings.TrimSpace(req.URL) == "" {
			return nil, jobValidation("YouTube source requires a URL")
		}
		u, err := url.Parse(req.URL)
		if err != nil || !u.IsAbs() || u.Host == "" {
			return nil, jobValidation("Invalid URL format")
		}
		return types.LinkSource{URL: req.URL}, nil

	case types.SourceText:
		if strings.TrimSpace(req.TextContent) == "" {
			return nil, jobValidation("Text source requires textContent")
		}
		return types.TextSource{Content: req.TextContent}, nil
	}
	return nil, jobValidation("Unknown source type: %s", req.SourceType)
}

func (s *jobService) GetByID(ctx context.Context, jobID string, requestingUser *types.User) (*types.Job, error) {
	job, err := s.getJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if requestingUser == nil || job.UserID != requestingUser.ID {
		return nil, apierr.New(http.StatusForbidden, "permission_denied", errors.New("You don't have permission to access this job"))
	}
	return job, nil
}

func (s *jobService) ListForUser(ctx context.Context, requestingUser *types.User, page, size int) ([]*types.Job, error) {
	if requestingUser == nil || requestingUser.ID == "" {
		return nil, apierr.New(http.StatusUnauthorized, "unauthenticated", errors.New("missing authenticated user"))
	}
	page, size = clampPage(page, size)
	out, err := s.jobs.ListByUser(ctx, requestingUser.ID, page, size)
	if err != nil {
		return nil, apierr.New(http.StatusInternalServerError, "unexpected", err)
	}
	return out, nil
}

func (s *jobService) ListForUserByStatus(ctx context.Context, requestingUser *types.User, status types.JobStatus, page, size int) ([]*types.Job, error) {
	if requestingUser == nil || requestingUser.ID == "" {
		return nil, apierr.New(http.StatusUnauthorized, "unauthenticated", errors.New("missing authenticated user"))
	}
	page, size = clampPage(page, size)
	out, err := s.jobs.ListByUserAndStatus(ctx, requestingUser.ID, status, page, size)
	if err != nil {
		return nil, apierr.New(http.StatusInternalServerError, "unexpected", err)
	}
	return out, nil
}

// UpdateStatus is called by processing workers, so it takes no requesting
// user. COMPLETED stamps completed_at; FAILED zeroes progress.
func (s *jobService) UpdateStatus(ctx context.Context, jobID string, status types.JobStatus, progress int) (*types.Job, error) {
	job, err := s.getJob(ctx, jobID)
	if err != nil {
		return nil, err
	}

	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}
	if status == types.JobFailed {
		progress = 0
	}

	updates := map[string]interface{}{
		"status":   status,
		"progress": progress,
	}
	if status == types.JobCompleted {
		now := time.Now().UTC()
		updates["completed_at"] = now
		job.CompletedAt = &now
	}
	if err := s.applyUpdates(ctx, jobID, updates); err != nil {
		return nil, err
	}

	job.Status = status
	job.Progress = progress
	s.log.Info("updated job status", "job_id", jobID, "status", string(status), "progress", progress)
	return job, nil
}

func (s *jobService) MarkFailed(ctx context.Context, jobID string, message string) (*types.Job, error) {
	job, err := s.getJob(ctx, jobID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"status":        types.JobFailed,
		"progress":      0,
		"error_message": message,
	}
	if err := s.applyUpdates(ctx, jobID, updates); err != nil {
		return nil, err
	}

	job.Status = types.JobFailed
	job.Progress = 0
	job.ErrorMessage = message
	s.log.Warn("marked job failed", "job_id", jobID, "reason", message)
	return job, nil
}

func (s *jobService) Delete(ctx context.Context, jobID string, requestingUser *types.User) error {
	job, err := s.getJob(ctx, jobID)
	if err != nil {
		return err
	}
	if requestingUser == nil || job.UserID != requestingUser.ID {
		return apierr.New(http.StatusForbidden, "permission_denied", errors.New("You don't have permission to delete this job"))
	}
	if err := s.jobs.Delete(ctx, jobID); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return jobNotFound()
		}
		return apierr.New(http.StatusInternalServerError, "unexpected", err)
	}
	s.log.Info("deleted job", "job_id", jobID, "user_id", requestingUser.ID)
	return nil
}

func (s *jobService) getJob(ctx context.Context, jobID string) (*types.Job, error) {
	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, jobNotFound()
		}
		return nil, apierr.New(http.StatusInternalServerError, "unexpected", err)
	}
	return job, nil
}

func (s *jobService) applyUpdates(ctx context.Context, jobID string, updates map[string]interface{}) error {
	if err := s.jobs.UpdateFields(ctx, jobID, updates); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return jobNotFound()
		}
		return apierr.New(http.StatusInternalServerError, "unexpected", err)
	}
	return nil
}

func clampPage(page, size int) (int, int) {
	if page < 0 {
		page = 0
	}
	if size < 1 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	return page, size
}

func sourceLabel(st types.SourceType) string {
	switch st {
	case types.SourceVideoFile:
		return "Video"
	case types.SourceAudioFile:
		return "Audio"
	case types.SourcePDFFile:
		return "PDF"
	default:
		return string(st)
	}
}

func jobValidation(format string, args ...interface{}) error {
	return apierr.New(http.StatusBadRequest, "validation_failed", fmt.Errorf(format, args...))
}

func jobNotFound() error {
	return apierr.New(http.StatusNotFound, "job_not_found", errors.New("Job not found"))
}
