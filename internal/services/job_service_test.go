package services

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"

	types "github.com/noteflow/noteflow-backend/internal/domain"
)

type fakeJobRepo struct {
	jobs     map[string]*types.Job
	lastPage int
	lastSize int
}

func newFakeJobRepo() *fakeJobRepo {
	return &fakeJobRepo{jobs: map[string]*types.Job{}}
}

func (f *fakeJobRepo) Create(ctx context.Context, j *types.Job) (*types.Job, error) {
	if j.ID == "" {
		j.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	j.CreatedAt = now
	j.UpdatedAt = now
	cp := *j
	f.jobs[j.ID] = &cp
	return j, nil
}

func (f *fakeJobRepo) GetByID(ctx context.Context, id string) (*types.Job, error) {
	j, ok := f.jobs[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	cp := *j
	return &cp, nil
}

func (f *fakeJobRepo) ListByUser(ctx context.Context, userID string, page, size int) ([]*types.Job, error) {
	f.lastPage, f.lastSize = page, size
	out := []*types.Job{}
	for _, j := range f.jobs {
		if j.UserID == userID {
			cp := *j
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeJobRepo) ListByUserAndStatus(ctx context.Context, userID string, status types.JobStatus, page, size int) ([]*types.Job, error) {
	f.lastPage, f.lastSize = page, size
	out := []*types.Job{}
	for _, j := range f.jobs {
		if j.UserID == userID && j.Status == status {
			cp := *j
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeJobRepo) UpdateFields(ctx context.Context, id string, updates map[string]interface{}) error {
	j, ok := f.jobs[id]
	if !ok {
		return mongo.ErrNoDocuments
	}
	for k, v := range updates {
		switch k {
		case "status":
			j.Status = v.(types.JobStatus)
		case "progress":
			j.Progress = v.(int)
		case "error_message":
			j.ErrorMessage = v.(string)
		case "completed_at":
			t := v.(time.Time)
			j.CompletedAt = &t
		}
	}
	return nil
}

func (f *fakeJobRepo) Delete(ctx context.Context, id string) error {
	if _, ok := f.jobs[id]; !ok {
		return mongo.ErrNoDocuments
	}
	delete(f.jobs, id)
	return nil
}

func newTestJobService(t *testing.T) (JobService, *fakeJobRepo, *fakeFileRepo) {
	t.Helper()
	jobs := newFakeJobRepo()
	files := newFakeFileRepo()
	return NewJobService(testLogger(t), jobs, files), jobs, files
}

func jobOwner() *types.User {
	return &types.User{ID: "owner-1", Email: "owner@example.com", Enabled: true}
}

func TestCreateTextJob(t *testing.T) {
	t.Parallel()
	svc, repo, _ := newTestJobService(t)

	job, err := svc.Create(context.Background(), CreateJobRequest{
		SourceType:  "TEXT",
		TextContent: "hello",
		Title:       "Greeting",
	}, jobOwner())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if job.Status != types.JobPending {
		t.Errorf("expected status PENDING, got %s", job.Status)
	}
	if job.Progress != 0 {
		t.Errorf("expected progress 0, got %d", job.Progress)
	}
	if job.SourceType != types.SourceText {
		t.Errorf("expected source TEXT, got %s", job.SourceType)
	}
	if job.TextContent != "hello" {
		t.Errorf("expected text content hello, got %q", job.TextContent)
	}
	if job.FileID != "" || job.URL != "" {
		t.Errorf("expected only the text payload to be set, got fileID=%q url=%q", job.FileID, job.URL)
	}
	if job.UserID != "owner-1" {
		t.Errorf("expected user owner-1, got %q", job.UserID)
	}
	if _, ok := repo.jobs[job.ID]; !ok {
		t.Error("expected job to be persisted")
	}
}

func TestCreateTextJobRequiresContent(t *testing.T) {
	t.Parallel()
	svc, _, _ := newTestJobService(t)

	_, err := svc.Create(context.Background(), CreateJobRequest{SourceType: "TEXT", TextContent: "   "}, jobOwner())
	if err == nil {
		t.Fatal("expected blank text content to be rejected")
	}
	if !strings.Contains(err.Error(), "Text source requires textContent") {
		t.Errorf("unexpected error %q", err.Error())
	}
}

func TestCreateYouTubeJob(t *testing.T) {
	t.Parallel()
	svc, _, _ := newTestJobService(t)

	job, err := svc.Create(context.Background(), CreateJobRequest{
		SourceType: "YOUTUBE",
		URL:        "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
	}, jobOwner())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if job.URL != "https://www.youtube.com/watch?v=dQw4w9WgXcQ" {
		t.Errorf("unexpected url %q", job.URL)
	}
}

func TestCreateYouTubeJobURLValidation(t *testing.T) {
	t.Parallel()
	svc, repo, _ := newTestJobService(t)

	cases := []struct {
		name string
		url  string
		want string
	}{
		{"missing", "", "YouTube source requires a URL"},
		{"relative", "watch?v=abc", "Invalid URL format"},
		{"no host", "https://", "Invalid URL format"},
		{"garbage scheme", "htp:/broken", "Invalid URL format"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), CreateJobRequest{SourceType: "YOUTUBE", URL: tc.url}, jobOwner())
			if err == nil {
				t.Fatalf("expected url %q to be rejected", tc.url)
			}
			if got := apiStatus(t, err); got != http.StatusBadRequest {
				t.Errorf("expected status 400, got %d", got)
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("expected error containing %q, got %q", tc.want, err.Error())
			}
		})
	}
	if len(repo.jobs) != 0 {
		t.Errorf("expected no jobs persisted, got %d", len(repo.jobs))
	}
}

func TestCreateFileJob(t *testing.T) {
	t.Parallel()
	svc, _, files := newTestJobService(t)

	files.files["file-1"] = &types.FileMetadata{ID: "file-1", UploadedBy: "owner-1", FileType: types.FileTypeVideo}

	job, err := svc.Create(context.Background(), CreateJobRequest{SourceType: "VIDEO_FILE", FileID: "file-1"}, jobOwner())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if job.SourceType != types.SourceVideoFile {
		t.Errorf("expected VIDEO_FILE, got %s", job.SourceType)
	}
	if job.FileID != "file-1" {
		t.Errorf("expected file-1, got %q", job.FileID)
	}
}

func TestCreateFileJobRequiresFileID(t *testing.T) {
	t.Parallel()
	svc, _, _ := newTestJobService(t)

	cases := []struct {
		sourceType string
		want       string
	}{
		{"VIDEO_FILE", "Video source requires a fileId"},
		{"AUDIO_FILE", "Audio source requires a fileId"},
		{"PDF_FILE", "PDF source requires a fileId"},
	}
	for _, tc := range cases {
		t.Run(tc.sourceType, func(t *testing.T) {
			_, err := svc.Create(context.Background(), CreateJobRequest{SourceType: tc.sourceType}, jobOwner())
			if err == nil {
				t.Fatalf("expected %s without fileId to be rejected", tc.sourceType)
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("expected error containing %q, got %q", tc.want, err.Error())
			}
		})
	}
}

func TestCreateFileJobUnknownFile(t *testing.T) {
	t.Parallel()
	svc, _, _ := newTestJobService(t)

	_, err := svc.Create(context.Background(), CreateJobRequest{SourceType: "PDF_FILE", FileID: "missing"}, jobOwner())
	if err == nil {
		t.Fatal("expected missing file to be rejected")
	}
	if got := apiStatus(t, err); got != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", got)
	}
}

func TestCreateFileJobForeignFile(t *testing.T) {
	t.Parallel()
	svc, repo, files := newTestJobService(t)

	files.files["file-2"] = &types.FileMetadata{ID: "file-2", UploadedBy: "someone-else", FileType: types.FileTypeAudio}

	_, err := svc.Create(context.Background(), CreateJobRequest{SourceType: "AUDIO_FILE", FileID: "file-2"}, jobOwner())
	if err == nil {
		t.Fatal("expected foreign file to be rejected")
	}
	if got := apiStatus(t, err); got != http.StatusForbidden {
		t.Errorf("expected status 403, got %d", got)
	}
	if !strings.Contains(err.Error(), "You don't have permission to use this file") {
		t.Errorf("unexpected error %q", err.Error())
	}
	if len(repo.jobs) != 0 {
		t.Errorf("expected no jobs persisted, got %d", len(repo.jobs))
	}
}

func TestCreateUnknownSourceType(t *testing.T) {
	t.Parallel()
	svc, _, _ := newTestJobService(t)

	_, err := svc.Create(context.Background(), CreateJobRequest{SourceType: "PODCAST"}, jobOwner())
	if err == nil {
		t.Fatal("expected unknown source type to be rejected")
	}
	if !strings.Contains(err.Error(), "Unknown source type: PODCAST") {
		t.Errorf("unexpected error %q", err.Error())
	}
}

func TestGetByIDEnforcesOwnership(t *testing.T) {
	t.Parallel()
	svc, repo, _ := newTestJobService(t)

	repo.jobs["job-1"] = &types.Job{ID: "job-1", UserID: "owner-1", Status: types.JobPending}

	if _, err := svc.GetByID(context.Background(), "job-1", jobOwner()); err != nil {
		t.Fatalf("GetByID as owner: %v", err)
	}

	_, err := svc.GetByID(context.Background(), "job-1", &types.User{ID: "intruder"})
	if err == nil {
		t.Fatal("expected foreign access to be rejected")
	}
	if got := apiStatus(t, err); got != http.StatusForbidden {
		t.Errorf("expected status 403, got %d", got)
	}
	if !strings.Contains(err.Error(), "You don't have permission to access this job") {
		t.Errorf("unexpected error %q", err.Error())
	}

	_, err = svc.GetByID(context.Background(), "missing", jobOwner())
	if err == nil {
		t.Fatal("expected unknown job to be rejected")
	}
	if got := apiStatus(t, err); got != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", got)
	}
}

func TestListForUserClampsPaging(t *testing.T) {
	t.Parallel()
	svc, repo, _ := newTestJobService(t)

	if _, err := svc.ListForUser(context.Background(), jobOwner(), -5, 0); err != nil {
		t.Fatalf("ListForUser: %v", err)
	}
	if repo.lastPage != 0 || repo.lastSize != 10 {
		t.Errorf("expected page 0 size 10, got page %d size %d", repo.lastPage, repo.lastSize)
	}

	if _, err := svc.ListForUser(context.Background(), jobOwner(), 2, 1000); err != nil {
		t.Fatalf("ListForUser: %v", err)
	}
	if repo.lastPage != 2 || repo.lastSize != 100 {
		t.Errorf("expected page 2 size 100, got page %d size %d", repo.lastPage, repo.lastSize)
	}
}

func TestListForUserByStatus(t *testing.T) {
	t.Parallel()
	svc, repo, _ := newTestJobService(t)

	repo.jobs["a"] = &types.Job{ID: "a", UserID: "owner-1", Status: types.JobCompleted}
	repo.jobs["b"] = &types.Job{ID: "b", UserID: "owner-1", Status: types.JobPending}
	repo.jobs["c"] = &types.Job{ID: "c", UserID: "someone-else", Status: types.JobCompleted}

	out, err := svc.ListForUserByStatus(context.Background(), jobOwner(), types.JobCompleted, 0, 10)
	if err != nil {
		t.Fatalf("ListForUserByStatus: %v", err)
	}
	if len(out) != 1 || out[0].ID != "a" {
		t.Errorf("expected only job a, got %d jobs", len(out))
	}
}

func TestUpdateStatusCompletedStampsCompletedAt(t *testing.T) {
	t.Parallel()
	svc, repo, _ := newTestJobService(t)

	repo.jobs["job-2"] = &types.Job{ID: "job-2", UserID: "owner-1", Status: types.JobProcessing, Progress: 80}

	job, err := svc.UpdateStatus(context.Background(), "job-2", types.JobCompleted, 100)
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if job.Status != types.JobCompleted {
		t.Errorf("expected COMPLETED, got %s", job.Status)
	}
	if job.Progress != 100 {
		t.Errorf("expected progress 100, got %d", job.Progress)
	}
	if job.CompletedAt == nil {
		t.Fatal("expected completed_at to be stamped")
	}
	if repo.jobs["job-2"].CompletedAt == nil {
		t.Error("expected completed_at persisted")
	}
}

func TestUpdateStatusFailedZeroesProgress(t *testing.T) {
	t.Parallel()
	svc, repo, _ := newTestJobService(t)

	repo.jobs["job-3"] = &types.Job{ID: "job-3", UserID: "owner-1", Status: types.JobProcessing, Progress: 80}

	job, err := svc.UpdateStatus(context.Background(), "job-3", types.JobFailed, 80)
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if job.Progress != 0 {
		t.Errorf("expected progress forced to 0, got %d", job.Progress)
	}
	if repo.jobs["job-3"].Progress != 0 {
		t.Errorf("expected persisted progress 0, got %d", repo.jobs["job-3"].Progress)
	}
	if job.CompletedAt != nil {
		t.Error("expected no completed_at on failure")
	}
}

func TestMarkFailed(t *testing.T) {
	t.Parallel()
	svc, repo, _ := newTestJobService(t)

	repo.jobs["job-4"] = &types.Job{ID: "job-4", UserID: "owner-1", Status: types.JobProcessing, Progress: 40}

	job, err := svc.MarkFailed(context.Background(), "job-4", "transcription crashed")
	if err != nil {
		t.Fatalf("MarkFailed: %v", err)
	}
	if job.Status != types.JobFailed {
		t.Errorf("expected FAILED, got %s", job.Status)
	}
	if job.Progress != 0 {
		t.Errorf("expected progress 0, got %d", job.Progress)
	}
	if job.ErrorMessage != "transcription crashed" {
		t.Errorf("unexpected error message %q", job.ErrorMessage)
	}
	if repo.jobs["job-4"].ErrorMessage != "transcription crashed" {
		t.Error("expected error message persisted")
	}
}

func TestDeleteEnforcesOwnership(t *testing.T) {
	t.Parallel()
	svc, repo, _ := newTestJobService(t)

	repo.jobs["job-5"] = &types.Job{ID: "job-5", UserID: "owner-1", Status: types.JobPending}

	err := svc.Delete(context.Background(), "job-5", &types.User{ID: "intruder"})
	if err == nil {
		t.Fatal("expected foreign delete to be rejected")
	}
	if !strings.Contains(err.Error(), "You don't have permission to delete this job") {
		t.Errorf("unexpected error %q", err.Error())
	}
	if _, ok := repo.jobs["job-5"]; !ok {
		t.Fatal("expected job to survive rejected delete")
	}

	if err := svc.Delete(context.Background(), "job-5", jobOwner()); err != nil {
		t.Fatalf("Delete as owner: %v", err)
	}
	if _, ok := repo.jobs["job-5"]; ok {
		t.Error("expected job to be removed")
	}
}
