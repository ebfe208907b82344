package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	types "github.com/noteflow/noteflow-backend/internal/domain"
)

func SeedUser(tb testing.TB, repo *MemUserRepo, email string) *types.User {
	tb.Helper()
	u, err := repo.Create(context.Background(), &types.User{
		Email:       email,
		MicrosoftID: uuid.New().String(),
		Provider:    types.ProviderMicrosoft,
		Enabled:     true,
	})
	if err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

func SeedFile(tb testing.TB, repo *MemFileRepo, ownerID string, fileType types.FileType) *types.FileMetadata {
	tb.Helper()
	m, err := repo.Create(context.Background(), &types.FileMetadata{
		OriginalFileName: "seed-file.bin",
		StoredFileName:   uuid.New().String() + "_seed-file.bin",
		FileType:         fileType,
		LocalFilePath:    "/tmp/seed-file.bin",
		FileSize:         128,
		ContentType:      "application/octet-stream",
		UploadedBy:       ownerID,
	})
	if err != nil {
		tb.Fatalf("seed file: %v", err)
	}
	return m
}

func SeedJob(tb testing.TB, repo *MemJobRepo, ownerID string, status types.JobStatus) *types.Job {
	tb.Helper()
	j, err := repo.Create(context.Background(), &types.Job{
		UserID:      ownerID,
		SourceType:  types.SourceText,
		TextContent: "seed content",
		Status:      status,
		CreatedAt:   time.Now().UTC(),
	})
	if err != nil {
		tb.Fatalf("seed job: %v", err)
	}
	return j
}
