package handlers

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	types "github.com/noteflow/noteflow-backend/internal/domain"
)

func TestToFilePayloadPrefersCloudURL(t *testing.T) {
	t.Parallel()

	local := &types.FileMetadata{
		ID:               "f1",
		OriginalFileName: "talk.mp4",
		LocalFilePath:    "/data/uploads/abc_talk.mp4",
		FileSize:         42,
		ContentType:      "video/mp4",
	}
	if got := toFilePayload(local).FilePath; got != "/data/uploads/abc_talk.mp4" {
		t.Fatalf("local path: got %q", got)
	}

	cloud := &types.FileMetadata{
		ID:               "f2",
		OriginalFileName: "talk.mp4",
		LocalFilePath:    "/data/uploads/abc_talk.mp4",
		CloudURL:         "https://bucket.example.com/abc_talk.mp4",
	}
	if got := toFilePayload(cloud).FilePath; got != "https://bucket.example.com/abc_talk.mp4" {
		t.Fatalf("cloud path: got %q", got)
	}
}

func TestToJobPayloadCarriesResultFields(t *testing.T) {
	t.Parallel()

	done := time.Date(2026, 2, 3, 10, 0, 0, 0, time.UTC)
	j := &types.Job{
		ID:              "j1",
		SourceType:      types.SourceYouTube,
		URL:             "https://youtube.com/watch?v=x",
		Status:          types.JobCompleted,
		Progress:        100,
		ResultPageURL:   "https://app.example.com/notes/j1",
		GeneratedNotes:  "notes body",
		TranscribedText: "transcript",
		CompletedAt:     &done,
	}
	p := toJobPayload(j)
	if p.ResultPageURL != j.ResultPageURL || p.GeneratedNotes != j.GeneratedNotes || p.TranscribedText != j.TranscribedText {
		t.Fatalf("result fields dropped: %+v", p)
	}
	if p.CompletedAt == nil || !p.CompletedAt.Equal(done) {
		t.Fatalf("completedAt: got %v", p.CompletedAt)
	}
}

func TestParseIntQuery(t *testing.T) {
	t.Parallel()
	gin.SetMode(gin.TestMode)

	cases := []struct {
		query    string
		fallback int
		want     int
	}{
		{"", 10, 10},
		{"page=3", 0, 3},
		{"page=abc", 7, 7},
		{"page=-1", 5, -1},
	}
	for _, tc := range cases {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest("GET", "/jobs?"+tc.query, nil)
		if got := parseIntQuery(c, "page", tc.fallback); got != tc.want {
			t.Fatalf("query %q: got %d want %d", tc.query, got, tc.want)
		}
	}
}
