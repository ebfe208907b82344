package handlers

import (
	"time"

	types "github.com/noteflow/noteflow-backend/internal/domain"
)

// Wire DTOs use camelCase field names; persistence tags on the domain
// types stay snake_case.

type userPayload struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	MicrosoftID string    `json:"microsoftId"`
	Provider    string    `json:"provider"`
	Enabled     bool      `json:"enabled"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func toUserPayload(u *types.User) userPayload {
	return userPayload{
		ID:          u.ID,
		Email:       u.Email,
		MicrosoftID: u.MicrosoftID,
		Provider:    u.Provider,
		Enabled:     u.Enabled,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

type filePayload struct {
	FileID      string    `json:"fileId"`
	FileName    string    `json:"fileName"`
	FileSize    int64     `json:"fileSize"`
	ContentType string    `json:"contentType"`
	FilePath    string    `json:"filePath"`
	UploadedAt  time.Time `json:"uploadedAt"`
}

func toFilePayload(m *types.FileMetadata) filePayload {
	path := m.LocalFilePath
	if m.StoredInCloud() {
		path = m.CloudURL
	}
	return filePayload{
		FileID:      m.ID,
		FileName:    m.OriginalFileName,
		FileSize:    m.FileSize,
		ContentType: m.ContentType,
		FilePath:    path,
		UploadedAt:  m.CreatedAt,
	}
}

type jobPayload struct {
	ID              string           `json:"id"`
	SourceType      types.SourceType `json:"sourceType"`
	Status          types.JobStatus  `json:"status"`
	Title           string           `json:"title,omitempty"`
	Notes           string           `json:"notes,omitempty"`
	Progress        int              `json:"progress"`
	FileID          string           `json:"fileId,omitempty"`
	URL             string           `json:"url,omitempty"`
	TextContent     string           `json:"textContent,omitempty"`
	ErrorMessage    string           `json:"errorMessage,omitempty"`
	ResultPageURL   string           `json:"resultPageUrl,omitempty"`
	GeneratedNotes  string           `json:"generatedNotes,omitempty"`
	TranscribedText string           `json:"transcribedText,omitempty"`
	CreatedAt       time.Time        `json:"createdAt"`
	UpdatedAt       time.Time        `json:"updatedAt"`
	CompletedAt     *time.Time       `json:"completedAt,omitempty"`
}

func toJobPayload(j *types.Job) jobPayload {
	return jobPayload{
		ID:              j.ID,
		SourceType:      j.SourceType,
		Status:          j.Status,
		Title:           j.Title,
		Notes:           j.Notes,
		Progress:        j.Progress,
		FileID:          j.FileID,
		URL:             j.URL,
		TextContent:     j.TextContent,
		ErrorMessage:    j.ErrorMessage,
		ResultPageURL:   j.ResultPageURL,
		GeneratedNotes:  j.GeneratedNotes,
		TranscribedText: j.TranscribedText,
		CreatedAt:       j.CreatedAt,
		UpdatedAt:       j.UpdatedAt,
		CompletedAt:     j.CompletedAt,
	}
}

func toJobPayloads(jobs []*types.Job) []jobPayload {
	out := make([]jobPayload, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, toJobPayload(j))
	}
	return out
}
