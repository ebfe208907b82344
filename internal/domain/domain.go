package domain

import (
	"github.com/noteflow/noteflow-backend/internal/domain/auth"
	"github.com/noteflow/noteflow-backend/internal/domain/files"
	"github.com/noteflow/noteflow-backend/internal/domain/jobs"
	"github.com/noteflow/noteflow-backend/internal/domain/user"
)

const ProviderMicrosoft = user.ProviderMicrosoft

type User = user.User

type FileMetadata = files.FileMetadata
type FileType = files.FileType

const (
	FileTypeVideo    = files.FileTypeVideo
	FileTypeAudio    = files.FileTypeAudio
	FileTypeDocument = files.FileTypeDocument
)

type Job = jobs.Job
type JobStatus = jobs.Status
type SourceType = jobs.SourceType

const (
	JobPending    = jobs.StatusPending
	JobProcessing = jobs.StatusProcessing
	JobCompleted  = jobs.StatusCompleted
	JobFailed     = jobs.StatusFailed

	SourceYouTube   = jobs.SourceYouTube
	SourceVideoFile = jobs.SourceVideoFile
	SourceAudioFile = jobs.SourceAudioFile
	SourcePDFFile   = jobs.SourcePDFFile
	SourceText      = jobs.SourceText
)

type JobSource = jobs.JobSource
type FileSource = jobs.FileSource
type LinkSource = jobs.LinkSource
type TextSource = jobs.TextSource

var (
	ParseStatus     = jobs.ParseStatus
	ParseSourceType = jobs.ParseSourceType
)

type OAuthNonce = auth.OAuthNonce
