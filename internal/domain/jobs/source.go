package jobs

type SourceType string

const (
	SourceYouTube   SourceType = "YOUTUBE"
	SourceVideoFile SourceType = "VIDEO_FILE"
	SourceAudioFile SourceType = "AUDIO_FILE"
	SourcePDFFile   SourceType = "PDF_FILE"
	SourceText      SourceType = "TEXT"
)

func ParseSourceType(raw string) (SourceType, bool) {
	switch SourceType(raw) {
	case SourceYouTube, SourceVideoFile, SourceAudioFile, SourcePDFFile, SourceText:
		return SourceType(raw), true
	default:
		return "", false
	}
}

// JobSource is the validated payload of a create request. The variant set
// is closed: file-backed sources, a YouTube link, or raw text.
type JobSource interface {
	Type() SourceType
	jobSource()
}

// FileSource references an uploaded file. Kind is one of SourceVideoFile,
// SourceAudioFile or SourcePDFFile.
type FileSource struct {
	Kind   SourceType
	FileID string
}

type LinkSource struct {
	URL string
}

type TextSource struct {
	Content string
}

func (s FileSource) Type() SourceType { return s.Kind }
func (FileSource) jobSource()         {}

func (LinkSource) Type() SourceType { return SourceYouTube }
func (LinkSource) jobSource()       {}

func (TextSource) Type() SourceType { return SourceText }
func (TextSource) jobSource()       {}
