package jobs

import "time"

type Status string

const (
	StatusPending    Status = "PENDING"
	StatusProcessing Status = "PROCESSING"
	StatusCompleted  Status = "COMPLETED"
	StatusFailed     Status = "FAILED"
)

func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

func ParseStatus(raw string) (Status, bool) {
	switch Status(raw) {
	case StatusPending, StatusProcessing, StatusCompleted, StatusFailed:
		return Status(raw), true
	default:
		return "", false
	}
}

// Job carries the request payload flattened per source type: exactly one
// of FileID, URL or TextContent is set, matching SourceType.
type Job struct {
	ID              string     `bson:"_id" json:"id"`
	UserID          string     `bson:"user_id" json:"user_id"`
	SourceType      SourceType `bson:"source_type" json:"source_type"`
	FileID          string     `bson:"file_id,omitempty" json:"file_id,omitempty"`
	URL             string     `bson:"url,omitempty" json:"url,omitempty"`
	TextContent     string     `bson:"text_content,omitempty" json:"text_content,omitempty"`
	Title           string     `bson:"title,omitempty" json:"title,omitempty"`
	Notes           string     `bson:"notes,omitempty" json:"notes,omitempty"`
	Status          Status     `bson:"status" json:"status"`
	Progress        int        `bson:"progress" json:"progress"`
	ResultPageURL   string     `bson:"result_page_url,omitempty" json:"result_page_url,omitempty"`
	GeneratedNotes  string     `bson:"generated_notes,omitempty" json:"generated_notes,omitempty"`
	TranscribedText string     `bson:"transcribed_text,omitempty" json:"transcribed_text,omitempty"`
	ErrorMessage    string     `bson:"error_message,omitempty" json:"error_message,omitempty"`
	CreatedAt       time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt       time.Time  `bson:"updated_at" json:"updated_at"`
	CompletedAt     *time.Time `bson:"completed_at,omitempty" json:"completed_at,omitempty"`
}
