package files

import "time"

type FileType string

const (
	FileTypeVideo    FileType = "VIDEO"
	FileTypeAudio    FileType = "AUDIO"
	FileTypeDocument FileType = "DOCUMENT"
)

// FileMetadata records one stored upload. Exactly one of LocalFilePath
// or CloudURL is authoritative for where the bytes live.
type FileMetadata struct {
	ID               string    `bson:"_id" json:"id"`
	OriginalFileName string    `bson:"original_file_name" json:"original_file_name"`
	StoredFileName   string    `bson:"stored_file_name" json:"stored_file_name"`
	FileType         FileType  `bson:"file_type" json:"file_type"`
	LocalFilePath    string    `bson:"local_file_path,omitempty" json:"local_file_path,omitempty"`
	CloudURL         string    `bson:"cloud_url,omitempty" json:"cloud_url,omitempty"`
	CloudObjectID    string    `bson:"cloud_object_id,omitempty" json:"cloud_object_id,omitempty"`
	FileSize         int64     `bson:"file_size" json:"file_size"`
	ContentType      string    `bson:"content_type" json:"content_type"`
	UploadedBy       string    `bson:"uploaded_by" json:"uploaded_by"`
	Processed        bool      `bson:"processed" json:"processed"`
	CreatedAt        time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt        time.Time `bson:"updated_at" json:"updated_at"`
}

func (m *FileMetadata) StoredInCloud() bool { return m.CloudURL != "" }
