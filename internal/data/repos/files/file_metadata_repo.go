package files

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	types "github.com/noteflow/noteflow-backend/internal/domain"
	"github.com/noteflow/noteflow-backend/internal/platform/logger"
)

const collectionName = "files"

// Lookups return mongo.ErrNoDocuments when no record matches.
type FileMetadataRepo interface {
	Create(ctx context.Context, m *types.FileMetadata) (*types.FileMetadata, error)
	GetByID(ctx context.Context, id string) (*types.FileMetadata, error)
	ListByUploader(ctx context.Context, userID string) ([]*types.FileMetadata, error)
	UpdateFields(ctx context.Context, id string, updates map[string]interface{}) error
	Delete(ctx context.Context, id string) error
}

type fileMetadataRepo struct {
	col *mongo.Collection
	log *logger.Logger
}

func NewFileMetadataRepo(db *mongo.Database, baseLog *logger.Logger) FileMetadataRepo {
	return &fileMetadataRepo{
		col: db.Collection(collectionName),
		log: baseLog.With("repo", "FileMetadataRepo"),
	}
}

func (r *fileMetadataRepo) Create(ctx context.Context, m *types.FileMetadata) (*types.FileMetadata, error) {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
	m.UpdatedAt = now
	if _, err := r.col.InsertOne(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (r *fileMetadataRepo) GetByID(ctx context.Context, id string) (*types.FileMetadata, error) {
	var m types.FileMetadata
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&m); err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *fileMetadataRepo) ListByUploader(ctx context.Context, userID string) ([]*types.FileMetadata, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := r.col.Find(ctx, bson.M{"uploaded_by": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []*types.FileMetadata
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *fileMetadataRepo) UpdateFields(ctx context.Context, id string, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now().UTC()
	}
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": updates})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func (r *fileMetadataRepo) Delete(ctx context.Context, id string) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}
