package jobs

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

const collectionName = "jobs"

// Lookups return mongo.ErrNoDocuments when no job matches. Listings are
// newest-first and pre-scoped to one user.
type JobRepo interface {
	Create(ctx context.Context, j *types.Job) (*types.Job, error)
	GetByID(ctx context.Context, id string) (*types.Job, error)
	ListByUser(ctx context.Context, userID string, page, size int) ([]*types.Job, error)
	ListByUserAndStatus(ctx context.Context, userID string, status types.JobStatus, page, size int) ([]*types.Job, error)
	UpdateFields(ctx context.Context, id string, updates map[string]interface{}) error
	Delete(ctx context.Context, id string) error
}

type jobRepo struct {
	col *mongo.Collection
	log *logger.Logger
}

func NewJobRepo(db *mongo.Database, baseLog *logger.Logger) JobRepo {
	return &jobRepo{
		col: db.Collection(collectionName),
		log: baseLog.With("repo", "JobRepo"),
	}
}

func (r *jobRepo) Create(ctx context.Context, j *types.Job) (*types.Job, error) {
	if j.ID == "" {
		j.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if j.CreatedAt.IsZero() {
		j.CreatedAt = now
	}
	j.UpdatedAt = now
	if _, err := r.col.InsertOne(ctx, j); err != nil {
		return nil, err
	}
	return j, nil
}

func (r *jobRepo) GetByID(ctx context.Context, id string) (*types.Job, error) {
	var j types.Job
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&j); err != nil {
		return nil, err
	}
	return &j, nil
}

func (r *jobRepo) ListByUser(ctx context.Context, userID string, page, size int) ([]*types.Job, error) {
	return r.list(ctx, bson.M{"user_id": userID}, page, size)
}

func (r *jobRepo) ListByUserAndStatus(ctx context.Context, userID string, status types.JobStatus, page, size int) ([]*types.Job, error) {
	return r.list(ctx, bson.M{"user_id": userID, "status": status}, page, size)
}

func (r *jobRepo) UpdateFields(ctx context.Context, id string, updates map[string]interface{}) error {
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

func (r *jobRepo) Delete(ctx context.Context, id string) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func (r *jobRepo) list(ctx context.Context, filter bson.M, page, size int) ([]*types.Job, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64(page) * int64(size)).
		SetLimit(int64(size))
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []*types.Job{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
