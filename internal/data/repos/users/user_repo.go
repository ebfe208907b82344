package users

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	types "github.com/noteflow/noteflow-backend/internal/domain"
	"github.com/noteflow/noteflow-backend/internal/platform/logger"
)

const collectionName = "users"

// Lookups return mongo.ErrNoDocuments when no user matches.
type UserRepo interface {
	Create(ctx context.Context, u *types.User) (*types.User, error)
	GetByID(ctx context.Context, id string) (*types.User, error)
	GetByEmail(ctx context.Context, email string) (*types.User, error)
	GetByMicrosoftID(ctx context.Context, microsoftID string) (*types.User, error)
	UpdateFields(ctx context.Context, id string, updates map[string]interface{}) error
}

type userRepo struct {
	col *mongo.Collection
	log *logger.Logger
}

func NewUserRepo(db *mongo.Database, baseLog *logger.Logger) UserRepo {
	return &userRepo{
		col: db.Collection(collectionName),
		log: baseLog.With("repo", "UserRepo"),
	}
}

func (r *userRepo) Create(ctx context.Context, u *types.User) (*types.User, error) {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	if _, err := r.col.InsertOne(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (r *userRepo) GetByID(ctx context.Context, id string) (*types.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*types.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *userRepo) GetByMicrosoftID(ctx context.Context, microsoftID string) (*types.User, error) {
	return r.findOne(ctx, bson.M{"microsoft_id": microsoftID})
}

func (r *userRepo) UpdateFields(ctx context.Context, id string, updates map[string]interface{}) error {
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

func (r *userRepo) findOne(ctx context.Context, filter bson.M) (*types.User, error) {
	var u types.User
	if err := r.col.FindOne(ctx, filter).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}
