package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	types "github.com/noteflow/noteflow-backend/internal/domain"
	"github.com/noteflow/noteflow-backend/internal/platform/logger"
)

const collectionName = "oauth_nonces"

type OAuthNonceRepo interface {
	Create(ctx context.Context, n *types.OAuthNonce) (*types.OAuthNonce, error)
	GetByID(ctx context.Context, id string) (*types.OAuthNonce, error)
	MarkUsed(ctx context.Context, id string) error
	DeleteExpired(ctx context.Context, before time.Time) error
}

type oauthNonceRepo struct {
	col *mongo.Collection
	log *logger.Logger
}

func NewOAuthNonceRepo(db *mongo.Database, baseLog *logger.Logger) OAuthNonceRepo {
	return &oauthNonceRepo{
		col: db.Collection(collectionName),
		log: baseLog.With("repo", "OAuthNonceRepo"),
	}
}

func (r *oauthNonceRepo) Create(ctx context.Context, n *types.OAuthNonce) (*types.OAuthNonce, error) {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	if _, err := r.col.InsertOne(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

func (r *oauthNonceRepo) GetByID(ctx context.Context, id string) (*types.OAuthNonce, error) {
	var n types.OAuthNonce
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&n); err != nil {
		return nil, err
	}
	return &n, nil
}

// MarkUsed consumes the nonce exactly once. A second call, or a call for
// an unknown id, fails.
func (r *oauthNonceRepo) MarkUsed(ctx context.Context, id string) error {
	now := time.Now().UTC()
	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": id, "used_at": nil},
		bson.M{"$set": bson.M{"used_at": now}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("nonce already used or not found")
	}
	return nil
}

func (r *oauthNonceRepo) DeleteExpired(ctx context.Context, before time.Time) error {
	_, err := r.col.DeleteMany(ctx, bson.M{"expires_at": bson.M{"$lt": before}})
	return err
}
