package app

import (
	"go.mongodb.org/mongo-driver/mongo"

	authrepos "github.com/noteflow/noteflow-backend/internal/data/repos/auth"
	filerepos "github.com/noteflow/noteflow-backend/internal/data/repos/files"
	jobrepos "github.com/noteflow/noteflow-backend/internal/data/repos/jobs"
	userrepos "github.com/noteflow/noteflow-backend/internal/data/repos/users"
	"github.com/noteflow/noteflow-backend/internal/platform/logger"
)

type Repos struct {
	User         userrepos.UserRepo
	OAuthNonce   authrepos.OAuthNonceRepo
	FileMetadata filerepos.FileMetadataRepo
	Job          jobrepos.JobRepo
}

func wireRepos(db *mongo.Database, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		User:         userrepos.NewUserRepo(db, log),
		OAuthNonce:   authrepos.NewOAuthNonceRepo(db, log),
		FileMetadata: filerepos.NewFileMetadataRepo(db, log),
		Job:          jobrepos.NewJobRepo(db, log),
	}
}
