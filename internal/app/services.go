package app

import (
	"fmt"

	"github.com/noteflow/noteflow-backend/internal/config"
	"github.com/noteflow/noteflow-backend/internal/platform/logger"
	"github.com/noteflow/noteflow-backend/internal/services"
)

type Services struct {
	Token          services.TokenService
	OIDCVer        services.OIDCVerifier
	MicrosoftOAuth services.MicrosoftOAuthService
	Auth           services.AuthService
	FileStorage    services.FileStorageService
	Job            services.JobService
}

func wireServices(log *logger.Logger, cfg *config.Config, repos Repos) (Services, error) {
	log.Info("Wiring services...")

	tokens, err := services.NewTokenService(log, cfg.JWT.Secret, cfg.TokenTTL)
	if err != nil {
		return Services{}, fmt.Errorf("init token service: %w", err)
	}

	verifier, err := services.NewOIDCVerifier(nil, cfg.Microsoft.TenantID, cfg.Microsoft.ClientID)
	if err != nil {
		return Services{}, fmt.Errorf("init oidc verifier: %w", err)
	}

	oauth, err := services.NewMicrosoftOAuthService(log, cfg.Microsoft.TenantID, cfg.Microsoft.ClientID, cfg.Microsoft.ClientSecret, cfg.Microsoft.RedirectURL)
	if err != nil {
		return Services{}, fmt.Errorf("init microsoft oauth: %w", err)
	}

	auth := services.NewAuthService(log, repos.User, repos.OAuthNonce, verifier, tokens)

	storage, err := services.NewFileStorageService(log, repos.FileMetadata, cfg.Storage.UploadDir)
	if err != nil {
		return Services{}, fmt.Errorf("init file storage: %w", err)
	}

	jobs := services.NewJobService(log, repos.Job, repos.FileMetadata)

	return Services{
		Token:          tokens,
		OIDCVer:        verifier,
		MicrosoftOAuth: oauth,
		Auth:           auth,
		FileStorage:    storage,
		Job:            jobs,
	}, nil
}
