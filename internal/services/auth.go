package services

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	authrepos "github.com/noteflow/noteflow-backend/internal/data/repos/auth"
	userrepos "github.com/noteflow/noteflow-backend/internal/data/repos/users"
	types "github.com/noteflow/noteflow-backend/internal/domain"
	"github.com/noteflow/noteflow-backend/internal/platform/apierr"
	"github.com/noteflow/noteflow-backend/internal/platform/logger"
)

const nonceTTL = 10 * time.Minute

type NonceGrant struct {
	NonceID   string
	Nonce     string
	ExpiresIn int64
}

type AuthResult struct {
	User      *types.User
	Token     string
	ExpiresIn int64
}

type AuthService interface {
	// IssueNonce mints a short-lived single-use nonce for the native
	// id_token exchange. Only its hash is persisted.
	IssueNonce(ctx context.Context) (*NonceGrant, error)
	// ExchangeMicrosoftIDToken verifies idToken against the stored nonce,
	// consumes the nonce and logs the bearer in.
	ExchangeMicrosoftIDToken(ctx context.Context, idToken, nonceID string) (*AuthResult, error)
	// LoginWithMicrosoftIDToken verifies an id_token from the web code flow
	// against the nonce hash carried in the flow cookie and logs the user in.
	LoginWithMicrosoftIDToken(ctx context.Context, idToken, expectedNonceHash string) (*AuthResult, error)
	// LoginWithVerifiedIdentity finds, links or registers the user for an
	// already-verified external identity and issues a local token.
	LoginWithVerifiedIdentity(ctx context.Context, ident *ExternalIdentity) (*AuthResult, error)
}

type authService struct {
	log      *logger.Logger
	users    userrepos.UserRepo
	nonces   authrepos.OAuthNonceRepo
	verifier OIDCVerifier
	tokens   TokenService
}

func NewAuthService(
	baseLog *logger.Logger,
	users userrepos.UserRepo,
	nonces authrepos.OAuthNonceRepo,
	verifier OIDCVerifier,
	tokens TokenService,
) AuthService {
	return &authService{
		log:      baseLog.With("service", "AuthService"),
		users:    users,
		nonces:   nonces,
		verifier: verifier,
		tokens:   tokens,
	}
}

func (as *authService) IssueNonce(ctx context.Context) (*NonceGrant, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return nil, apierr.New(http.StatusInternalServerError, "nonce_generation_failed", err)
	}
	nonce := base64.RawURLEncoding.EncodeToString(raw)

	stored, err := as.nonces.Create(ctx, &types.OAuthNonce{
		Provider:  "microsoft",
		NonceHash: hashNonceBase64URL(nonce),
		ExpiresAt: time.Now().UTC().Add(nonceTTL),
	})
	if err != nil {
		return nil, apierr.New(http.StatusInternalServerError, "nonce_store_failed", err)
	}

	// Opportunistic cleanup; the TTL index is the backstop.
	if err := as.nonces.DeleteExpired(ctx, time.Now().UTC()); err != nil {
		as.log.Warn("failed to delete expired nonces", "error", err)
	}

	return &NonceGrant{
		NonceID:   stored.ID,
		Nonce:     nonce,
		ExpiresIn: int64(nonceTTL.Seconds()),
	}, nil
}

func (as *authService) ExchangeMicrosoftIDToken(ctx context.Context, idToken, nonceID string) (*AuthResult, error) {
	if nonceID == "" {
		return nil, apierr.New(http.StatusUnauthorized, "invalid_nonce", fmt.Errorf("missing nonce id"))
	}
	n, err := as.nonces.GetByID(ctx, nonceID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apierr.New(http.StatusUnauthorized, "invalid_nonce", fmt.Errorf("unknown nonce"))
		}
		return nil, apierr.New(http.StatusInternalServerError, "nonce_lookup_failed", err)
	}
	if time.Now().UTC().After(n.ExpiresAt) {
		return nil, apierr.New(http.StatusUnauthorized, "nonce_expired", fmt.Errorf("nonce expired"))
	}

	ident, err := as.verifier.VerifyMicrosoftIDToken(ctx, idToken, n.NonceHash)
	if err != nil {
		return nil, apierr.New(http.StatusUnauthorized, "invalid_id_token", err)
	}

	if err := as.nonces.MarkUsed(ctx, n.ID); err != nil {
		return nil, apierr.New(http.StatusUnauthorized, "invalid_nonce", err)
	}

	return as.LoginWithVerifiedIdentity(ctx, ident)
}

func (as *authService) LoginWithMicrosoftIDToken(ctx context.Context, idToken, expectedNonceHash string) (*AuthResult, error) {
	ident, err := as.verifier.VerifyMicrosoftIDToken(ctx, idToken, expectedNonceHash)
	if err != nil {
		return nil, apierr.New(http.StatusUnauthorized, "invalid_id_token", err)
	}
	return as.LoginWithVerifiedIdentity(ctx, ident)
}

func (as *authService) LoginWithVerifiedIdentity(ctx context.Context, ident *ExternalIdentity) (*AuthResult, error) {
	if ident == nil || ident.Sub == "" {
		return nil, apierr.New(http.StatusUnauthorized, "invalid_identity", fmt.Errorf("missing subject"))
	}
	u, err := as.findOrCreateUser(ctx, ident)
	if err != nil {
		return nil, err
	}
	tok, err := as.tokens.Generate(u)
	if err != nil {
		return nil, apierr.New(http.StatusInternalServerError, "token_generation_failed", err)
	}
	return &AuthResult{
		User:      u,
		Token:     tok,
		ExpiresIn: int64(as.tokens.TTL().Seconds()),
	}, nil
}

func (as *authService) findOrCreateUser(ctx context.Context, ident *ExternalIdentity) (*types.User, error) {
	u, err := as.users.GetByMicrosoftID(ctx, ident.Sub)
	switch {
	case err == nil:
		if ident.Email != "" && ident.Email != u.Email {
			if err := as.users.UpdateFields(ctx, u.ID, map[string]interface{}{"email": ident.Email}); err != nil {
				return nil, apierr.New(http.StatusInternalServerError, "user_update_failed", err)
			}
			u.Email = ident.Email
		}
		return u, nil
	case !errors.Is(err, mongo.ErrNoDocuments):
		return nil, apierr.New(http.StatusInternalServerError, "user_lookup_failed", err)
	}

	if ident.Email == "" {
		return nil, apierr.New(http.StatusUnauthorized, "email_not_found", fmt.Errorf("email not found from identity provider"))
	}

	u, err = as.users.GetByEmail(ctx, ident.Email)
	switch {
	case err == nil:
		updates := map[string]interface{}{
			"microsoft_id": ident.Sub,
			"provider":     types.ProviderMicrosoft,
		}
		if err := as.users.UpdateFields(ctx, u.ID, updates); err != nil {
			return nil, apierr.New(http.StatusInternalServerError, "user_link_failed", err)
		}
		u.MicrosoftID = ident.Sub
		u.Provider = types.ProviderMicrosoft
		as.log.Info("linked existing user to microsoft identity", "user_id", u.ID)
		return u, nil
	case !errors.Is(err, mongo.ErrNoDocuments):
		return nil, apierr.New(http.StatusInternalServerError, "user_lookup_failed", err)
	}

	created, err := as.users.Create(ctx, &types.User{
		Email:       ident.Email,
		MicrosoftID: ident.Sub,
		Provider:    types.ProviderMicrosoft,
		Enabled:     true,
	})
	if err != nil {
		return nil, apierr.New(http.StatusInternalServerError, "user_create_failed", err)
	}
	as.log.Info("registered new user from microsoft identity", "user_id", created.ID)
	return created, nil
}
