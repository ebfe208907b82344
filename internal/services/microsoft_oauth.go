package services

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/microsoft"

	"github.com/noteflow/noteflow-backend/internal/platform/logger"
)

// MicrosoftOAuthService drives the authorization-code flow against the
// Microsoft identity platform. Verification of the resulting id_token is
// the OIDCVerifier's job.
type MicrosoftOAuthService interface {
	AuthCodeURL(state, nonce string) string
	ExchangeCode(ctx context.Context, code string) (string, error)
}

type microsoftOAuthService struct {
	log  *logger.Logger
	conf *oauth2.Config
}

func NewMicrosoftOAuthService(baseLog *logger.Logger, tenantID, clientID, clientSecret, redirectURL string) (MicrosoftOAuthService, error) {
	if strings.TrimSpace(clientID) == "" {
		return nil, fmt.Errorf("microsoft client id is required")
	}
	if strings.TrimSpace(redirectURL) == "" {
		return nil, fmt.Errorf("microsoft redirect url is required")
	}
	tenantID = strings.TrimSpace(tenantID)
	if tenantID == "" {
		tenantID = "common"
	}
	return &microsoftOAuthService{
		log: baseLog.With("service", "MicrosoftOAuthService"),
		conf: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Endpoint:     microsoft.AzureADEndpoint(tenantID),
			RedirectURL:  redirectURL,
			Scopes:       []string{"openid", "profile", "email"},
		},
	}, nil
}

func (ms *microsoftOAuthService) AuthCodeURL(state, nonce string) string {
	return ms.conf.AuthCodeURL(state,
		oauth2.SetAuthURLParam("nonce", nonce),
		oauth2.SetAuthURLParam("response_mode", "query"),
	)
}

func (ms *microsoftOAuthService) ExchangeCode(ctx context.Context, code string) (string, error) {
	if strings.TrimSpace(code) == "" {
		return "", fmt.Errorf("missing authorization code")
	}
	tok, err := ms.conf.Exchange(ctx, code)
	if err != nil {
		return "", fmt.Errorf("code exchange failed: %w", err)
	}
	idToken, _ := tok.Extra("id_token").(string)
	if strings.TrimSpace(idToken) == "" {
		return "", fmt.Errorf("token response missing id_token")
	}
	return idToken, nil
}
