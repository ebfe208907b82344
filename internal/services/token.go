package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	types "github.com/noteflow/noteflow-backend/internal/domain"
	"github.com/noteflow/noteflow-backend/internal/platform/logger"
)

type JWTClaims struct {
	jwt.RegisteredClaims
}

// TokenService issues and parses the app's own HS512 bearer tokens.
// The subject claim is the user id.
type TokenService interface {
	Generate(user *types.User) (string, error)
	ParseSubject(tokenString string) (string, error)
	TTL() time.Duration
}

type tokenService struct {
	log    *logger.Logger
	secret []byte
	ttl    time.Duration
}

func NewTokenService(baseLog *logger.Logger, secret string, ttl time.Duration) (TokenService, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, fmt.Errorf("jwt secret is required")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &tokenService{
		log:    baseLog.With("service", "TokenService"),
		secret: []byte(secret),
		ttl:    ttl,
	}, nil
}

func (ts *tokenService) Generate(user *types.User) (string, error) {
	if user == nil || user.ID == "" {
		return "", fmt.Errorf("missing user id")
	}
	now := time.Now()
	claims := JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ts.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS512, claims)
	return token.SignedString(ts.secret)
}

func (ts *tokenService) ParseSubject(tokenString string) (string, error) {
	if strings.TrimSpace(tokenString) == "" {
		return "", fmt.Errorf("empty token")
	}
	parsed, err := jwt.ParseWithClaims(
		tokenString,
		&JWTClaims{},
		func(t *jwt.Token) (interface{}, error) { return ts.secret, nil },
		jwt.WithValidMethods([]string{"HS512"}),
	)
	if err != nil {
		return "", fmt.Errorf("failed to parse token: %w", err)
	}
	claims, ok := parsed.Claims.(*JWTClaims)
	if !ok || !parsed.Valid {
		return "", fmt.Errorf("invalid or expired token")
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return "", fmt.Errorf("missing subject in token")
	}
	return claims.Subject, nil
}

func (ts *tokenService) TTL() time.Duration { return ts.ttl }
