package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	userrepos "github.com/noteflow/noteflow-backend/internal/data/repos/users"
	types "github.com/noteflow/noteflow-backend/internal/domain"
	"github.com/noteflow/noteflow-backend/internal/http/response"
	"github.com/noteflow/noteflow-backend/internal/platform/apierr"
	"github.com/noteflow/noteflow-backend/internal/platform/logger"
	"github.com/noteflow/noteflow-backend/internal/services"
)

const currentUserKey = "currentUser"

type AuthMiddleware struct {
	log    *logger.Logger
	tokens services.TokenService
	users  userrepos.UserRepo
}

func NewAuthMiddleware(baseLog *logger.Logger, tokens services.TokenService, users userrepos.UserRepo) *AuthMiddleware {
	return &AuthMiddleware{
		log:    baseLog.With("middleware", "AuthMiddleware"),
		tokens: tokens,
		users:  users,
	}
}

// RequireAuth authenticates the bearer token and loads a fresh user record
// for every request, so disabled or deleted accounts lose access
// immediately rather than at token expiry.
func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractBearerToken(c)
		if tokenString == "" {
			response.RespondError(c, apierr.New(http.StatusUnauthorized, "unauthenticated", errors.New("Missing or invalid Authorization header")))
			return
		}

		userID, err := am.tokens.ParseSubject(tokenString)
		if err != nil {
			am.log.Debug("rejected bearer token", "error", err)
			response.RespondError(c, apierr.New(http.StatusUnauthorized, "unauthenticated", errors.New("Invalid or expired token")))
			return
		}

		u, err := am.users.GetByID(c.Request.Context(), userID)
		if err != nil {
			am.log.Warn("bearer token for unknown user", "user_id", userID)
			response.RespondError(c, apierr.New(http.StatusUnauthorized, "unauthenticated", errors.New("User not found")))
			return
		}
		if !u.Enabled {
			response.RespondError(c, apierr.New(http.StatusUnauthorized, "unauthenticated", errors.New("User account is disabled")))
			return
		}

		c.Set(currentUserKey, u)
		c.Next()
	}
}

// CurrentUser returns the user loaded by RequireAuth, or nil on routes that
// skipped it.
func CurrentUser(c *gin.Context) *types.User {
	v, ok := c.Get(currentUserKey)
	if !ok {
		return nil
	}
	u, ok := v.(*types.User)
	if !ok {
		return nil
	}
	return u
}

func extractBearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return strings.TrimSpace(authHeader[7:])
	}
	return ""
}
