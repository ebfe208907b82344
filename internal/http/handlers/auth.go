package handlers

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	userrepos "github.com/noteflow/noteflow-backend/internal/data/repos/users"
	"github.com/noteflow/noteflow-backend/internal/http/middleware"
	"github.com/noteflow/noteflow-backend/internal/http/response"
	"github.com/noteflow/noteflow-backend/internal/platform/apierr"
	"github.com/noteflow/noteflow-backend/internal/platform/logger"
	"github.com/noteflow/noteflow-backend/internal/services"
)

const (
	stateCookie       = "oauth_state"
	nonceCookie       = "oauth_nonce"
	oauthCookieMaxAge = 600
)

type AuthHandler struct {
	log         *logger.Logger
	auth        services.AuthService
	oauth       services.MicrosoftOAuthService
	users       userrepos.UserRepo
	frontendURL string
}

func NewAuthHandler(
	baseLog *logger.Logger,
	auth services.AuthService,
	oauth services.MicrosoftOAuthService,
	users userrepos.UserRepo,
	frontendURL string,
) *AuthHandler {
	return &AuthHandler{
		log:         baseLog.With("handler", "AuthHandler"),
		auth:        auth,
		oauth:       oauth,
		users:       users,
		frontendURL: frontendURL,
	}
}

// Authorize starts the browser code flow. State and the nonce hash travel
// in short-lived cookies; the raw nonce goes only to Microsoft.
func (ah *AuthHandler) Authorize(c *gin.Context) {
	state, err := randomToken()
	if err != nil {
		response.RespondError(c, apierr.New(http.StatusInternalServerError, "state_generation_failed", err))
		return
	}
	nonce, err := randomToken()
	if err != nil {
		response.RespondError(c, apierr.New(http.StatusInternalServerError, "nonce_generation_failed", err))
		return
	}

	c.SetCookie(stateCookie, state, oauthCookieMaxAge, "/", "", false, true)
	c.SetCookie(nonceCookie, services.HashNonce(nonce), oauthCookieMaxAge, "/", "", false, true)
	c.Redirect(http.StatusFound, ah.oauth.AuthCodeURL(state, nonce))
}

// Callback finishes the code flow and hands the browser back to the
// frontend with either a token or an error code.
func (ah *AuthHandler) Callback(c *gin.Context) {
	if errParam := c.Query("error"); errParam != "" {
		ah.log.Warn("provider returned oauth error", "error", errParam)
		ah.redirectWithError(c, errParam)
		return
	}

	state := c.Query("state")
	cookieState, err := c.Cookie(stateCookie)
	if err != nil || state == "" || state != cookieState {
		ah.log.Warn("oauth state mismatch")
		ah.redirectWithError(c, "invalid_state")
		return
	}
	nonceHash, err := c.Cookie(nonceCookie)
	if err != nil || nonceHash == "" {
		ah.redirectWithError(c, "missing_nonce")
		return
	}
	ah.clearFlowCookies(c)

	code := c.Query("code")
	if code == "" {
		ah.redirectWithError(c, "missing_code")
		return
	}

	idToken, err := ah.oauth.ExchangeCode(c.Request.Context(), code)
	if err != nil {
		ah.log.Warn("code exchange failed", "error", err)
		ah.redirectWithError(c, "code_exchange_failed")
		return
	}

	res, err := ah.auth.LoginWithMicrosoftIDToken(c.Request.Context(), idToken, nonceHash)
	if err != nil {
		ah.log.Warn("id token login failed", "error", err)
		ah.redirectWithError(c, "authentication_failed")
		return
	}

	target := ah.frontendURL + "/auth/callback?token=" + url.QueryEscape(res.Token)
	c.Redirect(http.StatusFound, target)
}

// Nonce mints a single-use nonce for the native id_token exchange.
func (ah *AuthHandler) Nonce(c *gin.Context) {
	grant, err := ah.auth.IssueNonce(c.Request.Context())
	if err != nil {
		response.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"nonceId":   grant.NonceID,
		"nonce":     grant.Nonce,
		"expiresIn": grant.ExpiresIn,
	})
}

// ExchangeMicrosoft is the native flow: the client did the interactive login
// itself and trades the resulting id_token for a local session token.
func (ah *AuthHandler) ExchangeMicrosoft(c *gin.Context) {
	var req struct {
		IDToken string `json:"idToken"`
		NonceID string `json:"nonceId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, apierr.New(http.StatusBadRequest, "validation_failed", err))
		return
	}
	if req.IDToken == "" {
		response.RespondError(c, apierr.New(http.StatusBadRequest, "validation_failed", errors.New("idToken is required")))
		return
	}

	res, err := ah.auth.ExchangeMicrosoftIDToken(c.Request.Context(), req.IDToken, req.NonceID)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"token":     res.Token,
		"expiresIn": res.ExpiresIn,
		"user":      toUserPayload(res.User),
	})
}

// Me returns the authenticated user. RequireAuth already loaded a fresh
// record; the nil check mirrors a vanished-user race.
func (ah *AuthHandler) Me(c *gin.Context) {
	u := middleware.CurrentUser(c)
	if u == nil {
		response.RespondError(c, apierr.New(http.StatusNotFound, "user_not_found", errors.New("User not found")))
		return
	}
	c.JSON(http.StatusOK, toUserPayload(u))
}

func (ah *AuthHandler) redirectWithError(c *gin.Context, code string) {
	ah.clearFlowCookies(c)
	c.Redirect(http.StatusFound, ah.frontendURL+"/auth/callback?error="+url.QueryEscape(code))
}

func (ah *AuthHandler) clearFlowCookies(c *gin.Context) {
	c.SetCookie(stateCookie, "", -1, "/", "", false, true)
	c.SetCookie(nonceCookie, "", -1, "/", "", false, true)
}

func randomToken() (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}
