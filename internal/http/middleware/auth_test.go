package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"

	types "github.com/noteflow/noteflow-backend/internal/domain"
	"github.com/noteflow/noteflow-backend/internal/http/response"
	"github.com/noteflow/noteflow-backend/internal/platform/logger"
	"github.com/noteflow/noteflow-backend/internal/services"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	l, err := logger.New("dev")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	return l
}

type stubUserRepo struct {
	users map[string]*types.User
}

func (s *stubUserRepo) Create(ctx context.Context, u *types.User) (*types.User, error) {
	s.users[u.ID] = u
	return u, nil
}

func (s *stubUserRepo) GetByID(ctx context.Context, id string) (*types.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	cp := *u
	return &cp, nil
}

func (s *stubUserRepo) GetByEmail(ctx context.Context, email string) (*types.User, error) {
	for _, u := range s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (s *stubUserRepo) GetByMicrosoftID(ctx context.Context, microsoftID string) (*types.User, error) {
	for _, u := range s.users {
		if u.MicrosoftID == microsoftID {
			cp := *u
			return &cp, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (s *stubUserRepo) UpdateFields(ctx context.Context, id string, updates map[string]interface{}) error {
	if _, ok := s.users[id]; !ok {
		return mongo.ErrNoDocuments
	}
	return nil
}

func newAuthTestRouter(t *testing.T) (*gin.Engine, services.TokenService, *stubUserRepo) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	tokens, err := services.NewTokenService(testLogger(t), "middleware-test-secret", time.Hour)
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	users := &stubUserRepo{users: map[string]*types.User{}}
	am := NewAuthMiddleware(testLogger(t), tokens, users)

	r := gin.New()
	r.GET("/protected", am.RequireAuth(), func(c *gin.Context) {
		u := CurrentUser(c)
		if u == nil {
			c.String(http.StatusInternalServerError, "no user in context")
			return
		}
		c.String(http.StatusOK, u.ID)
	})
	return r, tokens, users
}

func authGet(r *gin.Engine, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestRequireAuthAcceptsValidToken(t *testing.T) {
	t.Parallel()
	r, tokens, users := newAuthTestRouter(t)

	users.users["u1"] = &types.User{ID: "u1", Email: "a@example.com", Enabled: true}
	tok, err := tokens.Generate(users.users["u1"])
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	rec := authGet(r, "Bearer "+tok)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if rec.Body.String() != "u1" {
		t.Errorf("expected handler to see user u1, got %q", rec.Body.String())
	}
}

func TestRequireAuthMissingHeader(t *testing.T) {
	t.Parallel()
	r, _, _ := newAuthTestRouter(t)

	rec := authGet(r, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rec.Code)
	}
	var env response.Envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decoding envelope: %v", err)
	}
	if env.Success {
		t.Error("expected success false")
	}
	if !strings.Contains(env.Message, "Unauthorized") {
		t.Errorf("unexpected message %q", env.Message)
	}
}

func TestRequireAuthRejectsGarbageToken(t *testing.T) {
	t.Parallel()
	r, _, _ := newAuthTestRouter(t)

	rec := authGet(r, "Bearer not.a.jwt")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rec.Code)
	}
}

func TestRequireAuthRejectsVanishedUser(t *testing.T) {
	t.Parallel()
	r, tokens, _ := newAuthTestRouter(t)

	tok, err := tokens.Generate(&types.User{ID: "ghost"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	rec := authGet(r, "Bearer "+tok)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "User not found") {
		t.Errorf("unexpected body %s", rec.Body.String())
	}
}

func TestRequireAuthRejectsDisabledUser(t *testing.T) {
	t.Parallel()
	r, tokens, users := newAuthTestRouter(t)

	users.users["u2"] = &types.User{ID: "u2", Email: "b@example.com", Enabled: false}
	tok, err := tokens.Generate(users.users["u2"])
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	rec := authGet(r, "Bearer "+tok)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "disabled") {
		t.Errorf("unexpected body %s", rec.Body.String())
	}
}
