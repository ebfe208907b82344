// Package testutil provides in-memory repo implementations for tests that
// exercise services and handlers without a running Mongo instance. They
// mirror the real repos' contract: misses return mongo.ErrNoDocuments.
package testutil

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"

	types "github.com/noteflow/noteflow-backend/internal/domain"
	"github.com/noteflow/noteflow-backend/internal/platform/logger"
)

func Logger(tb testing.TB) *logger.Logger {
	tb.Helper()
	l, err := logger.New("dev")
	if err != nil {
		tb.Fatalf("logger.New: %v", err)
	}
	return l
}

type MemUserRepo struct {
	mu    sync.Mutex
	Users map[string]*types.User
}

func NewMemUserRepo() *MemUserRepo {
	return &MemUserRepo{Users: map[string]*types.User{}}
}

func (r *MemUserRepo) Create(ctx context.Context, u *types.User) (*types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	cp := *u
	r.Users[u.ID] = &cp
	return u, nil
}

func (r *MemUserRepo) GetByID(ctx context.Context, id string) (*types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.Users[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	cp := *u
	return &cp, nil
}

func (r *MemUserRepo) GetByEmail(ctx context.Context, email string) (*types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.Users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (r *MemUserRepo) GetByMicrosoftID(ctx context.Context, microsoftID string) (*types.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.Users {
		if u.MicrosoftID == microsoftID {
			cp := *u
			return &cp, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (r *MemUserRepo) UpdateFields(ctx context.Context, id string, updates map[string]interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.Users[id]
	if !ok {
		return mongo.ErrNoDocuments
	}
	for k, v := range updates {
		switch k {
		case "email":
			u.Email = v.(string)
		case "microsoft_id":
			u.MicrosoftID = v.(string)
		case "provider":
			u.Provider = v.(string)
		case "enabled":
			u.Enabled = v.(bool)
		}
	}
	u.UpdatedAt = time.Now().UTC()
	return nil
}

type MemFileRepo struct {
	mu    sync.Mutex
	Files map[string]*types.FileMetadata
}

func NewMemFileRepo() *MemFileRepo {
	return &MemFileRepo{Files: map[string]*types.FileMetadata{}}
}

func (r *MemFileRepo) Create(ctx context.Context, m *types.FileMetadata) (*types.FileMetadata, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
	m.UpdatedAt = now
	cp := *m
	r.Files[m.ID] = &cp
	return m, nil
}

func (r *MemFileRepo) GetByID(ctx context.Context, id string) (*types.FileMetadata, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.Files[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	cp := *m
	return &cp, nil
}

func (r *MemFileRepo) ListByUploader(ctx context.Context, userID string) ([]*types.FileMetadata, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*types.FileMetadata{}
	for _, m := range r.Files {
		if m.UploadedBy == userID {
			cp := *m
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *MemFileRepo) UpdateFields(ctx context.Context, id string, updates map[string]interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.Files[id]
	if !ok {
		return mongo.ErrNoDocuments
	}
	for k, v := range updates {
		switch k {
		case "processed":
			m.Processed = v.(bool)
		case "cloud_url":
			m.CloudURL = v.(string)
		case "cloud_object_id":
			m.CloudObjectID = v.(string)
		}
	}
	m.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *MemFileRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.Files[id]; !ok {
		return mongo.ErrNoDocuments
	}
	delete(r.Files, id)
	return nil
}

type MemJobRepo struct {
	mu   sync.Mutex
	Jobs map[string]*types.Job
}

func NewMemJobRepo() *MemJobRepo {
	return &MemJobRepo{Jobs: map[string]*types.Job{}}
}

func (r *MemJobRepo) Create(ctx context.Context, j *types.Job) (*types.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if j.ID == "" {
		j.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if j.CreatedAt.IsZero() {
		j.CreatedAt = now
	}
	j.UpdatedAt = now
	cp := *j
	r.Jobs[j.ID] = &cp
	return j, nil
}

func (r *MemJobRepo) GetByID(ctx context.Context, id string) (*types.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.Jobs[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	cp := *j
	return &cp, nil
}

func (r *MemJobRepo) ListByUser(ctx context.Context, userID string, page, size int) ([]*types.Job, error) {
	return r.list(func(j *types.Job) bool { return j.UserID == userID }, page, size)
}

func (r *MemJobRepo) ListByUserAndStatus(ctx context.Context, userID string, status types.JobStatus, page, size int) ([]*types.Job, error) {
	return r.list(func(j *types.Job) bool { return j.UserID == userID && j.Status == status }, page, size)
}

func (r *MemJobRepo) list(match func(*types.Job) bool, page, size int) ([]*types.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := []*types.Job{}
	for _, j := range r.Jobs {
		if match(j) {
			cp := *j
			all = append(all, &cp)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	start := page * size
	if start >= len(all) {
		return []*types.Job{}, nil
	}
	end := start + size
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], nil
}

func (r *MemJobRepo) UpdateFields(ctx context.Context, id string, updates map[string]interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.Jobs[id]
	if !ok {
		return mongo.ErrNoDocuments
	}
	for k, v := range updates {
		switch k {
		case "status":
			j.Status = v.(types.JobStatus)
		case "progress":
			j.Progress = v.(int)
		case "error_message":
			j.ErrorMessage = v.(string)
		case "result_page_url":
			j.ResultPageURL = v.(string)
		case "generated_notes":
			j.GeneratedNotes = v.(string)
		case "transcribed_text":
			j.TranscribedText = v.(string)
		case "completed_at":
			t := v.(time.Time)
			j.CompletedAt = &t
		}
	}
	j.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *MemJobRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.Jobs[id]; !ok {
		return mongo.ErrNoDocuments
	}
	delete(r.Jobs, id)
	return nil
}

type MemNonceRepo struct {
	mu     sync.Mutex
	Nonces map[string]*types.OAuthNonce
}

func NewMemNonceRepo() *MemNonceRepo {
	return &MemNonceRepo{Nonces: map[string]*types.OAuthNonce{}}
}

func (r *MemNonceRepo) Create(ctx context.Context, n *types.OAuthNonce) (*types.OAuthNonce, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	n.CreatedAt = time.Now().UTC()
	cp := *n
	r.Nonces[n.ID] = &cp
	return n, nil
}

func (r *MemNonceRepo) GetByID(ctx context.Context, id string) (*types.OAuthNonce, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.Nonces[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	cp := *n
	return &cp, nil
}

func (r *MemNonceRepo) MarkUsed(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.Nonces[id]
	if !ok || n.UsedAt != nil {
		return fmt.Errorf("nonce already used or not found")
	}
	now := time.Now().UTC()
	n.UsedAt = &now
	return nil
}

func (r *MemNonceRepo) DeleteExpired(ctx context.Context, before time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, n := range r.Nonces {
		if n.ExpiresAt.Before(before) {
			delete(r.Nonces, id)
		}
	}
	return nil
}
