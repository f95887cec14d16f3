package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/staysite/site-sync-backend/internal/projects/cache"
	"github.com/staysite/site-sync-backend/internal/projects/domain"
	"github.com/staysite/site-sync-backend/internal/projects/remote"
	"github.com/staysite/site-sync-backend/internal/projects/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type envelope struct {
	OK       bool             `json:"ok"`
	Error    string           `json:"error"`
	Project  *domain.Project  `json:"project"`
	Projects []domain.Project `json:"projects"`
}

func setupRouter(svc ProjectService) *gin.Engine {
	r := gin.New()
	New(svc).Register(r.Group("/api/v1/projects"))
	return r
}

func newOfflineService(t *testing.T) *service.ProjectService {
	svc := service.NewProjectService(remote.Unconfigured{}, cache.NewMemory(), service.Options{})
	t.Cleanup(svc.Wait)
	return svc
}

func do(t *testing.T, r *gin.Engine, method, path, owner string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if owner != "" {
		req.Header.Set(OwnerHeader, owner)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w, env
}

func TestProjectsAPI_Lifecycle(t *testing.T) {
	r := setupRouter(newOfflineService(t))

	w, env := do(t, r, http.MethodPost, "/api/v1/projects", "owner-1", map[string]any{
		"name": "Casa Azul",
		"sections": []map[string]any{
			{"id": "sec_1", "type": "HERO", "props": map[string]any{"title": "Welcome", "isActive": true, "order": 4}},
		},
		"theme": map[string]any{"accent": "coral", "font": "lora"},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	require.True(t, env.OK)
	created := env.Project
	require.NotNil(t, created)
	assert.Equal(t, "casa-azul", created.Slug)
	assert.Equal(t, 0, created.Sections[0].Order())
	assert.Equal(t, "Welcome", created.Sections[0].Props.(*domain.HeroProps).Title)

	w, env = do(t, r, http.MethodGet, "/api/v1/projects/"+created.ID, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, created.ID, env.Project.ID)

	w, env = do(t, r, http.MethodGet, "/api/v1/projects/by-slug/casa-azul", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, created.ID, env.Project.ID)

	w, env = do(t, r, http.MethodPatch, "/api/v1/projects/"+created.ID, "owner-1", map[string]any{
		"name":     "Casa Nova",
		"sections": []any{},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Casa Nova", env.Project.Name)
	assert.Empty(t, env.Project.Sections)
	assert.Equal(t, domain.Theme{Accent: domain.AccentCoral, Font: domain.FontLora}, env.Project.Theme)

	w, env = do(t, r, http.MethodGet, "/api/v1/projects", "owner-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, env.Projects, 1)
	assert.Equal(t, "Casa Nova", env.Projects[0].Name)

	w, _ = do(t, r, http.MethodDelete, "/api/v1/projects/"+created.ID, "owner-1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, env = do(t, r, http.MethodGet, "/api/v1/projects/"+created.ID, "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.False(t, env.OK)
}

func TestProjectsAPI_Validation(t *testing.T) {
	r := setupRouter(newOfflineService(t))

	tests := []struct {
		name   string
		method string
		path   string
		owner  string
		body   any
		status int
	}{
		{"create without owner", http.MethodPost, "/api/v1/projects", "", map[string]any{"name": "x"}, http.StatusUnauthorized},
		{"list without owner", http.MethodGet, "/api/v1/projects", "", nil, http.StatusUnauthorized},
		{"unknown section type", http.MethodPost, "/api/v1/projects", "owner-1",
			map[string]any{"sections": []map[string]any{{"id": "s", "type": "MARQUEE"}}}, http.StatusBadRequest},
		{"invalid accent", http.MethodPost, "/api/v1/projects", "owner-1",
			map[string]any{"theme": map[string]any{"accent": "neon", "font": "inter"}}, http.StatusBadRequest},
		{"invalid layout patch", http.MethodPatch, "/api/v1/projects/p-1", "owner-1",
			map[string]any{"layoutType": "brutalist"}, http.StatusBadRequest},
		{"missing by id", http.MethodGet, "/api/v1/projects/nope", "", nil, http.StatusNotFound},
		{"missing by slug", http.MethodGet, "/api/v1/projects/by-slug/nope", "", nil, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, env := do(t, r, tt.method, tt.path, tt.owner, tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			assert.False(t, env.OK)
			assert.NotEmpty(t, env.Error)
		})
	}
}

func TestProjectsAPI_UpdateOrCreate(t *testing.T) {
	r := setupRouter(newOfflineService(t))

	w, env := do(t, r, http.MethodPatch, "/api/v1/projects/draft-7", "owner-1", map[string]any{"name": "Recovered"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "draft-7", env.Project.ID)
	assert.Equal(t, domain.SyncStateLocal, env.Project.SyncState)
}

type brokenService struct{ ProjectService }

func (brokenService) ListUserProjects(context.Context, string) ([]domain.Project, error) {
	return nil, errors.New("cache write failed")
}

func TestProjectsAPI_OtherOwnerIsNotFound(t *testing.T) {
	r := setupRouter(newOfflineService(t))

	w, env := do(t, r, http.MethodPost, "/api/v1/projects", "owner-1", map[string]any{"name": "Casa"})
	require.Equal(t, http.StatusCreated, w.Code)
	path := "/api/v1/projects/" + env.Project.ID

	w, _ = do(t, r, http.MethodPatch, path, "owner-2", map[string]any{"name": "hijacked"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = do(t, r, http.MethodDelete, path, "owner-2", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, env = do(t, r, http.MethodGet, path, "owner-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Casa", env.Project.Name)
}

func TestProjectsAPI_InternalError(t *testing.T) {
	r := setupRouter(brokenService{})
	w, env := do(t, r, http.MethodGet, "/api/v1/projects", "owner-1", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "cache write failed", env.Error)
}
