package bootstrap

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/staysite/site-sync-backend/config"
	"github.com/staysite/site-sync-backend/internal/projects/remote"
	"github.com/staysite/site-sync-backend/internal/projects/service"
)

func TestBuildRouter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ctx := context.Background()

	store, pg, db, err := OpenRemote(ctx, DBOptions{Config: &config.DatabaseConfig{}})
	require.NoError(t, err)
	assert.IsType(t, remote.Unconfigured{}, store)
	assert.Nil(t, pg)
	assert.Nil(t, db)

	opened, err := OpenCache(ctx, config.CacheConfig{Backend: "memory"})
	require.NoError(t, err)
	assert.Nil(t, opened.Pinger)

	svc := service.NewProjectService(store, opened.Cache, service.Options{})
	t.Cleanup(svc.Wait)

	r := BuildRouter(RouterDeps{
		ServiceName: "site-sync",
		Version:     "test",
		CORSOrigins: []string{"http://localhost:3000"},
		Projects:    svc,
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-Id"))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/projects", strings.NewReader(`{"name":"Casa"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-Id", "owner-1")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusCreated, w.Code)

	req = httptest.NewRequest(http.MethodOptions, "/api/v1/projects", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "PATCH")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestOpenCache(t *testing.T) {
	ctx := context.Background()

	opened, err := OpenCache(ctx, config.CacheConfig{Backend: "sqlite", SQLitePath: t.TempDir() + "/cache.db"})
	require.NoError(t, err)
	require.NotNil(t, opened.Pinger)
	assert.NoError(t, opened.Pinger.Ping(ctx))
	assert.NoError(t, opened.Closer.Close())

	_, err = OpenCache(ctx, config.CacheConfig{Backend: "etcd"})
	assert.Error(t, err)
}
