package http

import (
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

type pingFunc func(context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealthCheck(t *testing.T) {
	gin.SetMode(gin.TestMode)

	svc := service.NewProjectService(remote.Unconfigured{}, cache.NewMemory(), service.Options{})
	_, err := svc.CreateProject(context.Background(), "owner-1", domain.CreateInput{Name: "Casa"})
	require.NoError(t, err)

	tests := []struct {
		name       string
		db         Pinger
		wantStatus string
		wantDB     string
	}{
		{"db disabled", nil, "healthy", "disabled"},
		{"db up", pingFunc(func(context.Context) error { return nil }), "healthy", "up"},
		{"db down", pingFunc(func(context.Context) error { return errors.New("refused") }), "degraded", "down"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			NewHealthHandler("site-sync", "test", tt.db, nil, svc).RegisterRoutes(r)

			for _, path := range []string{"/health", "/healthz"} {
				w := httptest.NewRecorder()
				r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
				require.Equal(t, http.StatusOK, w.Code)

				var resp HealthResponse
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
				assert.Equal(t, tt.wantStatus, resp.Status)
				assert.Equal(t, tt.wantDB, resp.DB)
				assert.Equal(t, "disabled", resp.Cache)
				assert.Equal(t, "site-sync", resp.Service)
				require.NotNil(t, resp.Sync)
				assert.Equal(t, int64(1), resp.Sync.Fallbacks)
				assert.Equal(t, float64(100), resp.Sync.RemoteErrorRatePct)
			}
		})
	}
}
