package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/staysite/site-sync-backend/internal/projects/service"
)

// Pinger is satisfied by *sql.DB, the remote store and the cache backends.
type Pinger interface {
	Ping(ctx context.Context) error
}

// MetricsSource reports sync coordinator counters.
type MetricsSource interface {
	Metrics() service.MetricsSnapshot
}

type SyncStatus struct {
	service.MetricsSnapshot
	AvgRemoteLatencyMs float64 `json:"avg_remote_latency_ms"`
	RemoteErrorRatePct float64 `json:"remote_error_rate_pct"`
}

type HealthResponse struct {
	Status    string      `json:"status"`
	Timestamp time.Time   `json:"timestamp"`
	Service   string      `json:"service"`
	Version   string      `json:"version"`
	DB        string      `json:"db,omitempty"`
	Cache     string      `json:"cache,omitempty"`
	Sync      *SyncStatus `json:"sync,omitempty"`
}

type HealthHandler struct {
	serviceName string
	version     string
	db          Pinger
	cache       Pinger
	metrics     MetricsSource
}

// NewHealthHandler builds the health endpoint. db, cache and metrics may be nil.
func NewHealthHandler(serviceName, version string, db, cache Pinger, metrics MetricsSource) *HealthHandler {
	return &HealthHandler{
		serviceName: serviceName,
		version:     version,
		db:          db,
		cache:       cache,
		metrics:     metrics,
	}
}

func ping(ctx context.Context, p Pinger) string {
	if p == nil {
		return "disabled"
	}
	pingCtx, cancel := context.WithTimeout(ctx, 1*time.Second)
	defer cancel()

	if err := p.Ping(pingCtx); err != nil {
		return "down"
	}
	return "up"
}

// HealthCheck always answers 200: a down remote store degrades the service
// to local-only operation, it does not make it unhealthy.
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	resp := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Service:   h.serviceName,
		Version:   h.version,
		DB:        ping(c.Request.Context(), h.db),
		Cache:     ping(c.Request.Context(), h.cache),
	}
	if resp.DB == "down" {
		resp.Status = "degraded"
	}
	if h.metrics != nil {
		snap := h.metrics.Metrics()
		resp.Sync = &SyncStatus{
			MetricsSnapshot:    snap,
			AvgRemoteLatencyMs: snap.AverageRemoteLatency(),
			RemoteErrorRatePct: snap.RemoteErrorRate(),
		}
	}

	c.JSON(http.StatusOK, resp)
}

func (h *HealthHandler) RegisterRoutes(r gin.IRouter) {
	r.GET("/health", h.HealthCheck)
	r.GET("/healthz", h.HealthCheck)
}
