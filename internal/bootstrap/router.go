package bootstrap

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	httpapi "github.com/staysite/site-sync-backend/internal/api/http"
	"github.com/staysite/site-sync-backend/internal/api/http/middleware"
	projectshttp "github.com/staysite/site-sync-backend/internal/projects/http"
	"github.com/staysite/site-sync-backend/internal/projects/service"
)

type RouterDeps struct {
	ServiceName string
	Version     string
	CORSOrigins []string
	// DB and Cache may be nil when the backend has nothing to ping.
	DB       httpapi.Pinger
	Cache    httpapi.Pinger
	Projects *service.ProjectService
}

func BuildRouter(dep RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     dep.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-Id", projectshttp.OwnerHeader},
		ExposeHeaders:    []string{"X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	healthHandler := httpapi.NewHealthHandler(dep.ServiceName, dep.Version, dep.DB, dep.Cache, dep.Projects)
	healthHandler.RegisterRoutes(r)

	api := r.Group("/api/v1")

	projectsGroup := api.Group("/projects")
	projectshttp.New(dep.Projects).Register(projectsGroup)

	return r
}
