package http

import (
	"context"

	"github.com/staysite/site-sync-backend/internal/projects/domain"
)

// ProjectService is the sync coordinator surface the handlers expose.
type ProjectService interface {
	CreateProject(ctx context.Context, ownerID string, in domain.CreateInput) (*domain.Project, error)
	GetProject(ctx context.Context, id string) (*domain.Project, error)
	GetProjectBySlug(ctx context.Context, slug string) (*domain.Project, error)
	ListUserProjects(ctx context.Context, ownerID string) ([]domain.Project, error)
	UpdateProject(ctx context.Context, ownerID, id string, patch domain.ProjectPatch) (*domain.Project, error)
	DeleteProject(ctx context.Context, ownerID, id string) error
}

// Handler bundles the dependencies for projects HTTP endpoints.
type Handler struct {
	svc ProjectService
}

func New(svc ProjectService) *Handler {
	return &Handler{svc: svc}
}
