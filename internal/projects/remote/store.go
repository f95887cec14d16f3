// Package remote is the network-backed document store of record for projects.
//
// Every method is fallible and honours ctx: a deadline or cancellation aborts
// the underlying request instead of letting it complete in the background.
// Errors are classified into domain.ErrNotFound, domain.ErrRemoteRejected and
// domain.ErrRemoteUnavailable so callers can choose a fallback with errors.Is.
package remote

import (
	"context"

	"github.com/staysite/site-sync-backend/internal/projects/domain"
)

// Store is the CRUD contract over the projects collection.
type Store interface {
	// Insert stores p. When p.ID is empty the store assigns one.
	Insert(ctx context.Context, p *domain.Project) (*domain.Project, error)
	SelectByID(ctx context.Context, id string) (*domain.Project, error)
	// SelectBySlug returns one project with slug. Slugs are not unique, so the
	// most recently updated match wins.
	SelectBySlug(ctx context.Context, slug string) (*domain.Project, error)
	SelectByOwner(ctx context.Context, ownerID string) ([]domain.Project, error)
	// Update and Delete only match a record owned by ownerID; a record with
	// another owner is reported as domain.ErrNotFound.
	Update(ctx context.Context, ownerID, id string, patch domain.ProjectPatch) (*domain.Project, error)
	Delete(ctx context.Context, ownerID, id string) error
}

// Unconfigured stands in for a store that has no connection settings. Every
// call fails with domain.ErrRemoteUnavailable so the coordinator degrades to
// the local cache.
type Unconfigured struct{}

var _ Store = Unconfigured{}

func (Unconfigured) Insert(context.Context, *domain.Project) (*domain.Project, error) {
	return nil, errUnconfigured
}

func (Unconfigured) SelectByID(context.Context, string) (*domain.Project, error) {
	return nil, errUnconfigured
}

func (Unconfigured) SelectBySlug(context.Context, string) (*domain.Project, error) {
	return nil, errUnconfigured
}

func (Unconfigured) SelectByOwner(context.Context, string) ([]domain.Project, error) {
	return nil, errUnconfigured
}

func (Unconfigured) Update(context.Context, string, string, domain.ProjectPatch) (*domain.Project, error) {
	return nil, errUnconfigured
}

func (Unconfigured) Delete(context.Context, string, string) error {
	return errUnconfigured
}
