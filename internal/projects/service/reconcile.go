package service

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/staysite/site-sync-backend/internal/logging"
	"github.com/staysite/site-sync-backend/internal/projects/domain"
	"github.com/staysite/site-sync-backend/internal/projects/remote"
)

// ReconcileResult summarizes one reconciliation pass.
type ReconcileResult struct {
	Pending int `json:"pending"`
	Pushed  int `json:"pushed"`
	Failed  int `json:"failed"`
}

// Reconcile pushes locally synthesized projects to the remote store. Each
// record is inserted under its local id; if that id already exists remotely
// the record is written as a full update instead. Records edited while the
// push was in flight stay local and are picked up by the next pass.
// limiter may be nil.
func (s *ProjectService) Reconcile(ctx context.Context, limiter *rate.Limiter) (ReconcileResult, error) {
	log := logging.FromContext(ctx, "reconcile")

	var pending []domain.Project
	for _, p := range s.cache.List(ctx) {
		if p.SyncState == domain.SyncStateLocal {
			pending = append(pending, p)
		}
	}
	res := ReconcileResult{Pending: len(pending)}
	if len(pending) == 0 {
		return res, nil
	}

	for i := range pending {
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return res, fmt.Errorf("reconcile rate limiter: %w", err)
			}
		}

		p := pending[i]
		if err := s.push(ctx, &p); err != nil {
			res.Failed++
			s.logFallback(log, "push", fmt.Errorf("project_id=%s: %w", p.ID, err))
			continue
		}
		if s.markSynced(ctx, p.ID, p.UpdatedAt) {
			res.Pushed++
			s.metrics.recordReconciled()
		}
	}

	log.Infof("reconcile", "pending=%d pushed=%d failed=%d", res.Pending, res.Pushed, res.Failed)
	return res, nil
}

func (s *ProjectService) push(ctx context.Context, p *domain.Project) error {
	record := p.Clone()
	record.SyncState = ""
	_, err := callRemote(ctx, s, "insert", s.opts.CreateTimeout, func(ctx context.Context) (*domain.Project, error) {
		return s.remote.Insert(ctx, record)
	})
	if err == nil || !remote.IsUniqueViolation(err) {
		return err
	}

	_, err = callRemote(ctx, s, "update", s.opts.UpdateTimeout, func(ctx context.Context) (*domain.Project, error) {
		return s.remote.Update(ctx, p.OwnerID, p.ID, fullPatch(p))
	})
	return err
}

// markSynced flips the cached record to synced unless it changed after the
// snapshot that was pushed.
func (s *ProjectService) markSynced(ctx context.Context, id string, pushedAt time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	projects := s.cache.List(ctx)
	i := indexByID(projects, id)
	if i < 0 || !projects[i].UpdatedAt.Equal(pushedAt) {
		return false
	}
	projects[i].SyncState = domain.SyncStateSynced
	if err := s.cache.Replace(ctx, projects); err != nil {
		logging.FromContext(ctx, "reconcile").Warnf("mark_synced", "project_id=%s cache write failed: %v", id, err)
		return false
	}
	return true
}

func fullPatch(p *domain.Project) domain.ProjectPatch {
	sections := domain.CloneSections(p.Sections)
	if sections == nil {
		sections = []domain.Section{}
	}
	name, slug, theme, layout := p.Name, p.Slug, p.Theme, p.LayoutType
	return domain.ProjectPatch{
		Name:       &name,
		Slug:       &slug,
		Sections:   &sections,
		Theme:      &theme,
		LayoutType: &layout,
	}
}
