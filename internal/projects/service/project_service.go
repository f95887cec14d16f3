// Package service is the sync coordinator between the remote store and the
// local cache. Remote failures never reach the caller: every operation
// degrades to a locally consistent result and logs the fallback.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/staysite/site-sync-backend/internal/logging"
	"github.com/staysite/site-sync-backend/internal/projects/cache"
	"github.com/staysite/site-sync-backend/internal/projects/domain"
	"github.com/staysite/site-sync-backend/internal/projects/remote"
)

// Options configures remote call bounds and the clock.
type Options struct {
	GetTimeout    time.Duration
	ListTimeout   time.Duration
	CreateTimeout time.Duration
	UpdateTimeout time.Duration
	DeleteTimeout time.Duration

	// Now defaults to time.Now.
	Now func() time.Time
	// NewID generates ids for locally synthesized projects.
	NewID func() string
}

func DefaultOptions() Options {
	return Options{
		GetTimeout:    5 * time.Second,
		ListTimeout:   2 * time.Second,
		CreateTimeout: 10 * time.Second,
		UpdateTimeout: 10 * time.Second,
		DeleteTimeout: 10 * time.Second,
		Now:           time.Now,
		NewID:         domain.NewProjectID,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.GetTimeout <= 0 {
		o.GetTimeout = d.GetTimeout
	}
	if o.ListTimeout <= 0 {
		o.ListTimeout = d.ListTimeout
	}
	if o.CreateTimeout <= 0 {
		o.CreateTimeout = d.CreateTimeout
	}
	if o.UpdateTimeout <= 0 {
		o.UpdateTimeout = d.UpdateTimeout
	}
	if o.DeleteTimeout <= 0 {
		o.DeleteTimeout = d.DeleteTimeout
	}
	if o.Now == nil {
		o.Now = d.Now
	}
	if o.NewID == nil {
		o.NewID = d.NewID
	}
	return o
}

// ProjectService handles project persistence across the remote store and the
// local cache. Construct one per process and share it.
type ProjectService struct {
	remote  remote.Store
	cache   cache.Cache
	opts    Options
	metrics *Metrics

	// mu serializes every cache read-modify-write cycle.
	mu sync.Mutex
	bg sync.WaitGroup
}

// NewProjectService creates a new project service
func NewProjectService(store remote.Store, c cache.Cache, opts Options) *ProjectService {
	if store == nil {
		store = remote.Unconfigured{}
	}
	return &ProjectService{
		remote:  store,
		cache:   c,
		opts:    opts.withDefaults(),
		metrics: &Metrics{},
	}
}

// Metrics returns a snapshot of remote call and fallback counters.
func (s *ProjectService) Metrics() MetricsSnapshot {
	return s.metrics.Snapshot()
}

// Wait blocks until background remote deletes have finished.
func (s *ProjectService) Wait() {
	s.bg.Wait()
}

// CreateProject inserts a project remotely and caches it. When the remote
// store fails the project is synthesized locally with a generated id and
// marked for reconciliation; the caller still gets a usable project.
func (s *ProjectService) CreateProject(ctx context.Context, ownerID string, in domain.CreateInput) (*domain.Project, error) {
	if ownerID == "" {
		return nil, domain.ErrOwnerRequired
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	log := logging.FromContext(ctx, "sync")

	proj := domain.NewProject(ownerID, "", in, s.opts.Now())
	draft := proj.Clone()
	created, err := callRemote(ctx, s, "insert", s.opts.CreateTimeout, func(ctx context.Context) (*domain.Project, error) {
		return s.remote.Insert(ctx, draft)
	})
	if err == nil && created == nil {
		err = fmt.Errorf("insert: %w: empty response", domain.ErrRemoteUnavailable)
	}
	if err != nil {
		s.logFallback(log, "create", err)
		proj.ID = s.opts.NewID()
		proj.SyncState = domain.SyncStateLocal
	} else {
		proj = created
		proj.SyncState = domain.SyncStateSynced
	}

	if err := s.upsertCached(ctx, proj); err != nil {
		log.Warnf("create", "project_id=%s cache write failed: %v", proj.ID, err)
	}
	log.Infof("create", "project_id=%s owner=%s slug=%s sync_state=%s", proj.ID, ownerID, proj.Slug, proj.SyncState)
	return proj.Clone(), nil
}

// GetProject returns the project with id from the remote store, falling back
// to the local cache. It returns (nil, nil) when neither has it.
func (s *ProjectService) GetProject(ctx context.Context, id string) (*domain.Project, error) {
	if id == "" {
		return nil, domain.ErrIDRequired
	}
	log := logging.FromContext(ctx, "sync")

	p, err := callRemote(ctx, s, "select_by_id", s.opts.GetTimeout, func(ctx context.Context) (*domain.Project, error) {
		return s.remote.SelectByID(ctx, id)
	})
	if err == nil && p != nil {
		p.SyncState = domain.SyncStateSynced
		return p, nil
	}
	if err == nil {
		err = domain.ErrNotFound
	}
	s.logLookupMiss(log, "get", "id="+id, err)

	cached := s.cache.List(ctx)
	if i := indexByID(cached, id); i >= 0 {
		return cached[i].Clone(), nil
	}
	return nil, nil
}

// GetProjectBySlug is GetProject keyed by slug. When several cached records
// share the slug the most recently updated one is returned.
func (s *ProjectService) GetProjectBySlug(ctx context.Context, slug string) (*domain.Project, error) {
	if slug == "" {
		return nil, fmt.Errorf("%w: slug required", domain.ErrInvalidProject)
	}
	log := logging.FromContext(ctx, "sync")

	p, err := callRemote(ctx, s, "select_by_slug", s.opts.GetTimeout, func(ctx context.Context) (*domain.Project, error) {
		return s.remote.SelectBySlug(ctx, slug)
	})
	if err == nil && p != nil {
		p.SyncState = domain.SyncStateSynced
		return p, nil
	}
	if err == nil {
		err = domain.ErrNotFound
	}
	s.logLookupMiss(log, "get_by_slug", "slug="+slug, err)

	cached := s.cache.List(ctx)
	if i := newestBySlug(cached, slug); i >= 0 {
		return cached[i].Clone(), nil
	}
	return nil, nil
}

// ListUserProjects merges the owner's cached projects with the remote listing.
// If the remote store errors or exceeds the list bound the cached projects are
// returned alone.
func (s *ProjectService) ListUserProjects(ctx context.Context, ownerID string) ([]domain.Project, error) {
	if ownerID == "" {
		return nil, domain.ErrOwnerRequired
	}
	log := logging.FromContext(ctx, "sync")

	local := ownedBy(s.cache.List(ctx), ownerID)

	fromRemote, err := callRemote(ctx, s, "select_by_owner", s.opts.ListTimeout, func(ctx context.Context) ([]domain.Project, error) {
		return s.remote.SelectByOwner(ctx, ownerID)
	})
	if err != nil {
		s.logFallback(log, "list", err)
		sortNewestFirst(local)
		return local, nil
	}

	fromRemote = ownedBy(fromRemote, ownerID)
	for i := range fromRemote {
		fromRemote[i].SyncState = domain.SyncStateSynced
	}
	merged := MergeProjects(local, fromRemote)
	log.Debugf("list", "owner=%s local=%d remote=%d merged=%d", ownerID, len(local), len(fromRemote), len(merged))
	return merged, nil
}

// UpdateProject applies patch remotely and writes the result through to the
// cache. On any remote error, including NotFound, the patch is merged into the
// cached copy instead. Without a cached copy a project is synthesized under
// the same id, so a draft whose first create failed still converges.
//
// A cached copy still marked local holds edits the remote store has not seen.
// The patch is merged into it and the whole record is pushed, so those edits
// are never replaced by the older remote copy.
func (s *ProjectService) UpdateProject(ctx context.Context, ownerID, id string, patch domain.ProjectPatch) (*domain.Project, error) {
	if ownerID == "" {
		return nil, domain.ErrOwnerRequired
	}
	if id == "" {
		return nil, domain.ErrIDRequired
	}
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	patch = patch.Normalized()
	log := logging.FromContext(ctx, "sync")

	if s.hasLocalEdits(ctx, id) {
		return s.updatePending(ctx, ownerID, id, patch)
	}

	updated, err := callRemote(ctx, s, "update", s.opts.UpdateTimeout, func(ctx context.Context) (*domain.Project, error) {
		return s.remote.Update(ctx, ownerID, id, patch)
	})
	if err == nil && updated == nil {
		err = fmt.Errorf("update: %w: empty response", domain.ErrRemoteUnavailable)
	}
	if err == nil {
		updated.SyncState = domain.SyncStateSynced
		p, err := s.writeThrough(ctx, updated, patch)
		if err != nil {
			log.Warnf("update", "project_id=%s cache write-through failed: %v", id, err)
			return updated.Clone(), nil
		}
		return p, nil
	}
	s.logFallback(log, "update", err)

	return s.updateLocal(ctx, ownerID, id, patch)
}

// hasLocalEdits reports whether the cached copy of id still needs pushing.
func (s *ProjectService) hasLocalEdits(ctx context.Context, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	cached := s.cache.List(ctx)
	i := indexByID(cached, id)
	return i >= 0 && cached[i].SyncState == domain.SyncStateLocal
}

// updatePending merges patch into an unpushed cached record and then pushes
// the full record. A failed push leaves it local for Reconcile.
func (s *ProjectService) updatePending(ctx context.Context, ownerID, id string, patch domain.ProjectPatch) (*domain.Project, error) {
	log := logging.FromContext(ctx, "sync")

	p, err := s.updateLocal(ctx, ownerID, id, patch)
	if err != nil {
		return nil, err
	}
	if err := s.push(ctx, p); err != nil {
		s.logFallback(log, "update", fmt.Errorf("project_id=%s push pending edits: %w", id, err))
		return p, nil
	}
	if s.markSynced(ctx, p.ID, p.UpdatedAt) {
		s.metrics.recordReconciled()
		p.SyncState = domain.SyncStateSynced
	}
	log.Debugf("update", "project_id=%s pushed pending local edits sync_state=%s", id, p.SyncState)
	return p, nil
}

// writeThrough caches the remote result of an update. If the cached copy
// turned local in the meantime the patch is merged into it instead, and a
// cached copy newer than updated is kept so UpdatedAt never moves back.
func (s *ProjectService) writeThrough(ctx context.Context, updated *domain.Project, patch domain.ProjectPatch) (*domain.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	projects := s.cache.List(ctx)
	i := indexByID(projects, updated.ID)
	switch {
	case i < 0:
		projects = append(projects, *updated.Clone())
		i = len(projects) - 1
	case projects[i].SyncState == domain.SyncStateLocal:
		patch.Apply(&projects[i], s.opts.Now())
	case projects[i].UpdatedAt.After(updated.UpdatedAt):
		return projects[i].Clone(), nil
	default:
		projects[i] = *updated.Clone()
	}

	if err := s.cache.Replace(ctx, projects); err != nil {
		return nil, err
	}
	return projects[i].Clone(), nil
}

func (s *ProjectService) updateLocal(ctx context.Context, ownerID, id string, patch domain.ProjectPatch) (*domain.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.opts.Now()
	projects := s.cache.List(ctx)

	var proj domain.Project
	if i := indexByID(projects, id); i >= 0 {
		if owner := projects[i].OwnerID; owner != "" && owner != ownerID {
			return nil, fmt.Errorf("project %s: %w", id, domain.ErrNotFound)
		}
		patch.Apply(&projects[i], now)
		projects[i].OwnerID = ownerID
		projects[i].SyncState = domain.SyncStateLocal
		proj = projects[i]
	} else {
		proj = *domain.NewProject(ownerID, id, patch.CreateInput(), now)
		proj.SyncState = domain.SyncStateLocal
		projects = append(projects, proj)
		logging.FromContext(ctx, "sync").Infof("update", "project_id=%s not cached, synthesized locally", id)
	}

	if err := s.cache.Replace(ctx, projects); err != nil {
		return nil, fmt.Errorf("update project %s locally: %w", id, err)
	}
	return proj.Clone(), nil
}

// DeleteProject removes the owner's project from the cache immediately and
// deletes it remotely in the background. A remote failure is logged and never
// restores the cached entry. A cached project of another owner is NotFound.
func (s *ProjectService) DeleteProject(ctx context.Context, ownerID, id string) error {
	if ownerID == "" {
		return domain.ErrOwnerRequired
	}
	if id == "" {
		return domain.ErrIDRequired
	}
	log := logging.FromContext(ctx, "sync")

	s.mu.Lock()
	projects := s.cache.List(ctx)
	if i := indexByID(projects, id); i >= 0 {
		if owner := projects[i].OwnerID; owner != "" && owner != ownerID {
			s.mu.Unlock()
			return fmt.Errorf("project %s: %w", id, domain.ErrNotFound)
		}
		projects = append(projects[:i], projects[i+1:]...)
		if err := s.cache.Replace(ctx, projects); err != nil {
			s.mu.Unlock()
			return fmt.Errorf("delete project %s locally: %w", id, err)
		}
	}
	s.mu.Unlock()

	bgCtx := context.WithoutCancel(ctx)
	s.bg.Add(1)
	go func() {
		defer s.bg.Done()
		_, err := callRemote(bgCtx, s, "delete", s.opts.DeleteTimeout, func(ctx context.Context) (struct{}, error) {
			return struct{}{}, s.remote.Delete(ctx, ownerID, id)
		})
		switch {
		case err == nil:
			log.Infof("delete", "project_id=%s owner=%s deleted", id, ownerID)
		case errors.Is(err, domain.ErrNotFound):
			log.Debugf("delete", "project_id=%s owner=%s not present remotely", id, ownerID)
		default:
			s.logFallback(log, "delete", err)
		}
	}()
	return nil
}

// upsertCached replaces the cached record with p's id, or appends p.
func (s *ProjectService) upsertCached(ctx context.Context, p *domain.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	projects := s.cache.List(ctx)
	if i := indexByID(projects, p.ID); i >= 0 {
		projects[i] = *p.Clone()
	} else {
		projects = append(projects, *p.Clone())
	}
	return s.cache.Replace(ctx, projects)
}

func (s *ProjectService) logFallback(log *logging.Logger, op string, err error) {
	s.metrics.recordFallback()
	if errors.Is(err, domain.ErrRemoteRejected) {
		log.Errorf(op, "class=rejected falling back to local cache: %v", err)
		return
	}
	log.Warnf(op, "class=unavailable falling back to local cache: %v", err)
}

func (s *ProjectService) logLookupMiss(log *logging.Logger, op, key string, err error) {
	if errors.Is(err, domain.ErrNotFound) {
		log.Debugf(op, "%s not found remotely, checking local cache", key)
		return
	}
	s.logFallback(log, op, err)
}

type remoteResult[T any] struct {
	val T
	err error
}

// callRemote runs fn under a deadline of timeout. The deadline is propagated
// to fn so the store aborts the request; the caller stops waiting at the
// deadline even if fn does not return promptly, and any late result is
// dropped.
func callRemote[T any](ctx context.Context, s *ProjectService, op string, timeout time.Duration, fn func(context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	done := make(chan remoteResult[T], 1)
	go func() {
		v, err := fn(ctx)
		done <- remoteResult[T]{val: v, err: err}
	}()

	var res remoteResult[T]
	select {
	case res = <-done:
	case <-ctx.Done():
		res.err = ctx.Err()
	}
	res.err = classifyRemote(op, res.err)
	s.metrics.recordRemoteCall(time.Since(start), res.err)

	if res.err != nil {
		var zero T
		return zero, res.err
	}
	return res.val, nil
}

// classifyRemote makes sure every failure carries one of the domain classes.
func classifyRemote(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrRemoteRejected),
		errors.Is(err, domain.ErrRemoteUnavailable):
		return err
	default:
		return fmt.Errorf("%s: %w: %w", op, domain.ErrRemoteUnavailable, err)
	}
}
