package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/staysite/site-sync-backend/internal/projects/domain"
	"github.com/staysite/site-sync-backend/internal/projects/remote"
)

// fakeStore is an in-memory remote.Store with injectable failures and latency.
type fakeStore struct {
	mu        sync.Mutex
	projects  map[string]domain.Project
	err       error
	delay     time.Duration
	delays    []time.Duration
	calls     map[string]int
	cancelled int
}

var _ remote.Store = (*fakeStore)(nil)

func newFakeStore() *fakeStore {
	return &fakeStore{
		projects: map[string]domain.Project{},
		calls:    map[string]int{},
	}
}

func (f *fakeStore) setErr(err error) {
	f.mu.Lock()
	f.err = err
	f.mu.Unlock()
}

func (f *fakeStore) setDelay(d time.Duration) {
	f.mu.Lock()
	f.delay = d
	f.mu.Unlock()
}

// queueDelays sets the latency of the next calls in order; later calls fall
// back to the fixed delay.
func (f *fakeStore) queueDelays(ds ...time.Duration) {
	f.mu.Lock()
	f.delays = append(f.delays, ds...)
	f.mu.Unlock()
}

func (f *fakeStore) callCount(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeStore) cancelledCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cancelled
}

func (f *fakeStore) get(id string) (domain.Project, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.projects[id]
	return p, ok
}

func (f *fakeStore) put(p domain.Project) {
	f.mu.Lock()
	f.projects[p.ID] = *p.Clone()
	f.mu.Unlock()
}

func (f *fakeStore) enter(ctx context.Context, op string) error {
	f.mu.Lock()
	f.calls[op]++
	err, delay := f.err, f.delay
	if len(f.delays) > 0 {
		delay, f.delays = f.delays[0], f.delays[1:]
	}
	f.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			f.mu.Lock()
			f.cancelled++
			f.mu.Unlock()
			return ctx.Err()
		}
	}
	return err
}

func (f *fakeStore) Insert(ctx context.Context, p *domain.Project) (*domain.Project, error) {
	if err := f.enter(ctx, "insert"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	cp := *p.Clone()
	if cp.ID == "" {
		cp.ID = uuid.NewString()
	}
	if _, exists := f.projects[cp.ID]; exists {
		return nil, fmt.Errorf("insert: %w: %w", domain.ErrRemoteRejected, &pq.Error{Code: "23505", Message: "duplicate key"})
	}
	cp.SyncState = ""
	f.projects[cp.ID] = cp
	return cp.Clone(), nil
}

func (f *fakeStore) SelectByID(ctx context.Context, id string) (*domain.Project, error) {
	if err := f.enter(ctx, "select_by_id"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.projects[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return p.Clone(), nil
}

func (f *fakeStore) SelectBySlug(ctx context.Context, slug string) (*domain.Project, error) {
	if err := f.enter(ctx, "select_by_slug"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var best *domain.Project
	for _, p := range f.projects {
		if p.Slug == slug && (best == nil || p.UpdatedAt.After(best.UpdatedAt)) {
			best = p.Clone()
		}
	}
	if best == nil {
		return nil, domain.ErrNotFound
	}
	return best, nil
}

func (f *fakeStore) SelectByOwner(ctx context.Context, ownerID string) ([]domain.Project, error) {
	if err := f.enter(ctx, "select_by_owner"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []domain.Project{}
	for _, p := range f.projects {
		if p.OwnerID == ownerID {
			out = append(out, *p.Clone())
		}
	}
	return out, nil
}

func (f *fakeStore) Update(ctx context.Context, ownerID, id string, patch domain.ProjectPatch) (*domain.Project, error) {
	if err := f.enter(ctx, "update"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.projects[id]
	if !ok || p.OwnerID != ownerID {
		return nil, domain.ErrNotFound
	}
	patch.Apply(&p, time.Now())
	f.projects[id] = p
	return p.Clone(), nil
}

func (f *fakeStore) Delete(ctx context.Context, ownerID, id string) error {
	if err := f.enter(ctx, "delete"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.projects[id]; !ok || p.OwnerID != ownerID {
		return domain.ErrNotFound
	}
	delete(f.projects, id)
	return nil
}
