package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/staysite/site-sync-backend/internal/projects/domain"
)

func TestReconcile(t *testing.T) {
	ctx := context.Background()

	t.Run("pushes local records and marks them synced", func(t *testing.T) {
		store := newFakeStore()
		store.setErr(errOffline)
		svc, mem := newTestService(t, store)

		a, err := svc.CreateProject(ctx, "owner-1", domain.CreateInput{Name: "Casa"})
		require.NoError(t, err)
		b, err := svc.CreateProject(ctx, "owner-1", domain.CreateInput{Name: "Cabin"})
		require.NoError(t, err)

		store.setErr(nil)
		res, err := svc.Reconcile(ctx, rate.NewLimiter(rate.Inf, 1))
		require.NoError(t, err)
		assert.Equal(t, ReconcileResult{Pending: 2, Pushed: 2}, res)

		for _, id := range []string{a.ID, b.ID} {
			remoteCopy, ok := store.get(id)
			require.True(t, ok, id)
			assert.Equal(t, "owner-1", remoteCopy.OwnerID)
		}
		for _, p := range mem.List(ctx) {
			assert.Equal(t, domain.SyncStateSynced, p.SyncState)
		}
		assert.Equal(t, int64(2), svc.Metrics().Reconciled)

		res, err = svc.Reconcile(ctx, nil)
		require.NoError(t, err)
		assert.Equal(t, ReconcileResult{}, res)
	})

	t.Run("existing remote id is updated instead", func(t *testing.T) {
		store := newFakeStore()
		svc, mem := newTestService(t, store)

		created, err := svc.CreateProject(ctx, "owner-1", domain.CreateInput{Name: "Casa"})
		require.NoError(t, err)

		store.setErr(errOffline)
		_, err = svc.UpdateProject(ctx, "owner-1", created.ID, domain.ProjectPatch{Name: strPtr("Edited offline")})
		require.NoError(t, err)
		assert.Equal(t, domain.SyncStateLocal, mem.List(ctx)[0].SyncState)

		store.setErr(nil)
		updates := store.callCount("update")
		res, err := svc.Reconcile(ctx, nil)
		require.NoError(t, err)
		assert.Equal(t, 1, res.Pushed)
		assert.Equal(t, updates+1, store.callCount("update"))

		remoteCopy, _ := store.get(created.ID)
		assert.Equal(t, "Edited offline", remoteCopy.Name)
		assert.Equal(t, domain.SyncStateSynced, mem.List(ctx)[0].SyncState)
	})

	t.Run("failures stay local", func(t *testing.T) {
		store := newFakeStore()
		store.setErr(errOffline)
		svc, mem := newTestService(t, store)
		_, err := svc.CreateProject(ctx, "owner-1", domain.CreateInput{Name: "Casa"})
		require.NoError(t, err)

		res, err := svc.Reconcile(ctx, nil)
		require.NoError(t, err)
		assert.Equal(t, ReconcileResult{Pending: 1, Failed: 1}, res)
		assert.Equal(t, domain.SyncStateLocal, mem.List(ctx)[0].SyncState)
	})

	t.Run("record edited during the push stays local", func(t *testing.T) {
		store := newFakeStore()
		store.setErr(errOffline)
		svc, mem := newTestService(t, store)
		created, err := svc.CreateProject(ctx, "owner-1", domain.CreateInput{Name: "Casa"})
		require.NoError(t, err)

		pushedAt := mem.List(ctx)[0].UpdatedAt
		_, err = svc.UpdateProject(ctx, "owner-1", created.ID, domain.ProjectPatch{Name: strPtr("Newer")})
		require.NoError(t, err)

		assert.False(t, svc.markSynced(ctx, created.ID, pushedAt))
		assert.Equal(t, domain.SyncStateLocal, mem.List(ctx)[0].SyncState)
	})

	t.Run("cancelled context stops the pass", func(t *testing.T) {
		store := newFakeStore()
		store.setErr(errOffline)
		svc, _ := newTestService(t, store)
		for i := 0; i < 3; i++ {
			_, err := svc.CreateProject(ctx, "owner-1", domain.CreateInput{})
			require.NoError(t, err)
		}
		store.setErr(nil)

		cctx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
		defer cancel()
		limiter := rate.NewLimiter(rate.Every(time.Hour), 1)

		res, err := svc.Reconcile(cctx, limiter)
		assert.Error(t, err)
		assert.Equal(t, 1, res.Pushed)
	})
}
