package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/staysite/site-sync-backend/internal/projects/domain"
)

func TestMergeProjects(t *testing.T) {
	base := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	mk := func(id, slug string, offset time.Duration, state domain.SyncState) domain.Project {
		return domain.Project{ID: id, OwnerID: "o", Slug: slug, UpdatedAt: base.Add(offset), SyncState: state}
	}

	tests := []struct {
		name   string
		local  []domain.Project
		remote []domain.Project
		want   []string
	}{
		{
			name:   "newer local wins",
			local:  []domain.Project{mk("l", "casa", 2*time.Minute, domain.SyncStateLocal)},
			remote: []domain.Project{mk("r", "casa", time.Minute, domain.SyncStateSynced)},
			want:   []string{"l"},
		},
		{
			name:   "newer remote wins",
			local:  []domain.Project{mk("l", "casa", time.Minute, domain.SyncStateLocal)},
			remote: []domain.Project{mk("r", "casa", 2*time.Minute, domain.SyncStateSynced)},
			want:   []string{"r"},
		},
		{
			name:   "tie keeps remote",
			local:  []domain.Project{mk("l", "casa", time.Minute, domain.SyncStateLocal)},
			remote: []domain.Project{mk("r", "casa", time.Minute, domain.SyncStateSynced)},
			want:   []string{"r"},
		},
		{
			name:   "slug-less records merge by id",
			local:  []domain.Project{mk("a", "", 3*time.Minute, domain.SyncStateLocal), mk("b", "", 0, domain.SyncStateLocal)},
			remote: []domain.Project{mk("a", "", time.Minute, domain.SyncStateSynced)},
			want:   []string{"a", "b"},
		},
		{
			name:   "same id under a renamed slug collapses",
			local:  []domain.Project{mk("x", "new-name", 2*time.Minute, domain.SyncStateLocal)},
			remote: []domain.Project{mk("x", "old-name", time.Minute, domain.SyncStateSynced)},
			want:   []string{"x"},
		},
		{
			name:   "sorted newest first",
			local:  []domain.Project{mk("l1", "one", time.Minute, ""), mk("l2", "two", 5*time.Minute, "")},
			remote: []domain.Project{mk("r1", "three", 3*time.Minute, "")},
			want:   []string{"l2", "r1", "l1"},
		},
		{
			name: "empty inputs",
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MergeProjects(tt.local, tt.remote)
			ids := make([]string, len(got))
			for i, p := range got {
				ids[i] = p.ID
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestMergeProjects_DoesNotMutateInputs(t *testing.T) {
	base := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	remote := make([]domain.Project, 1, 4)
	remote[0] = domain.Project{ID: "r", Slug: "r", UpdatedAt: base}
	local := []domain.Project{{ID: "l", Slug: "l", UpdatedAt: base.Add(time.Hour)}}

	_ = MergeProjects(local, remote)
	assert.Len(t, remote, 1)
	assert.Equal(t, "r", remote[:2][0].ID)
	assert.Empty(t, remote[:2][1].ID)
}
