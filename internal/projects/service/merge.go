package service

import (
	"sort"

	"github.com/staysite/site-sync-backend/internal/projects/domain"
)

// MergeProjects combines cached and remote listings. Records are deduplicated
// by slug (by id for slug-less records) and then by id; the later UpdatedAt
// wins and ties keep the remote record. The result is sorted newest first.
func MergeProjects(local, remote []domain.Project) []domain.Project {
	all := make([]domain.Project, 0, len(local)+len(remote))
	all = append(all, remote...)
	all = append(all, local...)

	merged := dedupe(all, slugKey)
	merged = dedupe(merged, func(p domain.Project) string { return p.ID })
	sortNewestFirst(merged)
	return merged
}

func slugKey(p domain.Project) string {
	if p.Slug == "" {
		return "id:" + p.ID
	}
	return "slug:" + p.Slug
}

// dedupe keeps the first record per key unless a later one is strictly newer.
func dedupe(items []domain.Project, key func(domain.Project) string) []domain.Project {
	idx := make(map[string]int, len(items))
	out := make([]domain.Project, 0, len(items))
	for _, p := range items {
		k := key(p)
		if i, ok := idx[k]; ok {
			if p.UpdatedAt.After(out[i].UpdatedAt) {
				out[i] = p
			}
			continue
		}
		idx[k] = len(out)
		out = append(out, p)
	}
	return out
}

func sortNewestFirst(projects []domain.Project) {
	sort.SliceStable(projects, func(i, j int) bool {
		return projects[i].UpdatedAt.After(projects[j].UpdatedAt)
	})
}

func ownedBy(projects []domain.Project, ownerID string) []domain.Project {
	out := make([]domain.Project, 0, len(projects))
	for _, p := range projects {
		if p.OwnerID == ownerID {
			out = append(out, p)
		}
	}
	return out
}

func indexByID(projects []domain.Project, id string) int {
	for i := range projects {
		if projects[i].ID == id {
			return i
		}
	}
	return -1
}

// newestBySlug returns the most recently updated record with slug, or -1.
func newestBySlug(projects []domain.Project, slug string) int {
	best := -1
	for i := range projects {
		if projects[i].Slug != slug {
			continue
		}
		if best < 0 || projects[i].UpdatedAt.After(projects[best].UpdatedAt) {
			best = i
		}
	}
	return best
}
