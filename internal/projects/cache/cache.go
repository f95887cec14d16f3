// Package cache holds the device-resident copy of every project seen locally.
//
// The whole list lives under one logical key and is always written as a
// whole, so a reader observes either the previous list or the new one.
// Reads never fail: a missing or corrupt value degrades to an empty list.
package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/staysite/site-sync-backend/internal/logging"
	"github.com/staysite/site-sync-backend/internal/projects/domain"
)

// Key is the logical key the project list is stored under.
const Key = "sitesync:projects:v1"

// Cache is the local project store. Only the project service performs
// read-modify-write cycles on it.
type Cache interface {
	// List returns the cached projects, or an empty list if absent or corrupt.
	List(ctx context.Context) []domain.Project
	// Replace overwrites the cached list.
	Replace(ctx context.Context, projects []domain.Project) error
}

func encodeList(projects []domain.Project) ([]byte, error) {
	if projects == nil {
		projects = []domain.Project{}
	}
	data, err := json.Marshal(projects)
	if err != nil {
		return nil, fmt.Errorf("encode project list: %w", err)
	}
	return data, nil
}

// decodeList parses a stored list. Corrupt data is logged and treated as empty.
func decodeList(log *logging.Logger, backend string, data []byte) []domain.Project {
	if len(data) == 0 {
		return []domain.Project{}
	}
	var out []domain.Project
	if err := json.Unmarshal(data, &out); err != nil {
		log.Warnf("list", "backend=%s %v: %v, treating as empty", backend, domain.ErrMalformedCache, err)
		return []domain.Project{}
	}
	if out == nil {
		return []domain.Project{}
	}
	return out
}
