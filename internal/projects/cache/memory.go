package cache

import (
	"context"
	"sync"

	"github.com/staysite/site-sync-backend/internal/logging"
	"github.com/staysite/site-sync-backend/internal/projects/domain"
)

// Memory keeps the serialized list in process memory. Storing bytes rather
// than values means callers can never alias cached sections.
type Memory struct {
	mu   sync.RWMutex
	data []byte
	log  *logging.Logger
}

var _ Cache = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{log: logging.New("cache")}
}

func (m *Memory) List(context.Context) []domain.Project {
	m.mu.RLock()
	data := m.data
	m.mu.RUnlock()
	return decodeList(m.log, "memory", data)
}

func (m *Memory) Replace(_ context.Context, projects []domain.Project) error {
	data, err := encodeList(projects)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.data = data
	m.mu.Unlock()
	return nil
}

// SetRaw stores data verbatim; used to simulate corrupted storage.
func (m *Memory) SetRaw(data []byte) {
	m.mu.Lock()
	m.data = append([]byte(nil), data...)
	m.mu.Unlock()
}
