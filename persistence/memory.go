package persistence

import (
	"sync"

	"github.com/latticedb/lattice/core"
)

// MemoryPersistence keeps everything in a process-local map. It exists
// for tests that want a Persistence without touching a filesystem.
type MemoryPersistence struct {
	mu   sync.RWMutex
	data map[string]memoryEntry
}

type memoryEntry struct {
	cfg        core.CollectionConfig
	graphBytes []byte
	metaBytes  []byte
}

// NewMemoryPersistence constructs an empty in-memory backend.
func NewMemoryPersistence() *MemoryPersistence {
	return &MemoryPersistence{data: make(map[string]memoryEntry)}
}

func (p *MemoryPersistence) SaveCollection(name string, cfg core.CollectionConfig, graphBytes, metaBytes []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	gCopy := append([]byte(nil), graphBytes...)
	mCopy := append([]byte(nil), metaBytes...)
	p.data[name] = memoryEntry{cfg: cfg, graphBytes: gCopy, metaBytes: mCopy}
	return nil
}

func (p *MemoryPersistence) LoadCollection(name string) (core.CollectionConfig, []byte, []byte, bool, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	entry, ok := p.data[name]
	if !ok {
		return core.CollectionConfig{}, nil, nil, false, nil
	}
	return entry.cfg, entry.graphBytes, entry.metaBytes, true, nil
}

func (p *MemoryPersistence) DeleteCollection(name string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.data[name]
	delete(p.data, name)
	return ok, nil
}

func (p *MemoryPersistence) ListCollections() ([]string, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	names := make([]string, 0, len(p.data))
	for name := range p.data {
		names = append(names, name)
	}
	return names, nil
}

func (p *MemoryPersistence) Close() error { return nil }
