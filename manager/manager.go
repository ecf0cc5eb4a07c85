// Package manager implements the collection manager: a name-keyed
// registry of HNSW indexes that serializes lifecycle operations while
// letting data-plane traffic overlap.
package manager

import (
	"sync"

	"github.com/latticedb/lattice/core"
	"github.com/latticedb/lattice/index"
	"github.com/latticedb/lattice/persistence"
)

// Manager multiplexes many independent indexes by collection name. A
// dedicated RWMutex guards only the name -> index and name -> config
// maps; it is held shared just long enough for a data-plane call to
// resolve a handle, then released before that call takes the index's
// own lock. A lifecycle change therefore delays only handle resolution
// while it holds the lock; it never waits on or blocks a data-plane call
// already running against an index.
type Manager struct {
	mu      sync.RWMutex
	indexes map[string]*index.Index
	configs map[string]core.CollectionConfig

	store persistence.Persistence
}

// New constructs an empty manager backed by store. Call LoadAll to
// populate it from previously persisted state.
func New(store persistence.Persistence) *Manager {
	return &Manager{
		indexes: make(map[string]*index.Index),
		configs: make(map[string]core.CollectionConfig),
		store:   store,
	}
}

// CreateCollection builds a fresh, empty index under cfg.Name and
// persists its config. The collection is immediately available; no
// warm-up is performed.
func (m *Manager) CreateCollection(cfg core.CollectionConfig) error {
	if err := core.ValidateCollectionConfig(cfg); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.indexes[cfg.Name]; exists {
		return core.NewAlreadyExists(cfg.Name)
	}

	idx, err := index.New(cfg.Dimension, cfg.Metric, index.FromCollectionConfig(cfg))
	if err != nil {
		return err
	}

	graphBytes, metaBytes, err := idx.EncodeSnapshot()
	if err != nil {
		return err
	}
	if err := m.store.SaveCollection(cfg.Name, cfg, graphBytes, metaBytes); err != nil {
		return err
	}

	m.indexes[cfg.Name] = idx
	m.configs[cfg.Name] = cfg
	return nil
}

// DeleteCollection removes a collection's in-memory index and its
// persisted state. Returns whether it existed.
func (m *Manager) DeleteCollection(name string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, exists := m.indexes[name]
	delete(m.indexes, name)
	delete(m.configs, name)

	existedOnDisk, err := m.store.DeleteCollection(name)
	if err != nil {
		return false, err
	}
	return exists || existedOnDisk, nil
}

// ListCollections returns current collection names in unspecified order.
func (m *Manager) ListCollections() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.indexes))
	for name := range m.indexes {
		names = append(names, name)
	}
	return names
}

// Stats derives point-in-time statistics for a collection from its live
// index.
func (m *Manager) Stats(name string) (core.CollectionStats, error) {
	idx, err := m.handle(name)
	if err != nil {
		return core.CollectionStats{}, err
	}
	return core.CollectionStats{
		VectorCount:      idx.Size(),
		MemoryUsageBytes: idx.MemoryUsageBytes(),
		Dimension:        idx.Dimension(),
		MetricName:       string(idx.Metric()),
	}, nil
}

// handle resolves a collection name to its index handle under the
// manager's shared lock, then releases the lock before the caller uses
// the handle; the index's own lock protects concurrent use of it.
func (m *Manager) handle(name string) (*index.Index, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	idx, ok := m.indexes[name]
	if !ok {
		return nil, core.NewNotFound("collection " + name)
	}
	return idx, nil
}

// Insert passes an insert through to the named collection's index.
func (m *Manager) Insert(collection string, values []float32, id string, metadata map[string]string) (string, error) {
	idx, err := m.handle(collection)
	if err != nil {
		return "", err
	}
	return idx.Insert(values, id, metadata)
}

// BatchInsert passes a batch insert through to the named collection's
// index, absorbing and counting per-record failures.
func (m *Manager) BatchInsert(collection string, records []index.InsertRequest) (int, error) {
	idx, err := m.handle(collection)
	if err != nil {
		return 0, err
	}
	return idx.BatchInsert(records), nil
}

// Remove passes a delete through to the named collection's index.
func (m *Manager) Remove(collection, id string) (bool, error) {
	idx, err := m.handle(collection)
	if err != nil {
		return false, err
	}
	return idx.Remove(id), nil
}

// Search passes a top-k query through to the named collection's index.
func (m *Manager) Search(collection string, query []float32, k, ef int) ([]core.SearchResult, error) {
	idx, err := m.handle(collection)
	if err != nil {
		return nil, err
	}
	return idx.Search(query, k, ef)
}

// BatchSearch passes a batch of top-k queries through to the named
// collection's index.
func (m *Manager) BatchSearch(collection string, queries [][]float32, k, ef int) ([][]core.SearchResult, error) {
	idx, err := m.handle(collection)
	if err != nil {
		return nil, err
	}
	return idx.BatchSearch(queries, k, ef)
}

// Get passes a point lookup through to the named collection's index.
func (m *Manager) Get(collection, id string) (core.Record, bool, error) {
	idx, err := m.handle(collection)
	if err != nil {
		return core.Record{}, false, err
	}
	rec, ok := idx.Get(id)
	return rec, ok, nil
}

// SaveAll persists every collection's config and index snapshot. Called
// on clean shutdown and on demand.
func (m *Manager) SaveAll() error {
	m.mu.RLock()
	names := make([]string, 0, len(m.indexes))
	handles := make([]*index.Index, 0, len(m.indexes))
	configs := make([]core.CollectionConfig, 0, len(m.indexes))
	for name, idx := range m.indexes {
		names = append(names, name)
		handles = append(handles, idx)
		configs = append(configs, m.configs[name])
	}
	m.mu.RUnlock()

	for i, name := range names {
		graphBytes, metaBytes, err := handles[i].EncodeSnapshot()
		if err != nil {
			return err
		}
		if err := m.store.SaveCollection(name, configs[i], graphBytes, metaBytes); err != nil {
			return err
		}
	}
	return nil
}

// LoadAll enumerates the persisted collections and reconstructs each
// one's index. A collection whose persisted state fails to decode is
// dropped and load continues with the rest; it never aborts the whole
// manager.
func (m *Manager) LoadAll() error {
	names, err := m.store.ListCollections()
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, name := range names {
		cfg, graphBytes, metaBytes, ok, err := m.store.LoadCollection(name)
		if err != nil || !ok {
			continue
		}
		idx, err := index.DecodeSnapshot(graphBytes, metaBytes, cfg.Dimension, cfg.Metric, index.FromCollectionConfig(cfg))
		if err != nil {
			continue
		}
		m.indexes[name] = idx
		m.configs[name] = cfg
	}
	return nil
}
