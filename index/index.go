package index

import (
	"github.com/latticedb/lattice/core"
)

// Index is a single fixed-dimension, fixed-metric HNSW index. It owns
// the node arena, the free-standing payload store, and the
// external-id/internal-key maps described by the collection data model.
// One sync.RWMutex, held inside graph, guards all of it: Search, Get,
// BatchSearch, and MemoryUsageBytes take it shared; Insert, BatchInsert,
// and Remove take it exclusive. Load and DecodeSnapshot build a fresh,
// not yet shared index and take no lock.
type Index struct {
	graph *graph
}

// New constructs an empty index over the given dimension and metric.
func New(dimension int, metric core.Metric, config Config) (*Index, error) {
	g, err := newGraph(dimension, metric, config)
	if err != nil {
		return nil, err
	}
	return &Index{graph: g}, nil
}

// Dimension returns the index's fixed vector length.
func (idx *Index) Dimension() int { return idx.graph.dimension }

// Metric returns the index's fixed distance metric.
func (idx *Index) Metric() core.Metric { return idx.graph.metric }

// Size returns the number of live (non-tombstoned, gettable) records.
func (idx *Index) Size() int {
	idx.graph.mu.RLock()
	defer idx.graph.mu.RUnlock()
	return idx.graph.size()
}

// MemoryUsageBytes estimates the resident size of live records and
// neighbor-list edges.
func (idx *Index) MemoryUsageBytes() int64 {
	idx.graph.mu.RLock()
	defer idx.graph.mu.RUnlock()
	return idx.graph.memoryUsageBytes()
}

// Get returns a copy of the live record for id, or ok=false if it does
// not exist or has been removed.
func (idx *Index) Get(id string) (core.Record, bool) {
	idx.graph.mu.RLock()
	defer idx.graph.mu.RUnlock()

	key, ok := idx.graph.externalToKey[id]
	if !ok {
		return core.Record{}, false
	}
	rec := idx.graph.records[key]
	return copyRecord(rec), true
}

func copyRecord(rec *core.Record) core.Record {
	values := make([]float32, len(rec.Values))
	copy(values, rec.Values)
	var meta map[string]string
	if rec.Metadata != nil {
		meta = make(map[string]string, len(rec.Metadata))
		for k, v := range rec.Metadata {
			meta[k] = v
		}
	}
	return core.Record{ExternalID: rec.ExternalID, Values: values, Metadata: meta}
}
