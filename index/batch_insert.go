package index

import (
	"github.com/latticedb/lattice/core"
)

// InsertRequest is one record of a batch insert.
type InsertRequest struct {
	Values   []float32
	ID       string
	Metadata map[string]string
}

// BatchInsert inserts every record it can under a single write-lock
// acquisition spanning the whole batch, absorbing and counting per-record
// failures so a bulk load makes progress even if some records are
// malformed or duplicate ids collide. Concurrent readers never observe a
// partially-applied batch.
func (idx *Index) BatchInsert(records []InsertRequest) int {
	g := idx.graph
	g.mu.Lock()
	defer g.mu.Unlock()

	inserted := 0
	for _, r := range records {
		if err := core.ValidateVectorValues(r.Values, g.dimension); err != nil {
			continue
		}
		if _, err := idx.insertLocked(r.Values, r.ID, r.Metadata); err == nil {
			inserted++
		}
	}
	return inserted
}

// Remove tombstones the record for id, if it exists. Once Remove
// returns true, id is ungettable and excluded from future search
// results; its graph edges remain intact for in-flight readers until
// the next save/load cycle physically collects it.
func (idx *Index) Remove(id string) bool {
	g := idx.graph
	g.mu.Lock()
	defer g.mu.Unlock()

	key, ok := g.externalToKey[id]
	if !ok {
		return false
	}

	delete(g.externalToKey, id)
	g.nodes[key].tombstoned = true
	g.liveCount--

	if g.entryPoint == key {
		idx.reassignEntryPoint(g)
	}
	return true
}

// reassignEntryPoint picks the live node with the highest layer to
// replace a removed entry point. If no live node remains the index goes
// back to its empty state.
func (idx *Index) reassignEntryPoint(g *graph) {
	g.hasEntryPoint = false
	best := -1
	var bestKey uint64
	for key, n := range g.nodes {
		if n.tombstoned {
			continue
		}
		if n.layer > best {
			best = n.layer
			bestKey = key
			g.hasEntryPoint = true
		}
	}
	if g.hasEntryPoint {
		g.entryPoint = bestKey
		g.topLayer = best
	} else {
		g.topLayer = 0
	}
}
