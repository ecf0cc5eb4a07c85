package index

import (
	"sort"

	"github.com/latticedb/lattice/core"
)

// Search returns up to k nearest neighbors of query, ordered by
// ascending score. The effective ef is max(ef, configured EfSearch, k):
// a caller's ef widens the search only when it exceeds EfSearch, and a
// smaller ef (including 0) has no effect.
func (idx *Index) Search(query []float32, k int, ef int) ([]core.SearchResult, error) {
	if err := core.ValidateVectorValues(query, idx.graph.dimension); err != nil {
		return nil, err
	}
	if err := core.ValidateK(k); err != nil {
		return nil, err
	}

	g := idx.graph
	g.mu.RLock()
	defer g.mu.RUnlock()

	return idx.searchLocked(query, k, ef), nil
}

// searchLocked runs the search algorithm assuming the caller already
// holds graph.mu for reading. BatchSearch uses this directly so an
// entire batch runs under one shared lock acquisition, per the
// concurrency model's outer-read-lock discipline.
func (idx *Index) searchLocked(query []float32, k int, ef int) []core.SearchResult {
	g := idx.graph
	if !g.hasEntryPoint {
		return []core.SearchResult{}
	}

	effEf := ef
	if effEf < g.config.EfSearch {
		effEf = g.config.EfSearch
	}
	if effEf < k {
		effEf = k
	}

	entry := g.entryPoint
	for layer := g.topLayer; layer > 0; layer-- {
		entry = g.greedyDescend(query, entry, layer)
	}

	candidates := g.searchLayer(query, []uint64{entry}, effEf, 0)

	live := candidates[:0:0]
	for _, c := range candidates {
		if g.nodes[c.key].tombstoned {
			continue
		}
		live = append(live, c)
	}
	sort.Slice(live, func(i, j int) bool { return less(live[i], live[j]) })

	if k > len(live) {
		k = len(live)
	}

	results := make([]core.SearchResult, k)
	for i := 0; i < k; i++ {
		key := live[i].key
		rec := copyRecord(g.records[key])
		results[i] = core.SearchResult{
			ID:       rec.ExternalID,
			Score:    live[i].distance,
			Metadata: rec.Metadata,
			Record:   &rec,
		}
	}
	return results
}
