package index

import (
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/latticedb/lattice/core"
)

// sequentialBatchThreshold is the batch size below which batch_search
// runs sequentially rather than paying goroutine fan-out overhead.
const sequentialBatchThreshold = 100

// maxBatchWorkers bounds the fan-out regardless of hardware or batch
// size.
const maxBatchWorkers = 32

// BatchSearch runs k-NN search for every query, preserving input order
// in the output: results[i] holds the up-to-k matches for queries[i].
// Batches of 100 or fewer run sequentially under the shared read lock;
// larger batches fan out to disjoint index ranges across a bounded
// worker pool, all still under one lock acquisition, and are joined
// unconditionally before returning.
func (idx *Index) BatchSearch(queries [][]float32, k int, ef int) ([][]core.SearchResult, error) {
	for _, q := range queries {
		if err := core.ValidateVectorValues(q, idx.graph.dimension); err != nil {
			return nil, err
		}
	}
	if err := core.ValidateK(k); err != nil {
		return nil, err
	}

	g := idx.graph
	g.mu.RLock()
	defer g.mu.RUnlock()

	results := make([][]core.SearchResult, len(queries))

	if len(queries) <= sequentialBatchThreshold {
		for i, q := range queries {
			results[i] = idx.searchLocked(q, k, ef)
		}
		return results, nil
	}

	workers := runtime.GOMAXPROCS(0)
	if workers > len(queries)/sequentialBatchThreshold {
		workers = len(queries) / sequentialBatchThreshold
	}
	if workers > maxBatchWorkers {
		workers = maxBatchWorkers
	}
	if workers < 1 {
		workers = 1
	}

	chunk := (len(queries) + workers - 1) / workers
	var g2 errgroup.Group
	for w := 0; w < workers; w++ {
		start := w * chunk
		end := start + chunk
		if start >= len(queries) {
			break
		}
		if end > len(queries) {
			end = len(queries)
		}
		g2.Go(func() error {
			for i := start; i < end; i++ {
				results[i] = idx.searchLocked(queries[i], k, ef)
			}
			return nil
		})
	}
	_ = g2.Wait() // workers never return an error; join is unconditional

	return results, nil
}
