package index

import "sort"

// selectNeighborsHeuristic implements the diversity-filtered neighbor
// selection from the HNSW construction algorithm: candidates are
// considered nearest-to-query first, and a candidate is kept only if no
// already-selected neighbor lies closer to it than it lies to the
// query. This avoids clustering all of a new node's edges toward a
// single direction.
func selectNeighborsHeuristic(g *graph, candidates []candidate, m int) []uint64 {
	sorted := make([]candidate, len(candidates))
	copy(sorted, candidates)
	sort.Slice(sorted, func(i, j int) bool { return less(sorted[i], sorted[j]) })

	selected := make([]uint64, 0, m)
	for _, c := range sorted {
		if len(selected) >= m {
			break
		}
		keep := true
		for _, s := range selected {
			if g.distanceBetween(c.key, s) < c.distance {
				keep = false
				break
			}
		}
		if keep {
			selected = append(selected, c.key)
		}
	}

	// If the diversity filter left room and rejected viable neighbors,
	// fill remaining slots with the closest leftovers so a node is never
	// starved of connections purely because of the heuristic.
	if len(selected) < m {
		have := make(map[uint64]bool, len(selected))
		for _, k := range selected {
			have[k] = true
		}
		for _, c := range sorted {
			if len(selected) >= m {
				break
			}
			if !have[c.key] {
				selected = append(selected, c.key)
				have[c.key] = true
			}
		}
	}

	return selected
}
