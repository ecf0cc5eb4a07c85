package index

import "container/heap"

// greedyDescend performs the ef=1 hill-climb used to walk from an entry
// point down through the upper layers before either the full layer-0
// search (query time) or the construction-time layer search (insert
// time) begins. It repeatedly moves to the neighbor closest to the
// query until no neighbor improves on the current node.
func (g *graph) greedyDescend(query []float32, from uint64, layer int) uint64 {
	current := from
	currentDist := g.distanceToQuery(query, current)
	for {
		improved := false
		for _, neighbor := range g.nodes[current].connectionsAt(layer) {
			if _, ok := g.nodes[neighbor]; !ok {
				continue
			}
			d := g.distanceToQuery(query, neighbor)
			if d < currentDist {
				current = neighbor
				currentDist = d
				improved = true
			}
		}
		if !improved {
			return current
		}
	}
}

// searchLayer runs the bounded best-first search described by the
// construction and query algorithms: a frontier min-heap drives
// expansion, and a max-heap of size ef tracks the current worst
// candidate. A node is expanded only if it could still improve on the
// worst held candidate. Ties break toward the lower internal key.
func (g *graph) searchLayer(query []float32, entryPoints []uint64, ef int, layer int) []candidate {
	visited := make(map[uint64]bool, ef*4)
	frontier := &minHeap{}
	dynamic := &maxHeap{}

	for _, ep := range entryPoints {
		if visited[ep] {
			continue
		}
		if _, ok := g.nodes[ep]; !ok {
			continue
		}
		visited[ep] = true
		c := candidate{key: ep, distance: g.distanceToQuery(query, ep)}
		heap.Push(frontier, c)
		heap.Push(dynamic, c)
	}

	for frontier.Len() > 0 {
		current := heap.Pop(frontier).(candidate)

		if dynamic.Len() >= ef && current.distance > dynamic.worst().distance {
			break
		}

		n, ok := g.nodes[current.key]
		if !ok {
			continue
		}
		for _, neighborKey := range n.connectionsAt(layer) {
			if visited[neighborKey] {
				continue
			}
			if _, ok := g.nodes[neighborKey]; !ok {
				continue
			}
			visited[neighborKey] = true
			d := g.distanceToQuery(query, neighborKey)
			c := candidate{key: neighborKey, distance: d}

			if dynamic.Len() < ef {
				heap.Push(frontier, c)
				heap.Push(dynamic, c)
			} else if d < dynamic.worst().distance {
				heap.Pop(dynamic)
				heap.Push(dynamic, c)
				heap.Push(frontier, c)
			}
		}
	}

	results := make([]candidate, dynamic.Len())
	for i := len(results) - 1; i >= 0; i-- {
		results[i] = heap.Pop(dynamic).(candidate)
	}
	return results
}
