package index

import (
	"github.com/latticedb/lattice/core"
)

// Insert adds a vector to the index, synthesizing an external id if the
// caller does not provide one. It fails on dimension mismatch, a
// duplicate id, or an index already at MaxElements.
func (idx *Index) Insert(values []float32, id string, metadata map[string]string) (string, error) {
	if err := core.ValidateVectorValues(values, idx.graph.dimension); err != nil {
		return "", err
	}

	g := idx.graph
	g.mu.Lock()
	defer g.mu.Unlock()

	return idx.insertLocked(values, id, metadata)
}

// insertLocked is Insert's body with the dimension check already done and
// g.mu already held for writing. BatchInsert calls this in a loop under a
// single lock acquisition instead of taking the lock once per record.
func (idx *Index) insertLocked(values []float32, id string, metadata map[string]string) (string, error) {
	g := idx.graph

	if id != "" {
		if _, exists := g.externalToKey[id]; exists {
			return "", core.NewDuplicateID(id)
		}
	}
	if g.liveCount >= g.config.MaxElements {
		return "", core.NewCapacityExceeded(g.config.MaxElements)
	}

	key := g.allocKey()
	if id == "" {
		id = synthesizeID(key)
	}

	stored := make([]float32, len(values))
	copy(stored, values)
	if g.metric == core.MetricCosine {
		core.NormalizeInPlace(stored)
	}
	var storedMeta map[string]string
	if metadata != nil {
		storedMeta = make(map[string]string, len(metadata))
		for k, v := range metadata {
			storedMeta[k] = v
		}
	}

	g.records[key] = &core.Record{ExternalID: id, Values: stored, Metadata: storedMeta}
	g.externalToKey[id] = key

	layer := g.assignLayer()
	n := newNode(key, layer)
	g.nodes[key] = n
	g.liveCount++

	if !g.hasEntryPoint {
		g.hasEntryPoint = true
		g.entryPoint = key
		g.topLayer = layer
		return id, nil
	}

	idx.insertIntoGraph(g, n, stored)

	if layer > g.topLayer {
		g.entryPoint = key
		g.topLayer = layer
	}

	return id, nil
}

// insertIntoGraph wires n into the existing graph: greedy-descend from
// the current entry point down to n's own layer, then run
// construction-time layer search and heuristic neighbor selection at
// every layer from min(l, topLayer) down to 0.
func (idx *Index) insertIntoGraph(g *graph, n *node, values []float32) {
	entry := g.entryPoint
	for layer := g.topLayer; layer > n.layer; layer-- {
		entry = g.greedyDescend(values, entry, layer)
	}

	entryPoints := []uint64{entry}
	top := n.layer
	if g.topLayer < top {
		top = g.topLayer
	}

	for layer := top; layer >= 0; layer-- {
		candidates := g.searchLayer(values, entryPoints, g.config.EfConstruction, layer)

		maxConn := g.config.maxConnections(layer)
		selected := selectNeighborsHeuristic(g, candidates, maxConn)
		n.setConnectionsAt(layer, selected)

		for _, neighborKey := range selected {
			neighbor := g.nodes[neighborKey]
			neighbor.addConnection(layer, n.key)
			idx.pruneConnections(g, neighbor, layer)
		}

		nextEntryPoints := make([]uint64, len(candidates))
		for i, c := range candidates {
			nextEntryPoints[i] = c.key
		}
		entryPoints = nextEntryPoints
	}
}

// pruneConnections re-runs the heuristic selection over a node's
// existing connections at a layer whenever a new back-edge pushes it
// past its cap.
func (idx *Index) pruneConnections(g *graph, n *node, layer int) {
	maxConn := g.config.maxConnections(layer)
	conns := n.connectionsAt(layer)
	if len(conns) <= maxConn {
		return
	}

	candidates := make([]candidate, 0, len(conns))
	for _, c := range conns {
		if _, ok := g.nodes[c]; !ok {
			continue
		}
		candidates = append(candidates, candidate{key: c, distance: g.distanceBetween(n.key, c)})
	}

	selected := selectNeighborsHeuristic(g, candidates, maxConn)
	n.setConnectionsAt(layer, selected)
}
