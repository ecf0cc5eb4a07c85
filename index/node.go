package index

// node is one vertex of the HNSW graph, addressed by its internal key.
// Neighbor lists store keys only, never pointers, so the arena has no
// reference cycles and tombstoning is a single bit flip.
type node struct {
	key        uint64
	layer      int
	neighbors  [][]uint64 // neighbors[l] holds the connections at layer l, 0 <= l <= layer
	tombstoned bool
}

func newNode(key uint64, layer int) *node {
	n := &node{
		key:       key,
		layer:     layer,
		neighbors: make([][]uint64, layer+1),
	}
	for l := range n.neighbors {
		n.neighbors[l] = nil
	}
	return n
}

func (n *node) connectionsAt(layer int) []uint64 {
	if layer < 0 || layer >= len(n.neighbors) {
		return nil
	}
	return n.neighbors[layer]
}

func (n *node) setConnectionsAt(layer int, keys []uint64) {
	n.neighbors[layer] = keys
}

func (n *node) addConnection(layer int, key uint64) {
	for _, existing := range n.neighbors[layer] {
		if existing == key {
			return
		}
	}
	n.neighbors[layer] = append(n.neighbors[layer], key)
}
