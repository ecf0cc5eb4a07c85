// Package index implements the HNSW (Hierarchical Navigable Small World)
// approximate nearest-neighbor graph: a single fixed-dimension, fixed-metric
// index over opaque external identifiers.
package index

import (
	"math"

	"github.com/latticedb/lattice/core"
)

// Config carries the tunable parameters of one HNSW index. It is set at
// construction time and does not change afterward.
type Config struct {
	// M is the target bidirectional degree per node above layer 0.
	M int

	// EfConstruction is the dynamic candidate list size used while
	// building neighbor lists during insert.
	EfConstruction int

	// EfSearch is the minimum dynamic candidate list size used during
	// search; a caller-supplied ef takes effect only when it is larger.
	EfSearch int

	// MaxElements bounds the number of live records the index will
	// accept before insert starts failing with CapacityExceeded.
	MaxElements int

	// Seed drives the per-graph random source used for level
	// assignment, so builds are reproducible in tests.
	Seed int64
}

// FromCollectionConfig derives an index Config from a collection's
// public configuration.
func FromCollectionConfig(cfg core.CollectionConfig) Config {
	return Config{
		M:              cfg.M,
		EfConstruction: cfg.EfConstruction,
		EfSearch:       cfg.EfSearch,
		MaxElements:    cfg.MaxElements,
		Seed:           1,
	}
}

// mL is the level normalization factor 1/ln(M) used by the geometric
// level-assignment distribution.
func (c Config) mL() float64 {
	return 1.0 / math.Log(float64(c.M))
}

// maxConnections returns the neighbor-list cap for a layer: 2M at layer
// 0, M above it.
func (c Config) maxConnections(layer int) int {
	if layer == 0 {
		return 2 * c.M
	}
	return c.M
}
