package index

import (
	"math"
	"math/rand"
	"sync"
	"sync/atomic"

	"github.com/latticedb/lattice/core"
)

// graph is the arena-backed HNSW structure shared by every operation in
// this package. All mutation happens under mu; readers hold it shared.
type graph struct {
	mu sync.RWMutex

	dimension int
	metric    core.Metric
	distFn    core.DistanceFunc
	config    Config
	rng       *rand.Rand

	nodes         map[uint64]*node
	records       map[uint64]*core.Record
	externalToKey map[string]uint64

	nextKey       uint64 // atomic; also drives the id-synthesis counter
	hasEntryPoint bool
	entryPoint    uint64
	topLayer      int
	liveCount     int
}

func newGraph(dimension int, metric core.Metric, config Config) (*graph, error) {
	distFn, err := core.DistanceFuncFor(metric)
	if err != nil {
		return nil, err
	}
	seed := config.Seed
	if seed == 0 {
		seed = 1
	}
	return &graph{
		dimension:     dimension,
		metric:        metric,
		distFn:        distFn,
		config:        config,
		rng:           rand.New(rand.NewSource(seed)),
		nodes:         make(map[uint64]*node),
		records:       make(map[uint64]*core.Record),
		externalToKey: make(map[string]uint64),
	}, nil
}

// assignLayer draws a node's layer from the geometric distribution with
// parameter 1/ln(M), per the HNSW construction algorithm.
func (g *graph) assignLayer() int {
	return int(math.Floor(-math.Log(g.rng.Float64()) * g.config.mL()))
}

// allocKey returns the next monotonic internal key. It is only ever
// called with the write lock held, but is defined via atomic so it pairs
// with the atomic load writeMeta does when snapshotting the counter.
func (g *graph) allocKey() uint64 {
	return atomic.AddUint64(&g.nextKey, 1) - 1
}

func (g *graph) size() int {
	return g.liveCount
}

// distanceBetween looks up two live-or-tombstoned nodes' vectors and
// scores them. Tombstoned nodes keep their record until the next
// save/load cycle specifically so traversal through them stays valid.
func (g *graph) distanceBetween(a, b uint64) float32 {
	return g.distFn(g.records[a].Values, g.records[b].Values)
}

func (g *graph) distanceToQuery(query []float32, key uint64) float32 {
	return g.distFn(query, g.records[key].Values)
}

func (g *graph) memoryUsageBytes() int64 {
	var total int64
	for key, rec := range g.records {
		if n, ok := g.nodes[key]; !ok || n.tombstoned {
			continue
		}
		total += int64(len(rec.Values))*4 + int64(len(rec.ExternalID))
		for k, v := range rec.Metadata {
			total += int64(len(k) + len(v))
		}
	}
	for _, n := range g.nodes {
		if n.tombstoned {
			continue
		}
		for _, layer := range n.neighbors {
			total += int64(len(layer)) * 8
		}
	}
	return total
}
