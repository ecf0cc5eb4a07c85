package index

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"sync/atomic"

	"github.com/latticedb/lattice/core"
)

// idxMagic tags the graph structure file so Load can fail fast on a
// foreign or truncated file instead of misreading garbage as counts.
const idxMagic = uint32(0x4c415447) // "LATG"

// metricCodes maps a metric to the single byte that identifies it on disk.
// core.Metric's underlying type is string, so it has no direct numeric
// conversion; this table is the encode/decode boundary instead.
var metricCodes = map[core.Metric]uint8{
	core.MetricEuclidean:  0,
	core.MetricCosine:     1,
	core.MetricDotProduct: 2,
}

var metricByCode = map[uint8]core.Metric{
	0: core.MetricEuclidean,
	1: core.MetricCosine,
	2: core.MetricDotProduct,
}

// Save writes the graph structure to idxPath and the payload sidecar to
// idxPath+".meta", atomically per file (write to a temp file, rename
// into place). Only live records are written; tombstoned nodes and any
// edges pointing at them are dropped, so a load/save cycle physically
// collects removed records.
func (idx *Index) Save(idxPath string) error {
	g := idx.graph
	g.mu.RLock()
	defer g.mu.RUnlock()

	if err := writeAtomic(idxPath, func(w io.Writer) error {
		return writeGraph(w, g)
	}); err != nil {
		return core.NewIOFailure(err)
	}
	if err := writeAtomic(idxPath+".meta", func(w io.Writer) error {
		return writeMeta(w, g)
	}); err != nil {
		return core.NewIOFailure(err)
	}
	return nil
}

// Load builds a new index by reading idxPath and its ".meta" sidecar. A
// file that cannot be opened returns IOFailure; any decode error returns
// CorruptState. In both cases no index is returned.
func Load(idxPath string, dimension int, metric core.Metric, config Config) (*Index, error) {
	g, err := newGraph(dimension, metric, config)
	if err != nil {
		return nil, err
	}

	metaFile, err := os.Open(idxPath + ".meta")
	if err != nil {
		return nil, core.NewIOFailure(err)
	}
	defer metaFile.Close()
	if err := readMeta(bufio.NewReader(metaFile), g); err != nil {
		return nil, core.NewCorruptState(err)
	}

	idxFile, err := os.Open(idxPath)
	if err != nil {
		return nil, core.NewIOFailure(err)
	}
	defer idxFile.Close()
	if err := readGraph(bufio.NewReader(idxFile), g); err != nil {
		return nil, core.NewCorruptState(err)
	}

	return &Index{graph: g}, nil
}

// EncodeSnapshot serializes the index the same way Save does, but to
// in-memory buffers instead of files, for backends that store the graph
// and payload sidecar as opaque blobs in an embedded key-value store.
func (idx *Index) EncodeSnapshot() (graphBytes, metaBytes []byte, err error) {
	g := idx.graph
	g.mu.RLock()
	defer g.mu.RUnlock()

	var graphBuf, metaBuf bytes.Buffer
	if err := writeGraph(&graphBuf, g); err != nil {
		return nil, nil, core.NewIOFailure(err)
	}
	if err := writeMeta(&metaBuf, g); err != nil {
		return nil, nil, core.NewIOFailure(err)
	}
	return graphBuf.Bytes(), metaBuf.Bytes(), nil
}

// DecodeSnapshot rebuilds an index from the buffers produced by
// EncodeSnapshot.
func DecodeSnapshot(graphBytes, metaBytes []byte, dimension int, metric core.Metric, config Config) (*Index, error) {
	g, err := newGraph(dimension, metric, config)
	if err != nil {
		return nil, err
	}
	if err := readMeta(bytes.NewReader(metaBytes), g); err != nil {
		return nil, core.NewCorruptState(err)
	}
	if err := readGraph(bytes.NewReader(graphBytes), g); err != nil {
		return nil, core.NewCorruptState(err)
	}
	return &Index{graph: g}, nil
}

func writeAtomic(path string, write func(io.Writer) error) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	if err := write(w); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := w.Flush(); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

// writeGraph encodes the node arena and its neighbor lists. Neighbor
// references to tombstoned keys are dropped since they will not survive
// the reload.
func writeGraph(w io.Writer, g *graph) error {
	if err := binary.Write(w, binary.LittleEndian, idxMagic); err != nil {
		return err
	}
	metricCode, ok := metricCodes[g.metric]
	if !ok {
		return core.NewCorruptState(fmt.Errorf("unknown metric %q", g.metric))
	}
	entry := uint64(0)
	if g.hasEntryPoint {
		entry = g.entryPoint
	}
	fields := []any{
		int32(g.dimension),
		metricCode,
		boolByte(g.hasEntryPoint),
		entry,
		int32(g.topLayer),
		uint64(liveNodeCount(g)),
	}
	for _, f := range fields {
		if err := binary.Write(w, binary.LittleEndian, f); err != nil {
			return err
		}
	}

	for key, n := range g.nodes {
		if n.tombstoned {
			continue
		}
		if err := binary.Write(w, binary.LittleEndian, key); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, int32(n.layer)); err != nil {
			return err
		}
		for l := 0; l <= n.layer; l++ {
			live := liveNeighbors(g, n.connectionsAt(l))
			if err := binary.Write(w, binary.LittleEndian, uint32(len(live))); err != nil {
				return err
			}
			for _, nb := range live {
				if err := binary.Write(w, binary.LittleEndian, nb); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func readGraph(r io.Reader, g *graph) error {
	var magic uint32
	if err := binary.Read(r, binary.LittleEndian, &magic); err != nil {
		return err
	}
	if magic != idxMagic {
		return core.ErrCorruptState
	}

	var dimension int32
	var metric uint8
	var hasEntry uint8
	var entry uint64
	var topLayer int32
	var nodeCount uint64
	for _, f := range []any{&dimension, &metric, &hasEntry, &entry, &topLayer, &nodeCount} {
		if err := binary.Read(r, binary.LittleEndian, f); err != nil {
			return err
		}
	}
	decodedMetric, ok := metricByCode[metric]
	if !ok || int(dimension) != g.dimension || decodedMetric != g.metric {
		return core.ErrCorruptState
	}
	g.hasEntryPoint = hasEntry != 0
	g.entryPoint = entry
	g.topLayer = int(topLayer)

	for i := uint64(0); i < nodeCount; i++ {
		var key uint64
		var layer int32
		if err := binary.Read(r, binary.LittleEndian, &key); err != nil {
			return err
		}
		if err := binary.Read(r, binary.LittleEndian, &layer); err != nil {
			return err
		}
		n := newNode(key, int(layer))
		for l := 0; l <= int(layer); l++ {
			var count uint32
			if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
				return err
			}
			neighbors := make([]uint64, count)
			for j := range neighbors {
				if err := binary.Read(r, binary.LittleEndian, &neighbors[j]); err != nil {
					return err
				}
			}
			n.setConnectionsAt(l, neighbors)
		}
		if _, ok := g.records[key]; !ok {
			return core.ErrCorruptState
		}
		g.nodes[key] = n
		g.liveCount++
	}
	return nil
}

// writeMeta encodes the payload sidecar in the exact framed layout the
// on-disk format specifies, so it stays readable independent of the
// graph structure's own encoding.
func writeMeta(w io.Writer, g *graph) error {
	live := make(map[uint64]*core.Record, g.liveCount)
	for key, n := range g.nodes {
		if !n.tombstoned {
			live[key] = g.records[key]
		}
	}

	if err := binary.Write(w, binary.LittleEndian, uint64(len(live))); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, atomic.LoadUint64(&g.nextKey)); err != nil {
		return err
	}

	for key, rec := range live {
		if err := binary.Write(w, binary.LittleEndian, key); err != nil {
			return err
		}
		if err := writeFramedString(w, rec.ExternalID); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, uint64(len(rec.Values))); err != nil {
			return err
		}
		for _, v := range rec.Values {
			if err := binary.Write(w, binary.LittleEndian, v); err != nil {
				return err
			}
		}
		if err := binary.Write(w, binary.LittleEndian, uint64(len(rec.Metadata))); err != nil {
			return err
		}
		for k, v := range rec.Metadata {
			if err := writeFramedString(w, k); err != nil {
				return err
			}
			if err := writeFramedString(w, v); err != nil {
				return err
			}
		}
	}
	return nil
}

func readMeta(r io.Reader, g *graph) error {
	var recordCount, nextKey uint64
	if err := binary.Read(r, binary.LittleEndian, &recordCount); err != nil {
		return err
	}
	if err := binary.Read(r, binary.LittleEndian, &nextKey); err != nil {
		return err
	}
	g.nextKey = nextKey

	for i := uint64(0); i < recordCount; i++ {
		var key uint64
		if err := binary.Read(r, binary.LittleEndian, &key); err != nil {
			return err
		}
		id, err := readFramedString(r)
		if err != nil {
			return err
		}
		var vecLen uint64
		if err := binary.Read(r, binary.LittleEndian, &vecLen); err != nil {
			return err
		}
		values := make([]float32, vecLen)
		for j := range values {
			if err := binary.Read(r, binary.LittleEndian, &values[j]); err != nil {
				return err
			}
		}
		var metaCount uint64
		if err := binary.Read(r, binary.LittleEndian, &metaCount); err != nil {
			return err
		}
		var meta map[string]string
		if metaCount > 0 {
			meta = make(map[string]string, metaCount)
		}
		for j := uint64(0); j < metaCount; j++ {
			k, err := readFramedString(r)
			if err != nil {
				return err
			}
			v, err := readFramedString(r)
			if err != nil {
				return err
			}
			meta[k] = v
		}

		g.records[key] = &core.Record{ExternalID: id, Values: values, Metadata: meta}
		g.externalToKey[id] = key
	}
	return nil
}

func writeFramedString(w io.Writer, s string) error {
	if err := binary.Write(w, binary.LittleEndian, uint64(len(s))); err != nil {
		return err
	}
	_, err := io.WriteString(w, s)
	return err
}

func readFramedString(r io.Reader) (string, error) {
	var n uint64
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return "", err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

func liveNodeCount(g *graph) int {
	n := 0
	for _, node := range g.nodes {
		if !node.tombstoned {
			n++
		}
	}
	return n
}

func liveNeighbors(g *graph, keys []uint64) []uint64 {
	live := make([]uint64, 0, len(keys))
	for _, k := range keys {
		if n, ok := g.nodes[k]; ok && !n.tombstoned {
			live = append(live, k)
		}
	}
	return live
}

func boolByte(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}
