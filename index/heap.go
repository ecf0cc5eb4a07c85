package index

import "container/heap"

// candidate pairs an internal key with its distance to the vector being
// searched or inserted. Ties break toward the lower key, matching the
// deterministic tie-break the insert algorithm specifies.
type candidate struct {
	key      uint64
	distance float32
}

func less(a, b candidate) bool {
	if a.distance != b.distance {
		return a.distance < b.distance
	}
	return a.key < b.key
}

// minHeap pops the closest candidate first; used as the search frontier.
type minHeap []candidate

func (h minHeap) Len() int            { return len(h) }
func (h minHeap) Less(i, j int) bool  { return less(h[i], h[j]) }
func (h minHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *minHeap) Push(x interface{}) { *h = append(*h, x.(candidate)) }
func (h *minHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// maxHeap pops the farthest candidate first; used to track the worst
// member of a bounded dynamic candidate list.
type maxHeap []candidate

func (h maxHeap) Len() int            { return len(h) }
func (h maxHeap) Less(i, j int) bool  { return less(h[j], h[i]) }
func (h maxHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *maxHeap) Push(x interface{}) { *h = append(*h, x.(candidate)) }
func (h *maxHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

func (h maxHeap) worst() candidate { return h[0] }

var _ = heap.Interface(&minHeap{})
var _ = heap.Interface(&maxHeap{})
