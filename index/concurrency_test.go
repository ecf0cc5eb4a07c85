package index

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/latticedb/lattice/core"
)

// TestConcurrentInsertAndSearch exercises the readers-writer discipline
// directly: one writer inserting while many readers search, run under
// -race to catch any state shared without the graph's lock.
func TestConcurrentInsertAndSearch(t *testing.T) {
	idx, err := New(8, core.MetricEuclidean, testConfig())
	require.NoError(t, err)

	for i := 0; i < 50; i++ {
		_, err = idx.Insert(randomVector(8, int64(i)), "", nil)
		require.NoError(t, err)
	}

	var wg sync.WaitGroup
	stop := make(chan struct{})

	for r := 0; r < 8; r++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				_, err := idx.Search(randomVector(8, seed), 5, 0)
				require.NoError(t, err)
			}
		}(int64(r))
	}

	for i := 50; i < 150; i++ {
		_, err = idx.Insert(randomVector(8, int64(i)), "", nil)
		require.NoError(t, err)
	}

	close(stop)
	wg.Wait()

	require.Equal(t, 150, idx.Size())
}

// TestBatchInsertIsAtomicToReaders drives a large BatchInsert concurrently
// with readers polling Size, and asserts every observed size is either the
// pre-batch or post-batch count: BatchInsert must take the write lock once
// for the whole batch, never once per record, so no reader can see a
// partially-applied batch.
func TestBatchInsertIsAtomicToReaders(t *testing.T) {
	idx, err := New(8, core.MetricEuclidean, testConfig())
	require.NoError(t, err)

	const preCount = 20
	for i := 0; i < preCount; i++ {
		_, err = idx.Insert(randomVector(8, int64(i)), "", nil)
		require.NoError(t, err)
	}

	records := make([]InsertRequest, 500)
	for i := range records {
		records[i] = InsertRequest{Values: randomVector(8, int64(preCount+i))}
	}

	var wg sync.WaitGroup
	stop := make(chan struct{})
	observed := make(chan int, 100000)

	for r := 0; r < 8; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				observed <- idx.Size()
			}
		}()
	}

	inserted := idx.BatchInsert(records)
	close(stop)
	wg.Wait()
	close(observed)

	postCount := preCount + inserted
	require.Equal(t, len(records), inserted)

	for size := range observed {
		if size != preCount && size != postCount {
			t.Fatalf("observed torn batch-insert state: size=%d, want %d or %d", size, preCount, postCount)
		}
	}
}
