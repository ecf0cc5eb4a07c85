package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/latticedb/lattice/core"
)

func TestBatchSearchMatchesSequentialSearch(t *testing.T) {
	idx, err := New(6, core.MetricEuclidean, testConfig())
	require.NoError(t, err)

	for i := 0; i < 50; i++ {
		_, err = idx.Insert(randomVector(6, int64(i)), "", nil)
		require.NoError(t, err)
	}

	queries := make([][]float32, 20)
	for i := range queries {
		queries[i] = randomVector(6, int64(1000+i))
	}

	batch, err := idx.BatchSearch(queries, 5, 0)
	require.NoError(t, err)
	require.Len(t, batch, len(queries))

	for i, q := range queries {
		single, err := idx.Search(q, 5, 0)
		require.NoError(t, err)
		require.Len(t, batch[i], len(single))

		gotIDs := make([]string, len(batch[i]))
		wantIDs := make([]string, len(single))
		for j := range batch[i] {
			gotIDs[j] = batch[i][j].ID
			wantIDs[j] = single[j].ID
		}
		assert.ElementsMatch(t, wantIDs, gotIDs)
	}
}

func TestBatchSearchLargeBatchFansOut(t *testing.T) {
	idx, err := New(4, core.MetricEuclidean, testConfig())
	require.NoError(t, err)

	for i := 0; i < 200; i++ {
		_, err = idx.Insert(randomVector(4, int64(i)), "", nil)
		require.NoError(t, err)
	}

	queries := make([][]float32, 250)
	for i := range queries {
		queries[i] = randomVector(4, int64(5000+i))
	}

	results, err := idx.BatchSearch(queries, 3, 0)
	require.NoError(t, err)
	require.Len(t, results, len(queries))
	for _, r := range results {
		assert.LessOrEqual(t, len(r), 3)
	}
}

func TestBatchSearchDimensionMismatch(t *testing.T) {
	idx, err := New(4, core.MetricEuclidean, testConfig())
	require.NoError(t, err)

	_, err = idx.Insert([]float32{1, 2, 3, 4}, "a", nil)
	require.NoError(t, err)

	queries := [][]float32{{1, 2, 3, 4}, {1, 2}}
	_, err = idx.BatchSearch(queries, 1, 0)
	require.Error(t, err)
}
