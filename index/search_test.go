package index

import (
	"math/rand"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/latticedb/lattice/core"
)

func TestSearchExactRecallCosine(t *testing.T) {
	idx, err := New(4, core.MetricCosine, testConfig())
	require.NoError(t, err)

	_, err = idx.Insert([]float32{1, 0, 0, 0}, "a", nil)
	require.NoError(t, err)
	_, err = idx.Insert([]float32{0, 1, 0, 0}, "b", nil)
	require.NoError(t, err)
	_, err = idx.Insert([]float32{0, 0, 1, 0}, "c", nil)
	require.NoError(t, err)

	results, err := idx.Search([]float32{1, 0, 0, 0}, 3, 0)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, "a", results[0].ID)
	assert.LessOrEqual(t, results[0].Score, float32(1e-5))
	ids := []string{results[0].ID, results[1].ID, results[2].ID}
	assert.ElementsMatch(t, []string{"a", "b", "c"}, ids)

	for i := 0; i < len(results)-1; i++ {
		assert.LessOrEqual(t, results[i].Score, results[i+1].Score)
	}
}

func TestSearchInsertedVectorScoresZero(t *testing.T) {
	idx, err := New(3, core.MetricEuclidean, testConfig())
	require.NoError(t, err)

	v := []float32{3, 4, 5}
	_, err = idx.Insert(v, "target", nil)
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		_, err = idx.Insert(randomVector(3, int64(i)), "", nil)
		require.NoError(t, err)
	}

	results, err := idx.Search(v, 5, 0)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "target", results[0].ID)
	assert.InDelta(t, float32(0), results[0].Score, 1e-6)
}

func TestSearchResultCountAndOrder(t *testing.T) {
	idx, err := New(8, core.MetricEuclidean, testConfig())
	require.NoError(t, err)

	for i := 0; i < 30; i++ {
		_, err = idx.Insert(randomVector(8, int64(i)), "", nil)
		require.NoError(t, err)
	}

	results, err := idx.Search(randomVector(8, 999), 10, 0)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(results), 10)
	for i := 0; i < len(results)-1; i++ {
		assert.LessOrEqual(t, results[i].Score, results[i+1].Score)
	}
}

func TestDeleteThenSearch(t *testing.T) {
	idx, err := New(64, core.MetricEuclidean, testConfig())
	require.NoError(t, err)

	vectors := make([][]float32, 100)
	for i := 0; i < 100; i++ {
		v := randomVector(64, int64(i))
		vectors[i] = v
		id := idOf(i)
		_, err = idx.Insert(v, id, nil)
		require.NoError(t, err)
	}

	require.True(t, idx.Remove(idOf(42)))
	assert.Equal(t, 99, idx.Size())

	results, err := idx.Search(vectors[42], 10, 0)
	require.NoError(t, err)
	for _, r := range results {
		assert.NotEqual(t, idOf(42), r.ID)
	}
}

func TestSearchEmptyIndex(t *testing.T) {
	idx, err := New(4, core.MetricEuclidean, testConfig())
	require.NoError(t, err)

	results, err := idx.Search([]float32{1, 2, 3, 4}, 5, 0)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func randomVector(dim int, seed int64) []float32 {
	r := rand.New(rand.NewSource(seed))
	v := make([]float32, dim)
	for i := range v {
		v[i] = r.Float32()
	}
	return v
}

func idOf(i int) string {
	return "id_" + strconv.Itoa(i)
}
