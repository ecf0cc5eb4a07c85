package index

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/latticedb/lattice/core"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	idx, err := New(64, core.MetricEuclidean, testConfig())
	require.NoError(t, err)

	vectors := make([][]float32, 100)
	for i := 0; i < 100; i++ {
		v := randomVector(64, int64(i))
		vectors[i] = v
		_, err = idx.Insert(v, idOf(i), map[string]string{"i": idOf(i)})
		require.NoError(t, err)
	}

	path := filepath.Join(t.TempDir(), "t.idx")
	require.NoError(t, idx.Save(path))

	loaded, err := Load(path, 64, core.MetricEuclidean, testConfig())
	require.NoError(t, err)
	assert.Equal(t, 100, loaded.Size())

	for i := 0; i < 10; i++ {
		results, err := loaded.Search(vectors[i], 1, 0)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, idOf(i), results[0].ID)
	}
}

func TestSaveExcludesTombstones(t *testing.T) {
	idx, err := New(4, core.MetricEuclidean, testConfig())
	require.NoError(t, err)

	_, err = idx.Insert([]float32{1, 1, 1, 1}, "a", nil)
	require.NoError(t, err)
	_, err = idx.Insert([]float32{2, 2, 2, 2}, "b", nil)
	require.NoError(t, err)
	require.True(t, idx.Remove("a"))

	path := filepath.Join(t.TempDir(), "t.idx")
	require.NoError(t, idx.Save(path))

	loaded, err := Load(path, 4, core.MetricEuclidean, testConfig())
	require.NoError(t, err)
	assert.Equal(t, 1, loaded.Size())

	_, ok := loaded.Get("a")
	assert.False(t, ok)
	_, ok = loaded.Get("b")
	assert.True(t, ok)
}

func TestEncodeDecodeSnapshot(t *testing.T) {
	idx, err := New(3, core.MetricCosine, testConfig())
	require.NoError(t, err)

	_, err = idx.Insert([]float32{1, 2, 3}, "a", nil)
	require.NoError(t, err)

	graphBytes, metaBytes, err := idx.EncodeSnapshot()
	require.NoError(t, err)
	require.NotEmpty(t, graphBytes)
	require.NotEmpty(t, metaBytes)

	decoded, err := DecodeSnapshot(graphBytes, metaBytes, 3, core.MetricCosine, testConfig())
	require.NoError(t, err)
	assert.Equal(t, 1, decoded.Size())

	rec, ok := decoded.Get("a")
	require.True(t, ok)
	assert.Equal(t, "a", rec.ExternalID)
}

func TestLoadCorruptGraphMagic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "t.idx")

	idx, err := New(2, core.MetricEuclidean, testConfig())
	require.NoError(t, err)
	_, err = idx.Insert([]float32{1, 1}, "a", nil)
	require.NoError(t, err)
	require.NoError(t, idx.Save(path))

	require.NoError(t, os.WriteFile(path, []byte("not a graph file"), 0o644))

	_, err = Load(path, 2, core.MetricEuclidean, testConfig())
	require.Error(t, err)
	var coreErr *core.Error
	require.ErrorAs(t, err, &coreErr)
	assert.Equal(t, core.KindCorruptState, coreErr.Kind)
}
