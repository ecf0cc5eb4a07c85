package manager

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/latticedb/lattice/core"
	"github.com/latticedb/lattice/index"
	"github.com/latticedb/lattice/persistence"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	return New(persistence.NewMemoryPersistence())
}

func TestCreateAndListCollections(t *testing.T) {
	m := newTestManager(t)
	cfg := core.DefaultCollectionConfig("docs", 4, core.MetricEuclidean)

	require.NoError(t, m.CreateCollection(cfg))
	assert.ElementsMatch(t, []string{"docs"}, m.ListCollections())

	err := m.CreateCollection(cfg)
	require.Error(t, err)
	var coreErr *core.Error
	require.ErrorAs(t, err, &coreErr)
	assert.Equal(t, core.KindAlreadyExists, coreErr.Kind)
}

func TestDeleteCollection(t *testing.T) {
	m := newTestManager(t)
	cfg := core.DefaultCollectionConfig("docs", 4, core.MetricEuclidean)
	require.NoError(t, m.CreateCollection(cfg))

	existed, err := m.DeleteCollection("docs")
	require.NoError(t, err)
	assert.True(t, existed)
	assert.Empty(t, m.ListCollections())

	existed, err = m.DeleteCollection("docs")
	require.NoError(t, err)
	assert.False(t, existed)
}

func TestDataPlanePassthroughs(t *testing.T) {
	m := newTestManager(t)
	cfg := core.DefaultCollectionConfig("docs", 3, core.MetricEuclidean)
	require.NoError(t, m.CreateCollection(cfg))

	id, err := m.Insert("docs", []float32{1, 2, 3}, "a", nil)
	require.NoError(t, err)
	assert.Equal(t, "a", id)

	rec, ok, err := m.Get("docs", "a")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []float32{1, 2, 3}, rec.Values)

	results, err := m.Search("docs", []float32{1, 2, 3}, 1, 0)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "a", results[0].ID)

	inserted, err := m.BatchInsert("docs", []index.InsertRequest{
		{Values: []float32{4, 5, 6}, ID: "b"},
		{Values: []float32{1, 2}, ID: "bad-dim"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, inserted)

	removed, err := m.Remove("docs", "a")
	require.NoError(t, err)
	assert.True(t, removed)
}

func TestUnknownCollectionSurfacesNotFound(t *testing.T) {
	m := newTestManager(t)
	_, err := m.Insert("missing", []float32{1}, "a", nil)
	require.Error(t, err)
	var coreErr *core.Error
	require.ErrorAs(t, err, &coreErr)
	assert.Equal(t, core.KindNotFound, coreErr.Kind)
}

func TestStats(t *testing.T) {
	m := newTestManager(t)
	cfg := core.DefaultCollectionConfig("docs", 2, core.MetricEuclidean)
	require.NoError(t, m.CreateCollection(cfg))
	_, err := m.Insert("docs", []float32{1, 1}, "a", nil)
	require.NoError(t, err)

	stats, err := m.Stats("docs")
	require.NoError(t, err)
	assert.Equal(t, 1, stats.VectorCount)
	assert.Equal(t, 2, stats.Dimension)
}

func TestSaveAllLoadAllRoundTrip(t *testing.T) {
	store := persistence.NewMemoryPersistence()
	m := New(store)
	cfg := core.DefaultCollectionConfig("docs", 2, core.MetricEuclidean)
	require.NoError(t, m.CreateCollection(cfg))
	_, err := m.Insert("docs", []float32{1, 1}, "a", nil)
	require.NoError(t, err)

	require.NoError(t, m.SaveAll())

	m2 := New(store)
	require.NoError(t, m2.LoadAll())
	assert.ElementsMatch(t, []string{"docs"}, m2.ListCollections())

	rec, ok, err := m2.Get("docs", "a")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []float32{1, 1}, rec.Values)
}
