package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/expansion-cli/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func TestSQLite_Indicators_SetAndGet(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	in := &model.EconomicIndicators{
		Population:           84000,
		PopulationGrowthRate: 1.8,
		MedianIncome:         41000,
		IncomeIndex:          1.1,
		GrowthTrajectory:     "moderate_growth",
		DataCompleteness:     0.9,
		DataSource:           "census",
	}
	key := Key(52.37, 4.89, 0, "demographics")
	require.NoError(t, st.SetIndicators(ctx, key, in, time.Hour))

	got, ok, err := st.GetIndicators(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, in, got)
}

func TestSQLite_Indicators_Missing(t *testing.T) {
	st := newTestSQLiteStore(t)

	got, ok, err := st.GetIndicators(context.Background(), "nonexistent")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, got)
}

func TestSQLite_Indicators_ExpiredDeletedLazily(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	key := Key(52.0, 5.0, 0, "demographics")
	require.NoError(t, st.SetIndicators(ctx, key, &model.EconomicIndicators{Population: 1}, -time.Hour))

	_, ok, err := st.GetIndicators(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	// The expired row was removed on read, so a sweep finds nothing.
	n, err := st.DeleteExpired(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSQLite_Anchors_RoundTrip(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	anchors := []model.AnchorLocation{
		{Category: model.AnchorTransport, Subtype: "station", Name: "Centraal", Lat: 52.38, Lng: 4.9, DistanceM: 320, Size: model.AnchorMajor, EstimatedFootfall: 25000, Boost: 19.95},
	}
	key := Key(52.37, 4.89, 1000, string(model.AnchorTransport))
	require.NoError(t, st.SetAnchors(ctx, key, anchors, time.Hour))

	got, ok, err := st.GetAnchors(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, anchors, got)
}

func TestSQLite_Clusters_ReplacedWholesale(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()
	key := RegionKey("utrecht")

	first := []model.PerformanceCluster{{ID: "c1", StoreCount: 3, Strength: 0.5}}
	require.NoError(t, st.SetClusters(ctx, key, first, time.Hour))

	second := []model.PerformanceCluster{
		{ID: "c2", StoreCount: 4, Strength: 0.7},
		{ID: "c3", StoreCount: 3, Strength: 0.4},
	}
	require.NoError(t, st.SetClusters(ctx, key, second, time.Hour))

	got, ok, err := st.GetClusters(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, second, got)
}

func TestSQLite_Suggestions_List(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	for _, id := range []string{"cell-1", "cell-2"} {
		sg := &model.StrategicSuggestion{CellID: id, Confidence: model.ConfidenceMedium}
		require.NoError(t, st.SetSuggestion(ctx, "key-"+id, sg, time.Hour))
	}

	got, err := st.ListSuggestions(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestSQLite_DeleteExpired(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, st.SetSuggestion(ctx, "fresh", &model.StrategicSuggestion{CellID: "a"}, time.Hour))
	require.NoError(t, st.SetSuggestion(ctx, "stale", &model.StrategicSuggestion{CellID: "b"}, -time.Hour))

	n, err := st.DeleteExpired(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}
